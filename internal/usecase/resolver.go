package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bodybest/backend/internal/domain"
	"github.com/bodybest/backend/internal/infrastructure/products"
)

// ResolverConfig holds configuration for the resolution pipeline
type ResolverConfig struct {
	RemoteTimeout time.Duration
}

// Resolver orchestrates macro resolution in strict priority order: override
// cache, local fuzzy match plus scaling, then the remote estimator. The
// override cache is seeded from the bundled static table and enriched by
// every successful resolution, so a repeated identical request never reaches
// the network twice in a session.
type Resolver struct {
	catalog    *products.Catalog
	matcher    *ProductMatcher
	quantities *QuantityResolver
	estimator  domain.EstimateClient
	logger     *zap.Logger

	remoteTimeout time.Duration

	mu        sync.RWMutex
	overrides map[string]domain.MacroProfile
}

// NewResolver creates a resolution pipeline over an immutable catalog,
// pre-seeding the override cache from the bundled table.
func NewResolver(
	catalog *products.Catalog,
	seeds []products.SeedOverride,
	estimator domain.EstimateClient,
	config ResolverConfig,
	logger *zap.Logger,
) *Resolver {
	remoteTimeout := config.RemoteTimeout
	if remoteTimeout <= 0 {
		remoteTimeout = 10 * time.Second
	}

	matcher := NewProductMatcher(catalog, logger)
	r := &Resolver{
		catalog:       catalog,
		matcher:       matcher,
		quantities:    NewQuantityResolver(catalog, matcher, logger),
		estimator:     estimator,
		logger:        logger,
		remoteTimeout: remoteTimeout,
		overrides:     make(map[string]domain.MacroProfile, len(seeds)),
	}

	for _, seed := range seeds {
		r.overrides[overrideKey(seed.Food, seed.Quantity)] = seed.Macros
	}

	return r
}

// overrideKey builds the normalized cache key for a (food, quantity) pair.
// Format: "macros:{normalized food}:{normalized quantity}". Identical logical
// inputs always land on the same slot.
func overrideKey(food, quantityRep string) string {
	return fmt.Sprintf("macros:%s:%s", NormalizeQuery(food), NormalizeQuery(quantityRep))
}

// OverrideFor returns the cached profile for a (food, quantity) pair
func (r *Resolver) OverrideFor(food string, q domain.QuantitySignal) (domain.MacroProfile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.overrides[overrideKey(food, q.Representation())]
	return profile, ok
}

// SetOverride stores a resolved profile under the shared key scheme
func (r *Resolver) SetOverride(food string, q domain.QuantitySignal, profile domain.MacroProfile) {
	r.storeOverride(overrideKey(food, q.Representation()), profile)
}

func (r *Resolver) storeOverride(key string, profile domain.MacroProfile) {
	if profile.IsZero() {
		return
	}
	r.mu.Lock()
	r.overrides[key] = profile
	r.mu.Unlock()
}

// Resolve runs the full pipeline. It returns an error only for unusable
// requests (empty description); every downstream failure degrades to a
// Resolution with an empty profile and a non-fatal status, so the caller's
// primary workflow can always proceed.
func (r *Resolver) Resolve(ctx context.Context, req domain.ResolveRequest) (*domain.Resolution, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, domain.ErrInvalidRequest
	}

	if res, ok := r.resolveSync(description, req.Quantity); ok {
		return res, nil
	}

	spec := r.quantities.Resolve(description, req.Quantity)
	if req.Quantity.Empty() && !spec.Resolved() {
		return &domain.Resolution{
			Source: domain.SourceNone,
			Status: domain.StatusNeedsInput,
		}, nil
	}

	return r.resolveRemote(ctx, description, req.Quantity, spec), nil
}

// resolveSync runs the synchronous stages only: override cache, then local
// match and scaling. A local hit also populates the override cache.
func (r *Resolver) resolveSync(description string, q domain.QuantitySignal) (*domain.Resolution, bool) {
	key := overrideKey(description, q.Representation())

	r.mu.RLock()
	profile, ok := r.overrides[key]
	r.mu.RUnlock()
	if ok {
		return &domain.Resolution{
			Profile: profile,
			Source:  domain.SourceOverride,
			Status:  domain.StatusOK,
		}, true
	}

	productKey, ok := r.matcher.Match(description)
	if !ok {
		return nil, false
	}
	product, ok := r.catalog.Get(productKey)
	if !ok {
		return nil, false
	}

	spec := r.quantities.Resolve(description, q)
	if !spec.Resolved() {
		return nil, false
	}

	scaled := ScaleMacros(product, spec.Grams)
	r.storeOverride(key, scaled)

	r.logger.Debug("local resolution",
		zap.String("description", description),
		zap.String("product", productKey),
		zap.Float64("grams", spec.Grams))

	return &domain.Resolution{
		Profile: scaled,
		Grams:   spec.Grams,
		Source:  domain.SourceLocal,
		Status:  domain.StatusOK,
	}, true
}

// resolveRemote is the fallback stage. Failures are swallowed into a
// remote-failed resolution with a soft warning.
func (r *Resolver) resolveRemote(
	ctx context.Context,
	description string,
	q domain.QuantitySignal,
	spec domain.QuantitySpec,
) *domain.Resolution {
	quantityRep := q.Representation()
	if spec.Descriptive != "" {
		quantityRep = spec.Descriptive
	}
	if quantityRep == "" {
		return &domain.Resolution{
			Source: domain.SourceNone,
			Status: domain.StatusNeedsInput,
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.remoteTimeout)
	defer cancel()

	profile, err := r.estimator.Estimate(callCtx, description, quantityRep)
	if err != nil {
		r.logger.Warn("remote estimate failed",
			zap.String("description", description),
			zap.String("quantity", quantityRep),
			zap.Error(err))
		return &domain.Resolution{
			Source:  domain.SourceRemote,
			Status:  domain.StatusRemoteFailed,
			Warning: "nutrient estimate unavailable, macros left empty",
		}
	}

	r.storeOverride(overrideKey(description, q.Representation()), profile)

	return &domain.Resolution{
		Profile: profile,
		Grams:   spec.Grams,
		Source:  domain.SourceRemote,
		Status:  domain.StatusOK,
	}
}
