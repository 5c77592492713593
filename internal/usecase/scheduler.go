package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bodybest/backend/internal/domain"
)

// Scheduler drives resolutions triggered by live input. Each input field gets
// its own debouncer, so at most one remote call is pending per field; every
// new edit cancels and reschedules the pending timer. Results are stamped
// with a generation counter and a stale result is never applied to the
// caller's fields, though it still lands in the override cache.
type Scheduler struct {
	resolver *Resolver
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	fields map[string]*fieldState
}

type fieldState struct {
	debouncer  *Debouncer
	generation uint64
}

// NewScheduler creates a scheduler over a resolver. Interval defaults to the
// standard 500 ms debounce window.
func NewScheduler(resolver *Resolver, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Scheduler{
		resolver: resolver,
		interval: interval,
		logger:   logger,
		fields:   make(map[string]*fieldState),
	}
}

// Schedule resolves a request for one input field. If the override cache or
// a local match answers synchronously, any pending debounce for the field is
// abandoned and apply runs immediately. Otherwise a remote lookup is
// debounced, and apply runs only if no newer edit superseded this one.
func (s *Scheduler) Schedule(fieldID string, req domain.ResolveRequest, apply func(*domain.Resolution)) {
	description := req.Description

	s.mu.Lock()
	state, ok := s.fields[fieldID]
	if !ok {
		state = &fieldState{debouncer: NewDebouncer(s.interval)}
		s.fields[fieldID] = state
	}
	state.generation++
	generation := state.generation
	s.mu.Unlock()

	if res, ok := s.resolver.resolveSync(description, req.Quantity); ok {
		state.debouncer.Cancel()
		apply(res)
		return
	}

	state.debouncer.Schedule(func() {
		res, err := s.resolver.Resolve(context.Background(), req)
		if err != nil {
			s.logger.Warn("scheduled resolution failed",
				zap.String("field", fieldID),
				zap.Error(err))
			return
		}

		s.mu.Lock()
		current := state.generation == generation
		s.mu.Unlock()

		if !current {
			// Superseded while in flight; the result is already cached,
			// applying it would clobber newer input
			s.logger.Debug("discarding stale resolution",
				zap.String("field", fieldID),
				zap.String("description", description))
			return
		}

		apply(res)
	})
}

// CancelPending abandons any pending lookup for the field without firing it
func (s *Scheduler) CancelPending(fieldID string) {
	s.mu.Lock()
	state, ok := s.fields[fieldID]
	if ok {
		state.generation++
	}
	s.mu.Unlock()

	if ok {
		state.debouncer.Cancel()
	}
}

// Pending reports whether the field has a scheduled lookup
func (s *Scheduler) Pending(fieldID string) bool {
	s.mu.Lock()
	state, ok := s.fields[fieldID]
	s.mu.Unlock()

	return ok && state.debouncer.Pending()
}
