package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bodybest/backend/config"
	httpDelivery "github.com/bodybest/backend/internal/delivery/http"
	"github.com/bodybest/backend/internal/domain"
	"github.com/bodybest/backend/internal/infrastructure/estimate"
	"github.com/bodybest/backend/internal/infrastructure/kvstore"
	"github.com/bodybest/backend/internal/infrastructure/products"
	"github.com/bodybest/backend/internal/usecase"
	"github.com/bodybest/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	log := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Server.Environment == "development",
	})
	defer log.Sync()

	log.Info("starting bodybest backend",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cacheType", cfg.Cache.Type))

	// Load the immutable product catalog and override seed table
	catalog, seeds, err := products.Load()
	if err != nil {
		log.Fatal("failed to load product catalog", zap.Error(err))
	}
	log.Info("product catalog loaded",
		zap.Int("products", catalog.Len()),
		zap.Int("seededOverrides", len(seeds)))

	// Replacement cache store: in-memory by default, redis when configured
	var store domain.KVStore
	switch cfg.Cache.Type {
	case "redis":
		ttl := time.Duration(cfg.Cache.RetentionDays+1) * 24 * time.Hour
		redisStore, err := kvstore.NewRedisStore(cfg.Cache.RedisURL, ttl, log)
		if err != nil {
			log.Fatal("failed to connect replacement store", zap.Error(err))
		}
		defer redisStore.Close()
		store = redisStore
	default:
		store = kvstore.NewMemoryStore()
	}

	estimateClient := estimate.NewClient(estimate.Config{
		BaseURL:        cfg.Estimate.BaseURL,
		APIKey:         cfg.Estimate.APIKey,
		Timeout:        cfg.Estimate.Timeout,
		RequestsPerMin: cfg.Estimate.RequestsPerMin,
	}, log)

	resolver := usecase.NewResolver(catalog, seeds, estimateClient, usecase.ResolverConfig{
		RemoteTimeout: cfg.Estimate.Timeout,
	}, log)

	replacements := usecase.NewReplacementCache(store, cfg.Cache.RetentionDays, log)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(resolver, replacements)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, log)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info("server listening", zap.String("addr", addr))

	if err := router.Run(addr); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
