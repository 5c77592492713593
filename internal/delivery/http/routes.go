package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bodybest/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		macros := v1.Group("/macros")
		{
			macros.POST("/resolve", handler.ResolveMacros)
		}

		replacements := v1.Group("/replacements")
		{
			replacements.PUT("/:dayKey/:mealIndex", handler.CacheReplacement)
			replacements.GET("/:dayKey/:mealIndex", handler.GetReplacement)
			replacements.POST("/:dayKey/:mealIndex/effective", handler.EffectiveMeal)
		}
	}

	return router
}
