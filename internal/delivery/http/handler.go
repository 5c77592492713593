package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bodybest/backend/internal/domain"
	"github.com/bodybest/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	resolver     *usecase.Resolver
	replacements *usecase.ReplacementCache
}

// NewHandler creates a new HTTP handler
func NewHandler(resolver *usecase.Resolver, replacements *usecase.ReplacementCache) *Handler {
	return &Handler{
		resolver:     resolver,
		replacements: replacements,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "bodybest-backend",
		"version": "1.0.0",
	})
}

// ResolveMacros resolves a food description plus quantity signal to a macro
// profile. Pipeline failures are part of the 200 response (status field);
// only an unusable request is a client error.
func (h *Handler) ResolveMacros(c *gin.Context) {
	var req domain.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return
	}

	resolution, err := h.resolver.Resolve(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolution failed"})
		return
	}

	c.JSON(http.StatusOK, resolution)
}

// replacementSlot extracts and validates the dayKey/mealIndex path params
func replacementSlot(c *gin.Context) (string, int, bool) {
	dayKey := c.Param("dayKey")
	mealIndex, err := strconv.Atoi(c.Param("mealIndex"))
	if dayKey == "" || err != nil || mealIndex < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid day key or meal index"})
		return "", 0, false
	}
	return dayKey, mealIndex, true
}

// CacheReplacement stores a user-selected meal replacement for a plan slot
func (h *Handler) CacheReplacement(c *gin.Context) {
	dayKey, mealIndex, ok := replacementSlot(c)
	if !ok {
		return
	}

	var meal domain.MealData
	if err := c.ShouldBindJSON(&meal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal payload"})
		return
	}

	if err := h.replacements.CacheMealReplacement(c.Request.Context(), dayKey, mealIndex, meal); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to cache replacement"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetReplacement returns the replacement cached today for a plan slot
func (h *Handler) GetReplacement(c *gin.Context) {
	dayKey, mealIndex, ok := replacementSlot(c)
	if !ok {
		return
	}

	meal, err := h.replacements.GetCachedMealReplacement(c.Request.Context(), dayKey, mealIndex)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no replacement cached for today"})
		return
	}

	c.JSON(http.StatusOK, meal)
}

// EffectiveMeal returns the meal the rendering layer should show: the
// valid-for-today replacement if one exists, else the original from the
// request body.
func (h *Handler) EffectiveMeal(c *gin.Context) {
	dayKey, mealIndex, ok := replacementSlot(c)
	if !ok {
		return
	}

	var original domain.MealData
	if err := c.ShouldBindJSON(&original); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal payload"})
		return
	}

	c.JSON(http.StatusOK, h.replacements.GetEffectiveMealData(c.Request.Context(), original, dayKey, mealIndex))
}
