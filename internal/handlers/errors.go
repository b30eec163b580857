package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"leasing_market/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError maps service errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrMissingPricing):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrNoLeaser),
		errors.Is(err, services.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// durationQuery reads ?duration=, defaulting to 36 months.
func durationQuery(c *gin.Context) (int, bool) {
	raw := c.Query("duration")
	if raw == "" {
		return services.DefaultDurationMonths, true
	}
	months, err := strconv.Atoi(raw)
	if err != nil || months <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid duration"})
		return 0, false
	}
	return months, true
}
