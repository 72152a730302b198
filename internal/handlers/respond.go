package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/joyehuang/atypica-bet/internal/models"

	"github.com/gin-gonic/gin"
)

// respondError maps a domain error onto an HTTP status with a simplified
// caller-visible message. Store detail stays in the server logs.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrMarketNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Market not found"})
	case errors.Is(err, models.ErrInvalidWinner):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Winner option does not belong to this market"})
	case errors.Is(err, models.ErrAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "Market is already resolved"})
	case errors.Is(err, models.ErrMarketResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "Market is terminal and cannot be modified"})
	case errors.Is(err, models.ErrEmptyBatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Import batch is empty"})
	case errors.Is(err, models.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUpstream):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream service unavailable"})
	default:
		log.Printf("[HTTP] Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
