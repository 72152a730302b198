package handlers

import (
	"net/http"
	"strconv"

	"github.com/joyehuang/atypica-bet/internal/services"

	"github.com/gin-gonic/gin"
)

type MarketHandler struct {
	markets    *services.MarketService
	resolution *services.ResolutionService
}

func NewMarketHandler(markets *services.MarketService, resolution *services.ResolutionService) *MarketHandler {
	return &MarketHandler{markets: markets, resolution: resolution}
}

// GetMarkets returns all markets with optional category/status filtering
func (h *MarketHandler) GetMarkets(c *gin.Context) {
	category := c.Query("category")
	status := c.Query("status")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	markets, err := h.markets.ListMarkets(c.Request.Context(), category, status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    markets,
		"count":   len(markets),
	})
}

// GetMarketByID returns a specific market with its options
func (h *MarketHandler) GetMarketByID(c *gin.Context) {
	market, err := h.markets.GetMarket(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    market,
	})
}

// CreateMarket creates a new market (admin only)
func (h *MarketHandler) CreateMarket(c *gin.Context) {
	var req services.CreateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	market, err := h.markets.CreateMarket(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    market,
	})
}

// UpdateMarket amends a non-terminal market (admin only)
func (h *MarketHandler) UpdateMarket(c *gin.Context) {
	var req services.UpdateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	market, err := h.markets.UpdateMarket(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    market,
	})
}

// DeleteMarket removes a market and its options (admin only)
func (h *MarketHandler) DeleteMarket(c *gin.Context) {
	if err := h.markets.DeleteMarket(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RecordView bumps a market's view counter
func (h *MarketHandler) RecordView(c *gin.Context) {
	if err := h.markets.RecordView(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RecordShare bumps a market's share counter
func (h *MarketHandler) RecordShare(c *gin.Context) {
	if err := h.markets.RecordShare(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ResolveMarket declares the winning option of a market (admin only)
func (h *MarketHandler) ResolveMarket(c *gin.Context) {
	var req struct {
		WinnerOptionID string `json:"winner_option_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	market, err := h.resolution.ResolveMarket(c.Request.Context(), c.Param("id"), req.WinnerOptionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Market resolved",
		"data":    market,
	})
}
