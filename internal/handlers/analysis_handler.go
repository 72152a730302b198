package handlers

import (
	"net/http"

	"github.com/joyehuang/atypica-bet/internal/services"

	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	analysis *services.AnalysisService
}

func NewAnalysisHandler(analysis *services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis}
}

// AnalyzeMarket generates and stores an Atypica pick for a market (admin only)
func (h *AnalysisHandler) AnalyzeMarket(c *gin.Context) {
	market, err := h.analysis.GenerateForMarket(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    market,
	})
}
