package handlers

import (
	"net/http"

	"github.com/joyehuang/atypica-bet/internal/models"
	"github.com/joyehuang/atypica-bet/internal/polymarket"
	"github.com/joyehuang/atypica-bet/internal/services"

	"github.com/gin-gonic/gin"
)

type ImportHandler struct {
	importer   *services.ImportService
	positions  *services.PositionSyncService
	feedClient *polymarket.Client
}

func NewImportHandler(importer *services.ImportService, positions *services.PositionSyncService, feedClient *polymarket.Client) *ImportHandler {
	return &ImportHandler{
		importer:   importer,
		positions:  positions,
		feedClient: feedClient,
	}
}

// BatchImport merges a batch of markets into the store. The body carries
// either pre-shaped markets or a raw Polymarket event group plus an optional
// selection of sub-market ids.
func (h *ImportHandler) BatchImport(c *gin.Context) {
	var req struct {
		Markets     []models.Market        `json:"markets"`
		EventGroup  *polymarket.EventGroup `json:"event_group"`
		SelectedIDs []string               `json:"selected_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items := req.Markets
	if len(items) == 0 && req.EventGroup != nil {
		selected := make(map[string]bool, len(req.SelectedIDs))
		for _, id := range req.SelectedIDs {
			selected[id] = true
		}
		items = polymarket.ConvertEventGroup(req.EventGroup, selected)
	}

	result, err := h.importer.ImportMarkets(c.Request.Context(), items)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"data":         result.Imported,
		"count":        len(result.Imported),
		"failed_count": result.FailedCount,
	})
}

// GetEventBySlug fetches a Polymarket event group for the admin import flow.
// The slug parameter also accepts a full pasted Polymarket URL.
func (h *ImportHandler) GetEventBySlug(c *gin.Context) {
	slug := polymarket.ExtractSlug(c.Param("slug"))
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing event slug"})
		return
	}

	group, err := h.feedClient.GetEventBySlug(c.Request.Context(), slug)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    group,
	})
}

// SyncPositions pulls wallet positions and writes them onto matching markets
func (h *ImportHandler) SyncPositions(c *gin.Context) {
	result, err := h.positions.SyncPositions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"synced":  result.Synced,
		"failed":  result.Failed,
	})
}
