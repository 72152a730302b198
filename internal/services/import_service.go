package services

import (
	"context"
	"fmt"
	"log"

	"github.com/joyehuang/atypica-bet/internal/models"
	"github.com/joyehuang/atypica-bet/internal/repository"

	"gorm.io/gorm"
)

type ImportService struct {
	db *gorm.DB
}

// ImportResult reports the outcome of one batch import.
type ImportResult struct {
	Imported    []models.Market `json:"imported"`
	FailedCount int             `json:"failed_count"`
}

func NewImportService(db *gorm.DB) *ImportService {
	return &ImportService{db: db}
}

// ImportMarkets merges a batch of feed-supplied markets into the store.
// Items are processed sequentially and independently: a failing item is
// logged and skipped, never aborting the rest of the batch. An empty batch
// is the only wholesale error.
func (s *ImportService) ImportMarkets(ctx context.Context, items []models.Market) (*ImportResult, error) {
	if len(items) == 0 {
		return nil, models.ErrEmptyBatch
	}

	result := &ImportResult{Imported: make([]models.Market, 0, len(items))}

	for i := range items {
		item := items[i]
		if err := s.importOne(ctx, &item); err != nil {
			log.Printf("[Import] Skipping market %s: %v (%s)", item.ID, err, repository.StoreErrorDetail(err))
			result.FailedCount++
			continue
		}

		var saved models.Market
		if err := s.db.WithContext(ctx).Preload("Options").Where("id = ?", item.ID).First(&saved).Error; err != nil {
			log.Printf("[Import] Reload failed for market %s: %v", item.ID, err)
			result.FailedCount++
			continue
		}
		result.Imported = append(result.Imported, saved)
	}

	log.Printf("[Import] Batch done: imported=%d failed=%d", len(result.Imported), result.FailedCount)
	return result, nil
}

func (s *ImportService) importOne(ctx context.Context, item *models.Market) error {
	if item.ID == "" || item.Title == "" {
		return fmt.Errorf("%w: market id and title are required", models.ErrInvalidInput)
	}
	normalizeIncoming(item)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Market
		err := tx.Where("id = ?", item.ID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Create(item).Error
		}
		if err != nil {
			return err
		}
		return mergeExisting(tx, &existing, item)
	})
}

// mergeExisting refreshes an already-imported market from the feed. The
// option set is replaced wholesale (outcomes may change between imports);
// feed-owned scalars are overwritten; the curated Atypica fields keep their
// stored value unless the incoming item explicitly supplies one.
func mergeExisting(tx *gorm.DB, existing, incoming *models.Market) error {
	if err := tx.Where("market_id = ?", existing.ID).Delete(&models.Option{}).Error; err != nil {
		return fmt.Errorf("delete options: %w", err)
	}
	for i := range incoming.Options {
		incoming.Options[i].MarketID = existing.ID
	}
	if len(incoming.Options) > 0 {
		if err := tx.Create(&incoming.Options).Error; err != nil {
			return fmt.Errorf("insert options: %w", err)
		}
	}

	fields := map[string]interface{}{
		"title":           incoming.Title,
		"description":     incoming.Description,
		"category":        incoming.Category,
		"status":          incoming.Status,
		"close_date":      incoming.CloseDate,
		"resolve_date":    incoming.ResolveDate,
		"external_source": incoming.ExternalSource,
		"external_data":   incoming.ExternalData,
		"view_count":      incoming.ViewCount,
		"share_count":     incoming.ShareCount,
		"pool_amount":     incoming.PoolAmount,
		"pool_currency":   incoming.PoolCurrency,
	}

	// incoming ?? existing for the curated fields
	fields["atypica_pick_id"] = coalesceStr(incoming.AtypicaPickID, existing.AtypicaPickID)
	fields["atypica_analysis"] = coalesceStr(incoming.AtypicaAnalysis, existing.AtypicaAnalysis)
	fields["accuracy_score"] = coalesceFloat(incoming.AccuracyScore, existing.AccuracyScore)

	if err := tx.Model(&models.Market{}).Where("id = ?", existing.ID).Updates(fields).Error; err != nil {
		return fmt.Errorf("update market: %w", err)
	}
	return nil
}

func normalizeIncoming(item *models.Market) {
	if item.Status == "" {
		item.Status = models.StatusActive
	}
	if item.PoolCurrency == "" {
		item.PoolCurrency = "USD"
	}
	item.AccuracyScore = models.ClampProbPtr(item.AccuracyScore)
	for i := range item.Options {
		item.Options[i].MarketID = item.ID
		item.Options[i].ExternalProb = models.ClampProbPtr(item.Options[i].ExternalProb)
		item.Options[i].AtypicaProb = models.ClampProbPtr(item.Options[i].AtypicaProb)
	}
	if item.ExternalSource != nil && item.ExternalData == nil {
		item.ExternalData = models.JSONB{
			"source":     *item.ExternalSource,
			"originalId": item.ID,
		}
	}
}

func coalesceStr(incoming, existing *string) *string {
	if incoming != nil {
		return incoming
	}
	return existing
}

func coalesceFloat(incoming, existing *float64) *float64 {
	if incoming != nil {
		return incoming
	}
	return existing
}
