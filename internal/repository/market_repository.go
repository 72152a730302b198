package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/joyehuang/atypica-bet/internal/models"

	"gorm.io/gorm"
)

type MarketRepository struct {
	db *gorm.DB
}

func NewMarketRepository(db *gorm.DB) *MarketRepository {
	return &MarketRepository{db: db}
}

// CreateMarket inserts a market together with its options.
func (r *MarketRepository) CreateMarket(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).Create(market).Error
}

// GetMarketByID retrieves a market with its options
func (r *MarketRepository) GetMarketByID(ctx context.Context, id string) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).Preload("Options").Where("id = ?", id).First(&market).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.ErrMarketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// ListMarkets retrieves markets newest-first with optional category/status filters.
func (r *MarketRepository) ListMarkets(ctx context.Context, category, status string, limit, offset int) ([]models.Market, error) {
	var markets []models.Market
	query := r.db.WithContext(ctx).Preload("Options").Order("created_at DESC")

	if category != "" {
		query = query.Where("category = ?", category)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Limit(limit).Offset(offset).Find(&markets).Error; err != nil {
		return nil, err
	}
	return markets, nil
}

// UpdateMarketFields applies a partial update to a market row.
func (r *MarketRepository) UpdateMarketFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Market{}).Where("id = ?", id).Updates(fields).Error
}

// DeleteMarket removes a market and its options in one transaction.
func (r *MarketRepository) DeleteMarket(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("market_id = ?", id).Delete(&models.Option{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Market{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrMarketNotFound
		}
		return nil
	})
}

// IncrementViewCount bumps the view counter without racing other writers.
func (r *MarketRepository) IncrementViewCount(ctx context.Context, id string) error {
	return r.incrementCounter(ctx, id, "view_count")
}

// IncrementShareCount bumps the share counter without racing other writers.
func (r *MarketRepository) IncrementShareCount(ctx context.Context, id string) error {
	return r.incrementCounter(ctx, id, "share_count")
}

func (r *MarketRepository) incrementCounter(ctx context.Context, id, column string) error {
	res := r.db.WithContext(ctx).Model(&models.Market{}).Where("id = ?", id).
		Update(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrMarketNotFound
	}
	return nil
}

// FindExternalMarkets returns non-terminal markets that originated from an
// external feed, for the periodic refresh job.
func (r *MarketRepository) FindExternalMarkets(ctx context.Context) ([]models.Market, error) {
	var markets []models.Market
	err := r.db.WithContext(ctx).
		Where("external_source IS NOT NULL AND status IN ?", []models.MarketStatus{models.StatusActive, models.StatusClosed}).
		Find(&markets).Error
	if err != nil {
		return nil, fmt.Errorf("find external markets: %w", err)
	}
	return markets, nil
}
