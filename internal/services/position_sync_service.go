package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joyehuang/atypica-bet/internal/models"
	"github.com/joyehuang/atypica-bet/internal/polymarket"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PositionSyncService struct {
	db            *gorm.DB
	client        *polymarket.Client
	walletAddress string
}

// SyncResult reports how many wallet positions could be matched to markets.
type SyncResult struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
}

func NewPositionSyncService(db *gorm.DB, client *polymarket.Client, walletAddress string) *PositionSyncService {
	return &PositionSyncService{
		db:            db,
		client:        client,
		walletAddress: walletAddress,
	}
}

// SyncPositions pulls the wallet's Polymarket positions and writes the
// derived values onto matching markets. Matching tries the exact title,
// then the title's leading clause, then the event slug recorded in
// external_source. Unmatched positions are counted, not fatal.
func (s *PositionSyncService) SyncPositions(ctx context.Context) (*SyncResult, error) {
	if s.walletAddress == "" {
		return nil, fmt.Errorf("%w: wallet address not configured", models.ErrInvalidInput)
	}

	positions, err := s.client.GetWalletPositions(ctx, s.walletAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}

	result := &SyncResult{}
	now := time.Now()

	for _, position := range positions {
		market, err := s.matchMarket(ctx, position)
		if err != nil {
			log.Printf("[PositionSync] No market for position %q (eventSlug=%s): %v", position.Title, position.EventSlug, err)
			result.Failed++
			continue
		}

		currentValue := decimal.NewFromFloat(position.PercentRealizedPnl / 100)
		winValue := decimal.NewFromFloat(position.TotalBought)

		err = s.db.WithContext(ctx).Model(&models.Market{}).Where("id = ?", market.ID).
			Updates(map[string]interface{}{
				"nft_percent_realized_pnl": position.PercentRealizedPnl,
				"nft_current_value":        currentValue,
				"nft_win_value":            winValue,
				"nft_last_synced":          now,
			}).Error
		if err != nil {
			log.Printf("[PositionSync] Update failed for market %s: %v", market.ID, err)
			result.Failed++
			continue
		}
		result.Synced++
	}

	log.Printf("[PositionSync] Done: synced=%d failed=%d", result.Synced, result.Failed)
	return result, nil
}

func (s *PositionSyncService) matchMarket(ctx context.Context, position polymarket.Position) (*models.Market, error) {
	var market models.Market

	err := s.db.WithContext(ctx).Where("title = ?", position.Title).First(&market).Error
	if err == nil {
		return &market, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	prefix := strings.TrimSpace(strings.SplitN(position.Title, "?", 2)[0])
	if prefix != "" {
		err = s.db.WithContext(ctx).Where("title LIKE ?", prefix+"%").First(&market).Error
		if err == nil {
			return &market, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	if position.EventSlug != "" {
		err = s.db.WithContext(ctx).Where("external_source LIKE ?", "%"+position.EventSlug+"%").First(&market).Error
		if err == nil {
			return &market, nil
		}
		if err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	return nil, models.ErrMarketNotFound
}
