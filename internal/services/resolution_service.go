package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/joyehuang/atypica-bet/internal/models"

	"gorm.io/gorm"
)

type ResolutionService struct {
	db *gorm.DB
	mu sync.Mutex
}

func NewResolutionService(db *gorm.DB) *ResolutionService {
	return &ResolutionService{
		db: db,
	}
}

// ResolveMarket declares the winning option of a market and records whether
// the stored Atypica pick matched it. The market moves to SUCCESSFUL when the
// pick was right, FAILED otherwise. Resolution happens at most once: a market
// already in a terminal state yields models.ErrAlreadyResolved and keeps the
// outcome of the first call.
func (s *ResolutionService) ResolveMarket(ctx context.Context, marketID, winnerOptionID string) (*models.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var market models.Market
	if err := s.db.WithContext(ctx).Preload("Options").Where("id = ?", marketID).First(&market).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.ErrMarketNotFound
		}
		return nil, fmt.Errorf("load market %s: %w", marketID, err)
	}

	// Validate the winner reference before touching status. A dangling
	// winner id must not desynchronize the is_winner flags.
	if market.OptionByID(winnerOptionID) == nil {
		return nil, models.ErrInvalidWinner
	}

	if market.Status.Terminal() {
		return nil, models.ErrAlreadyResolved
	}

	correct := market.AtypicaPickID != nil && *market.AtypicaPickID == winnerOptionID
	newStatus := models.StatusFailed
	if correct {
		newStatus = models.StatusSuccessful
	}
	now := time.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The status write is conditioned on the market still being
		// non-terminal, so a concurrent resolver in another process
		// observes a conflict instead of overwriting the first outcome.
		res := tx.Model(&models.Market{}).
			Where("id = ? AND status IN ?", marketID, []models.MarketStatus{models.StatusActive, models.StatusClosed}).
			Updates(map[string]interface{}{
				"status":       newStatus,
				"resolve_date": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.ErrAlreadyResolved
		}

		// Winner sweep: exactly one option ends up flagged. Both updates
		// run inside the same transaction as the status change.
		if err := tx.Model(&models.Option{}).
			Where("market_id = ? AND id = ?", marketID, winnerOptionID).
			Update("is_winner", true).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Option{}).
			Where("market_id = ? AND id <> ?", marketID, winnerOptionID).
			Update("is_winner", false).Error; err != nil {
			return err
		}
		return nil
	})
	if err == models.ErrAlreadyResolved {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("resolve market %s: %w", marketID, err)
	}

	log.Printf("[Resolution] Market %s resolved: winner=%s atypica_correct=%v status=%s",
		marketID, winnerOptionID, correct, newStatus)

	var resolved models.Market
	if err := s.db.WithContext(ctx).Preload("Options").Where("id = ?", marketID).First(&resolved).Error; err != nil {
		return nil, fmt.Errorf("reload market %s: %w", marketID, err)
	}
	return &resolved, nil
}
