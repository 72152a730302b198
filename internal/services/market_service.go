package services

import (
	"context"
	"fmt"
	"time"

	"github.com/joyehuang/atypica-bet/internal/models"
	"github.com/joyehuang/atypica-bet/internal/repository"

	"github.com/google/uuid"
)

type MarketService struct {
	repo *repository.MarketRepository
}

func NewMarketService(repo *repository.MarketRepository) *MarketService {
	return &MarketService{repo: repo}
}

// CreateMarketRequest carries an admin-created market.
type CreateMarketRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Category    models.Category `json:"category" binding:"required"`
	CloseDate   time.Time       `json:"close_date" binding:"required"`
	Options     []struct {
		Text        string   `json:"text" binding:"required"`
		AtypicaProb *float64 `json:"atypica_prob"`
	} `json:"options" binding:"required,min=2"`
	AtypicaPick     string   `json:"atypica_pick"` // option text of the pick
	AtypicaAnalysis *string  `json:"atypica_analysis"`
	AccuracyScore   *float64 `json:"accuracy_score"`
}

// UpdateMarketRequest carries a partial admin edit of a non-terminal market.
type UpdateMarketRequest struct {
	Title           *string              `json:"title"`
	Description     *string              `json:"description"`
	Category        *models.Category     `json:"category"`
	Status          *models.MarketStatus `json:"status"`
	CloseDate       *time.Time           `json:"close_date"`
	AtypicaPickID   *string              `json:"atypica_pick_id"`
	AtypicaAnalysis *string              `json:"atypica_analysis"`
	AccuracyScore   *float64             `json:"accuracy_score"`
}

func (s *MarketService) ListMarkets(ctx context.Context, category, status string, limit, offset int) ([]models.Market, error) {
	return s.repo.ListMarkets(ctx, category, status, limit, offset)
}

func (s *MarketService) GetMarket(ctx context.Context, id string) (*models.Market, error) {
	return s.repo.GetMarketByID(ctx, id)
}

// CreateMarket builds and stores a new ACTIVE market with generated ids.
func (s *MarketService) CreateMarket(ctx context.Context, req CreateMarketRequest) (*models.Market, error) {
	if !models.ValidCategory(req.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", models.ErrInvalidInput, req.Category)
	}

	market := models.Market{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Status:          models.StatusActive,
		CloseDate:       req.CloseDate,
		AtypicaAnalysis: req.AtypicaAnalysis,
		AccuracyScore:   models.ClampProbPtr(req.AccuracyScore),
		PoolCurrency:    "USD",
	}

	for _, opt := range req.Options {
		option := models.Option{
			ID:          uuid.NewString(),
			MarketID:    market.ID,
			Text:        opt.Text,
			AtypicaProb: models.ClampProbPtr(opt.AtypicaProb),
		}
		market.Options = append(market.Options, option)
		if req.AtypicaPick != "" && opt.Text == req.AtypicaPick {
			pickID := option.ID
			market.AtypicaPickID = &pickID
		}
	}

	if req.AtypicaPick != "" && market.AtypicaPickID == nil {
		return nil, fmt.Errorf("%w: atypica pick %q matches no option", models.ErrInvalidInput, req.AtypicaPick)
	}

	if err := s.repo.CreateMarket(ctx, &market); err != nil {
		return nil, fmt.Errorf("create market: %w", err)
	}
	return s.repo.GetMarketByID(ctx, market.ID)
}

// UpdateMarket amends a non-terminal market. The pick, if changed, must
// reference one of the market's own options.
func (s *MarketService) UpdateMarket(ctx context.Context, id string, req UpdateMarketRequest) (*models.Market, error) {
	market, err := s.repo.GetMarketByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if market.Status.Terminal() {
		return nil, models.ErrMarketResolved
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Category != nil {
		if !models.ValidCategory(*req.Category) {
			return nil, fmt.Errorf("%w: unknown category %q", models.ErrInvalidInput, *req.Category)
		}
		fields["category"] = *req.Category
	}
	if req.Status != nil {
		// Terminal states are only reachable through resolution.
		if req.Status.Terminal() {
			return nil, fmt.Errorf("%w: terminal status requires resolve", models.ErrInvalidInput)
		}
		fields["status"] = *req.Status
	}
	if req.CloseDate != nil {
		fields["close_date"] = *req.CloseDate
	}
	if req.AtypicaPickID != nil {
		if market.OptionByID(*req.AtypicaPickID) == nil {
			return nil, fmt.Errorf("%w: pick %q matches no option", models.ErrInvalidInput, *req.AtypicaPickID)
		}
		fields["atypica_pick_id"] = *req.AtypicaPickID
	}
	if req.AtypicaAnalysis != nil {
		fields["atypica_analysis"] = *req.AtypicaAnalysis
	}
	if req.AccuracyScore != nil {
		fields["accuracy_score"] = *models.ClampProbPtr(req.AccuracyScore)
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateMarketFields(ctx, id, fields); err != nil {
			return nil, fmt.Errorf("update market %s: %w", id, err)
		}
	}
	return s.repo.GetMarketByID(ctx, id)
}

func (s *MarketService) DeleteMarket(ctx context.Context, id string) error {
	return s.repo.DeleteMarket(ctx, id)
}

func (s *MarketService) RecordView(ctx context.Context, id string) error {
	return s.repo.IncrementViewCount(ctx, id)
}

func (s *MarketService) RecordShare(ctx context.Context, id string) error {
	return s.repo.IncrementShareCount(ctx, id)
}
