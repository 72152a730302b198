package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/joyehuang/atypica-bet/internal/models"

	"gorm.io/gorm"
)

// AnalysisGenerator is the text-generation collaborator. Given a topic and
// its options it returns free text carrying the labeled sections that
// ParseAnalysis extracts.
type AnalysisGenerator interface {
	GenerateAnalysis(ctx context.Context, title, description string, options []string) (string, error)
}

type AnalysisService struct {
	db        *gorm.DB
	generator AnalysisGenerator
}

func NewAnalysisService(db *gorm.DB, generator AnalysisGenerator) *AnalysisService {
	return &AnalysisService{db: db, generator: generator}
}

// GenerateForMarket produces an Atypica pick, rationale and confidence for a
// non-terminal market and persists them. Generator failure surfaces as an
// upstream error; a reply missing the expected markers degrades to neutral
// defaults instead of failing.
func (s *AnalysisService) GenerateForMarket(ctx context.Context, marketID string) (*models.Market, error) {
	var market models.Market
	if err := s.db.WithContext(ctx).Preload("Options").Where("id = ?", marketID).First(&market).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.ErrMarketNotFound
		}
		return nil, fmt.Errorf("load market %s: %w", marketID, err)
	}
	if market.Status.Terminal() {
		return nil, models.ErrMarketResolved
	}
	if len(market.Options) == 0 {
		return nil, fmt.Errorf("%w: market %s has no options", models.ErrInvalidInput, marketID)
	}

	texts := make([]string, len(market.Options))
	for i, opt := range market.Options {
		texts[i] = opt.Text
	}

	raw, err := s.generator.GenerateAnalysis(ctx, market.Title, market.Description, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}

	parsed := ParseAnalysis(raw)
	score := models.ClampProb(float64(parsed.Score) / 100)

	analysis := parsed.Reasoning
	if analysis == "" {
		analysis = strings.TrimSpace(raw)
	}

	fields := map[string]interface{}{
		"atypica_analysis": analysis,
		"accuracy_score":   score,
	}

	if pick := matchOption(market.Options, parsed.Pick); pick != nil {
		fields["atypica_pick_id"] = pick.ID
	} else {
		log.Printf("[Analysis] Market %s: pick %q matched no option, keeping previous pick", marketID, parsed.Pick)
	}

	if err := s.db.WithContext(ctx).Model(&models.Market{}).Where("id = ?", marketID).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("store analysis for %s: %w", marketID, err)
	}

	var updated models.Market
	if err := s.db.WithContext(ctx).Preload("Options").Where("id = ?", marketID).First(&updated).Error; err != nil {
		return nil, fmt.Errorf("reload market %s: %w", marketID, err)
	}
	return &updated, nil
}

// matchOption finds the option whose text matches the generated pick,
// exact first, then case-insensitive.
func matchOption(options []models.Option, pick string) *models.Option {
	pick = strings.TrimSpace(pick)
	if pick == "" {
		return nil
	}
	for i := range options {
		if options[i].Text == pick {
			return &options[i]
		}
	}
	for i := range options {
		if strings.EqualFold(options[i].Text, pick) {
			return &options[i]
		}
	}
	return nil
}
