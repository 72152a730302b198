package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/joyehuang/atypica-bet/internal/models"
)

type stubGenerator struct {
	reply string
	err   error
}

func (s *stubGenerator) GenerateAnalysis(ctx context.Context, title, description string, options []string) (string, error) {
	return s.reply, s.err
}

func TestGenerateForMarketStoresPickAndScore(t *testing.T) {
	db := setupTestDB(t)
	createBinaryMarket(t, db, "m1")

	gen := &stubGenerator{reply: "[REASONING]: Momentum favors no.\n[PICK]: No\n[SCORE]: 64"}
	service := NewAnalysisService(db, gen)

	market, err := service.GenerateForMarket(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GenerateForMarket failed: %v", err)
	}

	if market.AtypicaPickID == nil || *market.AtypicaPickID != "m1-no" {
		t.Errorf("Expected pick m1-no, got %v", market.AtypicaPickID)
	}
	if market.AccuracyScore == nil || *market.AccuracyScore != 0.64 {
		t.Errorf("Expected accuracy 0.64, got %v", market.AccuracyScore)
	}
	if market.AtypicaAnalysis == nil || *market.AtypicaAnalysis != "Momentum favors no." {
		t.Errorf("Expected reasoning stored as analysis, got %v", market.AtypicaAnalysis)
	}
}

func TestGenerateForMarketUnmatchedPickKeepsPrevious(t *testing.T) {
	db := setupTestDB(t)
	createBinaryMarket(t, db, "m1")

	gen := &stubGenerator{reply: "[PICK]: Maybe\n[SCORE]: 90"}
	service := NewAnalysisService(db, gen)

	market, err := service.GenerateForMarket(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GenerateForMarket failed: %v", err)
	}

	// The seeded pick (yes) stays in place when the reply names no option.
	if market.AtypicaPickID == nil || *market.AtypicaPickID != "m1-yes" {
		t.Errorf("Expected previous pick to survive, got %v", market.AtypicaPickID)
	}
	if market.AccuracyScore == nil || *market.AccuracyScore != 0.9 {
		t.Errorf("Expected accuracy 0.9, got %v", market.AccuracyScore)
	}
}

func TestGenerateForMarketUpstreamFailure(t *testing.T) {
	db := setupTestDB(t)
	createBinaryMarket(t, db, "m1")

	gen := &stubGenerator{err: fmt.Errorf("api quota exceeded")}
	service := NewAnalysisService(db, gen)

	_, err := service.GenerateForMarket(context.Background(), "m1")
	if !errors.Is(err, models.ErrUpstream) {
		t.Fatalf("Expected ErrUpstream, got %v", err)
	}
}

func TestGenerateForMarketTerminalRejected(t *testing.T) {
	db := setupTestDB(t)
	market := createBinaryMarket(t, db, "m1")
	if err := db.Model(market).Update("status", models.StatusSuccessful).Error; err != nil {
		t.Fatalf("failed to update status: %v", err)
	}

	service := NewAnalysisService(db, &stubGenerator{reply: "[PICK]: Yes\n[SCORE]: 80"})
	_, err := service.GenerateForMarket(context.Background(), "m1")
	if !errors.Is(err, models.ErrMarketResolved) {
		t.Fatalf("Expected ErrMarketResolved, got %v", err)
	}
}
