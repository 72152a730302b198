package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joyehuang/atypica-bet/internal/models"
)

func TestResolveMarketAtypicaCorrect(t *testing.T) {
	db := setupTestDB(t)
	createBinaryMarket(t, db, "m1")

	service := NewResolutionService(db)
	resolved, err := service.ResolveMarket(context.Background(), "m1", "m1-yes")
	if err != nil {
		t.Fatalf("ResolveMarket failed: %v", err)
	}

	if resolved.Status != models.StatusSuccessful {
		t.Errorf("Expected status SUCCESSFUL, got %s", resolved.Status)
	}
	if resolved.ResolveDate == nil {
		t.Error("Expected resolve_date to be set")
	}

	for _, opt := range resolved.Options {
		wantWinner := opt.ID == "m1-yes"
		if opt.IsWinner != wantWinner {
			t.Errorf("Option %s: is_winner = %v, want %v", opt.ID, opt.IsWinner, wantWinner)
		}
	}
}

func TestResolveMarketAtypicaWrong(t *testing.T) {
	db := setupTestDB(t)
	createBinaryMarket(t, db, "m1")

	service := NewResolutionService(db)
	resolved, err := service.ResolveMarket(context.Background(), "m1", "m1-no")
	if err != nil {
		t.Fatalf("ResolveMarket failed: %v", err)
	}

	if resolved.Status != models.StatusFailed {
		t.Errorf("Expected status FAILED, got %s", resolved.Status)
	}

	winner := resolved.OptionByID("m1-no")
	loser := resolved.OptionByID("m1-yes")
	if winner == nil || !winner.IsWinner {
		t.Error("Expected no option to be the winner")
	}
	if loser == nil || loser.IsWinner {
		t.Error("Expected yes option to not be the winner")
	}
}

func TestResolveMarketTwiceConflicts(t *testing.T) {
	db := setupTestDB(t)
	createBinaryMarket(t, db, "m1")

	service := NewResolutionService(db)
	if _, err := service.ResolveMarket(context.Background(), "m1", "m1-yes"); err != nil {
		t.Fatalf("First resolve failed: %v", err)
	}

	_, err := service.ResolveMarket(context.Background(), "m1", "m1-no")
	if !errors.Is(err, models.ErrAlreadyResolved) {
		t.Fatalf("Expected ErrAlreadyResolved, got %v", err)
	}

	// The final state reflects only the first call.
	var market models.Market
	if err := db.Preload("Options").Where("id = ?", "m1").First(&market).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if market.Status != models.StatusSuccessful {
		t.Errorf("Expected status SUCCESSFUL after conflicting resolve, got %s", market.Status)
	}
	if opt := market.OptionByID("m1-yes"); opt == nil || !opt.IsWinner {
		t.Error("Expected first winner to remain flagged")
	}
}

func TestResolveMarketUnknownWinner(t *testing.T) {
	db := setupTestDB(t)
	createBinaryMarket(t, db, "m1")

	service := NewResolutionService(db)
	_, err := service.ResolveMarket(context.Background(), "m1", "not-an-option")
	if !errors.Is(err, models.ErrInvalidWinner) {
		t.Fatalf("Expected ErrInvalidWinner, got %v", err)
	}

	// Status must be untouched by the rejected call.
	var market models.Market
	if err := db.Where("id = ?", "m1").First(&market).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if market.Status != models.StatusActive {
		t.Errorf("Expected status ACTIVE, got %s", market.Status)
	}
	if market.ResolveDate != nil {
		t.Error("Expected resolve_date to stay unset")
	}
}

func TestResolveMarketNotFound(t *testing.T) {
	db := setupTestDB(t)

	service := NewResolutionService(db)
	_, err := service.ResolveMarket(context.Background(), "missing", "whatever")
	if !errors.Is(err, models.ErrMarketNotFound) {
		t.Fatalf("Expected ErrMarketNotFound, got %v", err)
	}
}

func TestResolveClosedMarket(t *testing.T) {
	db := setupTestDB(t)
	market := createBinaryMarket(t, db, "m1")
	if err := db.Model(market).Update("status", models.StatusClosed).Error; err != nil {
		t.Fatalf("failed to close market: %v", err)
	}

	service := NewResolutionService(db)
	resolved, err := service.ResolveMarket(context.Background(), "m1", "m1-yes")
	if err != nil {
		t.Fatalf("ResolveMarket from CLOSED failed: %v", err)
	}
	if resolved.Status != models.StatusSuccessful {
		t.Errorf("Expected status SUCCESSFUL, got %s", resolved.Status)
	}
}

func TestResolveWinnerExclusivity(t *testing.T) {
	db := setupTestDB(t)

	pick := "m2-b"
	market := models.Market{
		ID:            "m2",
		Title:         "Who wins the finals?",
		Category:      models.CategorySports,
		Status:        models.StatusActive,
		CloseDate:     time.Now().Add(time.Hour),
		AtypicaPickID: &pick,
		Options: []models.Option{
			{ID: "m2-a", MarketID: "m2", Text: "Team A"},
			{ID: "m2-b", MarketID: "m2", Text: "Team B"},
			{ID: "m2-c", MarketID: "m2", Text: "Team C"},
			{ID: "m2-d", MarketID: "m2", Text: "Team D"},
		},
	}
	if err := db.Create(&market).Error; err != nil {
		t.Fatalf("failed to create market: %v", err)
	}

	service := NewResolutionService(db)
	resolved, err := service.ResolveMarket(context.Background(), "m2", "m2-c")
	if err != nil {
		t.Fatalf("ResolveMarket failed: %v", err)
	}

	winners := 0
	for _, opt := range resolved.Options {
		if opt.IsWinner {
			winners++
			if opt.ID != "m2-c" {
				t.Errorf("Unexpected winner %s", opt.ID)
			}
		}
	}
	if winners != 1 {
		t.Errorf("Expected exactly 1 winner, got %d", winners)
	}
	if resolved.Status != models.StatusFailed {
		t.Errorf("Expected status FAILED (pick was m2-b), got %s", resolved.Status)
	}
}
