package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joyehuang/atypica-bet/internal/models"
)

func importItem(id, title string) models.Market {
	return models.Market{
		ID:             id,
		Title:          title,
		Description:    "imported",
		Category:       models.CategorySports,
		Status:         models.StatusActive,
		CloseDate:      time.Now().Add(48 * time.Hour),
		ExternalSource: strPtr("Polymarket:Test Event"),
		Options: []models.Option{
			{ID: id + "-0", Text: "Yes", ExternalProb: floatPtr(0.45)},
			{ID: id + "-1", Text: "No", ExternalProb: floatPtr(0.55)},
		},
	}
}

func TestImportCreatesNewMarket(t *testing.T) {
	db := setupTestDB(t)
	service := NewImportService(db)

	result, err := service.ImportMarkets(context.Background(), []models.Market{importItem("poly-1", "New market")})
	if err != nil {
		t.Fatalf("ImportMarkets failed: %v", err)
	}
	if len(result.Imported) != 1 || result.FailedCount != 0 {
		t.Fatalf("Expected 1 imported / 0 failed, got %d / %d", len(result.Imported), result.FailedCount)
	}

	saved := result.Imported[0]
	if len(saved.Options) != 2 {
		t.Errorf("Expected 2 options, got %d", len(saved.Options))
	}
	if saved.ExternalData["originalId"] != "poly-1" {
		t.Errorf("Expected external data originalId poly-1, got %v", saved.ExternalData["originalId"])
	}
}

func TestImportPreservesCuratedFields(t *testing.T) {
	db := setupTestDB(t)
	service := NewImportService(db)

	first := importItem("poly-1", "Original title")
	first.AtypicaPickID = strPtr("poly-1-0")
	first.AtypicaAnalysis = strPtr("A")
	first.AccuracyScore = floatPtr(0.8)

	if _, err := service.ImportMarkets(context.Background(), []models.Market{first}); err != nil {
		t.Fatalf("First import failed: %v", err)
	}

	// Re-import the same id without any curated fields.
	second := importItem("poly-1", "Refreshed title")
	result, err := service.ImportMarkets(context.Background(), []models.Market{second})
	if err != nil {
		t.Fatalf("Second import failed: %v", err)
	}

	saved := result.Imported[0]
	if saved.Title != "Refreshed title" {
		t.Errorf("Expected feed-owned title to refresh, got %q", saved.Title)
	}
	if saved.AtypicaAnalysis == nil || *saved.AtypicaAnalysis != "A" {
		t.Errorf("Expected curated analysis to survive re-import, got %v", saved.AtypicaAnalysis)
	}
	if saved.AtypicaPickID == nil || *saved.AtypicaPickID != "poly-1-0" {
		t.Errorf("Expected curated pick to survive re-import, got %v", saved.AtypicaPickID)
	}
	if saved.AccuracyScore == nil || *saved.AccuracyScore != 0.8 {
		t.Errorf("Expected curated score to survive re-import, got %v", saved.AccuracyScore)
	}
}

func TestImportOverridesCuratedWhenSupplied(t *testing.T) {
	db := setupTestDB(t)
	service := NewImportService(db)

	first := importItem("poly-1", "Title")
	first.AtypicaAnalysis = strPtr("A")
	if _, err := service.ImportMarkets(context.Background(), []models.Market{first}); err != nil {
		t.Fatalf("First import failed: %v", err)
	}

	second := importItem("poly-1", "Title")
	second.AtypicaAnalysis = strPtr("B")
	result, err := service.ImportMarkets(context.Background(), []models.Market{second})
	if err != nil {
		t.Fatalf("Second import failed: %v", err)
	}

	if got := result.Imported[0].AtypicaAnalysis; got == nil || *got != "B" {
		t.Errorf("Expected explicit incoming analysis to win, got %v", got)
	}
}

func TestImportReplacesOptionSet(t *testing.T) {
	db := setupTestDB(t)
	service := NewImportService(db)

	if _, err := service.ImportMarkets(context.Background(), []models.Market{importItem("poly-1", "Title")}); err != nil {
		t.Fatalf("First import failed: %v", err)
	}

	second := importItem("poly-1", "Title")
	second.Options = []models.Option{
		{ID: "poly-1-a", Text: "Option A", ExternalProb: floatPtr(0.3)},
		{ID: "poly-1-b", Text: "Option B", ExternalProb: floatPtr(0.3)},
		{ID: "poly-1-c", Text: "Option C", ExternalProb: floatPtr(0.4)},
	}
	result, err := service.ImportMarkets(context.Background(), []models.Market{second})
	if err != nil {
		t.Fatalf("Second import failed: %v", err)
	}

	saved := result.Imported[0]
	if len(saved.Options) != 3 {
		t.Fatalf("Expected option set to be replaced with 3 options, got %d", len(saved.Options))
	}

	var orphans int64
	db.Model(&models.Option{}).Where("id IN ?", []string{"poly-1-0", "poly-1-1"}).Count(&orphans)
	if orphans != 0 {
		t.Errorf("Expected old options to be deleted, found %d", orphans)
	}
}

func TestImportBatchResilience(t *testing.T) {
	db := setupTestDB(t)
	service := NewImportService(db)

	good1 := importItem("poly-1", "Good one")

	// This item collides with poly-1's option primary key, so its insert
	// violates a store constraint.
	bad := importItem("poly-2", "Bad one")
	bad.Options[0].ID = "poly-1-0"

	good2 := importItem("poly-3", "Good two")

	result, err := service.ImportMarkets(context.Background(), []models.Market{good1, bad, good2})
	if err != nil {
		t.Fatalf("ImportMarkets failed: %v", err)
	}

	if len(result.Imported) != 2 {
		t.Errorf("Expected 2 imported markets, got %d", len(result.Imported))
	}
	if result.FailedCount != 1 {
		t.Errorf("Expected 1 failed item, got %d", result.FailedCount)
	}

	var count int64
	db.Model(&models.Market{}).Where("id = ?", "poly-2").Count(&count)
	if count != 0 {
		t.Error("Expected failing item to be rolled back entirely")
	}
}

func TestImportEmptyBatch(t *testing.T) {
	db := setupTestDB(t)
	service := NewImportService(db)

	_, err := service.ImportMarkets(context.Background(), nil)
	if !errors.Is(err, models.ErrEmptyBatch) {
		t.Fatalf("Expected ErrEmptyBatch, got %v", err)
	}
}

func TestImportClampsProbabilities(t *testing.T) {
	db := setupTestDB(t)
	service := NewImportService(db)

	item := importItem("poly-1", "Out of range")
	item.Options[0].ExternalProb = floatPtr(1.5)
	item.Options[1].ExternalProb = floatPtr(-0.25)
	item.AccuracyScore = floatPtr(2.0)

	result, err := service.ImportMarkets(context.Background(), []models.Market{item})
	if err != nil {
		t.Fatalf("ImportMarkets failed: %v", err)
	}

	saved := result.Imported[0]
	if saved.AccuracyScore == nil || *saved.AccuracyScore != 1.0 {
		t.Errorf("Expected accuracy score clamped to 1.0, got %v", saved.AccuracyScore)
	}
	for _, opt := range saved.Options {
		if opt.ExternalProb == nil {
			t.Fatalf("Option %s lost its probability", opt.ID)
		}
		if *opt.ExternalProb < 0 || *opt.ExternalProb > 1 {
			t.Errorf("Option %s probability %f outside [0,1]", opt.ID, *opt.ExternalProb)
		}
	}
}
