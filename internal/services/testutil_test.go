package services

import (
	"testing"
	"time"

	"github.com/joyehuang/atypica-bet/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&models.Market{}, &models.Option{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	return db
}

func strPtr(s string) *string {
	return &s
}

func floatPtr(f float64) *float64 {
	return &f
}

// createBinaryMarket stores an ACTIVE yes/no market whose Atypica pick is
// the "yes" option, and returns it with options loaded.
func createBinaryMarket(t *testing.T, db *gorm.DB, id string) *models.Market {
	t.Helper()

	yesID := id + "-yes"
	market := models.Market{
		ID:            id,
		Title:         "Will it happen?",
		Description:   "A test market",
		Category:      models.CategoryTech,
		Status:        models.StatusActive,
		CloseDate:     time.Now().Add(24 * time.Hour),
		AtypicaPickID: &yesID,
		AccuracyScore: floatPtr(0.7),
		PoolCurrency:  "USD",
		Options: []models.Option{
			{ID: yesID, MarketID: id, Text: "Yes", AtypicaProb: floatPtr(0.7)},
			{ID: id + "-no", MarketID: id, Text: "No", AtypicaProb: floatPtr(0.3)},
		},
	}
	if err := db.Create(&market).Error; err != nil {
		t.Fatalf("failed to create market: %v", err)
	}
	return &market
}
