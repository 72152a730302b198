package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// MarketStatus is the lifecycle state of a market.
type MarketStatus string

const (
	StatusActive     MarketStatus = "ACTIVE"
	StatusClosed     MarketStatus = "CLOSED"
	StatusSuccessful MarketStatus = "SUCCESSFUL"
	StatusFailed     MarketStatus = "FAILED"
)

// Terminal reports whether the status is one of the two resolved states.
// A terminal market can never be resolved again.
func (s MarketStatus) Terminal() bool {
	return s == StatusSuccessful || s == StatusFailed
}

// Category classifies a market.
type Category string

const (
	CategoryTech          Category = "TECH"
	CategoryFinance       Category = "FINANCE"
	CategorySports        Category = "SPORTS"
	CategoryEntertainment Category = "ENTERTAINMENT"
)

var Categories = []Category{CategoryTech, CategoryFinance, CategorySports, CategoryEntertainment}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// JSONB for PostgreSQL JSON support
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, &j)
}

// Market represents a prediction market with its Atypica pick
type Market struct {
	ID          string       `gorm:"primaryKey;size:64" json:"id"`
	Title       string       `gorm:"size:500;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Category    Category     `gorm:"size:50;not null;index" json:"category"`
	Status      MarketStatus `gorm:"size:20;default:ACTIVE;index" json:"status"`
	CloseDate   time.Time    `gorm:"not null" json:"close_date"`
	ResolveDate *time.Time   `json:"resolve_date,omitempty"`

	// Atypica prediction fields, curated in-house and never
	// overwritten by a feed import that omits them.
	AtypicaPickID   *string  `gorm:"size:64" json:"atypica_pick_id,omitempty"`
	AtypicaAnalysis *string  `gorm:"type:text" json:"atypica_analysis,omitempty"`
	AccuracyScore   *float64 `json:"accuracy_score,omitempty"`

	ExternalSource *string `gorm:"size:255;index" json:"external_source,omitempty"`
	ExternalData   JSONB   `gorm:"type:jsonb" json:"external_data,omitempty"`

	ViewCount    int64            `gorm:"default:0" json:"view_count"`
	ShareCount   int64            `gorm:"default:0" json:"share_count"`
	PoolAmount   *decimal.Decimal `gorm:"type:decimal(18,2)" json:"pool_amount,omitempty"`
	PoolCurrency string           `gorm:"size:10;default:USD" json:"pool_currency"`

	// Position fields written by the wallet sync job, never by core logic.
	NftPercentRealizedPnl *float64         `json:"nft_percent_realized_pnl,omitempty"`
	NftCurrentValue       *decimal.Decimal `gorm:"type:decimal(18,8)" json:"nft_current_value,omitempty"`
	NftWinValue           *decimal.Decimal `gorm:"type:decimal(18,8)" json:"nft_win_value,omitempty"`
	NftLastSynced         *time.Time       `json:"nft_last_synced,omitempty"`

	Options []Option `gorm:"foreignKey:MarketID;constraint:OnDelete:CASCADE" json:"options,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Market model
func (Market) TableName() string {
	return "markets"
}

// OptionByID returns the option with the given id, or nil.
func (m *Market) OptionByID(id string) *Option {
	for i := range m.Options {
		if m.Options[i].ID == id {
			return &m.Options[i]
		}
	}
	return nil
}

// Option is one possible outcome of a market
type Option struct {
	ID       string `gorm:"primaryKey;size:64" json:"id"`
	MarketID string `gorm:"size:64;not null;index" json:"market_id"`
	Text     string `gorm:"size:500;not null" json:"text"`

	// Both probabilities are independently sourced and nullable; no
	// normalization is enforced across a market's options.
	ExternalProb *float64 `json:"external_prob,omitempty"`
	AtypicaProb  *float64 `json:"atypica_prob,omitempty"`

	IsWinner bool `gorm:"default:false" json:"is_winner"`
}

// TableName specifies the table name for Option model
func (Option) TableName() string {
	return "market_options"
}

// ClampProb clamps a probability or confidence score into [0,1].
func ClampProb(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// ClampProbPtr clamps a nullable probability, passing nil through.
func ClampProbPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	c := ClampProb(*p)
	return &c
}
