package polymarket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/joyehuang/atypica-bet/internal/models"

	"github.com/shopspring/decimal"
)

// DeriveProbability estimates the probability of a sub-market's first
// outcome. Quote midpoint first, then last trade, then the first entry of
// the serialized price list, then maximal uncertainty.
func DeriveProbability(m SubMarket) float64 {
	if m.BestBid != nil && m.BestAsk != nil {
		return (*m.BestBid + *m.BestAsk) / 2
	}
	if m.LastTradePrice != nil {
		return *m.LastTradePrice
	}

	var prices []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err == nil && len(prices) > 0 {
		if p, err := strconv.ParseFloat(prices[0], 64); err == nil && p > 0 {
			return p
		}
	}
	return 0.5
}

// ConvertEventGroup turns a Polymarket event into import items. When
// selected is non-empty only those sub-market ids are converted, otherwise
// every active sub-market is.
func ConvertEventGroup(group *EventGroup, selected map[string]bool) []models.Market {
	var items []models.Market
	for _, sub := range group.Markets {
		if len(selected) > 0 {
			if !selected[sub.ID] {
				continue
			}
		} else if !sub.Active {
			continue
		}
		items = append(items, ConvertSubMarket(sub, group))
	}
	return items
}

// ConvertSubMarket maps one sub-market onto the internal schema.
func ConvertSubMarket(sub SubMarket, group *EventGroup) models.Market {
	probability := DeriveProbability(sub)
	marketID := "poly-" + sub.ID

	description := sub.Description
	if description == "" {
		description = group.Description
	}

	source := "Polymarket:" + group.Title

	market := models.Market{
		ID:             marketID,
		Title:          sub.Question,
		Description:    description,
		Category:       models.CategorySports,
		Status:         mapStatus(sub.Closed),
		CloseDate:      parseDate(sub.EndDate),
		Options:        buildOptions(sub, probability),
		ExternalSource: &source,
		ExternalData: models.JSONB{
			"source":     source,
			"originalId": sub.ID,
			"eventSlug":  group.Slug,
		},
		PoolCurrency: "USD",
	}

	if volume, err := decimal.NewFromString(sub.Volume); err == nil && volume.IsPositive() {
		market.PoolAmount = &volume
	}
	return market
}

// buildOptions creates the option rows for a sub-market. When the feed
// supplies a full price list it is used directly. Otherwise the first
// outcome gets the derived probability; a binary market's second outcome
// gets the complement, and any further outcomes split the remainder
// equally since the feed defines no per-outcome derivation beyond the
// first.
func buildOptions(sub SubMarket, probability float64) []models.Option {
	var outcomes []string
	if err := json.Unmarshal([]byte(sub.Outcomes), &outcomes); err != nil || len(outcomes) == 0 {
		// Malformed outcome list: fall back to a safe binary market.
		outcomes = []string{"Yes", "No"}
	}

	probs := outcomeProbabilities(sub, outcomes, probability)

	options := make([]models.Option, 0, len(outcomes))
	for i, outcome := range outcomes {
		p := models.ClampProb(probs[i])
		options = append(options, models.Option{
			ID:           fmt.Sprintf("opt-%s-%d", sub.ID, i),
			Text:         outcome,
			ExternalProb: &p,
		})
	}
	return options
}

func outcomeProbabilities(sub SubMarket, outcomes []string, probability float64) []float64 {
	probs := make([]float64, len(outcomes))

	var prices []string
	if err := json.Unmarshal([]byte(sub.OutcomePrices), &prices); err == nil && len(prices) == len(outcomes) && len(outcomes) > 2 {
		ok := true
		for i, raw := range prices {
			p, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				ok = false
				break
			}
			probs[i] = p
		}
		if ok {
			return probs
		}
	}

	probs[0] = probability
	if len(outcomes) == 2 {
		probs[1] = 1 - probability
		return probs
	}
	for i := 1; i < len(outcomes); i++ {
		probs[i] = (1 - probability) / float64(len(outcomes)-1)
	}
	return probs
}

func mapStatus(closed bool) models.MarketStatus {
	if closed {
		return models.StatusClosed
	}
	return models.StatusActive
}

func parseDate(raw string) time.Time {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Now().Add(30 * 24 * time.Hour)
}
