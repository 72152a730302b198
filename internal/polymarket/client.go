package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	GammaURL = "https://gamma-api.polymarket.com"
	DataURL  = "https://data-api.polymarket.com"
)

type Client struct {
	httpClient *http.Client
	gammaURL   string
	dataURL    string
}

// SubMarket is one market inside a Polymarket event. Outcomes and
// OutcomePrices arrive as JSON-encoded string lists.
type SubMarket struct {
	ID             string   `json:"id"`
	Question       string   `json:"question"`
	Slug           string   `json:"slug"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
	Description    string   `json:"description"`
	Outcomes       string   `json:"outcomes"`      // e.g. "[\"Yes\",\"No\"]"
	OutcomePrices  string   `json:"outcomePrices"` // e.g. "[\"0.45\",\"0.55\"]"
	Volume         string   `json:"volume"`
	Active         bool     `json:"active"`
	Closed         bool     `json:"closed"`
	BestBid        *float64 `json:"bestBid,omitempty"`
	BestAsk        *float64 `json:"bestAsk,omitempty"`
	LastTradePrice *float64 `json:"lastTradePrice,omitempty"`
}

type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// EventGroup is a Polymarket event with its nested sub-markets.
type EventGroup struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	StartDate   string      `json:"startDate"`
	EndDate     string      `json:"endDate"`
	Active      bool        `json:"active"`
	Closed      bool        `json:"closed"`
	Volume      float64     `json:"volume"`
	Markets     []SubMarket `json:"markets"`
	Tags        []Tag       `json:"tags"`
}

// Position is one wallet position from the data API.
type Position struct {
	Asset              string  `json:"asset"`
	ConditionID        string  `json:"conditionId"`
	Title              string  `json:"title"`
	Slug               string  `json:"slug"`
	EventSlug          string  `json:"eventSlug"`
	Outcome            string  `json:"outcome"`
	Size               float64 `json:"size"`
	TotalBought        float64 `json:"totalBought"`
	PercentRealizedPnl float64 `json:"percentRealizedPnl"`
	CurPrice           float64 `json:"curPrice"`
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		gammaURL: GammaURL,
		dataURL:  DataURL,
	}
}

// GetEventBySlug fetches a Polymarket event group from the Gamma API.
func (c *Client) GetEventBySlug(ctx context.Context, slug string) (*EventGroup, error) {
	endpoint := fmt.Sprintf("%s/events/slug/%s", c.gammaURL, url.PathEscape(slug))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("event not found for slug %q", slug)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("polymarket API error: %d - %s", resp.StatusCode, string(body))
	}

	var group EventGroup
	if err := json.NewDecoder(resp.Body).Decode(&group); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &group, nil
}

// GetWalletPositions fetches all open positions for a wallet address.
func (c *Client) GetWalletPositions(ctx context.Context, walletAddress string) ([]Position, error) {
	endpoint := fmt.Sprintf("%s/positions?user=%s", c.dataURL, url.QueryEscape(walletAddress))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("polymarket API error: %d - %s", resp.StatusCode, string(body))
	}

	var positions []Position
	if err := json.NewDecoder(resp.Body).Decode(&positions); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return positions, nil
}

// ExtractSlug pulls the event slug out of a pasted Polymarket URL, or
// returns the trimmed input when it is already a bare slug.
func ExtractSlug(input string) string {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "http") {
		return trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}
