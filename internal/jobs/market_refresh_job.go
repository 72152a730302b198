package jobs

import (
	"context"
	"log"
	"time"

	"github.com/joyehuang/atypica-bet/internal/polymarket"
	"github.com/joyehuang/atypica-bet/internal/repository"
	"github.com/joyehuang/atypica-bet/internal/services"
)

// MarketRefreshJob periodically re-imports externally sourced markets so
// their probabilities and pool volumes track the feed. The reconciler keeps
// curated Atypica fields intact across refreshes.
type MarketRefreshJob struct {
	repo     *repository.MarketRepository
	importer *services.ImportService
	feed     *polymarket.Client
	stopChan chan struct{}
}

func NewMarketRefreshJob(repo *repository.MarketRepository, importer *services.ImportService, feed *polymarket.Client) *MarketRefreshJob {
	return &MarketRefreshJob{
		repo:     repo,
		importer: importer,
		feed:     feed,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic refresh loop
func (j *MarketRefreshJob) Start(interval time.Duration) {
	go func() {
		ctx := context.Background()
		if err := j.refreshOnce(ctx); err != nil {
			log.Printf("[MarketRefresh] Initial refresh error: %v", err)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := j.refreshOnce(ctx); err != nil {
					log.Printf("[MarketRefresh] Refresh error: %v", err)
				}
			case <-j.stopChan:
				log.Println("[MarketRefresh] Stopping refresh job")
				return
			}
		}
	}()
}

// Stop terminates the refresh loop
func (j *MarketRefreshJob) Stop() {
	close(j.stopChan)
}

func (j *MarketRefreshJob) refreshOnce(ctx context.Context) error {
	markets, err := j.repo.FindExternalMarkets(ctx)
	if err != nil {
		return err
	}

	// Group tracked sub-market ids by their originating event slug so one
	// feed call refreshes every market imported from that event.
	tracked := make(map[string]map[string]bool)
	for _, m := range markets {
		slug, _ := m.ExternalData["eventSlug"].(string)
		originalID, _ := m.ExternalData["originalId"].(string)
		if slug == "" || originalID == "" {
			continue
		}
		if tracked[slug] == nil {
			tracked[slug] = make(map[string]bool)
		}
		tracked[slug][originalID] = true
	}

	for slug, selected := range tracked {
		group, err := j.feed.GetEventBySlug(ctx, slug)
		if err != nil {
			log.Printf("[MarketRefresh] Fetch failed for event %s: %v", slug, err)
			continue
		}

		items := polymarket.ConvertEventGroup(group, selected)
		if len(items) == 0 {
			continue
		}

		result, err := j.importer.ImportMarkets(ctx, items)
		if err != nil {
			log.Printf("[MarketRefresh] Import failed for event %s: %v", slug, err)
			continue
		}
		log.Printf("[MarketRefresh] Event %s: refreshed=%d failed=%d", slug, len(result.Imported), result.FailedCount)
	}
	return nil
}
