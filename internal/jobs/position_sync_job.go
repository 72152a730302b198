package jobs

import (
	"context"
	"log"
	"time"

	"github.com/joyehuang/atypica-bet/internal/services"
)

// PositionSyncJob periodically mirrors wallet positions onto markets.
type PositionSyncJob struct {
	service  *services.PositionSyncService
	stopChan chan struct{}
}

func NewPositionSyncJob(service *services.PositionSyncService) *PositionSyncJob {
	return &PositionSyncJob{
		service:  service,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic sync loop
func (j *PositionSyncJob) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := j.service.SyncPositions(context.Background()); err != nil {
					log.Printf("[PositionSync] Sync error: %v", err)
				}
			case <-j.stopChan:
				log.Println("[PositionSync] Stopping sync job")
				return
			}
		}
	}()
}

// Stop terminates the sync loop
func (j *PositionSyncJob) Stop() {
	close(j.stopChan)
}
