package websocket

import (
	"time"

	"go.uber.org/zap"
)

// SnapshotJanitor prunes retained run snapshots in the background so the
// hub does not accumulate state for every run ever published.
type SnapshotJanitor struct {
	hub       *Hub
	retention time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
}

// NewSnapshotJanitor creates a janitor for the given hub. Finished runs
// stay replayable for the retention window.
func NewSnapshotJanitor(hub *Hub, retention time.Duration, logger *zap.Logger) *SnapshotJanitor {
	return &SnapshotJanitor{
		hub:       hub,
		retention: retention,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the background cleanup process
func (j *SnapshotJanitor) Start() {
	go j.cleanupLoop()
	j.logger.Info("Snapshot janitor started", zap.Duration("retention", j.retention))
}

// Stop gracefully stops the janitor
func (j *SnapshotJanitor) Stop() {
	close(j.stopChan)
	j.logger.Info("Snapshot janitor stopped")
}

// cleanupLoop runs the cleanup process periodically
func (j *SnapshotJanitor) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-j.stopChan:
			return
		case <-ticker.C:
			pruned := j.hub.expireSnapshots(j.retention)
			if pruned > 0 {
				j.logger.Info("Pruned run snapshots", zap.Int("count", pruned))
			}
		}
	}
}
