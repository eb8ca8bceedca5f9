package duckdb

import (
	"log"
	"sync"
	"time"
)

// RetentionCleaner periodically deletes activities older than the configured
// retention period.
type RetentionCleaner struct {
	store     *Store
	retention time.Duration
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
}

// NewRetentionCleaner creates a retention cleaner that deletes expired
// activities. Returns nil when retention <= 0 (disabled).
func NewRetentionCleaner(store *Store, retention time.Duration) *RetentionCleaner {
	if retention <= 0 {
		return nil
	}

	rc := &RetentionCleaner{
		store:     store,
		retention: retention,
		done:      make(chan struct{}),
	}

	// Startup cleanup to catch up after downtime.
	rc.cleanup()

	rc.wg.Add(1)
	go rc.tickLoop()

	return rc
}

func (rc *RetentionCleaner) tickLoop() {
	defer rc.wg.Done()
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rc.cleanup()
		case <-rc.done:
			return
		}
	}
}

func (rc *RetentionCleaner) cleanup() {
	cutoff := time.Now().Add(-rc.retention)

	rows, err := rc.store.DeleteBefore(cutoff)
	if err != nil {
		log.Printf("duckdb: retention cleanup error: %v", err)
		return
	}
	if rows > 0 {
		log.Printf("duckdb: retention cleanup deleted %d expired activities (older than %s)", rows, rc.retention)
	}
}

// Stop signals the cleaner to stop and waits for it to finish.
func (rc *RetentionCleaner) Stop() {
	rc.stopOnce.Do(func() {
		close(rc.done)
		rc.wg.Wait()
	})
}
