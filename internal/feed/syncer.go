package feed

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fieldsync/skiff/internal/journal"
	"github.com/fieldsync/skiff/internal/model"
)

// Cache holds the most recently synced activities for display. It is the
// only feed state the TUI reads, so a failed sync leaves the previous window
// visible.
type Cache struct {
	mu        sync.RWMutex
	items     []model.Activity
	updatedAt time.Time
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Replace swaps in a freshly synced window.
func (c *Cache) Replace(items []model.Activity, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]model.Activity(nil), items...)
	c.updatedAt = at
}

// Items returns a copy of the cached window.
func (c *Cache) Items() []model.Activity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Activity(nil), c.items...)
}

// UpdatedAt returns when the cache was last replaced.
func (c *Cache) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// Syncer is the refresh action the gesture interpreter drives: it pulls the
// latest feed window from the hub, replaces the cache, and journals the
// outcome. Journal failures are logged, never surfaced.
type Syncer struct {
	client  *Client
	cache   *Cache
	journal *journal.Journal // optional
	opts    model.QueryOpts
	clock   func() time.Time
	logger  *log.Logger
}

// NewSyncer wires a client and cache together. jnl and logger may be nil.
func NewSyncer(client *Client, cache *Cache, jnl *journal.Journal, opts model.QueryOpts, logger *log.Logger) *Syncer {
	return &Syncer{
		client:  client,
		cache:   cache,
		journal: jnl,
		opts:    opts,
		clock:   time.Now,
		logger:  logger,
	}
}

// Sync performs one fetch-and-replace cycle. The error is returned so the
// interpreter can keep its last-sync stamp honest.
func (s *Syncer) Sync(ctx context.Context) error {
	items, err := s.client.Fetch(ctx, s.opts)
	at := s.clock()

	if err != nil {
		s.record(model.SyncResult{At: at, OK: false, Error: err.Error()})
		return err
	}

	s.cache.Replace(items, at)
	s.record(model.SyncResult{At: at, Items: len(items), OK: true})
	return nil
}

func (s *Syncer) record(result model.SyncResult) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Append(result); err != nil {
		s.logf("feed: journal sync result: %v", err)
	}
}

func (s *Syncer) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
