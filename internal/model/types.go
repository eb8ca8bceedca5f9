package model

import "time"

// Activity represents a single field activity used across the system.
// It is the canonical type for storage, the hub HTTP API, and display.
type Activity struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Kind       string            `json:"kind"` // visit/order/collection/note
	Title      string            `json:"title"`
	Site       string            `json:"site"` // customer site or route stop
	Status     string            `json:"status"`
	Notes      string            `json:"notes,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// DailyCount represents activity volume for one day.
type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// QueryOpts narrows activity queries.
// Zero value means "everything, default limit".
type QueryOpts struct {
	Site  string    // "" = all sites
	Since time.Time // zero = no lower bound
	Limit int       // <= 0 = DefaultFeedLimit
}

// SyncResult summarizes one completed sync against the hub.
type SyncResult struct {
	At    time.Time `json:"at"`
	Items int       `json:"items"`
	OK    bool      `json:"ok"`
	Error string    `json:"error,omitempty"`
}
