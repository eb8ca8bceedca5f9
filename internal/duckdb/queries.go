package duckdb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fieldsync/skiff/internal/model"
)

// siteAnd returns an "AND site = ?" fragment and args when opts.Site is
// non-empty. The queries below always carry a WHERE clause already.
func siteAnd(opts model.QueryOpts) (clause string, args []interface{}) {
	if opts.Site != "" {
		return " AND site = ?", []interface{}{opts.Site}
	}
	return "", nil
}

// InsertActivities writes a batch of activities. Existing IDs are replaced,
// so re-syncing the same window is idempotent.
func (s *Store) InsertActivities(activities []model.Activity) error {
	if len(activities) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("duckdb: begin insert tx: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO activities (id, ts, kind, title, site, status, notes, attributes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("duckdb: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range activities {
		attrs := "{}"
		if len(a.Attributes) > 0 {
			data, merr := json.Marshal(a.Attributes)
			if merr != nil {
				tx.Rollback()
				return fmt.Errorf("duckdb: marshal attributes for %s: %w", a.ID, merr)
			}
			attrs = string(data)
		}
		if _, err := stmt.ExecContext(ctx,
			a.ID, a.Timestamp.UTC(), a.Kind, a.Title, a.Site, a.Status, a.Notes, attrs,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("duckdb: insert activity %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("duckdb: commit insert: %w", err)
	}
	return nil
}

// RecentActivities returns activities matching opts, newest first.
func (s *Store) RecentActivities(opts model.QueryOpts) ([]model.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	limit := opts.Limit
	if limit <= 0 {
		limit = model.DefaultFeedLimit
	}

	query := `
		SELECT id, ts, kind, title, site, status, notes, attributes
		FROM activities
		WHERE ts >= ?`
	args := []interface{}{sinceOrEpoch(opts.Since)}

	clause, extra := siteAnd(opts)
	query += clause
	args = append(args, extra...)

	query += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("duckdb: query activities: %w", err)
	}
	defer rows.Close()

	var out []model.Activity
	for rows.Next() {
		var (
			a     model.Activity
			attrs string
		)
		if err := rows.Scan(&a.ID, &a.Timestamp, &a.Kind, &a.Title, &a.Site, &a.Status, &a.Notes, &attrs); err != nil {
			return nil, fmt.Errorf("duckdb: scan activity: %w", err)
		}
		if attrs != "" && attrs != "{}" {
			if err := json.Unmarshal([]byte(attrs), &a.Attributes); err != nil {
				// Unreadable attributes should not hide the record.
				a.Attributes = nil
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// DailyCounts returns per-day activity counts for the last days days,
// oldest first.
func (s *Store) DailyCounts(days int, opts model.QueryOpts) ([]model.DailyCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	if days <= 0 {
		days = 14
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	query := `
		SELECT date_trunc('day', ts) AS day, COUNT(*) AS count
		FROM activities
		WHERE ts >= ?`
	args := []interface{}{cutoff}

	clause, extra := siteAnd(opts)
	query += clause
	args = append(args, extra...)

	query += " GROUP BY 1 ORDER BY 1"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("duckdb: query daily counts: %w", err)
	}
	defer rows.Close()

	var out []model.DailyCount
	for rows.Next() {
		var dc model.DailyCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("duckdb: scan daily count: %w", err)
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// TotalCount returns the number of stored activities matching opts.
func (s *Store) TotalCount(opts model.QueryOpts) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	query := "SELECT COUNT(*) FROM activities WHERE 1=1"
	var args []interface{}

	clause, extra := siteAnd(opts)
	query += clause
	args = append(args, extra...)

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("duckdb: count activities: %w", err)
	}
	return count, nil
}

// DeleteBefore removes activities older than cutoff and returns the number
// of rows deleted.
func (s *Store) DeleteBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx()
	defer cancel()

	res, err := s.db.ExecContext(ctx, "DELETE FROM activities WHERE ts < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("duckdb: delete expired: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("duckdb: count deleted rows: %w", err)
	}
	return rows, nil
}

// sinceOrEpoch maps a zero time to a floor DuckDB can compare against.
func sinceOrEpoch(since time.Time) time.Time {
	if since.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return since.UTC()
}
