// Package duckdb implements the hub's activity store on an embedded DuckDB
// database.
package duckdb

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fieldsync/skiff/internal/duckdb/migrate"

	_ "github.com/duckdb/duckdb-go/v2"
)

// Store manages the DuckDB database connection and provides query methods.
type Store struct {
	db            *sql.DB
	mu            sync.RWMutex
	dbPath        string
	schemaVersion int
	QueryTimeout  time.Duration
}

// NewStore opens or creates a DuckDB database.
// If dbPath is empty, an in-memory database is used.
// An optional queryTimeout can be passed; it defaults to 30s.
func NewStore(dbPath string, queryTimeout ...time.Duration) (*Store, error) {
	dsn := ""
	if dbPath != "" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		dsn = dbPath
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}

	version, err := migrate.Apply(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	qt := 30 * time.Second
	if len(queryTimeout) > 0 && queryTimeout[0] > 0 {
		qt = queryTimeout[0]
	}

	return &Store{
		db:            db,
		dbPath:        dbPath,
		schemaVersion: version,
		QueryTimeout:  qt,
	}, nil
}

// SchemaVersion reports the schema version the store was opened at.
func (s *Store) SchemaVersion() int {
	return s.schemaVersion
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct query access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// queryCtx returns a context with the store's configured query timeout.
func (s *Store) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.QueryTimeout)
}
