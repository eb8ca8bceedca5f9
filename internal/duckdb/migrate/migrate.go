// Package migrate brings the activity database schema up to date from SQL
// files embedded at build time. Files are named NNN_description.sql and
// applied in version order.
package migrate

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// step is one versioned schema change.
type step struct {
	version int
	name    string
	stmts   string
}

// Apply runs every schema step newer than the database's recorded version,
// each inside its own transaction, and returns the version the schema ends
// up at. Safe to call on every startup.
func Apply(db *sql.DB) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version    INTEGER PRIMARY KEY,
		name       VARCHAR NOT NULL,
		applied_at TIMESTAMP DEFAULT current_timestamp
	)`); err != nil {
		return 0, fmt.Errorf("migrate: create version table: %w", err)
	}

	current, err := currentVersion(db)
	if err != nil {
		return 0, err
	}

	steps, err := loadSteps()
	if err != nil {
		return 0, err
	}

	for _, st := range steps {
		if st.version <= current {
			continue
		}
		if err := applyStep(db, st); err != nil {
			return current, err
		}
		current = st.version
	}
	return current, nil
}

func applyStep(db *sql.DB, st step) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin %s: %w", st.name, err)
	}
	if _, err := tx.Exec(st.stmts); err != nil {
		tx.Rollback()
		return fmt.Errorf("migrate: apply %s: %w", st.name, err)
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version, name) VALUES (?, ?)", st.version, st.name); err != nil {
		tx.Rollback()
		return fmt.Errorf("migrate: record %s: %w", st.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit %s: %w", st.name, err)
	}
	return nil
}

// currentVersion reads the highest applied version. An empty version table
// scans as NULL, which reports as version 0.
func currentVersion(db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("migrate: read schema version: %w", err)
	}
	return int(v.Int64), nil
}

func loadSteps() ([]step, error) {
	entries, err := fs.ReadDir(schemaFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrate: list embedded steps: %w", err)
	}

	steps := make([]step, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("migrate: %s has no version prefix", name)
		}
		ver, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migrate: %s has a non-numeric version prefix: %w", name, err)
		}
		data, err := schemaFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, fmt.Errorf("migrate: read %s: %w", name, err)
		}
		steps = append(steps, step{version: ver, name: name, stmts: string(data)})
	}

	sort.Slice(steps, func(i, j int) bool { return steps[i].version < steps[j].version })
	return steps, nil
}
