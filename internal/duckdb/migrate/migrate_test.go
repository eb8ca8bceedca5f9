package migrate

import (
	"database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestApplyCreatesSchema(t *testing.T) {
	db := openTestDB(t)

	version, err := Apply(db)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if version != 1 {
		t.Errorf("Apply returned version %d, want 1", version)
	}

	for _, table := range []string{"activities", "schema_version"} {
		var name string
		err := db.QueryRow("SELECT table_name FROM information_schema.tables WHERE table_name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	first, err := Apply(db)
	if err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	second, err := Apply(db)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if first != second {
		t.Errorf("versions differ across runs: %d then %d", first, second)
	}

	var applied int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&applied); err != nil {
		t.Fatalf("count applied steps: %v", err)
	}
	if applied != 1 {
		t.Errorf("%d recorded steps after two runs, want 1", applied)
	}
}
