package syncstate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "sync.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, err := s.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get on empty store = %v, want ErrNotFound", err)
	}

	if err := s.Set("last-sync", "2025-06-01T12:00:00Z"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get("last-sync")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "2025-06-01T12:00:00Z" {
		t.Errorf("Get = %q, want stored value", got)
	}

	// A second store over the same file sees the persisted value.
	s2, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore (reopen): %v", err)
	}
	got, err = s2.Get("last-sync")
	if err != nil || got != "2025-06-01T12:00:00Z" {
		t.Errorf("reopened Get = %q, %v; want persisted value", got, err)
	}
}

func TestFileStoreRejectsEmptyPath(t *testing.T) {
	if _, err := NewFileStore("  "); err == nil {
		t.Fatal("NewFileStore with blank path should fail")
	}
}

func TestFileStoreRecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if _, err := s.Get("last-sync"); err == nil {
		t.Error("Get on corrupt file should report an error")
	}

	// Writes replace the corrupt file instead of failing forever.
	if err := s.Set("last-sync", "v"); err != nil {
		t.Fatalf("Set over corrupt file: %v", err)
	}
	got, err := s.Get("last-sync")
	if err != nil || got != "v" {
		t.Errorf("Get after recovery = %q, %v", got, err)
	}
}

func TestLoadLastSync(t *testing.T) {
	when := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)

	t.Run("round trip", func(t *testing.T) {
		s := NewMemStore()
		if err := SaveLastSync(s, when); err != nil {
			t.Fatalf("SaveLastSync: %v", err)
		}
		got, err := LoadLastSync(s)
		if err != nil {
			t.Fatalf("LoadLastSync: %v", err)
		}
		if !got.Equal(when) {
			t.Errorf("LoadLastSync = %v, want %v", got, when)
		}
	})

	t.Run("missing value is zero time, no error", func(t *testing.T) {
		got, err := LoadLastSync(NewMemStore())
		if err != nil {
			t.Fatalf("LoadLastSync: %v", err)
		}
		if !got.IsZero() {
			t.Errorf("LoadLastSync = %v, want zero", got)
		}
	})

	t.Run("malformed value is zero time with error", func(t *testing.T) {
		s := NewMemStore()
		if err := s.Set("last-sync", "yesterday-ish"); err != nil {
			t.Fatal(err)
		}
		got, err := LoadLastSync(s)
		if err == nil {
			t.Error("LoadLastSync should report malformed value")
		}
		if !got.IsZero() {
			t.Errorf("LoadLastSync = %v, want zero", got)
		}
	})
}
