package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldsync/skiff/internal/model"
)

func TestAppendAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.journal")

	j, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })

	first := model.SyncResult{At: time.Now().UTC(), Items: 12, OK: true}
	second := model.SyncResult{At: time.Now().UTC(), OK: false, Error: "backend down"}

	seq1, err := j.Append(first)
	if err != nil {
		t.Fatalf("Append first: %v", err)
	}
	seq2, err := j.Append(second)
	if err != nil {
		t.Fatalf("Append second: %v", err)
	}
	if seq2 <= seq1 {
		t.Fatalf("sequence did not advance: seq1=%d seq2=%d", seq1, seq2)
	}

	results, err := j.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Recent returned %d entries, want 2", len(results))
	}
	if results[0].Items != 12 || !results[0].OK {
		t.Errorf("first entry = %+v, want the successful sync", results[0])
	}
	if results[1].OK || results[1].Error != "backend down" {
		t.Errorf("second entry = %+v, want the failed sync", results[1])
	}

	limited, err := j.Recent(1)
	if err != nil {
		t.Fatalf("Recent(1): %v", err)
	}
	if len(limited) != 1 || limited[0].Error != "backend down" {
		t.Errorf("Recent(1) = %+v, want newest entry only", limited)
	}
}

func TestSequenceSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.journal")

	j, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	seq1, err := j.Append(model.SyncResult{At: time.Now().UTC(), OK: true})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	j2, err := Open(path, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = j2.Close() })

	seq2, err := j2.Append(model.SyncResult{At: time.Now().UTC(), OK: true})
	if err != nil {
		t.Fatalf("Append after reopen: %v", err)
	}
	if seq2 <= seq1 {
		t.Errorf("sequence restarted after reopen: seq1=%d seq2=%d", seq1, seq2)
	}
}

func TestCompactionKeepsNewestEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.journal")

	j, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	for i := 0; i < 10; i++ {
		if _, err := j.Append(model.SyncResult{At: time.Now().UTC(), Items: i, OK: true}); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen with a small retention: only the newest 3 survive.
	j2, err := Open(path, 3)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = j2.Close() })

	results, err := j2.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("kept %d entries, want 3", len(results))
	}
	if results[0].Items != 7 || results[2].Items != 9 {
		t.Errorf("kept entries = %+v, want items 7..9", results)
	}
}

func TestPartialTrailingLineIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sync.journal")

	j, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := j.Append(model.SyncResult{At: time.Now().UTC(), OK: true}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Simulate a crash mid-write.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(`{"seq":2,"result":{"at":"20`); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	j2, err := Open(path, 0)
	if err != nil {
		t.Fatalf("reopen after torn write: %v", err)
	}
	t.Cleanup(func() { _ = j2.Close() })

	results, err := j2.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("Recent returned %d entries, want 1 (torn line dropped)", len(results))
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("   ", 0); err == nil {
		t.Fatal("Open with blank path should fail")
	}
}
