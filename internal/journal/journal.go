package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fieldsync/skiff/internal/model"
)

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755

	// DefaultKeep bounds how many entries survive compaction.
	DefaultKeep = 200
)

type entry struct {
	Seq    uint64           `json:"seq"`
	Result model.SyncResult `json:"result"`
}

// Journal is a durable append-only history of sync outcomes. It stores one
// JSON entry per line; on startup it compacts the file down to the most
// recent entries and ignores a partially written trailing line.
type Journal struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	nextSeq uint64
	keep    int
}

// Open creates or opens a journal at path, keeping at most keep entries
// across restarts. keep <= 0 means DefaultKeep.
func Open(path string, keep int) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal: path is empty")
	}
	if keep <= 0 {
		keep = DefaultKeep
	}
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return nil, fmt.Errorf("journal: mkdir: %w", err)
	}

	maxSeq, err := compactTail(path, keep)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, defaultFileMode)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}

	return &Journal{
		path:    path,
		file:    f,
		nextSeq: maxSeq + 1,
		keep:    keep,
	}, nil
}

// Append persists one sync result and returns its sequence number.
func (j *Journal) Append(result model.SyncResult) (uint64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return 0, errors.New("journal: closed")
	}

	seq := j.nextSeq
	j.nextSeq++

	line, err := json.Marshal(entry{Seq: seq, Result: result})
	if err != nil {
		return 0, fmt.Errorf("journal: marshal entry: %w", err)
	}
	line = append(line, '\n')

	if _, err := j.file.Write(line); err != nil {
		return 0, fmt.Errorf("journal: write entry: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return 0, fmt.Errorf("journal: sync entry: %w", err)
	}
	return seq, nil
}

// Recent returns up to n sync results, newest last. n <= 0 means all
// retained entries.
func (j *Journal) Recent(n int) ([]model.SyncResult, error) {
	j.mu.Lock()
	path := j.path
	j.mu.Unlock()

	entries, _, err := readEntries(path)
	if err != nil {
		return nil, err
	}

	results := make([]model.SyncResult, 0, len(entries))
	for _, e := range entries {
		results = append(results, e.Result)
	}
	if n > 0 && len(results) > n {
		results = results[len(results)-n:]
	}
	return results, nil
}

// Close closes the underlying journal file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// readEntries loads all well-formed entries from path. A missing file yields
// no entries; a partial or malformed trailing line ends the read.
func readEntries(path string) ([]entry, uint64, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("journal: open for read: %w", err)
	}
	defer f.Close()

	var (
		entries []entry
		maxSeq  uint64
	)
	reader := bufio.NewReader(f)
	for {
		line, rerr := reader.ReadBytes('\n')
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return nil, 0, fmt.Errorf("journal: read: %w", rerr)
		}
		if len(line) == 0 {
			if errors.Is(rerr, io.EOF) {
				break
			}
			continue
		}
		if !strings.HasSuffix(string(line), "\n") {
			// Ignore a potentially partial trailing line.
			break
		}

		var e entry
		if uerr := json.Unmarshal(line, &e); uerr != nil {
			break
		}
		if e.Seq > maxSeq {
			maxSeq = e.Seq
		}
		entries = append(entries, e)

		if errors.Is(rerr, io.EOF) {
			break
		}
	}
	return entries, maxSeq, nil
}

// compactTail rewrites path keeping only the newest keep entries and returns
// the highest sequence number seen.
func compactTail(path string, keep int) (uint64, error) {
	entries, maxSeq, err := readEntries(path)
	if err != nil {
		return 0, err
	}
	if len(entries) <= keep {
		return maxSeq, nil
	}
	entries = entries[len(entries)-keep:]

	tmpPath := path + ".compact"
	dst, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_RDWR, defaultFileMode)
	if err != nil {
		return 0, fmt.Errorf("journal: open compact tmp: %w", err)
	}

	for _, e := range entries {
		line, merr := json.Marshal(e)
		if merr != nil {
			_ = dst.Close()
			_ = os.Remove(tmpPath)
			return 0, fmt.Errorf("journal: compact marshal: %w", merr)
		}
		line = append(line, '\n')
		if _, werr := dst.Write(line); werr != nil {
			_ = dst.Close()
			_ = os.Remove(tmpPath)
			return 0, fmt.Errorf("journal: compact write: %w", werr)
		}
	}

	if err := dst.Sync(); err != nil {
		_ = dst.Close()
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("journal: compact sync: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("journal: compact close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("journal: compact rename: %w", err)
	}
	return maxSeq, nil
}
