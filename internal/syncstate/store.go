package syncstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755

	lastSyncKey = "last-sync"
)

// ErrNotFound is returned by Get when the key has no persisted value.
var ErrNotFound = errors.New("syncstate: key not found")

// Store is the durable key-value port for small client-side state.
// Implementations must tolerate concurrent use.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// LoadLastSync reads the persisted last-sync timestamp.
// A missing value degrades to the zero time with no error; a read failure or
// malformed value returns the zero time alongside the error so the caller can
// log it and carry on.
func LoadLastSync(s Store) (time.Time, error) {
	raw, err := s.Get(lastSyncKey)
	if errors.Is(err, ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("syncstate: malformed timestamp %q: %w", raw, err)
	}
	return t, nil
}

// SaveLastSync persists the last-sync timestamp as RFC3339.
func SaveLastSync(s Store, t time.Time) error {
	return s.Set(lastSyncKey, t.UTC().Format(time.RFC3339Nano))
}

// FileStore persists keys as a single JSON object on disk.
// Writes go through a temp file and rename so a crash cannot leave a torn
// file behind.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore at path, creating parent directories.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("syncstate: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return nil, fmt.Errorf("syncstate: mkdir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.read()
	if err != nil {
		return "", err
	}
	v, ok := m[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.read()
	if err != nil {
		// A corrupt state file is replaced rather than wedging writes.
		m = make(map[string]string)
	}
	m[key] = value

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("syncstate: encode: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, defaultFileMode); err != nil {
		return fmt.Errorf("syncstate: write: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("syncstate: rename: %w", err)
	}
	return nil
}

func (f *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("syncstate: read: %w", err)
	}
	m := map[string]string{}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("syncstate: decode: %w", err)
	}
	return m, nil
}

// MemStore is an in-memory Store used by tests and when persistence is
// disabled.
type MemStore struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{m: make(map[string]string)}
}

func (s *MemStore) Get(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}
