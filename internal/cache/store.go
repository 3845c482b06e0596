package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lrucache "github.com/hashicorp/golang-lru"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"marketfetcher/internal/table"
)

const (
	fileExt = ".json"

	// memEntries bounds the in-memory layer fronting the disk files.
	memEntries = 128
)

// Store is a file-backed table cache: one file per key under a cache
// directory, with an LRU layer in front to skip redundant deserialization.
// A single mutex serializes every store operation so concurrent fetchers
// never observe a half-written or half-swept state; the slow work (network
// calls, backoff sleeps) happens outside the lock.
type Store struct {
	dir string
	log logrus.FieldLogger

	mu  sync.Mutex
	mem *lrucache.Cache
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string, log logrus.FieldLogger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	mem, err := lrucache.New(memEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &Store{dir: dir, log: log, mem: mem}, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file a key is persisted under.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

// Get returns the cached table for key, or nil on a miss. The caller
// receives a copy; mutating it cannot corrupt the store. A corrupt,
// truncated, or empty file is deleted, logged, and reported as a miss —
// never as an error.
func (s *Store) Get(key string) *table.Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.mem.Get(key); ok {
		return v.(*table.Table).Clone()
	}

	path := s.Path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.WithError(err).WithField("path", path).Warn("cache read failed")
		}
		return nil
	}

	t, err := decode(data)
	if err != nil {
		s.log.WithError(err).WithField("path", path).Warn("cache load failed, removing entry")
		s.sweep(path)
		return nil
	}

	s.log.WithField("path", path).Debug("loaded cached data")
	s.mem.Add(key, t)
	return t.Clone()
}

// Put persists a table under key, overwriting any prior entry. Empty
// tables are rejected and the prior entry is left untouched: an empty
// result usually means the provider hiccuped, not that no data exists.
// I/O failures are logged and reported as false, never raised.
func (s *Store) Put(t *table.Table, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(t, key)
}

// PutRange persists a range-mode entry and then sweeps every sibling entry
// sharing (ticker, start) with a different end date. The target path is
// excluded from the sweep, so the fresh entry can never be lost.
func (s *Store) PutRange(t *table.Table, ticker, start, end string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := RangeKey(ticker, start, end)
	if !s.put(t, key) {
		return false
	}
	s.sweepSiblings(ticker, start, s.Path(key))
	return true
}

func (s *Store) put(t *table.Table, key string) bool {
	if t.Empty() {
		s.log.WithField("key", key).Debug("refusing to cache empty table")
		return false
	}

	entry := t.Clone()
	entry.NormalizeDates()

	data, err := encode(entry)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache save failed")
		return false
	}

	// Write to a temp file in the same directory and rename into place so
	// a concurrent reader sees either the old entry or the new one, never
	// a partial write.
	path := s.Path(key)
	tmp := path + "." + xid.New().String() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.log.WithError(err).WithField("path", path).Warn("cache save failed")
		return false
	}
	if err := os.Rename(tmp, path); err != nil {
		s.log.WithError(err).WithField("path", path).Warn("cache save failed")
		s.sweep(tmp)
		return false
	}

	s.mem.Add(key, entry)
	s.log.WithField("path", path).Debug("saved data to cache")
	return true
}

// sweepSiblings deletes every on-disk entry matching (ticker, start)
// except keep.
func (s *Store) sweepSiblings(ticker, start, keep string) {
	pattern := filepath.Join(s.dir, rangeSiblingPattern(ticker, start)+fileExt)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		s.log.WithError(err).WithField("pattern", pattern).Warn("cache sibling scan failed")
		return
	}
	for _, path := range matches {
		if path == keep {
			continue
		}
		s.mem.Remove(keyForPath(path))
		if err := os.Remove(path); err != nil {
			s.log.WithError(err).WithField("path", path).Warn("failed to delete cache file")
			continue
		}
		s.log.WithField("path", path).Info("deleted superseded cache file")
	}
}

// sweep removes a single bad file and its memory entry. Missing files are
// fine; someone else already cleaned up.
func (s *Store) sweep(path string) {
	s.mem.Remove(keyForPath(path))
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.WithError(err).WithField("path", path).Warn("failed to remove cache file")
	}
}

func keyForPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), fileExt)
}
