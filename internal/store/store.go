// Package store persists orbital element sets in a single keyed JSON file.
//
// Writes are atomic: the full record map is marshaled to a temp file in the
// same directory, read back to verify, and renamed over the previous file.
// A failed write never corrupts the prior valid state, and a corrupt file at
// load time degrades to an empty store instead of crashing — missing entries
// just trigger fresh fetches on demand.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/elements"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/frame"
	"github.com/tonylquintanilla/palomas-orrery-sub000/internal/metrics"
)

// ErrNotFound reports a lookup for a key with no cached record.
var ErrNotFound = errors.New("element set not found")

const fileVersion = 1

// Entry pairs a cached element set with the time it was stored.
type Entry struct {
	Set      *elements.Set
	StoredAt time.Time
}

// Store is the persistent element cache. Safe for concurrent readers with a
// single writer; concurrent writers are serialized internally.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	records map[string]Entry
}

type recordEnvelope struct {
	Element  elements.Record `json:"element"`
	StoredAt string          `json:"stored_at"`
}

type fileFormat struct {
	Version int                       `json:"version"`
	Records map[string]recordEnvelope `json:"records"`
}

// New creates a Store backed by the JSON file at path. Call Load before use.
func New(path string, logger *slog.Logger) *Store {
	return &Store{
		path:    path,
		logger:  logger,
		records: make(map[string]Entry),
	}
}

// Load reads the persisted store. A missing file yields an empty store; a
// corrupt or schema-incompatible file is logged and likewise yields an empty
// store. Individual undecodable records are skipped, not fatal.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("no element cache file, starting empty", "path", s.path)
			return nil
		}
		return fmt.Errorf("reading element cache: %w", err)
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		s.logger.Warn("element cache file is corrupt, starting empty",
			"path", s.path, "error", err)
		return nil
	}
	if ff.Version != fileVersion {
		s.logger.Warn("element cache file has unsupported version, starting empty",
			"path", s.path, "version", ff.Version)
		return nil
	}

	records := make(map[string]Entry, len(ff.Records))
	var skipped int
	for key, env := range ff.Records {
		set, err := elements.FromRecord(env.Element)
		if err != nil {
			s.logger.Warn("skipping undecodable cache record", "key", key, "error", err)
			skipped++
			continue
		}
		if err := set.Validate(); err != nil {
			s.logger.Warn("skipping invalid cache record", "key", key, "error", err)
			skipped++
			continue
		}
		storedAt, err := time.Parse(time.RFC3339Nano, env.StoredAt)
		if err != nil {
			s.logger.Warn("skipping cache record with bad timestamp", "key", key, "error", err)
			skipped++
			continue
		}
		records[key] = Entry{Set: set, StoredAt: storedAt}
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()

	metrics.SetCacheEntries(len(records))
	s.logger.Info("element cache loaded",
		"path", s.path, "records", len(records), "skipped", skipped)
	return nil
}

// Get returns the cached entry for key, or ErrNotFound.
func (s *Store) Get(key frame.Key) (Entry, error) {
	s.mu.RLock()
	entry, ok := s.records[key.String()]
	s.mu.RUnlock()

	if !ok {
		metrics.IncCacheMisses()
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, key.String())
	}
	metrics.IncCacheHits()
	return entry, nil
}

// Put validates the set, persists the updated store atomically, and only
// then commits the entry in memory. On any failure the prior record for the
// key is left untouched.
func (s *Store) Put(key frame.Key, set *elements.Set, now time.Time) error {
	if set == nil {
		metrics.IncCacheValidationFailures()
		return &elements.ValidationError{Field: "element set", Reason: "is nil"}
	}
	if err := set.Validate(); err != nil {
		metrics.IncCacheValidationFailures()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Build the candidate state without touching the live map.
	next := make(map[string]Entry, len(s.records)+1)
	for k, v := range s.records {
		next[k] = v
	}
	next[key.String()] = Entry{Set: set, StoredAt: now}

	if err := s.persist(next); err != nil {
		return fmt.Errorf("persisting element cache: %w", err)
	}

	s.records = next
	metrics.SetCacheEntries(len(next))
	return nil
}

// persist writes the record map to a temp file, verifies it parses, and
// renames it over the store file. Caller holds mu.
func (s *Store) persist(records map[string]Entry) error {
	ff := fileFormat{
		Version: fileVersion,
		Records: make(map[string]recordEnvelope, len(records)),
	}
	for key, entry := range records {
		ff.Records[key] = recordEnvelope{
			Element:  entry.Set.ToRecord(),
			StoredAt: entry.StoredAt.UTC().Format(time.RFC3339Nano),
		}
	}

	data, err := json.MarshalIndent(ff, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".elements-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	// Verify the temp file parses before it can replace the good copy.
	check, err := os.ReadFile(tmpName)
	if err != nil {
		return fmt.Errorf("verifying temp file: %w", err)
	}
	var verify fileFormat
	if err := json.Unmarshal(check, &verify); err != nil {
		return fmt.Errorf("verifying temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}
	return nil
}

// Len returns the number of cached records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Keys returns the persisted key strings of all cached records.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	return keys
}
