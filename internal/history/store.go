// Package history keeps a rolling JSON Lines log of run outcomes.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spiffcs/ghreport/internal/log"
)

// maxRecords is the maximum number of runs retained in the log.
const maxRecords = 500

// RunRecord captures the outcome of a single report run.
type RunRecord struct {
	Timestamp  time.Time     `json:"ts"`
	RunID      string        `json:"runId"`
	Duration   time.Duration `json:"durationNs"`
	Repos      int           `json:"repos"`
	Fetched    int           `json:"fetched"`
	Critical   int           `json:"critical"`
	High       int           `json:"high"`
	Medium     int           `json:"medium"`
	Low        int           `json:"low"`
	Summarized int           `json:"summarized"`
	CacheHits  int           `json:"cacheHits"`
	Degraded   int           `json:"degraded"`
	Skipped    int           `json:"skipped"`
	Overflow   int           `json:"overflow"`
	Failures   int           `json:"sourceFailures"`
	Added      []string      `json:"added,omitempty"`
	Removed    []string      `json:"removed,omitempty"`
	Cancelled  bool          `json:"cancelled,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Items returns the number of items across all tiers.
func (r RunRecord) Items() int {
	return r.Critical + r.High + r.Medium + r.Low
}

// Store manages persistence of run records as JSON Lines.
type Store struct {
	path string
	mu   sync.Mutex
}

// DefaultPath returns the history file location under the user cache dir.
func DefaultPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache dir: %w", err)
	}
	return filepath.Join(cacheDir, "ghreport", "history.jsonl"), nil
}

// NewStore creates a store at the default location.
func NewStore() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return &Store{path: path}, nil
}

// NewStoreWithPath creates a store at the given path.
func NewStoreWithPath(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Append adds a record and prunes to the last maxRecords entries.
func (s *Store) Append(rec RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		log.Debug("could not read run history, starting fresh", "error", err)
		records = nil
	}

	records = append(records, rec)
	if len(records) > maxRecords {
		records = records[len(records)-maxRecords:]
	}

	return s.writeAll(records)
}

// Recent returns the last n records, oldest first.
func (s *Store) Recent(n int) []RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil || n <= 0 {
		return nil
	}
	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}

func (s *Store) readAll() ([]RunRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var records []RunRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec RunRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue // skip malformed lines
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

func (s *Store) writeAll(records []RunRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	fail := func(err error) error {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fail(err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}
	if err := f.Sync(); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.path)
}
