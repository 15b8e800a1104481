// Package cache provides a content-addressed, TTL-bound store for source
// fetches and summarizer responses.
package cache

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spiffcs/ghreport/internal/log"
)

// staleTempAge is how old an orphaned temp file must be before Sweep
// removes it. Younger temp files may belong to an in-flight Put.
const staleTempAge = time.Hour

const (
	entryExt = ".json"
	tempExt  = ".tmp"
)

// Cacher defines the cache operations used by the pipeline.
// This interface enables mocking the cache in unit tests.
type Cacher interface {
	Get(fp string) ([]byte, bool)
	Put(fp string, kind Kind, payload []byte, ttl time.Duration) error
}

// Ensure Store implements Cacher interface.
var _ Cacher = (*Store)(nil)

// Store keeps one file per fingerprint under dir/<fp[:2]>/<fp>.json.
// Writes go through a temp file and rename, so readers never observe a
// partial entry and there is no store-wide lock.
type Store struct {
	dir      string
	now      func() time.Time
	compress bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the store's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithCompression gzips payloads on write. Reads handle both forms.
func WithCompression(enabled bool) Option {
	return func(s *Store) {
		s.compress = enabled
	}
}

// DefaultDir returns ~/.cache/ghreport/cache (or the platform equivalent).
func DefaultDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "ghreport", "cache"), nil
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	s := &Store{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) pathFor(fp string) string {
	return filepath.Join(s.dir, fp[:2], fp+entryExt)
}

// Get returns the payload stored under fp. Absent, expired and corrupt
// entries are all misses; expired and corrupt entries are removed.
func (s *Store) Get(fp string) ([]byte, bool) {
	if !validFingerprint(fp) {
		return nil, false
	}
	path := s.pathFor(fp)

	entry, err := readEntry(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Debug("purging corrupt cache entry", "fingerprint", fp, "error", err)
			s.remove(path)
		}
		return nil, false
	}
	if entry.Fingerprint != fp {
		log.Debug("purging misfiled cache entry", "fingerprint", fp, "stored", entry.Fingerprint)
		s.remove(path)
		return nil, false
	}
	if entry.Expired(s.now()) {
		log.Trace("purging expired cache entry", "fingerprint", fp, "kind", entry.Kind)
		s.remove(path)
		return nil, false
	}

	payload, err := entry.decode()
	if err != nil {
		log.Debug("purging corrupt cache entry", "fingerprint", fp, "error", err)
		s.remove(path)
		return nil, false
	}
	return payload, true
}

// Put stores payload under fp with the given TTL. Concurrent puts of the
// same fingerprint are safe: each writes its own temp file and the last
// rename wins.
func (s *Store) Put(fp string, kind Kind, payload []byte, ttl time.Duration) error {
	if !validFingerprint(fp) {
		return fmt.Errorf("invalid fingerprint %q", fp)
	}

	now := s.now()
	sum := sha256.Sum256(payload)
	entry := Entry{
		Version:     formatVersion,
		Fingerprint: fp,
		Kind:        kind,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
		Checksum:    hex.EncodeToString(sum[:]),
		Payload:     payload,
	}
	if s.compress {
		compressed, err := gzipBytes(payload)
		if err != nil {
			return fmt.Errorf("compressing cache payload: %w", err)
		}
		entry.Payload = compressed
		entry.Compressed = true
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	path := s.pathFor(fp)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create cache shard: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	log.Trace("cache put", "fingerprint", fp, "kind", kind, "bytes", len(payload))
	return nil
}

// Sweep removes entries created before now-horizon, expired entries,
// unreadable entries, and temp files left behind by interrupted writes.
// It returns the number of files removed.
func (s *Store) Sweep(horizon time.Duration) (int, error) {
	now := s.now()
	cutoff := now.Add(-horizon)
	removed := 0

	err := s.walk(func(path string, d fs.DirEntry) error {
		if strings.HasSuffix(path, tempExt) {
			info, err := d.Info()
			if err == nil && now.Sub(info.ModTime()) > staleTempAge {
				if s.remove(path) {
					removed++
				}
			}
			return nil
		}

		entry, err := readEntry(path)
		if err != nil || entry.Expired(now) || entry.CreatedAt.Before(cutoff) {
			if s.remove(path) {
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// InvalidateExpired removes every expired or unreadable entry and returns
// the number removed.
func (s *Store) InvalidateExpired() (int, error) {
	now := s.now()
	removed := 0
	err := s.walk(func(path string, _ fs.DirEntry) error {
		if strings.HasSuffix(path, tempExt) {
			return nil
		}
		entry, err := readEntry(path)
		if err != nil || entry.Expired(now) {
			if s.remove(path) {
				removed++
			}
		}
		return nil
	})
	return removed, err
}

// Clear removes all cached entries, keeping the root directory.
func (s *Store) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	var errs []error
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(s.dir, entry.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats returns cache statistics broken down by kind.
func (s *Store) Stats() (*Stats, error) {
	now := s.now()
	stats := &Stats{ByKind: make(map[Kind]KindStat)}
	for _, k := range AllKinds() {
		stats.ByKind[k] = KindStat{}
	}

	err := s.walk(func(path string, d fs.DirEntry) error {
		if strings.HasSuffix(path, tempExt) {
			return nil
		}
		var size int64
		if info, err := d.Info(); err == nil {
			size = info.Size()
		}
		stats.Bytes += size

		entry, err := readEntry(path)
		if err != nil {
			stats.Corrupt++
			return nil
		}
		ks := stats.ByKind[entry.Kind]
		ks.Total++
		ks.Bytes += size
		if entry.Expired(now) {
			ks.Expired++
		} else {
			ks.Valid++
		}
		stats.ByKind[entry.Kind] = ks
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// walk calls fn for every regular file under the store's shard directories.
func (s *Store) walk(fn func(path string, d fs.DirEntry) error) error {
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		return fn(path, d)
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// remove deletes path and reports whether a file was actually removed.
func (s *Store) remove(path string) bool {
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Debug("could not remove cache file", "path", path, "error", err)
		}
		return false
	}
	return true
}

func readEntry(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decoding entry: %w", err)
	}
	if entry.Version != formatVersion {
		return nil, fmt.Errorf("entry version %d, want %d", entry.Version, formatVersion)
	}
	return &entry, nil
}

// decode returns the entry's payload after decompressing and verifying its
// checksum.
func (e *Entry) decode() ([]byte, error) {
	payload := e.Payload
	if e.Compressed {
		zr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("opening gzip payload: %w", err)
		}
		payload, err = io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("reading gzip payload: %w", err)
		}
	}
	sum := sha256.Sum256(payload)
	if hex.EncodeToString(sum[:]) != e.Checksum {
		return nil, errors.New("checksum mismatch")
	}
	return payload, nil
}

func gzipBytes(p []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(p); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeAtomic writes data to a temp file next to path, syncs it, and
// renames it into place.
func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*"+tempExt)
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
