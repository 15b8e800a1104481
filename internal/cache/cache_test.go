package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	s, err := NewStore(t.TempDir(), append([]Option{WithClock(clock.Now)}, opts...)...)
	require.NoError(t, err)
	return s, clock
}

func TestStore_PutGet(t *testing.T) {
	tests := []struct {
		name     string
		compress bool
	}{
		{name: "plain", compress: false},
		{name: "gzip", compress: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t, WithCompression(tt.compress))
			fp := SummaryFingerprint("model-a", "v1", "hello")

			_, ok := s.Get(fp)
			assert.False(t, ok, "empty store should miss")

			require.NoError(t, s.Put(fp, KindSummary, []byte("a summary"), time.Hour))

			got, ok := s.Get(fp)
			require.True(t, ok)
			assert.Equal(t, []byte("a summary"), got)
		})
	}
}

func TestStore_PutIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	fp := SummaryFingerprint("model-a", "v1", "same content")
	payload := []byte("identical result")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Put(fp, KindSummary, payload, time.Hour))
		}()
	}
	wg.Wait()

	got, ok := s.Get(fp)
	require.True(t, ok)
	assert.Equal(t, payload, got)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ByKind[KindSummary].Total)
}

func TestStore_ExpiredEntryIsPurged(t *testing.T) {
	s, clock := newTestStore(t)
	fp := SummaryFingerprint("m", "v1", "x")
	require.NoError(t, s.Put(fp, KindSummary, []byte("x"), time.Hour))

	clock.Advance(time.Hour)

	_, ok := s.Get(fp)
	assert.False(t, ok, "entry at its expiry instant should miss")
	_, err := os.Stat(s.pathFor(fp))
	assert.True(t, os.IsNotExist(err), "expired entry should be removed on read")
}

func TestStore_CorruptionIsAMiss(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(t *testing.T, path string)
	}{
		{
			name: "undecodable",
			corrupt: func(t *testing.T, path string) {
				require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
			},
		},
		{
			name: "checksum mismatch",
			corrupt: func(t *testing.T, path string) {
				entry, err := readEntry(path)
				require.NoError(t, err)
				entry.Payload = []byte("tampered")
				rewrite(t, path, entry)
			},
		},
		{
			name: "fingerprint mismatch",
			corrupt: func(t *testing.T, path string) {
				entry, err := readEntry(path)
				require.NoError(t, err)
				entry.Fingerprint = SummaryFingerprint("m", "v1", "other")
				rewrite(t, path, entry)
			},
		},
		{
			name: "old format version",
			corrupt: func(t *testing.T, path string) {
				entry, err := readEntry(path)
				require.NoError(t, err)
				entry.Version = formatVersion + 1
				rewrite(t, path, entry)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			fp := SummaryFingerprint("m", "v1", "payload")
			require.NoError(t, s.Put(fp, KindSummary, []byte("payload"), time.Hour))

			tt.corrupt(t, s.pathFor(fp))

			_, ok := s.Get(fp)
			assert.False(t, ok)
			_, err := os.Stat(s.pathFor(fp))
			assert.True(t, os.IsNotExist(err), "corrupt entry should be purged")
		})
	}
}

func TestStore_InvalidFingerprint(t *testing.T) {
	s, _ := newTestStore(t)

	_, ok := s.Get("../../etc/passwd")
	assert.False(t, ok)
	assert.Error(t, s.Put("short", KindSummary, []byte("x"), time.Hour))
}

func TestStore_Sweep(t *testing.T) {
	s, clock := newTestStore(t)

	old := SummaryFingerprint("m", "v1", "old")
	require.NoError(t, s.Put(old, KindSummary, []byte("old"), 30*24*time.Hour))

	clock.Advance(8 * 24 * time.Hour)

	fresh := SummaryFingerprint("m", "v1", "fresh")
	require.NoError(t, s.Put(fresh, KindSummary, []byte("fresh"), 30*24*time.Hour))
	expired := SummaryFingerprint("m", "v1", "expired")
	require.NoError(t, s.Put(expired, KindSummary, []byte("expired"), time.Minute))

	// Leftover from an interrupted write.
	tmp := filepath.Join(s.Dir(), fresh[:2], "orphan.json.123.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("partial"), 0600))
	past := clock.Now().Add(-2 * staleTempAge)
	require.NoError(t, os.Chtimes(tmp, past, past))

	clock.Advance(time.Hour)

	removed, err := s.Sweep(7 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	_, ok := s.Get(fresh)
	assert.True(t, ok, "entry inside the horizon should survive")
	_, ok = s.Get(old)
	assert.False(t, ok, "entry past the horizon should be swept despite its TTL")
	_, err = os.Stat(tmp)
	assert.True(t, os.IsNotExist(err))
}

func TestStore_InvalidateExpired(t *testing.T) {
	s, clock := newTestStore(t)
	short := SummaryFingerprint("m", "v1", "short")
	long := SummaryFingerprint("m", "v1", "long")
	require.NoError(t, s.Put(short, KindSummary, []byte("s"), time.Minute))
	require.NoError(t, s.Put(long, KindSummary, []byte("l"), time.Hour))

	clock.Advance(2 * time.Minute)

	removed, err := s.InvalidateExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, ok := s.Get(long)
	assert.True(t, ok)
}

func TestStore_ClearAndStats(t *testing.T) {
	s, clock := newTestStore(t)
	require.NoError(t, s.Put(SourceFingerprint("o/r", clock.Now()), KindSource, []byte("[]"), time.Hour))
	require.NoError(t, s.Put(SummaryFingerprint("m", "v1", "a"), KindSummary, []byte("a"), time.Minute))
	require.NoError(t, s.Put(SummaryFingerprint("m", "v1", "b"), KindSummary, []byte("b"), time.Hour))

	clock.Advance(2 * time.Minute)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total())
	assert.Equal(t, 2, stats.Valid())
	assert.Equal(t, KindStat{Total: 2, Valid: 1, Expired: 1, Bytes: stats.ByKind[KindSummary].Bytes}, stats.ByKind[KindSummary])
	assert.Equal(t, 1, stats.ByKind[KindSource].Valid)
	assert.Positive(t, stats.Bytes)

	require.NoError(t, s.Clear())

	stats, err = s.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Total())
	_, err = os.Stat(s.Dir())
	assert.NoError(t, err, "clear keeps the root directory")
}

func rewrite(t *testing.T, path string, entry *Entry) {
	t.Helper()
	data, err := json.Marshal(entry)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))
}
