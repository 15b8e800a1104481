package cache

import "time"

// formatVersion should be incremented when the on-disk entry layout changes
// so that entries written by older builds are treated as misses.
const formatVersion = 1

// Kind namespaces cache entries by what produced them.
type Kind string

const (
	// KindSource holds a repository's fetched activity for one calendar day.
	KindSource Kind = "source"
	// KindSummary holds a summarizer response for one item.
	KindSummary Kind = "summary"
)

// AllKinds returns every entry kind in display order.
func AllKinds() []Kind {
	return []Kind{KindSource, KindSummary}
}

// Entry is the persisted form of one cached payload. Entries are written
// once and never modified; a newer Put for the same fingerprint replaces
// the file.
type Entry struct {
	Version     int       `json:"version"`
	Fingerprint string    `json:"fingerprint"`
	Kind        Kind      `json:"kind"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Compressed  bool      `json:"compressed,omitempty"`
	Checksum    string    `json:"checksum"` // sha256 of the uncompressed payload
	Payload     []byte    `json:"payload"`
}

// Expired reports whether the entry's TTL has elapsed at now.
func (e *Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// KindStat summarizes the entries of a single kind.
type KindStat struct {
	Total   int
	Valid   int
	Expired int
	Bytes   int64
}

// Stats contains cache statistics broken down by kind.
type Stats struct {
	ByKind  map[Kind]KindStat
	Corrupt int
	Bytes   int64
}

// Total returns the number of readable entries across all kinds.
func (s *Stats) Total() int {
	n := 0
	for _, ks := range s.ByKind {
		n += ks.Total
	}
	return n
}

// Valid returns the number of unexpired entries across all kinds.
func (s *Stats) Valid() int {
	n := 0
	for _, ks := range s.ByKind {
		n += ks.Valid
	}
	return n
}
