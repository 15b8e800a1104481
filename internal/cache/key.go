package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// KeyBuilder accumulates named parameters and hashes them into a
// fingerprint. Parameter order does not affect the result.
type KeyBuilder struct {
	params map[string]string
}

// NewKey returns an empty KeyBuilder.
func NewKey() *KeyBuilder {
	return &KeyBuilder{params: make(map[string]string)}
}

// Add sets a parameter. Adding the same name twice keeps the last value.
func (k *KeyBuilder) Add(name, value string) *KeyBuilder {
	k.params[name] = value
	return k
}

// Sum returns the hex-encoded SHA-256 of the canonicalized parameters.
func (k *KeyBuilder) Sum() string {
	names := make([]string, 0, len(k.params))
	for name := range k.params {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write([]byte(k.params[name]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SummaryFingerprint identifies a summarizer response. A change to the
// model or the prompt template version yields a new fingerprint.
func SummaryFingerprint(model, promptVersion, content string) string {
	return NewKey().
		Add("kind", string(KindSummary)).
		Add("model", model).
		Add("prompt_version", promptVersion).
		Add("content", content).
		Sum()
}

// SourceFingerprint identifies a repository's activity fetched from the
// calendar day of since onward.
func SourceFingerprint(repo string, since time.Time) string {
	return NewKey().
		Add("kind", string(KindSource)).
		Add("repo", strings.ToLower(repo)).
		Add("since_day", since.Format(time.DateOnly)).
		Sum()
}

// validFingerprint reports whether fp is a lowercase hex SHA-256 digest.
// Anything else would escape the two-level directory layout.
func validFingerprint(fp string) bool {
	if len(fp) != sha256.Size*2 {
		return false
	}
	for _, c := range fp {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
