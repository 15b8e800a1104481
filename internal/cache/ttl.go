package cache

import (
	"time"

	"github.com/spiffcs/ghreport/internal/constants"
)

// TTLFor returns the lifetime of a new entry of the given kind created at
// now. Source entries live until the next local midnight so a day's fetch
// is reused within the day only. Summary entries live for summaryTTL, or
// the default when summaryTTL is not positive.
func TTLFor(kind Kind, now time.Time, summaryTTL time.Duration) time.Duration {
	switch kind {
	case KindSource:
		return NextMidnight(now).Sub(now)
	default:
		if summaryTTL <= 0 {
			return constants.SummaryCacheTTL
		}
		return summaryTTL
	}
}

// NextMidnight returns the first midnight strictly after t in t's location.
func NextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}
