package pipeline

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/spiffcs/ghreport/internal/summarize"
)

// runState is the ephemeral state of one run.
type runState struct {
	id  string
	now time.Time

	// group collapses concurrent resolution of the same fingerprint.
	group singleflight.Group

	mu       sync.Mutex
	resolved map[string]summarize.Result
	degraded map[string]error
	// servedAt is the oldest fetch time of any source entry served from
	// cache, or zero when every repository was fetched fresh.
	servedAt time.Time
}

func newRunState(id string, now time.Time) *runState {
	return &runState{
		id:       id,
		now:      now,
		resolved: make(map[string]summarize.Result),
		degraded: make(map[string]error),
	}
}

func (rs *runState) lookup(fp string) (summarize.Result, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	res, ok := rs.resolved[fp]
	return res, ok
}

func (rs *runState) markResolved(fp string, res summarize.Result) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.resolved[fp] = res
}

// degradedErr returns the error a fingerprint already degraded with.
func (rs *runState) degradedErr(fp string) (error, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	err, ok := rs.degraded[fp]
	return err, ok
}

func (rs *runState) markDegraded(fp string, err error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.degraded[fp] = err
}

func (rs *runState) servedFromCache(fetchedAt time.Time) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.servedAt.IsZero() || fetchedAt.Before(rs.servedAt) {
		rs.servedAt = fetchedAt
	}
}

// watermark is the time the run has seen activity up to: the run start,
// or the oldest cached fetch it relied on.
func (rs *runState) watermark() time.Time {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if !rs.servedAt.IsZero() && rs.servedAt.Before(rs.now) {
		return rs.servedAt
	}
	return rs.now
}
