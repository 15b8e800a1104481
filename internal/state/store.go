// Package state persists the tracked repository set between runs.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spiffcs/ghreport/internal/log"
	"github.com/spiffcs/ghreport/internal/model"
)

// fileVersion is bumped when the on-disk layout changes.
const fileVersion = 1

// State is the set of tracked repositories plus the time of the last
// completed run. It is loaded once per run, mutated by the tracker and by
// Touch as activity is observed, and saved once at the end.
type State struct {
	mu      sync.RWMutex
	lastRun time.Time
	repos   map[string]*model.RepoProfile // keyed by lowercased name
}

// document is the JSON form of State.
type document struct {
	Version int                  `json:"version"`
	LastRun time.Time            `json:"lastRun,omitzero"`
	Repos   []*model.RepoProfile `json:"repos"`
}

// New returns an empty state.
func New() *State {
	return &State{repos: make(map[string]*model.RepoProfile)}
}

// DefaultPath returns ~/.cache/ghreport/state.json (or the platform
// equivalent).
func DefaultPath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "ghreport", "state.json"), nil
}

// Load reads the state at path. A missing file yields an empty state. An
// unreadable file is logged and also yields an empty state, since the
// state can always be rebuilt from config and discovery.
func Load(path string) (*State, error) {
	s := New()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("reading state %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Warn("could not parse state file, starting fresh", "path", path, "error", err)
		return s, nil
	}

	s.lastRun = doc.LastRun
	for _, p := range doc.Repos {
		if p == nil || p.Name == "" {
			continue
		}
		s.repos[key(p.Name)] = p
	}
	log.Debug("loaded state", "path", path, "repos", len(s.repos), "lastRun", s.lastRun)
	return s, nil
}

// Save writes the state to path atomically, creating parent directories.
func (s *State) Save(path string) error {
	s.mu.RLock()
	doc := document{
		Version: fileVersion,
		LastRun: s.lastRun,
		Repos:   s.sortedLocked(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}

// SyncConfigured reconciles the state with the repositories named in
// configuration. Configured repositories are added or refreshed and are
// never auto-tracked. Repositories that were configured but no longer are
// become auto-tracked so they age out through normal inactivity. The names
// of such demoted repositories are returned.
func (s *State) SyncConfigured(configured []model.RepoProfile, now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	inConfig := make(map[string]bool, len(configured))
	for _, c := range configured {
		k := key(c.Name)
		inConfig[k] = true

		existing, ok := s.repos[k]
		if !ok {
			p := c
			p.AutoTracked = false
			p.Manual = false
			if p.TrackedSince.IsZero() {
				p.TrackedSince = now
			}
			s.repos[k] = &p
			continue
		}
		existing.Name = c.Name
		existing.Labels = slices.Clone(c.Labels)
		existing.Importance = c.Importance
		existing.CustomContext = c.CustomContext
		existing.WatchRules = slices.Clone(c.WatchRules)
		existing.LabelImportance = c.LabelImportance
		existing.LabelContext = c.LabelContext
		existing.LabelWatchRules = slices.Clone(c.LabelWatchRules)
		existing.AutoTracked = false
		existing.Manual = false
	}

	var demoted []string
	for k, p := range s.repos {
		if inConfig[k] || p.AutoTracked || p.Manual {
			continue
		}
		p.AutoTracked = true
		if p.LastSeen.IsZero() {
			p.LastSeen = now
		}
		demoted = append(demoted, p.Name)
	}
	slices.Sort(demoted)
	return demoted
}

// Since returns the lower time bound for this run's fetch: the later of
// the previous run and now minus maxLookback.
func (s *State) Since(now time.Time, maxLookback time.Duration) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	floor := now.Add(-maxLookback)
	if s.lastRun.After(floor) {
		return s.lastRun
	}
	return floor
}

// LastRun returns the time the last run completed.
func (s *State) LastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

// SetLastRun records the completion time of a run.
func (s *State) SetLastRun(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = t
}

// Touch records activity on a tracked repository. LastSeen only moves
// forward. Untracked repositories are ignored.
func (s *State) Touch(repo string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.repos[key(repo)]; ok && at.After(p.LastSeen) {
		p.LastSeen = at
	}
}

// SetActivityScore records the latest weighted activity for a repository.
func (s *State) SetActivityScore(repo string, score int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.repos[key(repo)]; ok {
		p.ActivityScore = score
	}
}

// Add starts tracking a repository. It returns false if the repository is
// already tracked.
func (s *State) Add(p model.RepoProfile) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(p.Name)
	if _, ok := s.repos[k]; ok {
		return false
	}
	s.repos[k] = &p
	return true
}

// Remove stops tracking a repository. It returns false if the repository
// was not tracked.
func (s *State) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(name)
	if _, ok := s.repos[k]; !ok {
		return false
	}
	delete(s.repos, k)
	return true
}

// Get returns a copy of a tracked repository's profile.
func (s *State) Get(name string) (model.RepoProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.repos[key(name)]
	if !ok {
		return model.RepoProfile{}, false
	}
	return *p, true
}

// Tracked reports whether a repository is in the tracked set.
func (s *State) Tracked(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.repos[key(name)]
	return ok
}

// Profiles returns copies of every tracked profile, sorted by name.
func (s *State) Profiles() []model.RepoProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := s.sortedLocked()
	out := make([]model.RepoProfile, len(sorted))
	for i, p := range sorted {
		out[i] = *p
	}
	return out
}

// Names returns the tracked repository names, sorted.
func (s *State) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.repos))
	for _, p := range s.repos {
		names = append(names, p.Name)
	}
	slices.SortFunc(names, func(a, b string) int { return strings.Compare(key(a), key(b)) })
	return names
}

// Len returns the number of tracked repositories.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.repos)
}

func (s *State) sortedLocked() []*model.RepoProfile {
	out := make([]*model.RepoProfile, 0, len(s.repos))
	for _, p := range s.repos {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *model.RepoProfile) int { return strings.Compare(key(a.Name), key(b.Name)) })
	return out
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
