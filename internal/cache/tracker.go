// Package cache tracks when each entity kind was last successfully synced for
// an organization/project pair. The tracker is advisory process-local state:
// it is never persisted and losing it only causes an extra sync.
package cache

import (
	"strings"
	"sync"
	"time"
)

// Entity kinds tracked per organization/project.
const (
	KindRepositories = "repositories"
	KindSprints      = "sprints"
	KindWorkItems    = "workItems"
	KindTeamMembers  = "teamMembers"
	KindPullRequests = "pullRequests"
	KindCommits      = "commits"
)

// DefaultTTL is the freshness window applied when callers have no override.
const DefaultTTL = 5 * time.Minute

type Tracker struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func key(kind, organization, project string) string {
	return kind + ":" + organization + ":" + project
}

// IsStale reports whether the cached data for the triple must be refreshed.
// A kind that has never been synced is treated as infinitely stale, and an
// entry exactly ttl old is already stale.
func (t *Tracker) IsStale(kind, organization, project string, ttl time.Duration) bool {
	t.mu.RLock()
	last, ok := t.entries[key(kind, organization, project)]
	t.mu.RUnlock()

	if !ok {
		return true
	}
	return t.now().Sub(last) >= ttl
}

// RecordSync marks the triple as synced now. It is called only after a
// successful fetch-and-upsert cycle for that kind.
func (t *Tracker) RecordSync(kind, organization, project string) {
	t.mu.Lock()
	t.entries[key(kind, organization, project)] = t.now()
	t.mu.Unlock()
}

func (t *Tracker) LastSync(kind, organization, project string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	last, ok := t.entries[key(kind, organization, project)]
	return last, ok
}

// Forget drops every kind recorded for the organization/project pair. Used by
// cache clearing so the next sync is not gated by stale timestamps.
func (t *Tracker) Forget(organization, project string) {
	suffix := ":" + organization + ":" + project

	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.entries {
		if strings.HasSuffix(k, suffix) {
			delete(t.entries, k)
		}
	}
}
