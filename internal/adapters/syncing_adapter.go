// Package adapters composes persistence backends with the remote sync
// transport.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/persistence"
)

// Publisher announces that a profile changed.
type Publisher interface {
	PublishProfileSync(ctx context.Context, profile string, revision int64) error
}

// RevisionReader is implemented by backends that count their own saves.
type RevisionReader interface {
	Revision(ctx context.Context) (int64, error)
}

// SyncingAdapter saves locally first, then publishes one sync notice for
// every profile that changed or disappeared since the previous save.
// Publishing is best effort: a failed publish is logged and the save still
// succeeds, since the local copy is the source of truth.
type SyncingAdapter struct {
	local     persistence.Adapter
	publisher Publisher
	logger    *applog.Logger

	mu       sync.Mutex
	revision int64
	// serialized form of each profile as of the last save
	known map[string]string
}

var _ persistence.Adapter = (*SyncingAdapter)(nil)

func NewSyncingAdapter(local persistence.Adapter, publisher Publisher, logger *applog.Logger) *SyncingAdapter {
	if logger == nil {
		logger = applog.Discard()
	}
	return &SyncingAdapter{
		local:     local,
		publisher: publisher,
		logger:    logger.WithComponent(applog.ComponentAMQP),
		known:     make(map[string]string),
	}
}

// LoadProfiles reads from the local backend and remembers what was loaded,
// so the first save only announces real changes.
func (a *SyncingAdapter) LoadProfiles(ctx context.Context) ([]core.Profile, error) {
	profiles, err := a.local.LoadProfiles(ctx)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.known = fingerprints(profiles)
	return profiles, nil
}

func (a *SyncingAdapter) SaveProfiles(ctx context.Context, profiles []core.Profile) error {
	if err := a.local.SaveProfiles(ctx, profiles); err != nil {
		return fmt.Errorf("save locally: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	current := fingerprints(profiles)
	changed := diff(a.known, current)
	a.known = current
	if len(changed) == 0 || a.publisher == nil {
		return nil
	}

	rev := a.nextRevision(ctx)
	for _, name := range changed {
		if err := a.publisher.PublishProfileSync(ctx, name, rev); err != nil {
			a.logger.ErrorContext(ctx, "Failed to publish sync message",
				applog.FieldProfile, name,
				applog.FieldRevision, rev,
				applog.FieldError, err,
				applog.FieldErrorType, applog.ErrorTypeNetwork)
		}
	}
	return nil
}

// nextRevision prefers the backend's own save counter and falls back to a
// local one when the backend has none.
func (a *SyncingAdapter) nextRevision(ctx context.Context) int64 {
	if rr, ok := a.local.(RevisionReader); ok {
		if rev, err := rr.Revision(ctx); err == nil && rev > a.revision {
			a.revision = rev
			return rev
		}
	}
	a.revision++
	return a.revision
}

func fingerprints(profiles []core.Profile) map[string]string {
	out := make(map[string]string, len(profiles))
	for _, p := range profiles {
		data, err := json.Marshal(p)
		if err != nil {
			// unreachable for valid ledgers; force a publish
			out[p.Name] = ""
			continue
		}
		out[p.Name] = string(data)
	}
	return out
}

// diff lists, sorted, the names added, modified or removed between two saves.
func diff(before, after map[string]string) []string {
	var names []string
	for name, fp := range after {
		if prev, ok := before[name]; !ok || prev != fp || fp == "" {
			names = append(names, name)
		}
	}
	for name := range before {
		if _, ok := after[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
