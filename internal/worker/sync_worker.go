package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"carteira/internal/amqp"
	"carteira/internal/core"
	applog "carteira/internal/log"
	"carteira/internal/persistence"
	"carteira/internal/sheets"
)

// SyncWorker mirrors profiles from the local database to a LedgerMirror in
// response to sync notices.
type SyncWorker struct {
	source persistence.Loader
	mirror sheets.LedgerMirror
	logger *applog.Logger

	mu sync.Mutex
	// highest revision handled per profile
	handled map[string]int64
}

func NewSyncWorker(source persistence.Loader, mirror sheets.LedgerMirror, logger *applog.Logger) *SyncWorker {
	if logger == nil {
		logger = applog.Discard()
	}
	return &SyncWorker{
		source:  source,
		mirror:  mirror,
		logger:  logger.WithComponent(applog.ComponentWorker),
		handled: make(map[string]int64),
	}
}

// HandleSyncMessage mirrors the named profile as currently stored, or drops
// its mirror when the profile no longer exists. Notices older than one
// already handled for the same profile are acknowledged without work.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ProfileSyncMessage) error {
	if w.isStale(msg) {
		w.logger.DebugContext(ctx, "Skipping stale sync message",
			applog.FieldProfile, msg.Profile,
			applog.FieldRevision, msg.Revision)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing sync message",
		applog.FieldProfile, msg.Profile,
		applog.FieldRevision, msg.Revision)

	profiles, err := w.source.LoadProfiles(ctx)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	if p, ok := find(profiles, msg.Profile); ok {
		if err := w.mirror.MirrorProfile(ctx, p); err != nil {
			return fmt.Errorf("mirror profile %q: %w", msg.Profile, err)
		}
	} else {
		if err := w.mirror.DeleteProfile(ctx, msg.Profile); err != nil {
			return fmt.Errorf("delete mirror of %q: %w", msg.Profile, err)
		}
		w.logger.InfoContext(ctx, "Profile gone, mirror removed", applog.FieldProfile, msg.Profile)
	}

	w.markHandled(msg)
	return nil
}

// Reconcile mirrors every stored profile. It backs up the message flow when
// notices were lost while the worker was down.
func (w *SyncWorker) Reconcile(ctx context.Context) error {
	start := time.Now()
	profiles, err := w.source.LoadProfiles(ctx)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}

	failed := 0
	for _, p := range profiles {
		if err := w.mirror.MirrorProfile(ctx, p); err != nil {
			failed++
			w.logger.ErrorContext(ctx, "Failed to mirror profile",
				applog.FieldProfile, p.Name,
				applog.FieldError, err,
				applog.FieldOperation, applog.OpSync)
		}
	}

	w.logger.InfoContext(ctx, "Reconcile completed",
		applog.FieldProfiles, len(profiles),
		"failed", failed,
		applog.FieldDuration, time.Since(start).Milliseconds())
	if failed > 0 {
		return fmt.Errorf("reconcile: %d of %d profiles failed", failed, len(profiles))
	}
	return nil
}

// RunReconciler calls Reconcile every interval until ctx is done.
func (w *SyncWorker) RunReconciler(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Reconcile(ctx); err != nil {
				w.logger.WarnContext(ctx, "Periodic reconcile failed", applog.FieldError, err)
			}
		}
	}
}

func (w *SyncWorker) isStale(msg *amqp.ProfileSyncMessage) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	last, ok := w.handled[msg.Profile]
	return ok && msg.Revision < last
}

func (w *SyncWorker) markHandled(msg *amqp.ProfileSyncMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if msg.Revision > w.handled[msg.Profile] {
		w.handled[msg.Profile] = msg.Revision
	}
}

func find(profiles []core.Profile, name string) (core.Profile, bool) {
	for _, p := range profiles {
		if p.Name == name {
			return p, true
		}
	}
	return core.Profile{}, false
}
