package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"carteira/internal/amqp"
	"carteira/internal/core"
	pmemory "carteira/internal/persistence/memory"
	smemory "carteira/internal/sheets/memory"
)

type failingMirror struct {
	*smemory.Mirror
	err error
}

func (f failingMirror) MirrorProfile(context.Context, core.Profile) error { return f.err }

func seed(t *testing.T, profiles ...core.Profile) *pmemory.Store {
	t.Helper()
	store := pmemory.New()
	if err := store.SaveProfiles(context.Background(), profiles); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func TestHandleSyncMessageMirrorsStoredProfile(t *testing.T) {
	ctx := context.Background()
	p := core.NewProfile("Casa")
	p.Ledger.Add(core.Income, 100, "Salario", time.Now())
	mirror := smemory.New()
	w := NewSyncWorker(seed(t, p), mirror, nil)

	if err := w.HandleSyncMessage(ctx, amqp.NewProfileSyncMessage("Casa", 1)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	got, ok, err := mirror.Profile("Casa")
	if err != nil || !ok {
		t.Fatalf("profile not mirrored: ok=%v err=%v", ok, err)
	}
	if got.Ledger.Len(core.Income) != 1 {
		t.Fatalf("mirrored ledger incomplete")
	}
}

func TestHandleSyncMessageDeletesMissingProfile(t *testing.T) {
	ctx := context.Background()
	mirror := smemory.New()
	mirror.MirrorProfile(ctx, core.NewProfile("Old"))
	w := NewSyncWorker(seed(t), mirror, nil)

	if err := w.HandleSyncMessage(ctx, amqp.NewProfileSyncMessage("Old", 3)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if tabs := mirror.Tabs(); len(tabs) != 0 {
		t.Fatalf("mirror of deleted profile kept: %v", tabs)
	}
}

func TestHandleSyncMessageSkipsStaleRevisions(t *testing.T) {
	ctx := context.Background()
	mirror := smemory.New()
	w := NewSyncWorker(seed(t, core.NewProfile("Casa")), mirror, nil)

	w.HandleSyncMessage(ctx, amqp.NewProfileSyncMessage("Casa", 5))
	mirror.DeleteProfile(ctx, "Casa")

	if err := w.HandleSyncMessage(ctx, amqp.NewProfileSyncMessage("Casa", 4)); err != nil {
		t.Fatalf("stale message should be acknowledged: %v", err)
	}
	if len(mirror.Tabs()) != 0 {
		t.Fatalf("stale message was processed")
	}

	w.HandleSyncMessage(ctx, amqp.NewProfileSyncMessage("Casa", 5))
	if len(mirror.Tabs()) != 1 {
		t.Fatalf("redelivered current revision should be processed")
	}
}

func TestHandleSyncMessageReturnsMirrorErrors(t *testing.T) {
	ctx := context.Background()
	mirror := failingMirror{Mirror: smemory.New(), err: errors.New("quota exceeded")}
	w := NewSyncWorker(seed(t, core.NewProfile("Casa")), mirror, nil)

	if err := w.HandleSyncMessage(ctx, amqp.NewProfileSyncMessage("Casa", 1)); err == nil {
		t.Fatalf("expected mirror error to be returned for requeue")
	}
	// a failed revision is not recorded, so its redelivery is processed
	if w.isStale(amqp.NewProfileSyncMessage("Casa", 0)) {
		t.Fatalf("failed message must not advance the handled revision")
	}
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	mirror := smemory.New()
	w := NewSyncWorker(seed(t, core.NewProfile("A"), core.NewProfile("B")), mirror, nil)

	if err := w.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if tabs := mirror.Tabs(); len(tabs) != 2 {
		t.Fatalf("tabs = %v", tabs)
	}

	bad := NewSyncWorker(seed(t, core.NewProfile("A")), failingMirror{Mirror: smemory.New(), err: errors.New("x")}, nil)
	if err := bad.Reconcile(ctx); err == nil {
		t.Fatalf("expected reconcile error")
	}
}

func TestRunReconcilerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewSyncWorker(seed(t), smemory.New(), nil)

	done := make(chan error, 1)
	go func() { done <- w.RunReconciler(ctx, time.Millisecond) }()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}
