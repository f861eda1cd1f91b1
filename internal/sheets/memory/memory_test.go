package memory

import (
	"context"
	"testing"
	"time"

	"carteira/internal/core"
)

func TestMirrorReplacesAndDeletes(t *testing.T) {
	ctx := context.Background()
	m := New()

	p := core.NewProfile("Casa")
	p.Ledger.Add(core.Expense, 40, "Gas", time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC))
	if err := m.MirrorProfile(ctx, p); err != nil {
		t.Fatalf("mirror: %v", err)
	}
	p.Ledger.Add(core.Expense, 10, "Pao", time.Date(2024, time.April, 3, 0, 0, 0, 0, time.UTC))
	m.MirrorProfile(ctx, p)
	m.MirrorProfile(ctx, core.NewProfile("Viagem"))

	got, ok, err := m.Profile("Casa")
	if err != nil || !ok {
		t.Fatalf("profile: ok=%v err=%v", ok, err)
	}
	if got.Ledger.Len(core.Expense) != 2 {
		t.Fatalf("mirror should hold the latest copy, got %d expenses", got.Ledger.Len(core.Expense))
	}

	if err := m.DeleteProfile(ctx, "Casa"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := m.DeleteProfile(ctx, "missing"); err != nil {
		t.Fatalf("deleting an unknown tab should be a no-op: %v", err)
	}
	if tabs := m.Tabs(); len(tabs) != 1 || tabs[0] != "Viagem" {
		t.Fatalf("tabs = %v", tabs)
	}
	if _, ok, _ := m.Profile("Casa"); ok {
		t.Fatalf("deleted profile still mirrored")
	}
}
