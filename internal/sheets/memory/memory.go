// Package memory is an in-process ledger mirror, used when no spreadsheet
// is configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"carteira/internal/core"
	"carteira/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	tabs map[string][][]any
}

var _ sheets.LedgerMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{tabs: make(map[string][][]any)}
}

// MirrorProfile stores the encoded rows of p, replacing any previous copy.
func (m *Mirror) MirrorProfile(_ context.Context, p core.Profile) error {
	rows := sheets.EncodeRows(p)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tabs[p.Name] = rows
	return nil
}

func (m *Mirror) DeleteProfile(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tabs, name)
	return nil
}

// Tabs returns the mirrored profile names, sorted.
func (m *Mirror) Tabs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.tabs))
	for name := range m.tabs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile decodes the mirrored copy of name.
func (m *Mirror) Profile(name string) (core.Profile, bool, error) {
	m.mu.Lock()
	rows, ok := m.tabs[name]
	m.mu.Unlock()
	if !ok {
		return core.Profile{}, false, nil
	}
	p, err := sheets.DecodeRows(name, rows)
	return p, true, err
}
