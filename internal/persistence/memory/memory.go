// Package memory is the local persistence backend. It keeps the serialized
// profile set under a single key and, when given a directory, mirrors it to
// a JSON file so data survives restarts.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"carteira/internal/core"
	"carteira/internal/persistence"
)

type Store struct {
	mu   sync.Mutex
	kv   map[string][]byte
	path string
}

var _ persistence.Adapter = (*Store)(nil)

// New returns a store that lives only in memory.
func New() *Store {
	return &Store{kv: make(map[string][]byte)}
}

// NewFromFiles returns a store backed by base/profiles.json. A missing file
// is treated as an empty profile set.
func NewFromFiles(base string) (*Store, error) {
	s := New()
	s.path = filepath.Join(base, persistence.ProfilesKey+".json")

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	s.kv[persistence.ProfilesKey] = data
	return s, nil
}

// LoadProfiles decodes the stored document.
func (s *Store) LoadProfiles(_ context.Context) ([]core.Profile, error) {
	s.mu.Lock()
	data, ok := s.kv[persistence.ProfilesKey]
	s.mu.Unlock()
	if !ok || len(data) == 0 {
		return nil, nil
	}

	var profiles []core.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("decode %s: %w", persistence.ProfilesKey, err)
	}
	return profiles, nil
}

// SaveProfiles replaces the stored document with profiles.
func (s *Store) SaveProfiles(_ context.Context, profiles []core.Profile) error {
	if profiles == nil {
		profiles = []core.Profile{}
	}
	data, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("encode %s: %w", persistence.ProfilesKey, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		if err := writeFileAtomic(s.path, data); err != nil {
			return err
		}
	}
	s.kv[persistence.ProfilesKey] = data
	return nil
}

// Raw returns the stored document, mainly for inspection in tests.
func (s *Store) Raw() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.kv[persistence.ProfilesKey]...)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".profiles-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
