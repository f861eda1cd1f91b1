// Package persistence defines the storage boundary of the profile store.
package persistence

import (
	"context"

	"carteira/internal/core"
)

// ProfilesKey is the key the whole profile set is stored under.
const ProfilesKey = "profiles"

// Ports for outbound adapters.
type (
	Loader interface {
		// LoadProfiles returns every stored profile, in stored order.
		LoadProfiles(ctx context.Context) ([]core.Profile, error)
	}

	// Saver receives the full profile set after every mutation.
	Saver interface {
		SaveProfiles(ctx context.Context, profiles []core.Profile) error
	}

	Adapter interface {
		Loader
		Saver
	}
)
