package sheets

import (
	"context"

	"carteira/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerMirror keeps a read-only copy of each profile outside the app.
	LedgerMirror interface {
		// MirrorProfile replaces the mirrored copy of p.
		MirrorProfile(ctx context.Context, p core.Profile) error
		// DeleteProfile drops the mirror of a profile. Unknown names are
		// not an error.
		DeleteProfile(ctx context.Context, name string) error
	}
)
