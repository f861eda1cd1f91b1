package backend

import (
	"context"

	"carteira/internal/persistence"
)

// CleanupFunc releases whatever a backend holds open.
type CleanupFunc func() error

// HealthFunc reports whether a backend can serve requests.
type HealthFunc func(ctx context.Context) error

// BackendResult contains the persistence adapter and its lifecycle hooks.
type BackendResult struct {
	Adapter persistence.Adapter
	Cleanup CleanupFunc
	Health  HealthFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory backend
	DataDirectory string

	// SQLite backend
	SQLiteDBPath string

	// Sync; disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
