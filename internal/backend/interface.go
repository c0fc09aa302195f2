package backend

import (
	"context"

	"footprint/internal/store"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result holds the store the binaries serve from.
type Result struct {
	Store store.Store
	// Ready checks the underlying storage; memory backends are always ready.
	Ready   func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

type Config struct {
	Type Type

	SQLiteDBPath string

	// FactorsFile overrides the embedded reference table. Empty means embedded.
	FactorsFile string
}

// Type selects the store implementation.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
