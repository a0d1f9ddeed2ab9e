// Package store persists the tracker state to local disk.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nhle/persistdo/internal/model"
)

// Persister loads and saves the whole application state as one record.
type Persister interface {
	// Load returns the saved state, or nil with no error when nothing
	// has been saved yet.
	Load(ctx context.Context) (*model.AppState, error)

	// Save replaces the saved state.
	Save(ctx context.Context, state model.AppState) error

	Close() error
}

// Open returns the persister selected by cfg, creating the parent
// directory of the storage path if needed.
func Open(cfg model.StorageConfig) (Persister, error) {
	if cfg.Path != ":memory:" {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory %s: %w", dir, err)
		}
	}

	switch cfg.Driver {
	case model.DriverSQLite, "":
		return NewSQLiteStore(cfg.Path)
	case model.DriverJSON:
		return NewJSONStore(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
