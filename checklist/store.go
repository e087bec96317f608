// ABOUTME: Checklist persistence backends selected by configuration
// ABOUTME: Store interface plus the factory for file, sqlite, badger and charm stores
package checklist

import (
	"context"
	"fmt"

	"github.com/jaksim/jaksim/charm"
	"github.com/jaksim/jaksim/config"
	"go.uber.org/zap"
)

// Store loads and saves the whole Book. Save overwrites everything
// previously stored; concurrent writers are not coordinated.
type Store interface {
	Load(ctx context.Context) (Book, error)
	Save(ctx context.Context, book Book) error
	Close() error
}

// Open returns the backend named by cfg.Backend. cfg is expected to be normalized.
func Open(cfg config.ChecklistConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Path, logger), nil

	case config.BackendSQLite:
		return OpenSQLiteStore(cfg.Path)

	case config.BackendBadger:
		kv, err := charm.OpenLocal(cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewKVStore(kv), nil

	case config.BackendCharm:
		kv, err := charm.Open(charm.Options{Host: cfg.CharmHost, AutoSync: cfg.AutoSync})
		if err != nil {
			return nil, err
		}
		return NewKVStore(kv), nil

	default:
		return nil, fmt.Errorf("unknown checklist backend %q", cfg.Backend)
	}
}
