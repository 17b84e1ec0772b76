package exclusion

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wonny/tradelens/pkg/config"
	"github.com/wonny/tradelens/pkg/database"
	"github.com/wonny/tradelens/pkg/redis"
)

// ErrNotFound is returned by a Store when no record exists for a key
var ErrNotFound = errors.New("exclusion record not found")

// Store is a key-value store of exclusion records
type Store interface {
	Get(ctx context.Context, key string) (Record, error)
	Put(ctx context.Context, key string, rec Record) error
	Delete(ctx context.Context, key string) error
}

// DefaultDir is the per-user application data directory for the file store
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate user config dir: %w", err)
	}
	return filepath.Join(base, "tradelens", "feature_exclusions"), nil
}

// Deps are the shared connections a non-file backend needs
type Deps struct {
	DB    *database.DB
	Redis *redis.Client
}

// NewStore builds the backend selected by cfg.Exclusion.Backend
func NewStore(ctx context.Context, cfg *config.Config, deps Deps) (Store, error) {
	switch cfg.Exclusion.Backend {
	case "", config.BackendFile:
		dir := cfg.Exclusion.Dir
		if dir == "" {
			d, err := DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return NewFileStore(dir), nil

	case config.BackendRedis:
		if deps.Redis == nil || !deps.Redis.Enabled() {
			return nil, fmt.Errorf("exclusion backend %q requires an enabled redis client", cfg.Exclusion.Backend)
		}
		return NewRedisStore(deps.Redis, "tradelens"), nil

	case config.BackendPostgres:
		if deps.DB == nil {
			return nil, fmt.Errorf("exclusion backend %q requires a database", cfg.Exclusion.Backend)
		}
		store := NewPostgresStore(deps.DB.Pool)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown exclusion backend %q", cfg.Exclusion.Backend)
	}
}
