// Package storage selects and prepares the persistence backend.
package storage

import (
	"context"
	"time"

	"github.com/jrsteele09/go-marathon-server/internal/config"
	"github.com/jrsteele09/go-marathon-server/internal/retry"
	"github.com/jrsteele09/go-marathon-server/sessions"
	"github.com/jrsteele09/go-marathon-server/storage/inmemory"
	"github.com/jrsteele09/go-marathon-server/storage/postgres"
	"github.com/jrsteele09/go-marathon-server/storage/redisstore"
	"github.com/jrsteele09/go-marathon-server/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Store is one backend serving both the user and the session contracts.
type Store interface {
	users.Repo
	sessions.Repo

	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*inmemory.Store)(nil)
	_ Store = (*postgres.Store)(nil)
	_ Store = (*redisstore.Store)(nil)
)

// Open constructs the backend named by the configuration. It does not wait
// for the backend to answer; see Setup.
func Open(c config.StorageConfig) (Store, error) {
	switch backend := c.GetStoreBackend(); backend {
	case config.StoreMemory:
		return inmemory.New(), nil
	case config.StorePostgres:
		return postgres.Open(c.GetDatabaseURL())
	case config.StoreRedis:
		return redisstore.Open(c.GetRedisURL())
	default:
		return nil, errors.Errorf("[storage.Open] unknown store backend %q", backend)
	}
}

// Setup waits for store to answer and applies its migrations, retrying with
// a linearly growing delay.
func Setup(ctx context.Context, store Store, attempts int, step time.Duration) error {
	err := retry.Linear(ctx, "store setup", attempts, step, func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return err
		}
		return store.Migrate(ctx)
	})
	if err != nil {
		return errors.Wrap(err, "[storage.Setup] store not ready")
	}
	log.Info().Msg("store ready")
	return nil
}
