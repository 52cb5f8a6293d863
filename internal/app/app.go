// Package app opens the store, cache and token verifier selected by config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/janisto/linkglyph/internal/config"
	"github.com/janisto/linkglyph/internal/platform/auth"
	"github.com/janisto/linkglyph/internal/platform/firebase"
	applog "github.com/janisto/linkglyph/internal/platform/logging"
	profilesvc "github.com/janisto/linkglyph/internal/service/profile"
)

// Resources are the long-lived dependencies shared by the server and the admin
// CLI. Close releases them in reverse order of acquisition.
type Resources struct {
	Store    profilesvc.Service
	Verifier auth.Verifier

	// SQL is set for the postgres and sqlite drivers.
	SQL *profilesvc.SQLStore

	checks  map[string]func(context.Context) error
	closers []func() error
}

// Open connects the configured store, wraps it with the Redis lookup cache when
// REDIS_ADDR is set, and creates the Firebase token verifier when auth is on.
// An unreachable Redis is logged and the store runs uncached.
func Open(ctx context.Context, cfg config.Config) (_ *Resources, err error) {
	r := &Resources{checks: make(map[string]func(context.Context) error)}
	defer func() {
		if err != nil {
			_ = r.Close()
		}
	}()

	var clients *firebase.Clients
	if cfg.UsesFirebase() {
		projectID, err := cfg.ProjectID()
		if err != nil {
			return nil, err
		}
		if cfg.FirebaseProjectID == "" {
			applog.LogWarn(ctx, "using demo-test-project for local development")
		}
		clients, err = firebase.InitializeClients(ctx, firebase.Config{ProjectID: projectID})
		if err != nil {
			return nil, fmt.Errorf("firebase init: %w", err)
		}
		r.closers = append(r.closers, clients.Close)
	}

	switch cfg.StoreDriver {
	case config.StoreFirestore:
		fs := profilesvc.NewFirestoreStore(clients.Firestore)
		r.checks["store"] = fs.Ping
		r.Store = fs
	case config.StorePostgres, config.StoreSQLite:
		sqlStore, err := profilesvc.OpenSQL(cfg.StoreDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		r.closers = append(r.closers, sqlStore.Close)
		r.checks["store"] = sqlStore.Ping
		r.SQL = sqlStore
		r.Store = sqlStore
	case config.StoreMemory:
		r.Store = profilesvc.NewMockStore()
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}

	if cfg.RedisAddr != "" {
		rdb, err := profilesvc.NewRedisClient(ctx, profilesvc.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			applog.LogWarn(ctx, "lookup cache disabled", slog.String("error", err.Error()))
		} else {
			r.closers = append(r.closers, rdb.Close)
			cached := profilesvc.NewCachedStore(r.Store, rdb, cfg.CacheTTL)
			r.checks["cache"] = cached.PingCache
			r.Store = cached
		}
	}

	if cfg.AuthEnabled && clients != nil {
		r.Verifier = auth.NewFirebaseVerifier(clients.Auth)
	}

	return r, nil
}

// Migrate creates the SQL schema. It is a no-op for the other drivers.
func (r *Resources) Migrate(ctx context.Context) error {
	if r.SQL == nil {
		return nil
	}
	return r.SQL.Migrate(ctx)
}

// Checks returns the readiness checks for the opened backends, keyed by name.
func (r *Resources) Checks() map[string]func(context.Context) error {
	return r.checks
}

// Close releases every opened client.
func (r *Resources) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
