// Package app assembles the stores shared by the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/storefront/internal/auth"
	"github.com/mmynk/storefront/internal/config"
	"github.com/mmynk/storefront/internal/contact"
	"github.com/mmynk/storefront/internal/storage"
	"github.com/mmynk/storefront/internal/storage/memory"
	"github.com/mmynk/storefront/internal/storage/redis"
	"github.com/mmynk/storefront/internal/storage/sqlite"
)

// App holds the persisted store and the two domain stores built on it.
type App struct {
	Store    storage.Store
	Accounts *auth.AccountStore
	Messages *contact.MessageStore
}

// OpenStore opens the backend named by cfg.Backend.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return sqlite.New(cfg.DBPath)
	case config.BackendRedis:
		return redis.New(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case config.BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// New opens the configured store and loads the account state so a malformed
// record is reported at startup rather than on the first request.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}

	a := &App{
		Store:    store,
		Accounts: auth.NewAccountStore(store, auth.WithLogger(logger)),
		Messages: contact.NewMessageStore(store, contact.WithLogger(logger)),
	}
	state, err := a.Accounts.Initialize(ctx)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	logger.Info("Stores initialized",
		"backend", cfg.Backend,
		"accounts", len(state.Accounts),
		"authenticated", state.Session.IsAuthenticated,
	)
	return a, nil
}

// Close releases the underlying store.
func (a *App) Close() error {
	return a.Store.Close()
}
