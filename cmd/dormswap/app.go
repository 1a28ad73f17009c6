package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/dormswap/internal/apiclient"
	"github.com/erazemk/dormswap/internal/auth"
	"github.com/erazemk/dormswap/internal/cache"
	"github.com/erazemk/dormswap/internal/catalog"
	"github.com/erazemk/dormswap/internal/config"
	"github.com/erazemk/dormswap/internal/db"
	"github.com/erazemk/dormswap/internal/profile"
	"github.com/erazemk/dormswap/internal/session"
)

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	db       *sql.DB
	cache    *cache.Client
	api      *apiclient.Client
	sessions *session.Store
	auth     *auth.Service
	catalog  *catalog.Store

	closeLog func()
}

// newApp loads configuration, opens local storage and wires the stores.
func newApp(ctx context.Context, server bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := setupLogger(cfg.Log.Level, cfg.Log.File, server)
	if err != nil {
		return nil, err
	}

	database, err := db.OpenAndMigrate(cfg.Storage.Path)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	logger.Debug("storage ready", "path", cfg.Storage.Path)

	a := &app{
		cfg:      cfg,
		log:      logger,
		db:       database,
		closeLog: closeLog,
	}

	a.sessions = session.New(database, logger)
	a.api = apiclient.New(cfg.API.URL, logger,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithTokenSource(a.sessions.Token),
	)
	a.auth = auth.NewService(a.api, a.sessions, logger)

	opts := []catalog.Option{catalog.WithPageSize(cfg.Catalog.PageSize)}
	if cfg.Cache.Enabled() {
		a.cache = cache.New(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, cfg.Cache.TTL, logger)

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := a.cache.Ping(pingCtx); err != nil {
			logger.Warn("redis unavailable, item details will not be cached", "addr", cfg.Cache.RedisAddr, "error", err)
		}
		cancel()

		opts = append(opts, catalog.WithCache(a.cache))
	}
	a.catalog = catalog.New(a.api, a.sessions, logger, opts...)

	return a, nil
}

// profile returns a fresh profile store.
func (a *app) profile(ctx context.Context) *profile.Store {
	var opts []profile.Option
	if a.cache != nil {
		opts = append(opts, profile.WithCache(a.cache))
	}
	return profile.New(ctx, a.api, a.sessions, a.log, opts...)
}

// Close releases every resource opened by newApp.
func (a *app) Close() {
	a.catalog.Close()
	if a.cache != nil {
		a.cache.Close()
	}
	a.db.Close()
	a.closeLog()
}
