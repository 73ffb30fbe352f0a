package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/localpulse/listings-cli/internal/store"
	"github.com/localpulse/listings-cli/internal/syncer"
	"github.com/localpulse/listings-cli/pkg/places"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "listings.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initClient() places.Client {
	return places.NewClient(
		places.WithBaseURL(cfg.Provider.BaseURL),
		places.WithRateLimit(cfg.Provider.RateLimitRPS),
	)
}

func initSyncer(st store.Store) *syncer.Syncer {
	return syncer.New(st, initClient(),
		syncer.WithPublishTimeout(time.Duration(cfg.Publish.TimeoutSecs)*time.Second),
	)
}
