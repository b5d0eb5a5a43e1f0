// Package app opens the process-wide resources and wires the services on
// top of them. Open it once at startup and Close it at shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/qr-redirect/pkg/adapters/handler"
	"github.com/wadjakorntonsri/qr-redirect/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/qr-redirect/pkg/config"
	"github.com/wadjakorntonsri/qr-redirect/pkg/core/services"
)

type App struct {
	cfg *config.Config

	redirects *sqlite.RedirectRepository
	events    *sqlite.EventRepository

	Store     *services.RedirectService
	Analytics *services.AnalyticsLogger
	Resolver  *services.ResolverService
}

func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("reporting timezone %q: %w", cfg.ReportTimezone, err)
	}

	ids, err := services.NewIDGenerator(cfg.NodeID)
	if err != nil {
		return nil, err
	}

	redirects, err := sqlite.NewRedirectRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open redirect store: %w", err)
	}

	events, err := sqlite.NewEventRepository(ctx, cfg.AnalyticsDatabaseURL)
	if err != nil {
		redirects.Close()
		return nil, fmt.Errorf("open analytics log: %w", err)
	}

	store := services.NewRedirectService(redirects, ids, cfg.CacheTTL)
	analytics := services.NewAnalyticsLogger(events, loc)

	log.Info().
		Str("redirects", cfg.DatabaseURL).
		Str("analytics", cfg.AnalyticsDatabaseURL).
		Str("timezone", loc.String()).
		Msg("Stores opened")

	return &App{
		cfg:       cfg,
		redirects: redirects,
		events:    events,
		Store:     store,
		Analytics: analytics,
		Resolver:  services.NewResolverService(store, analytics),
	}, nil
}

// Handler returns the HTTP router over the app's services.
func (a *App) Handler() http.Handler {
	return handler.NewRouter(a.cfg, a.Store, a.Resolver, a.Analytics)
}

func (a *App) Close() error {
	return errors.Join(a.redirects.Close(), a.events.Close())
}
