package cli

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/ewilliams-labs/timbre/internal/adapters/backoff"
	"github.com/ewilliams-labs/timbre/internal/adapters/getsongbpm"
	"github.com/ewilliams-labs/timbre/internal/adapters/preview"
	"github.com/ewilliams-labs/timbre/internal/adapters/rapidapi"
	"github.com/ewilliams-labs/timbre/internal/adapters/reccobeats"
	"github.com/ewilliams-labs/timbre/internal/adapters/spotify"
	"github.com/ewilliams-labs/timbre/internal/adapters/sqlite"
	"github.com/ewilliams-labs/timbre/internal/adapters/synthetic"
	"github.com/ewilliams-labs/timbre/internal/config"
	"github.com/ewilliams-labs/timbre/internal/core/services"
	"github.com/ewilliams-labs/timbre/internal/progress"
	"github.com/ewilliams-labs/timbre/internal/worker"
)

// app holds the wired components shared by serve and resolve.
type app struct {
	repo     *sqlite.Adapter
	tracker  *progress.Store
	tracks   *rapidapi.Client
	resolver *services.Orchestrator
	profiles *services.ProfileService
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	if err := cfg.RequireCatalog(); err != nil {
		return nil, err
	}

	repo, err := sqlite.NewAdapter(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	retryFor := func(name string) backoff.Config {
		return backoff.Config{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay,
			MaxDelay:   cfg.Retry.MaxDelay,
			Name:       name,
		}
	}
	doerFor := func(name string) *backoff.Client {
		return backoff.New(&http.Client{Timeout: cfg.Retry.Timeout}, retryFor(name))
	}

	catalog := spotify.NewAuthenticatedClient(ctx, spotify.Credentials{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		TokenURL:     cfg.Spotify.TokenURL,
	}, cfg.Spotify.BaseURL, cfg.Retry.Timeout, retryFor("spotify")).WithMarket(cfg.Spotify.Market)

	batch := reccobeats.NewClient(doerFor("reccobeats"), cfg.ReccoBeats.BaseURL)

	tracks := rapidapi.NewClient(doerFor("rapidapi"), cfg.RapidAPI.Key, cfg.RapidAPI.Host)
	if cfg.RapidAPI.BaseURL != "" {
		tracks = tracks.WithBaseURL(cfg.RapidAPI.BaseURL)
	}

	var limiter *rate.Limiter
	if cfg.Resolution.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Resolution.RatePerSecond), max(cfg.Resolution.Burst, 1))
	}

	heuristic := services.HeuristicTier{
		Provider: getsongbpm.NewClient(doerFor("getsongbpm"), cfg.GetSongBPM.BaseURL, cfg.GetSongBPM.APIKey),
	}
	if cfg.Resolution.AnalyzePreviews {
		heuristic.Preview = preview.NewAnalyzer(doerFor("preview"))
	}

	tracker := progress.New()
	resolver := services.NewOrchestrator(catalog, tracker, services.Policy{
		DefaultLimit:      cfg.Resolution.DefaultLimit,
		FillMissing:       cfg.Resolution.FillMissing,
		SyntheticFallback: cfg.Resolution.SyntheticFallback,
	},
		services.BatchTier{Provider: batch},
		services.SingleTier{Provider: tracks, Dispatcher: worker.NewDispatcher(cfg.Resolution.Concurrency, limiter)},
		heuristic,
		services.SyntheticTier{Generator: synthetic.Generator{}},
	)

	return &app{
		repo:     repo,
		tracker:  tracker,
		tracks:   tracks,
		resolver: resolver,
		profiles: services.NewProfileService(repo, catalog, resolver, tracker, cfg.Resolution.CacheTTL),
	}, nil
}

func (a *app) Close() error {
	return a.repo.Close()
}
