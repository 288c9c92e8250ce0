// Package app assembles the dashboard's stores and services from a Config.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"qadash/internal/config"
	"qadash/internal/events"
	"qadash/internal/metrics"
	"qadash/internal/runner"
	"qadash/internal/seed"
	"qadash/internal/server"
	"qadash/internal/session"
	"qadash/internal/store"
	"qadash/internal/synth"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    store.Store
	Seed     seed.Data
	Synth    synth.Synthesizer
	Runner   *runner.Runner
	Sessions *session.Registry
	Tokens   session.TokenCodec
	Events   *events.Log
	Metrics  *metrics.Metrics
}

// Build opens the configured store, loads the seed and wires the services.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s, err := store.Open(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	data, err := LoadSeed(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	if err := data.Load(ctx, s); err != nil {
		s.Close()
		return nil, err
	}
	logger.Info("catalog loaded", "driver", cfg.Storage.Driver, "projects", len(data.Projects))

	secret := cfg.Server.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("server.jwt_secret not set; API tokens will not survive a restart")
	}
	evts := events.NewLog(cfg.Events.Capacity)
	m := metrics.New("qadash")
	opts := session.Options{
		DefaultRole:       cfg.Session.DefaultRole,
		DefaultDepartment: cfg.Session.DefaultDepartment,
	}
	sessions := session.NewRegistry(opts)
	sessions.IdleTTL = cfg.Session.IdleTTL
	return &App{
		Config: cfg,
		Logger: logger,
		Store:  s,
		Seed:   data,
		Synth:  synth.New(s, cfg.Synth.Confidence),
		Runner: runner.New(s, runner.Options{
			Delay:    cfg.Runs.Delay,
			Outcomes: cfg.Runs.Outcomes,
			Static:   data.ActiveRunsFor,
			Events:   evts,
			Metrics:  m,
			Logger:   logger.With("component", "runner"),
		}),
		Sessions: sessions,
		Tokens:   session.TokenCodec{Secret: []byte(secret), TTL: cfg.Session.TokenTTL},
		Events:   evts,
		Metrics:  m,
	}, nil
}

// LoadSeed returns the seed the config selects. A disabled seed is empty.
func LoadSeed(cfg *config.Config) (seed.Data, error) {
	if !cfg.Seed.Enabled {
		return seed.Data{}, nil
	}
	if cfg.Seed.File != "" {
		data, err := seed.FromFile(cfg.Seed.File)
		if err != nil {
			return seed.Data{}, fmt.Errorf("load seed %s: %w", cfg.Seed.File, err)
		}
		return data, nil
	}
	return seed.Default()
}

// Handler returns the HTTP handler serving both the views and the API.
func (a *App) Handler() (http.Handler, error) {
	return server.New(server.Config{
		Store:      a.Store,
		Synth:      a.Synth,
		Runner:     a.Runner,
		Sessions:   a.Sessions,
		Tokens:     a.Tokens,
		Events:     a.Events,
		Metrics:    a.Metrics,
		BasePath:   a.Config.Server.BasePath,
		CookieName: a.Config.Server.CookieName,
		Logger:     a.Logger.With("component", "http"),
	})
}

func (a *App) Close() error {
	return a.Store.Close()
}

// NewLogger returns a text logger at the named level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
