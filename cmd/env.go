package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/terra35/vanillacost/internal/citation"
	"github.com/terra35/vanillacost/internal/collector"
	"github.com/terra35/vanillacost/internal/config"
	"github.com/terra35/vanillacost/internal/fetchcache"
	"github.com/terra35/vanillacost/internal/fetcher"
	"github.com/terra35/vanillacost/internal/store"
	"github.com/terra35/vanillacost/internal/validate"
)

// appEnv holds the wired pipeline components shared by commands.
type appEnv struct {
	Sink      store.Sink
	Citations *citation.Engine
	Validator *validate.Engine
	Fetcher   *fetcher.Fetcher
}

// initEnv builds the sink, citation engine, validator and fetcher from
// config and runs migrations.
func initEnv(ctx context.Context) (*appEnv, error) {
	sink, err := openSink(ctx)
	if err != nil {
		return nil, err
	}

	citCfg, err := loadCitationConfig(cfg.Citation)
	if err != nil {
		sink.Close() //nolint:errcheck
		return nil, err
	}

	cache := fetchcache.New(cfg.Fetch.CacheDir)
	f := fetcher.New(cache, fetcher.Options{
		UserAgent:      cfg.Fetch.UserAgent,
		Timeout:        time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries:     cfg.Fetch.MaxRetries,
		RateLimitDelay: time.Duration(cfg.Fetch.RateLimitSecs * float64(time.Second)),
		CacheMaxAge:    time.Duration(cfg.Fetch.CacheMaxAgeHrs) * time.Hour,
		RespectRobots:  cfg.Fetch.RespectRobots,
	})

	return &appEnv{
		Sink:      sink,
		Citations: citation.New(citCfg),
		Validator: validate.New(cfg.Validation),
		Fetcher:   f,
	}, nil
}

func (e *appEnv) Close() {
	if err := e.Sink.Close(); err != nil {
		zap.L().Warn("sink close failed", zap.Error(err))
	}
}

// collectorContext assembles the explicit dependency bundle collectors
// receive.
func (e *appEnv) collectorContext() *collector.Context {
	return &collector.Context{
		Log:        zap.L(),
		Fetcher:    e.Fetcher,
		Citations:  e.Citations,
		Validator:  e.Validator,
		Sink:       e.Sink,
		MaxRecords: cfg.Collect.MaxRecords,
	}
}

func openSink(ctx context.Context) (store.Sink, error) {
	var sink store.Sink
	switch cfg.Store.Driver {
	case "sqlite", "":
		if dir := filepath.Dir(cfg.Store.DatabaseURL); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, eris.Wrapf(err, "create database dir %s", dir)
			}
		}
		s, err := store.NewSQLite(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		sink = s
	case "postgres":
		s, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return nil, err
		}
		sink = s
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if err := sink.Migrate(ctx); err != nil {
		sink.Close() //nolint:errcheck
		return nil, err
	}
	return sink, nil
}

// loadCitationConfig reads the template file when present, otherwise
// falls back to the built-in formats.
func loadCitationConfig(c config.CitationConfig) (*citation.Config, error) {
	if c.TemplatesPath == "" {
		return nil, nil
	}
	if _, err := os.Stat(c.TemplatesPath); os.IsNotExist(err) {
		zap.L().Debug("citation templates file absent, using defaults",
			zap.String("path", c.TemplatesPath),
		)
		return nil, nil
	}
	return citation.LoadConfig(c.TemplatesPath)
}
