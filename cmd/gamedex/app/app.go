// Package app provides the application context and dependency management
// for the gamedex CLI. It centralizes configuration, logging, and the
// assembly of reconciliation passes so commands stay thin.
package app

import (
	"github.com/rs/zerolog"

	"github.com/gamedex/gamedex/internal/fetch"
	"github.com/gamedex/gamedex/internal/sources"
	"github.com/gamedex/gamedex/internal/sources/abysslab"
	"github.com/gamedex/gamedex/internal/sources/mapapi"
	"github.com/gamedex/gamedex/internal/sources/spiralstats"
	"github.com/gamedex/gamedex/internal/sources/wiki"
	"github.com/gamedex/gamedex/pkg/dataset"
	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/fixes"
)

// App represents the gamedex application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger
}

// New creates a new App instance with the given version information.
func New(version, commit, date string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, &errors.ConfigError{Component: "app", Message: "load config", Err: err}
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// NewPass loads the canonical dataset and fixes ledger and assembles the
// shared state of one reconciliation pass.
func (a *App) NewPass() (*sources.Pass, error) {
	d, err := dataset.Load(a.config.DatasetDir)
	if err != nil {
		return nil, err
	}

	ledger, err := fixes.Load(a.config.FixesFile)
	if err != nil {
		return nil, err
	}

	client, err := a.fetchClient()
	if err != nil {
		return nil, err
	}

	return sources.NewPass(d, ledger, client, &a.config.Sources), nil
}

// Sources returns the extractors to run, in their fixed execution order.
// An empty filter means all of them.
func (a *App) Sources(only []string) ([]sources.Source, error) {
	all := []sources.Source{
		mapapi.New(),
		wiki.New(),
		spiralstats.New(),
		abysslab.New(),
	}
	if len(only) == 0 {
		return all, nil
	}

	wanted := make(map[sources.ID]struct{}, len(only))
	for _, raw := range only {
		id := sources.ID(raw)
		if !id.IsValid() {
			return nil, &errors.ValidationError{
				Field:   "source",
				Value:   raw,
				Message: "unknown source id",
			}
		}
		wanted[id] = struct{}{}
	}

	var out []sources.Source
	for _, src := range all {
		if _, ok := wanted[src.ID()]; ok {
			out = append(out, src)
		}
	}
	return out, nil
}

// fetchClient builds the cache-backed fetch collaborator from config.
func (a *App) fetchClient() (*fetch.Client, error) {
	opts := []fetch.Option{
		fetch.WithUserAgent("gamedex/" + a.version),
	}
	if a.config.Sources.CacheDir != "" {
		cache, err := fetch.NewCache(a.config.Sources.CacheDir, a.config.Sources.CacheTTL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fetch.WithCache(cache))
	}
	return fetch.New(opts...), nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}
