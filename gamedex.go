// Package gamedex reconciles game reference data from heterogeneous
// third-party sources against a canonical dataset keyed by stable codes.
// It is the library entry point for embedding the reconciliation engine;
// the gamedex CLI under cmd/gamedex is a thin wrapper around it.
package gamedex

import (
	"context"
	"sync"

	"github.com/gamedex/gamedex/internal/fetch"
	"github.com/gamedex/gamedex/internal/sources"
	"github.com/gamedex/gamedex/internal/sources/abysslab"
	"github.com/gamedex/gamedex/internal/sources/mapapi"
	"github.com/gamedex/gamedex/internal/sources/spiralstats"
	"github.com/gamedex/gamedex/internal/sources/wiki"
	"github.com/gamedex/gamedex/pkg/dataset"
	"github.com/gamedex/gamedex/pkg/fixes"
	"github.com/gamedex/gamedex/pkg/stats"
)

// Gamedex manages a canonical dataset and runs reconciliation passes
// against the configured external sources.
type Gamedex interface {
	// Dataset returns the current canonical dataset.
	Dataset() *dataset.Dataset

	// Stats returns the usage statistics collected by the last pass,
	// keyed by source id.
	Stats() map[sources.ID]*stats.AbyssStats

	// Update runs one reconciliation pass over all configured sources and
	// saves the augmented dataset. A failed extractor aborts only its own
	// contribution; the joined failures come back as one error after the
	// pass completes and the dataset is saved.
	Update(ctx context.Context) error
}

// gamedex is the internal implementation of the Gamedex interface.
type gamedex struct {
	config *config

	mu      sync.RWMutex
	dataset *dataset.Dataset
	ledger  *fixes.Ledger
	stats   map[sources.ID]*stats.AbyssStats
}

// New creates a Gamedex instance, loading the dataset and fixes ledger from
// the configured locations.
func New(opts ...Option) (Gamedex, error) {
	g := &gamedex{
		config: defaultConfig(),
	}
	for _, opt := range opts {
		if err := opt(g.config); err != nil {
			return nil, err
		}
	}

	d := g.config.initialDataset
	if d == nil {
		loaded, err := dataset.Load(g.config.datasetDir)
		if err != nil {
			return nil, err
		}
		d = loaded
	}
	g.dataset = d

	ledger := g.config.initialLedger
	if ledger == nil {
		loaded, err := fixes.Load(g.config.fixesFile)
		if err != nil {
			return nil, err
		}
		ledger = loaded
	}
	g.ledger = ledger

	return g, nil
}

// Dataset returns the current canonical dataset.
func (g *gamedex) Dataset() *dataset.Dataset {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.dataset
}

// Stats returns the usage statistics collected by the last pass.
func (g *gamedex) Stats() map[sources.ID]*stats.AbyssStats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.stats
}

// Update runs one reconciliation pass and saves the augmented dataset.
func (g *gamedex) Update(ctx context.Context) error {
	client := g.config.fetchClient
	if client == nil {
		c, err := g.buildFetchClient()
		if err != nil {
			return err
		}
		client = c
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	pass := sources.NewPass(g.dataset, g.ledger, client, &g.config.sources)
	runErr := sources.NewRunner(g.sources()...).Run(ctx, pass)

	g.stats = pass.Stats

	if !g.config.saveDisabled {
		if err := g.dataset.Save(g.config.datasetDir); err != nil {
			return err
		}
	}
	return runErr
}

// sources returns the extractors to run, in their fixed execution order.
func (g *gamedex) sources() []sources.Source {
	if g.config.extractors != nil {
		return g.config.extractors
	}
	return []sources.Source{
		mapapi.New(),
		wiki.New(),
		spiralstats.New(),
		abysslab.New(),
	}
}

// buildFetchClient assembles the cache-backed fetch collaborator.
func (g *gamedex) buildFetchClient() (*fetch.Client, error) {
	var opts []fetch.Option
	if g.config.sources.CacheDir != "" {
		cache, err := fetch.NewCache(g.config.sources.CacheDir, g.config.sources.CacheTTL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fetch.WithCache(cache))
	}
	return fetch.New(opts...), nil
}
