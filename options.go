package gamedex

import (
	"github.com/gamedex/gamedex/internal/fetch"
	"github.com/gamedex/gamedex/internal/sources"
	"github.com/gamedex/gamedex/pkg/dataset"
	"github.com/gamedex/gamedex/pkg/fixes"
)

// Default file locations, relative to the working directory.
const (
	DefaultDatasetDir = "data/dataset"
	DefaultFixesFile  = "data/fixes.yaml"
)

// config holds the assembled Gamedex configuration.
type config struct {
	datasetDir   string
	fixesFile    string
	saveDisabled bool

	sources sources.Config

	initialDataset *dataset.Dataset
	initialLedger  *fixes.Ledger
	fetchClient    *fetch.Client
	extractors     []sources.Source
}

func defaultConfig() *config {
	return &config{
		datasetDir: DefaultDatasetDir,
		fixesFile:  DefaultFixesFile,
	}
}

// Option is a functional option for configuring a Gamedex instance.
type Option func(*config) error

// WithDatasetDir sets the directory the dataset is loaded from and saved to.
func WithDatasetDir(dir string) Option {
	return func(c *config) error {
		c.datasetDir = dir
		return nil
	}
}

// WithFixesFile sets the fixes ledger file location.
func WithFixesFile(path string) Option {
	return func(c *config) error {
		c.fixesFile = path
		return nil
	}
}

// WithSourceConfig sets the per-source extraction settings: endpoint URLs,
// map offsets, fuzzy threshold, cache location.
func WithSourceConfig(cfg sources.Config) Option {
	return func(c *config) error {
		c.sources = cfg
		return nil
	}
}

// WithDataset injects a preloaded dataset instead of reading from disk.
func WithDataset(d *dataset.Dataset) Option {
	return func(c *config) error {
		c.initialDataset = d
		return nil
	}
}

// WithFixes injects a preloaded fixes ledger instead of reading from disk.
func WithFixes(ledger *fixes.Ledger) Option {
	return func(c *config) error {
		c.initialLedger = ledger
		return nil
	}
}

// WithFetchClient injects a custom fetch client (useful for testing).
func WithFetchClient(client *fetch.Client) Option {
	return func(c *config) error {
		c.fetchClient = client
		return nil
	}
}

// WithSources overrides the extractors Update runs, in the given order.
func WithSources(srcs ...sources.Source) Option {
	return func(c *config) error {
		c.extractors = srcs
		return nil
	}
}

// WithSaveDisabled keeps Update from writing the dataset back to disk.
func WithSaveDisabled() Option {
	return func(c *config) error {
		c.saveDisabled = true
		return nil
	}
}
