// Package sources defines the extraction framework: each source pulls one
// external data feed, resolves its identifiers to canonical codes, and
// augments the dataset or produces a statistics structure. Extractors run
// one at a time, sequentially — the fetch collaborator serializes writes to
// a shared cache directory and upstream sources must not see parallel
// requests.
package sources

import (
	"context"
	"slices"
	"time"

	"github.com/gamedex/gamedex/internal/fetch"
	"github.com/gamedex/gamedex/pkg/dataset"
	"github.com/gamedex/gamedex/pkg/fixes"
	"github.com/gamedex/gamedex/pkg/stats"
	"github.com/gamedex/gamedex/pkg/trigram"
)

// ID represents the identifier of a data source.
type ID string

// String returns the string representation of a source ID.
func (id ID) String() string {
	return string(id)
}

// Known source IDs.
const (
	MapAPIID      ID = "mapapi"
	SpiralStatsID ID = "spiralstats"
	AbyssLabID    ID = "abysslab"
	WikiID        ID = "wiki"
)

// IDs returns all available source IDs.
func IDs() []ID {
	return []ID{
		MapAPIID,
		SpiralStatsID,
		AbyssLabID,
		WikiID,
	}
}

// IsValid returns true if the ID is one of the defined constants.
func (id ID) IsValid() bool {
	return slices.Contains(IDs(), id)
}

// Config carries the externally tuned constants of an extraction pass.
// The fuzzy threshold is load-bearing configuration, not a hardcoded value.
type Config struct {
	// Threshold is the fuzzy match acceptance threshold. Zero means
	// trigram.DefaultThreshold.
	Threshold float64 `yaml:"threshold"`

	// MapURLs maps each map code to its point-list endpoint.
	MapURLs map[dataset.MapCode]string `yaml:"mapUrls"`

	// MapOffsets holds per-map coordinate corrections, default {0,0}.
	MapOffsets map[dataset.MapCode]dataset.Offset `yaml:"mapOffsets"`

	// SpiralStatsURL is the plain-JSON abyss statistics endpoint.
	SpiralStatsURL string `yaml:"spiralStatsUrl"`

	// AbyssLabURL is the base URL of the cipher-obfuscated statistics site.
	AbyssLabURL string `yaml:"abyssLabUrl"`

	// WikiCharactersURL and WikiWeaponsURL are the wiki pages carrying
	// attribute tables.
	WikiCharactersURL string `yaml:"wikiCharactersUrl"`
	WikiWeaponsURL    string `yaml:"wikiWeaponsUrl"`

	// CacheDir and CacheTTL configure the fetch collaborator.
	// CacheTTL <= 0 means infinite cache lifetime.
	CacheDir string        `yaml:"cacheDir"`
	CacheTTL time.Duration `yaml:"cacheTtl"`
}

// IndexOptions returns the trigram options implied by the config.
func (c *Config) IndexOptions() []trigram.Option {
	if c.Threshold > 0 {
		return []trigram.Option{trigram.WithThreshold(c.Threshold)}
	}
	return nil
}

// Offset returns the coordinate correction for a map, defaulting to {0,0}.
func (c *Config) Offset(mapCode dataset.MapCode) dataset.Offset {
	if off, ok := c.MapOffsets[mapCode]; ok {
		return off
	}
	return dataset.Offset{}
}

// Pass is the shared state of one reconciliation pass. The dataset is the
// only mutable state shared between extractors, safe because extractors run
// sequentially; the ledger is reset once at the start of the pass and
// read-mostly afterwards.
type Pass struct {
	Dataset *dataset.Dataset
	Fixes   *fixes.Ledger
	Fetch   *fetch.Client
	Config  *Config

	// Stats collects the statistics structures produced by usage sources.
	Stats map[ID]*stats.AbyssStats
}

// NewPass assembles pass state over a loaded dataset and ledger.
func NewPass(d *dataset.Dataset, ledger *fixes.Ledger, client *fetch.Client, cfg *Config) *Pass {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Pass{
		Dataset: d,
		Fixes:   ledger,
		Fetch:   client,
		Config:  cfg,
		Stats:   make(map[ID]*stats.AbyssStats),
	}
}

// Source is one extractor: a single-pass transformer from an external feed
// into dataset augmentation or statistics.
type Source interface {
	// ID returns the identifier of this source.
	ID() ID

	// Extract fetches, parses, and reconciles this source's data into the
	// pass. A returned error aborts this source's contribution only;
	// previously written dataset state stays intact.
	Extract(ctx context.Context, pass *Pass) error
}
