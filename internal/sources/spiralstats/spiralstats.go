// Package spiralstats extracts character and team pick-rates from the
// spiralstats third-party statistics API, a plain JSON feed.
package spiralstats

import (
	"context"

	"github.com/gamedex/gamedex/internal/sources"
	"github.com/gamedex/gamedex/pkg/dataset"
	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/logging"
	"github.com/gamedex/gamedex/pkg/resolve"
	"github.com/gamedex/gamedex/pkg/stats"
	"github.com/gamedex/gamedex/pkg/trigram"
)

// FixesDomain is the fixes ledger section consulted for stat entries.
const FixesDomain = "stats.characters"

// Aliases corrects spiralstats-native names with no lexical resemblance to
// canonical ones.
var Aliases = map[string]string{
	"shougun": "raiden",
}

// payload is the wire shape of the statistics response.
type payload struct {
	Data *data `json:"data"`
}

type data struct {
	Characters []characterEntry `json:"characters"`
	Teams      []teamEntry      `json:"teams"`
}

type characterEntry struct {
	Name  string `json:"name"`
	Uses  int    `json:"uses"`
	Total int    `json:"total"`
}

type teamEntry struct {
	Members []string `json:"members"`
	Uses    int      `json:"uses"`
	Total   int      `json:"total"`
}

// Extractor pulls abyss usage statistics from the spiralstats API.
type Extractor struct{}

// New creates the spiralstats extractor.
func New() *Extractor {
	return &Extractor{}
}

// ID returns the source identifier.
func (e *Extractor) ID() sources.ID {
	return sources.SpiralStatsID
}

// Extract fetches the feed, resolves every entry to a canonical character
// code, and stores the assembled statistics on the pass. Two raw character
// entries resolving to one code is an aliasing bug and aborts the extractor
// with nothing stored.
func (e *Extractor) Extract(ctx context.Context, pass *sources.Pass) error {
	log := logging.FromContext(ctx)

	var body payload
	if err := pass.Fetch.GetJSON(ctx, pass.Config.SpiralStatsURL, &body); err != nil {
		return err
	}
	if body.Data == nil {
		return &errors.MalformedSourceError{Source: e.ID().String(), Marker: "data object"}
	}

	index := trigram.New(characterCodes(pass.Dataset), pass.Config.IndexOptions()...)
	pipeline := resolve.New(index,
		resolve.WithAliases(Aliases),
		resolve.WithStrategies(
			resolve.Ledger(pass.Fixes, FixesDomain),
			resolve.Transform(resolve.Slug, index),
		),
	)
	priority := pass.Dataset.CharacterIndex

	seen := make(map[dataset.Code]string)
	var characters []stats.CharacterUsage
	for _, entry := range body.Data.Characters {
		code, err := pipeline.Resolve(ctx, entry.Name)
		if err != nil {
			log.Warn().Err(err).Str("name", entry.Name).Msg("Unresolved character in usage stats")
			continue
		}
		if first, ok := seen[code]; ok {
			return &errors.DuplicateResolutionError{Code: string(code), First: first, Second: entry.Name}
		}
		seen[code] = entry.Name
		characters = append(characters, stats.CharacterUsage{
			Code: code,
			Use:  stats.Ratio(entry.Uses, entry.Total),
		})
	}

	var teams []stats.TeamUsage
	for _, entry := range body.Data.Teams {
		codes, ok := resolveTeam(ctx, pipeline, entry.Members)
		if !ok {
			continue
		}
		teams = append(teams, stats.TeamUsage{
			Codes: codes,
			Use:   stats.Ratio(entry.Uses, entry.Total),
		})
	}

	s := &stats.AbyssStats{
		MostUsedCharacters: stats.MergeCharacters(characters, priority),
		MostUsedTeams:      stats.MergeTeams(teams, priority),
	}
	stats.ReportUnrepresented(ctx, e.ID().String(), s, pass.Dataset.ReleasedCharacterCodes())
	pass.Stats[e.ID()] = s
	return nil
}

// resolveTeam resolves all member names of one team. A single unresolved
// member drops the whole team with a warning; partial teams would corrupt
// permutation collapsing.
func resolveTeam(ctx context.Context, pipeline *resolve.Pipeline, members []string) ([]dataset.Code, bool) {
	log := logging.FromContext(ctx)
	codes := make([]dataset.Code, 0, len(members))
	for _, name := range members {
		code, err := pipeline.Resolve(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("name", name).Msg("Unresolved team member in usage stats")
			return nil, false
		}
		codes = append(codes, code)
	}
	return codes, true
}

// characterCodes converts character codes for index construction.
func characterCodes(d *dataset.Dataset) []string {
	codes := d.CharacterCodes()
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}
