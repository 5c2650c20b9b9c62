// Package abysslab extracts character and team pick-rates from a statistics
// site built on Next.js. The site has no public API: the extractor scrapes
// the build id out of the landing page, requests the page-data JSON for the
// statistics route, and undoes the substitution cipher the site applies to
// its payload before parsing it.
package abysslab

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/gamedex/gamedex/internal/sources"
	"github.com/gamedex/gamedex/pkg/dataset"
	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/logging"
	"github.com/gamedex/gamedex/pkg/resolve"
	"github.com/gamedex/gamedex/pkg/stats"
	"github.com/gamedex/gamedex/pkg/trigram"
)

// FixesDomain is the fixes ledger section consulted for stat entries. Shared
// with the other usage source; both resolve the same kind of name.
const FixesDomain = "stats.characters"

var buildIDPattern = regexp.MustCompile(`"buildId":"([A-Za-z0-9_-]+)"`)

// pageData is the Next.js page-data envelope around the obfuscated payload.
type pageData struct {
	PageProps struct {
		Blob string `json:"blob"`
	} `json:"pageProps"`
}

// payload is the deciphered statistics document.
type payload struct {
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

// Extractor pulls abyss usage statistics from the obfuscated site.
type Extractor struct{}

// New creates the abysslab extractor.
func New() *Extractor {
	return &Extractor{}
}

// ID returns the source identifier.
func (e *Extractor) ID() sources.ID {
	return sources.AbyssLabID
}

// Extract locates the current build id, fetches and deciphers the statistics
// payload, and stores the assembled statistics on the pass. A missing build
// id or an undecipherable payload means the site changed shape; both abort
// the extractor so the drift is noticed rather than papered over.
func (e *Extractor) Extract(ctx context.Context, pass *sources.Pass) error {
	log := logging.FromContext(ctx)

	page, err := pass.Fetch.Get(ctx, pass.Config.AbyssLabURL)
	if err != nil {
		return err
	}
	m := buildIDPattern.FindSubmatch(page)
	if m == nil {
		return &errors.MalformedSourceError{Source: e.ID().String(), Marker: "build id"}
	}
	buildID := string(m[1])
	log.Debug().Str("build_id", buildID).Msg("Located site build")

	url := strings.TrimRight(pass.Config.AbyssLabURL, "/") + "/_next/data/" + buildID + "/stats.json"
	var envelope pageData
	if err := pass.Fetch.GetJSON(ctx, url, &envelope); err != nil {
		return err
	}
	if envelope.PageProps.Blob == "" {
		return &errors.MalformedSourceError{Source: e.ID().String(), Marker: "payload blob"}
	}

	var body payload
	if err := json.Unmarshal([]byte(Decode(envelope.PageProps.Blob)), &body); err != nil {
		return &errors.MalformedSourceError{Source: e.ID().String(), Marker: "cipher payload"}
	}

	index := trigram.New(characterCodes(pass.Dataset), pass.Config.IndexOptions()...)
	pipeline := resolve.New(index,
		resolve.WithStrategies(
			resolve.Ledger(pass.Fixes, FixesDomain),
			resolve.Transform(resolve.Slug, index),
		),
	)
	priority := pass.Dataset.CharacterIndex

	seen := make(map[dataset.Code]string)
	var characters []stats.CharacterUsage
	for _, entry := range body.Characters {
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
	for _, entry := range body.Teams {
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

func characterCodes(d *dataset.Dataset) []string {
	codes := d.CharacterCodes()
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}
