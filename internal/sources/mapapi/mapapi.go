// Package mapapi extracts entity map locations from the official map API.
// Each map exposes a point list plus a label list; labels are resolved to
// canonical codes (ledger overrides first) and the grouped, offset-adjusted
// points are written into every location bucket the code belongs to.
package mapapi

import (
	"context"
	"sort"

	"github.com/gamedex/gamedex/internal/sources"
	"github.com/gamedex/gamedex/pkg/dataset"
	"github.com/gamedex/gamedex/pkg/logging"
	"github.com/gamedex/gamedex/pkg/resolve"
	"github.com/gamedex/gamedex/pkg/trigram"
)

// FixesDomain is the fixes ledger section consulted for map labels.
const FixesDomain = "map.search"

// Aliases corrects source-native label names that bear no lexical
// resemblance to canonical names. Applied before fuzzy matching; ledger
// overrides still see the raw name first.
var Aliases = map[string]string{
	"Wei": "unusual-hilichurl",
}

// payload is the wire shape of one map's point data.
type payload struct {
	PointList []point `json:"point_list"`
	LabelList []label `json:"label_list"`
}

type point struct {
	LabelID int64   `json:"label_id"`
	XPos    float64 `json:"x_pos"`
	YPos    float64 `json:"y_pos"`
}

type label struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Extractor pulls map locations for every configured map.
type Extractor struct{}

// New creates the map-location extractor.
func New() *Extractor {
	return &Extractor{}
}

// ID returns the source identifier.
func (e *Extractor) ID() sources.ID {
	return sources.MapAPIID
}

// placement is one resolved label's accumulation bucket.
type placement struct {
	kind dataset.Kind
	code dataset.Code
}

// Extract fetches each configured map, resolves labels to codes, and
// overwrites the location lists of the resolved records. A label that fails
// to resolve is skipped with a warning; the pass never aborts on one bad
// label.
func (e *Extractor) Extract(ctx context.Context, pass *sources.Pass) error {
	log := logging.FromContext(ctx)

	index := trigram.New(codeStrings(pass.Dataset.LocationCodes()), pass.Config.IndexOptions()...)
	pipeline := resolve.New(index,
		resolve.WithAliases(Aliases),
		resolve.WithStrategies(
			resolve.Ledger(pass.Fixes, FixesDomain),
			resolve.Transform(resolve.Slug, index),
		),
	)

	collected := make(map[placement][]dataset.MapLocation)

	for _, mapCode := range pass.Dataset.Maps() {
		url, ok := pass.Config.MapURLs[mapCode]
		if !ok {
			continue
		}

		var data payload
		if err := pass.Fetch.GetJSON(ctx, url, &data); err != nil {
			return err
		}

		offset := pass.Config.Offset(mapCode)
		names := make(map[int64]string, len(data.LabelList))
		for _, l := range data.LabelList {
			names[l.ID] = l.Name
		}

		for _, labelID := range sortedLabelIDs(data.PointList) {
			name, ok := names[labelID]
			if !ok {
				log.Warn().Int64("label_id", labelID).Msg("Point references unknown label")
				continue
			}

			code, err := pipeline.Resolve(ctx, name)
			if err != nil {
				log.Warn().Err(err).Str("name", name).Msg("Unresolved map label")
				continue
			}

			placements, ok := placementsFor(pass.Dataset, code)
			if !ok {
				log.Warn().Str("name", name).Str("code", string(code)).Msg("No unambiguous bucket for label")
				continue
			}

			for _, p := range data.PointList {
				if p.LabelID != labelID {
					continue
				}
				loc := dataset.LocationFromRaw(mapCode, p.XPos, p.YPos, offset)
				for _, pl := range placements {
					collected[pl] = append(collected[pl], loc)
				}
			}
		}
	}

	for pl, locs := range collected {
		if err := pass.Dataset.SetLocations(pl.kind, pl.code, locs); err != nil {
			log.Warn().Err(err).Str("code", string(pl.code)).Msg("Failed to write locations")
		}
	}
	return nil
}

// placementsFor decides which buckets receive a code's locations. A code
// living in related enemy buckets gets all of them; a collision between an
// item and an enemy kind is ambiguous and retried with a trailing 's'
// (map labels pluralize collectibles) before giving up.
func placementsFor(d *dataset.Dataset, code dataset.Code) ([]placement, bool) {
	buckets := d.BucketsFor(code)
	if len(buckets) == 0 {
		return nil, false
	}
	if ambiguous(buckets) {
		plural := code + "s"
		pluralBuckets := d.BucketsFor(plural)
		if len(pluralBuckets) == 1 {
			return []placement{{kind: pluralBuckets[0], code: plural}}, true
		}
		return nil, false
	}

	out := make([]placement, 0, len(buckets))
	for _, kind := range buckets {
		out = append(out, placement{kind: kind, code: code})
	}
	return out, true
}

// ambiguous reports a name collision across unrelated kinds: an item
// sharing a code with an enemy or enemy group.
func ambiguous(buckets []dataset.Kind) bool {
	if len(buckets) < 2 {
		return false
	}
	hasItem := false
	hasEnemy := false
	for _, k := range buckets {
		switch k {
		case dataset.KindItem:
			hasItem = true
		case dataset.KindEnemy, dataset.KindEnemyGroup:
			hasEnemy = true
		}
	}
	return hasItem && hasEnemy
}

// sortedLabelIDs returns the distinct label ids of the point list in
// ascending order, for deterministic iteration.
func sortedLabelIDs(points []point) []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	for _, p := range points {
		if _, ok := seen[p.LabelID]; !ok {
			seen[p.LabelID] = struct{}{}
			out = append(out, p.LabelID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// codeStrings converts codes for index construction.
func codeStrings(codes []dataset.Code) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}
