// Package stats assembles per-entity usage observations from one external
// source into the final sorted, bounded statistics lists. Sorting,
// deduplication and trimming rules are fixed here so every source produces
// bit-identical output for identical input.
package stats

import (
	"context"
	"math"
	"sort"

	"github.com/gamedex/gamedex/pkg/dataset"
	"github.com/gamedex/gamedex/pkg/logging"
)

// UsagePrecision is the number of decimal digits usage ratios are rounded to.
const UsagePrecision = 3

// CharacterUsage is the observed pick-rate of one character, 0..1.
type CharacterUsage struct {
	Code dataset.Code `yaml:"code" json:"code"`
	Use  float64      `yaml:"use" json:"use"`
}

// TeamUsage is the observed pick-rate of one team. Codes are held in
// canonical character order so permutations of the same team compare equal.
type TeamUsage struct {
	Codes []dataset.Code `yaml:"codes" json:"codes"`
	Use   float64        `yaml:"use" json:"use"`
}

// AbyssStats is the assembled statistics value object for one source.
type AbyssStats struct {
	MostUsedCharacters []CharacterUsage `yaml:"mostUsedCharacters" json:"mostUsedCharacters"`
	MostUsedTeams      []TeamUsage      `yaml:"mostUsedTeams,omitempty" json:"mostUsedTeams,omitempty"`
}

// Priority maps a code to its canonical ordering index (release order).
// Lower sorts earlier. dataset.Dataset.CharacterIndex satisfies this.
type Priority func(dataset.Code) int

// Round rounds a usage ratio to UsagePrecision decimal digits.
func Round(v float64) float64 {
	shift := math.Pow(10, UsagePrecision)
	return math.Round(v*shift) / shift
}

// Ratio computes a rounded pick-rate from raw counts. A zero denominator
// yields 0 rather than NaN.
func Ratio(uses, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round(float64(uses) / float64(total))
}

// MergeCharacters sorts single-entity stats descending by usage, breaking
// ties by canonical priority order rather than alphabetically.
func MergeCharacters(entries []CharacterUsage, priority Priority) []CharacterUsage {
	out := make([]CharacterUsage, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Use != out[j].Use {
			return out[i].Use > out[j].Use
		}
		return priority(out[i].Code) < priority(out[j].Code)
	})
	return out
}

// CanonicalTeam returns the team's member codes sorted by canonical priority
// order, ties by code. Input is not modified.
func CanonicalTeam(codes []dataset.Code, priority Priority) []dataset.Code {
	out := make([]dataset.Code, len(codes))
	copy(out, codes)
	sort.Slice(out, func(i, j int) bool {
		pi, pj := priority(out[i]), priority(out[j])
		if pi != pj {
			return pi < pj
		}
		return out[i] < out[j]
	})
	return out
}

// MergeTeams canonicalizes member ordering, collapses permutations of the
// same team into one entry (usage ratios summed, then re-rounded), sorts
// descending by usage with ties broken by the first member's code, and trims
// the irrelevant tail.
func MergeTeams(entries []TeamUsage, priority Priority) []TeamUsage {
	merged := make(map[string]*TeamUsage)
	var order []string
	for _, e := range entries {
		canonical := CanonicalTeam(e.Codes, priority)
		key := teamKey(canonical)
		if existing, ok := merged[key]; ok {
			existing.Use += e.Use
			continue
		}
		merged[key] = &TeamUsage{Codes: canonical, Use: e.Use}
		order = append(order, key)
	}

	out := make([]TeamUsage, 0, len(merged))
	for _, key := range order {
		t := merged[key]
		t.Use = Round(t.Use)
		out = append(out, *t)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Use != out[j].Use {
			return out[i].Use > out[j].Use
		}
		return out[i].Codes[0] < out[j].Codes[0]
	})
	return TrimTeams(out)
}

// TrimTeams drops the irrelevant tail of a descending-sorted team list:
// every trailing entry whose usage falls below half the usage at the
// 25th-percentile rank. A relevance cutoff, not a fixed count.
func TrimTeams(sorted []TeamUsage) []TeamUsage {
	if len(sorted) == 0 {
		return sorted
	}
	cutoff := sorted[len(sorted)/4].Use / 2
	end := len(sorted)
	for end > 0 && sorted[end-1].Use < cutoff {
		end--
	}
	return sorted[:end]
}

// teamKey builds a map key from a canonically ordered team.
func teamKey(codes []dataset.Code) string {
	key := ""
	for _, c := range codes {
		key += string(c) + "|"
	}
	return key
}

// Unrepresented returns the candidate codes with no representation in the
// final stats, in candidate order. Callers pass released codes only, so
// known-excluded groups never show up as false positives.
func Unrepresented(s *AbyssStats, candidates []dataset.Code) []dataset.Code {
	present := make(map[dataset.Code]struct{})
	for _, c := range s.MostUsedCharacters {
		present[c.Code] = struct{}{}
	}
	for _, t := range s.MostUsedTeams {
		for _, c := range t.Codes {
			present[c] = struct{}{}
		}
	}

	var out []dataset.Code
	for _, c := range candidates {
		if _, ok := present[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// ReportUnrepresented warns once per unrepresented candidate. This is the
// early-warning mechanism for "forgot to add a new entity's alias"
// regressions.
func ReportUnrepresented(ctx context.Context, source string, s *AbyssStats, candidates []dataset.Code) {
	log := logging.FromContext(ctx)
	for _, code := range Unrepresented(s, candidates) {
		log.Warn().
			Str("source", source).
			Str("code", string(code)).
			Msg("Entity missing from usage stats")
	}
}
