// Package trigram provides approximate string matching over a fixed set of
// canonical codes. Names from scraped pages and third-party APIs arrive
// inconsistently cased, pluralized, or annotated; trigram overlap tolerates
// that lexical drift without an exhaustive alias table, while the acceptance
// threshold prevents wrong silent matches.
//
// An Index is immutable after construction and is rebuilt fresh for each
// extraction pass from the current dataset's codes.
package trigram

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/logging"
)

// DefaultThreshold is the default acceptance threshold for Match and FixCode.
// This value is load-bearing: it was tuned against captured source data, and
// changing it changes which inputs fail. Override it per-index with
// WithThreshold rather than editing the constant.
const DefaultThreshold = 0.4

// Index is an immutable trigram-similarity search structure over a fixed
// set of canonical codes.
type Index struct {
	threshold float64
	entries   []entry
	members   map[string]struct{}
}

type entry struct {
	code  string
	grams map[string]struct{}
}

// Option configures an Index.
type Option func(*Index)

// WithThreshold overrides the acceptance threshold.
func WithThreshold(threshold float64) Option {
	return func(ix *Index) {
		ix.threshold = threshold
	}
}

// New builds an index over the given canonical codes. Construction is a pure
// function of its input set; duplicate codes are ignored.
func New(codes []string, opts ...Option) *Index {
	ix := &Index{
		threshold: DefaultThreshold,
		members:   make(map[string]struct{}, len(codes)),
	}
	for _, opt := range opts {
		opt(ix)
	}

	for _, code := range codes {
		if _, ok := ix.members[code]; ok {
			continue
		}
		ix.members[code] = struct{}{}
		ix.entries = append(ix.entries, entry{code: code, grams: grams(code)})
	}
	return ix
}

// Threshold returns the acceptance threshold in effect.
func (ix *Index) Threshold() float64 {
	return ix.threshold
}

// Contains reports whether code is a member of the indexed canonical set.
func (ix *Index) Contains(code string) bool {
	_, ok := ix.members[code]
	return ok
}

// Closest returns the best-matching indexed code for name and its similarity.
// Ties break to the lexicographically smaller code so repeated passes are
// deterministic regardless of construction order. Returns ("", 0) for an
// empty index.
func (ix *Index) Closest(name string) (string, float64) {
	target := grams(name)

	best := ""
	bestSim := -1.0
	for _, e := range ix.entries {
		sim := similarity(target, e.grams)
		if sim > bestSim || (sim == bestSim && e.code < best) {
			best = e.code
			bestSim = sim
		}
	}
	if bestSim < 0 {
		return "", 0
	}
	return best, bestSim
}

// Match resolves name to the best-matching canonical code. If the best
// similarity falls below the acceptance threshold it fails with a
// NoConfidentMatchError naming the input and the closest candidate. Zero
// similarity never matches, even under a zero threshold: an input sharing
// no trigrams with any candidate carries no signal to accept.
func (ix *Index) Match(name string) (string, error) {
	code, sim := ix.Closest(name)
	if code == "" || sim <= 0 || sim < ix.threshold {
		return "", &errors.NoConfidentMatchError{Input: name, Closest: code, Similarity: sim}
	}
	return code, nil
}

// FixCode checks a candidate code that was derived from a deterministic name
// transform. A member of the canonical set passes through unchanged. A
// non-member is silently substituted with the closest match above threshold,
// logged as a warning so the drift is visible to an operator. With no
// acceptable candidate the failure propagates.
func (ix *Index) FixCode(ctx context.Context, code, label string) (string, error) {
	if ix.Contains(code) {
		return code, nil
	}

	fixed, err := ix.Match(code)
	if err != nil {
		return "", err
	}
	logging.FromContext(ctx).Warn().
		Str("context", label).
		Str("code", code).
		Str("fixed", fixed).
		Msg("Silently fixed unknown code")
	return fixed, nil
}

var foldCaser = cases.Fold()

// normalize lowers, case-folds, and strips annotation characters so that
// "Ruin-Guards " and "ruin guards" produce the same trigram set.
func normalize(s string) string {
	s = foldCaser.String(norm.NFKC.String(s))

	var b strings.Builder
	lastSpace := true
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// grams returns the padded trigram set of s. Each word is padded with two
// leading spaces and one trailing space, pg_trgm style, so short strings and
// word boundaries still contribute distinguishing trigrams.
func grams(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(normalize(s)) {
		padded := "  " + word + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			set[string(runes[i:i+3])] = struct{}{}
		}
	}
	return set
}

// similarity is the Sørensen–Dice coefficient over two trigram sets.
// Like the threshold, the formula choice is load-bearing; see DefaultThreshold.
func similarity(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for g := range a {
		if _, ok := b[g]; ok {
			shared++
		}
	}
	return 2 * float64(shared) / float64(len(a)+len(b))
}
