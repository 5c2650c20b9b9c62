// Package resolve turns free-form external names into canonical dataset
// codes. Resolution is an explicit ordered list of strategies — ledger
// override, then a deterministic name transform whose near-miss candidates
// are query-and-fixed against the canonical set — with trigram fuzzy search
// over the raw name as the final fallback; the first non-empty result wins. Irregular source-specific
// aliases (names with no lexical resemblance to the canonical form) are
// corrected by a rename table before any matching, because fuzzy similarity
// cannot bridge unrelated strings.
package resolve

import (
	"context"
	"strings"

	"github.com/gamedex/gamedex/pkg/dataset"
	"github.com/gamedex/gamedex/pkg/fixes"
	"github.com/gamedex/gamedex/pkg/trigram"
)

// Strategy is one step of the resolution chain. A miss is (code "", false);
// the pipeline falls through to the next strategy.
type Strategy struct {
	Name string
	Fn   func(ctx context.Context, name string) (dataset.Code, bool)
}

// Pipeline resolves names through aliases, ordered strategies, and a final
// fuzzy index. The strategy order is data, not control flow, so tests can
// assert the priority directly.
type Pipeline struct {
	// Aliases maps source-native names to canonical names. Applied once,
	// before any strategy runs.
	Aliases map[string]string

	// Strategies run in order; the first hit wins.
	Strategies []Strategy

	// Index is the mandatory fuzzy fallback.
	Index *trigram.Index
}

// New builds a pipeline over the given fuzzy index.
func New(index *trigram.Index, opts ...Option) *Pipeline {
	p := &Pipeline{Index: index}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithAliases sets the per-source rename table.
func WithAliases(aliases map[string]string) Option {
	return func(p *Pipeline) {
		p.Aliases = aliases
	}
}

// WithStrategies appends strategies in priority order.
func WithStrategies(strategies ...Strategy) Option {
	return func(p *Pipeline) {
		p.Strategies = append(p.Strategies, strategies...)
	}
}

// Resolve maps an external display name to a canonical code. Strategies see
// the raw source name first, so ledger overrides keyed by the name as it
// appears in the source always outrank the rename table. The alias rename
// happens before the final fuzzy search because fuzzy similarity cannot
// bridge unrelated strings. Failure surfaces as a NoConfidentMatchError;
// the caller decides skip-vs-abort.
func (p *Pipeline) Resolve(ctx context.Context, name string) (dataset.Code, error) {
	for _, s := range p.Strategies {
		if code, ok := s.Fn(ctx, name); ok {
			return code, nil
		}
	}

	if alias, ok := p.Aliases[name]; ok {
		name = alias
		for _, s := range p.Strategies {
			if code, ok := s.Fn(ctx, name); ok {
				return code, nil
			}
		}
	}

	code, err := p.Index.Match(name)
	if err != nil {
		return "", err
	}
	return dataset.Code(code), nil
}

// Ledger builds the manual-override strategy: exact NameOnMap lookup within
// one fixes domain. Runs first in every extractor's pipeline.
func Ledger(ledger *fixes.Ledger, domain string) Strategy {
	return Strategy{
		Name: "ledger:" + domain,
		Fn: func(_ context.Context, name string) (dataset.Code, bool) {
			code, ok := ledger.Lookup(domain, name)
			return dataset.Code(code), ok
		},
	}
}

// Transform builds a deterministic name-transform strategy. A candidate code
// produced by fn that is a member of the canonical set is used as-is; a
// near-miss candidate is query-and-fixed to the closest code above threshold,
// with a warning so the drift is visible. With no acceptable fix the strategy
// falls through.
func Transform(fn func(string) string, index *trigram.Index) Strategy {
	return Strategy{
		Name: "transform",
		Fn: func(ctx context.Context, name string) (dataset.Code, bool) {
			code := fn(name)
			if code == "" {
				return "", false
			}
			fixed, err := index.FixCode(ctx, code, name)
			if err != nil {
				return "", false
			}
			return dataset.Code(fixed), true
		},
	}
}

// Slug is the standard deterministic name transform: lowercase with
// apostrophes dropped and whitespace runs collapsed to single hyphens.
// "Hu Tao" → "hu-tao", "Traveler's Handy Sword" → "travelers-handy-sword".
func Slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "'", "")
	name = strings.ReplaceAll(name, "’", "")
	return strings.Join(strings.Fields(name), "-")
}
