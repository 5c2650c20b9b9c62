// Package fixes implements the manual override ledger: operator-maintained
// name→code corrections for external display names the fuzzy matcher gets
// wrong. Entries are grouped by extractor domain (for example "map.search")
// and tracked for usage within a reconciliation pass, so that a correction
// the sources no longer need is reported instead of rotting silently.
package fixes

import (
	"context"
	"os"
	"sort"

	"github.com/goccy/go-yaml"

	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/logging"
)

// Entry maps one external display name to one canonical code.
type Entry struct {
	NameOnMap string `yaml:"nameOnMap"`
	UseCode   string `yaml:"useCode"`
}

// Document is the on-disk shape of the fixes file: entries grouped by
// extractor domain.
type Document map[string][]Entry

// entryID identifies one entry within the ledger. Usage is tracked in an
// explicit set keyed by entryID rather than a mutable flag on the entry,
// which makes Reset a new empty set instead of a tree walk and keeps tests
// from leaking state into each other.
type entryID struct {
	domain string
	index  int
}

// Ledger holds the fix entries for one reconciliation pass.
type Ledger struct {
	domains Document
	used    map[entryID]struct{}
}

// New creates a ledger from a parsed document.
func New(doc Document) *Ledger {
	return &Ledger{
		domains: doc,
		used:    make(map[entryID]struct{}),
	}
}

// Load reads and parses a fixes document from a YAML file. A missing file
// yields an empty ledger; a dataset without manual corrections is valid.
func Load(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(Document{}), nil
	}
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return New(doc), nil
}

// Document returns the underlying entries, grouped by domain. Callers must
// treat the result as read-only.
func (l *Ledger) Document() Document {
	return l.domains
}

// Reset clears all usage tracking. Must run once at the start of each
// reconciliation pass, before any extractor consults the ledger.
func (l *Ledger) Reset() {
	l.used = make(map[entryID]struct{})
}

// Lookup finds the entry in domain whose NameOnMap equals name exactly,
// marks it used, and returns its override code. A miss is not an error;
// the caller falls back to the matcher.
func (l *Ledger) Lookup(domain, name string) (string, bool) {
	for i, e := range l.domains[domain] {
		if e.NameOnMap == name {
			l.used[entryID{domain: domain, index: i}] = struct{}{}
			return e.UseCode, true
		}
	}
	return "", false
}

// UnusedEntry describes a fix entry that no extractor consulted during the
// pass — most likely the source renamed itself to match canonical form, or
// the entity was removed.
type UnusedEntry struct {
	Domain    string
	Index     int
	NameOnMap string
}

// Unused returns every entry not consulted since the last Reset, ordered by
// domain then index for stable output.
func (l *Ledger) Unused() []UnusedEntry {
	var out []UnusedEntry
	for domain, entries := range l.domains {
		for i, e := range entries {
			if _, ok := l.used[entryID{domain: domain, index: i}]; !ok {
				out = append(out, UnusedEntry{Domain: domain, Index: i, NameOnMap: e.NameOnMap})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Domain != out[j].Domain {
			return out[i].Domain < out[j].Domain
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// ReportUnused logs one warning per unused entry. Report-only, never fatal:
// a source may simply have omitted an entity this pass.
func (l *Ledger) ReportUnused(ctx context.Context) {
	log := logging.FromContext(ctx)
	for _, u := range l.Unused() {
		log.Warn().
			Str("domain", u.Domain).
			Int("index", u.Index).
			Str("name", u.NameOnMap).
			Msg("Fix entry unused this pass, likely stale")
	}
}
