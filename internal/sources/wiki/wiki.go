// Package wiki extracts entity attributes from scraped wiki pages: character
// region and release version from the character overview table, weapon
// obtain sources from the weapon list. Wiki layout is volatile, so tables
// are located by heading text and columns by header name rather than by
// position; a missing table or column aborts the extractor loudly instead
// of silently writing wrong attributes.
package wiki

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gamedex/gamedex/internal/sources"
	"github.com/gamedex/gamedex/pkg/dataset"
	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/logging"
	"github.com/gamedex/gamedex/pkg/resolve"
	"github.com/gamedex/gamedex/pkg/trigram"
)

// Fixes ledger sections consulted per page.
const (
	CharactersFixesDomain = "wiki.characters"
	WeaponsFixesDomain    = "wiki.weapons"
)

// TravelerPrefix marks the element-specific variants a generic traveler row
// fans out to.
const TravelerPrefix = "traveler-"

var (
	charactersHeading = regexp.MustCompile(`(?i)playable characters`)
	weaponsHeading    = regexp.MustCompile(`(?i)list of weapons`)

	nameColumn    = regexp.MustCompile(`(?i)^name$`)
	regionColumn  = regexp.MustCompile(`(?i)region|nation`)
	versionColumn = regexp.MustCompile(`(?i)version|released`)
	obtainColumn  = regexp.MustCompile(`(?i)obtain|source`)
)

// Extractor pulls attribute tables from the configured wiki pages.
type Extractor struct{}

// New creates the wiki extractor.
func New() *Extractor {
	return &Extractor{}
}

// ID returns the source identifier.
func (e *Extractor) ID() sources.ID {
	return sources.WikiID
}

// Extract processes the character page, then the weapon page. A structural
// failure on either page aborts the extractor; attribute writes made before
// the failure stay in place.
func (e *Extractor) Extract(ctx context.Context, pass *sources.Pass) error {
	if err := e.extractCharacters(ctx, pass); err != nil {
		return err
	}
	return e.extractWeapons(ctx, pass)
}

// extractCharacters writes region and release version from the character
// overview table. Both attributes come from the same rows, so the table and
// name column are resolved once.
func (e *Extractor) extractCharacters(ctx context.Context, pass *sources.Pass) error {
	log := logging.FromContext(ctx)

	doc, err := pass.Fetch.GetDocument(ctx, pass.Config.WikiCharactersURL)
	if err != nil {
		return err
	}
	table, err := e.findTable(doc, charactersHeading)
	if err != nil {
		return err
	}
	nameIdx, err := e.columnIndex(table, nameColumn, "name")
	if err != nil {
		return err
	}
	regionIdx, err := e.columnIndex(table, regionColumn, "region")
	if err != nil {
		return err
	}
	versionIdx, err := e.columnIndex(table, versionColumn, "version")
	if err != nil {
		return err
	}

	codes := pass.Dataset.CharacterCodes()
	pipeline := e.pipeline(pass, codes, CharactersFixesDomain)

	e.eachRow(table, func(cells *goquery.Selection) {
		name := cellText(cells, nameIdx)
		if name == "" {
			return
		}
		region := cellText(cells, regionIdx)
		version := cellText(cells, versionIdx)
		if region == "" && version == "" {
			log.Warn().Str("name", name).Msg("Character row carries no attributes")
			return
		}

		for _, code := range e.resolveFanOut(ctx, pipeline, codes, name) {
			if region != "" {
				if err := pass.Dataset.SetCharacterRegion(code, region); err != nil {
					log.Warn().Err(err).Str("code", string(code)).Msg("Failed to set region")
				}
			}
			if version != "" {
				if err := pass.Dataset.SetCharacterReleaseVersion(code, version); err != nil {
					log.Warn().Err(err).Str("code", string(code)).Msg("Failed to set release version")
				}
			}
		}
	})
	return nil
}

// extractWeapons writes obtain sources from the weapon list table.
func (e *Extractor) extractWeapons(ctx context.Context, pass *sources.Pass) error {
	log := logging.FromContext(ctx)

	doc, err := pass.Fetch.GetDocument(ctx, pass.Config.WikiWeaponsURL)
	if err != nil {
		return err
	}
	table, err := e.findTable(doc, weaponsHeading)
	if err != nil {
		return err
	}
	nameIdx, err := e.columnIndex(table, nameColumn, "name")
	if err != nil {
		return err
	}
	obtainIdx, err := e.columnIndex(table, obtainColumn, "obtain")
	if err != nil {
		return err
	}

	codes := weaponCodes(pass.Dataset)
	pipeline := e.pipeline(pass, codes, WeaponsFixesDomain)

	e.eachRow(table, func(cells *goquery.Selection) {
		name := cellText(cells, nameIdx)
		if name == "" {
			return
		}
		obtain := cellSources(cells, obtainIdx)
		if len(obtain) == 0 {
			log.Warn().Str("name", name).Msg("Weapon row carries no obtain sources")
			return
		}

		code, err := pipeline.Resolve(ctx, name)
		if err != nil {
			log.Warn().Err(err).Str("name", name).Msg("Unresolved weapon name")
			return
		}
		if err := pass.Dataset.SetWeaponObtainSources(code, obtain); err != nil {
			log.Warn().Err(err).Str("code", string(code)).Msg("Failed to set obtain sources")
		}
	})
	return nil
}

// pipeline builds the standard resolution chain over the given code set.
func (e *Extractor) pipeline(pass *sources.Pass, codes []dataset.Code, domain string) *resolve.Pipeline {
	index := trigram.New(codeStrings(codes), pass.Config.IndexOptions()...)
	return resolve.New(index,
		resolve.WithStrategies(
			resolve.Ledger(pass.Fixes, domain),
			resolve.Transform(resolve.Slug, index),
		),
	)
}

// resolveFanOut resolves a character name cell. The generic traveler row has
// no single canonical record; it applies to every element-specific variant.
func (e *Extractor) resolveFanOut(ctx context.Context, pipeline *resolve.Pipeline, codes []dataset.Code, name string) []dataset.Code {
	if resolve.Slug(name) == "traveler" {
		var out []dataset.Code
		for _, code := range codes {
			if strings.HasPrefix(string(code), TravelerPrefix) {
				out = append(out, code)
			}
		}
		return out
	}

	code, err := pipeline.Resolve(ctx, name)
	if err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("name", name).Msg("Unresolved character name")
		return nil
	}
	return []dataset.Code{code}
}

// findTable locates the first table following a heading whose text matches
// pattern. Absence means the page was restructured.
func (e *Extractor) findTable(doc *goquery.Document, pattern *regexp.Regexp) (*goquery.Selection, error) {
	var table *goquery.Selection
	doc.Find("h2, h3").EachWithBreak(func(_ int, heading *goquery.Selection) bool {
		if !pattern.MatchString(strings.TrimSpace(heading.Text())) {
			return true
		}
		candidate := heading.NextAllFiltered("table").First()
		if candidate.Length() > 0 {
			table = candidate
			return false
		}
		return true
	})
	if table == nil {
		return nil, &errors.MalformedSourceError{Source: e.ID().String(), Marker: "heading " + pattern.String()}
	}
	return table, nil
}

// columnIndex resolves a column position from the header row once per table.
// A missing column is a structural change and fails loudly.
func (e *Extractor) columnIndex(table *goquery.Selection, pattern *regexp.Regexp, label string) (int, error) {
	idx := -1
	table.Find("tr").First().Find("th").EachWithBreak(func(i int, th *goquery.Selection) bool {
		if pattern.MatchString(strings.TrimSpace(th.Text())) {
			idx = i
			return false
		}
		return true
	})
	if idx < 0 {
		return 0, &errors.MalformedSourceError{Source: e.ID().String(), Marker: "column " + label}
	}
	return idx, nil
}

// eachRow iterates the data rows of a table, skipping the header row and
// rows without data cells.
func (e *Extractor) eachRow(table *goquery.Selection, fn func(cells *goquery.Selection)) {
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		fn(cells)
	})
}

// cellText returns the trimmed text of one cell, empty when the row is too
// short.
func cellText(cells *goquery.Selection, idx int) string {
	if idx >= cells.Length() {
		return ""
	}
	return strings.TrimSpace(cells.Eq(idx).Text())
}

// cellSources splits an obtain cell into individual sources: list items when
// the cell carries a list, otherwise the whole cell as one source.
func cellSources(cells *goquery.Selection, idx int) []string {
	if idx >= cells.Length() {
		return nil
	}
	cell := cells.Eq(idx)

	var out []string
	cell.Find("li").Each(func(_ int, li *goquery.Selection) {
		if text := strings.TrimSpace(li.Text()); text != "" {
			out = append(out, text)
		}
	})
	if len(out) > 0 {
		return out
	}
	if text := strings.TrimSpace(cell.Text()); text != "" {
		return []string{text}
	}
	return nil
}

func weaponCodes(d *dataset.Dataset) []dataset.Code {
	names := d.WeaponNames()
	out := make([]dataset.Code, 0, len(names))
	for code := range names {
		out = append(out, code)
	}
	return out
}

func codeStrings(codes []dataset.Code) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}
