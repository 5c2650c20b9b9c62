package dataset

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/gamedex/gamedex/pkg/errors"
)

// Dataset file names within a dataset directory.
const (
	mapsFile        = "maps.yaml"
	charactersFile  = "characters.yaml"
	weaponsFile     = "weapons.yaml"
	enemiesFile     = "enemies.yaml"
	enemyGroupsFile = "enemy-groups.yaml"
	itemsFile       = "items.yaml"
	domainsFile     = "domains.yaml"
)

// Load reads a dataset from a directory of YAML files. A missing file leaves
// its bucket empty; a malformed file is an error. File order is preserved as
// the canonical priority order.
func Load(dir string) (*Dataset, error) {
	return LoadFS(os.DirFS(dir))
}

// LoadFS reads a dataset from any fs.FS.
func LoadFS(fsys fs.FS) (*Dataset, error) {
	d := New()

	if err := loadYAML(fsys, mapsFile, &d.maps); err != nil {
		return nil, err
	}

	var characters []*Character
	if err := loadYAML(fsys, charactersFile, &characters); err != nil {
		return nil, err
	}
	for _, c := range characters {
		d.characters[c.Code] = c
		d.characterOrder = append(d.characterOrder, c.Code)
	}

	var weapons []*Weapon
	if err := loadYAML(fsys, weaponsFile, &weapons); err != nil {
		return nil, err
	}
	for _, w := range weapons {
		d.weapons[w.Code] = w
	}

	var enemies []*Enemy
	if err := loadYAML(fsys, enemiesFile, &enemies); err != nil {
		return nil, err
	}
	for _, e := range enemies {
		d.enemies[e.Code] = e
	}

	var groups []*EnemyGroup
	if err := loadYAML(fsys, enemyGroupsFile, &groups); err != nil {
		return nil, err
	}
	for _, g := range groups {
		d.enemyGroups[g.Code] = g
	}

	var items []*Item
	if err := loadYAML(fsys, itemsFile, &items); err != nil {
		return nil, err
	}
	for _, i := range items {
		d.items[i.Code] = i
	}

	var domains []*Domain
	if err := loadYAML(fsys, domainsFile, &domains); err != nil {
		return nil, err
	}
	for _, dom := range domains {
		d.domains[dom.Code] = dom
	}

	return d, nil
}

// loadYAML reads one YAML file into target. A missing file is okay.
func loadYAML(fsys fs.FS, name string, target any) error {
	data, err := fs.ReadFile(fsys, name)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errors.WrapIO("read", name, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return errors.WrapParse("yaml", name, err)
	}
	return nil
}

// Save writes the dataset back to a directory of YAML files, preserving the
// canonical priority order of characters.
func (d *Dataset) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	characters := make([]*Character, 0, len(d.characterOrder))
	for _, code := range d.characterOrder {
		characters = append(characters, d.characters[code])
	}

	files := []struct {
		name string
		data any
	}{
		{mapsFile, d.maps},
		{charactersFile, characters},
		{weaponsFile, sortedValues(d.weapons)},
		{enemiesFile, sortedValues(d.enemies)},
		{enemyGroupsFile, sortedValues(d.enemyGroups)},
		{itemsFile, sortedValues(d.items)},
		{domainsFile, sortedValues(d.domains)},
	}
	for _, f := range files {
		if err := saveYAML(filepath.Join(dir, f.name), f.data); err != nil {
			return err
		}
	}
	return nil
}

// sortedValues returns map values ordered by code for stable file output.
func sortedValues[T any](m map[Code]*T) []*T {
	codes := make([]Code, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	out := make([]*T, 0, len(m))
	for _, code := range codes {
		out = append(out, m[code])
	}
	return out
}

// saveYAML marshals target and writes it to path.
func saveYAML(path string, target any) error {
	data, err := yaml.Marshal(target)
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
