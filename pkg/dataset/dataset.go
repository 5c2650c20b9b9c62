// Package dataset provides the canonical in-memory dataset of game entities,
// keyed by stable string codes. The dataset's schema and content are owned by
// the data maintainers; extraction passes only augment existing records
// (locations, regions, release versions, obtain sources) and never create or
// delete entities.
package dataset

import (
	"github.com/gamedex/gamedex/pkg/errors"
)

// Code is an opaque, stable, human-assigned string identifier for a game
// entity. Unique within its entity kind, immutable once assigned.
type Code string

// String returns the string representation of a code.
func (c Code) String() string {
	return string(c)
}

// Kind identifies an entity bucket within the dataset.
type Kind string

// Entity kinds.
const (
	KindCharacter  Kind = "character"
	KindWeapon     Kind = "weapon"
	KindEnemy      Kind = "enemy"
	KindEnemyGroup Kind = "enemy-group"
	KindItem       Kind = "item"
	KindDomain     Kind = "domain"
)

// LocationKinds are the buckets that can carry map locations. A map label
// may legitimately name an entity in more than one of these when names
// collide between an enemy and an item.
var LocationKinds = []Kind{KindEnemy, KindEnemyGroup, KindItem}

// Character is a playable character record.
type Character struct {
	Code           Code   `yaml:"code"`
	Name           string `yaml:"name"`
	Element        string `yaml:"element,omitempty"`
	Rarity         int    `yaml:"rarity,omitempty"`
	Region         string `yaml:"region,omitempty"`
	ReleaseVersion string `yaml:"releaseVersion,omitempty"`
	Unreleased     bool   `yaml:"unreleased,omitempty"`
}

// Weapon is a weapon record.
type Weapon struct {
	Code           Code     `yaml:"code"`
	Name           string   `yaml:"name"`
	TypeCode       string   `yaml:"typeCode,omitempty"`
	Rarity         int      `yaml:"rarity,omitempty"`
	ObtainSources  []string `yaml:"obtainSources,omitempty"`
	ReleaseVersion string   `yaml:"releaseVersion,omitempty"`
}

// Enemy is a single enemy record.
type Enemy struct {
	Code      Code          `yaml:"code"`
	Name      string        `yaml:"name"`
	Locations []MapLocation `yaml:"locations,omitempty"`
}

// EnemyGroup is a family of related enemies sharing map presence.
type EnemyGroup struct {
	Code      Code          `yaml:"code"`
	Name      string        `yaml:"name"`
	Locations []MapLocation `yaml:"locations,omitempty"`
}

// Item is a material or collectible record.
type Item struct {
	Code      Code          `yaml:"code"`
	Name      string        `yaml:"name"`
	Locations []MapLocation `yaml:"locations,omitempty"`
}

// Domain is a repeatable challenge location record.
type Domain struct {
	Code     Code         `yaml:"code"`
	Name     string       `yaml:"name"`
	Type     string       `yaml:"type,omitempty"`
	Location *MapLocation `yaml:"location,omitempty"`
}

// Dataset is the authoritative collection of entity records. Code slices
// preserve the order of the source files, which doubles as the canonical
// priority order (release order) used for statistics tie-breaking and team
// member canonicalization.
type Dataset struct {
	characters  map[Code]*Character
	weapons     map[Code]*Weapon
	enemies     map[Code]*Enemy
	enemyGroups map[Code]*EnemyGroup
	items       map[Code]*Item
	domains     map[Code]*Domain

	characterOrder []Code
	maps           []MapCode
}

// New creates an empty dataset. Most callers load one with Load instead.
func New() *Dataset {
	return &Dataset{
		characters:  make(map[Code]*Character),
		weapons:     make(map[Code]*Weapon),
		enemies:     make(map[Code]*Enemy),
		enemyGroups: make(map[Code]*EnemyGroup),
		items:       make(map[Code]*Item),
		domains:     make(map[Code]*Domain),
	}
}

// AddCharacter registers a character record. Creation belongs to dataset
// build time, not extraction passes; extractors only augment.
func (d *Dataset) AddCharacter(c *Character) {
	if _, ok := d.characters[c.Code]; !ok {
		d.characterOrder = append(d.characterOrder, c.Code)
	}
	d.characters[c.Code] = c
}

// AddWeapon registers a weapon record.
func (d *Dataset) AddWeapon(w *Weapon) {
	d.weapons[w.Code] = w
}

// AddEnemy registers an enemy record.
func (d *Dataset) AddEnemy(e *Enemy) {
	d.enemies[e.Code] = e
}

// AddEnemyGroup registers an enemy group record.
func (d *Dataset) AddEnemyGroup(g *EnemyGroup) {
	d.enemyGroups[g.Code] = g
}

// AddItem registers an item record.
func (d *Dataset) AddItem(i *Item) {
	d.items[i.Code] = i
}

// AddDomain registers a domain record.
func (d *Dataset) AddDomain(dom *Domain) {
	d.domains[dom.Code] = dom
}

// SetMaps sets the canonical map ordering.
func (d *Dataset) SetMaps(maps []MapCode) {
	d.maps = maps
}

// Character returns the character record for code.
func (d *Dataset) Character(code Code) (*Character, bool) {
	c, ok := d.characters[code]
	return c, ok
}

// Weapon returns the weapon record for code.
func (d *Dataset) Weapon(code Code) (*Weapon, bool) {
	w, ok := d.weapons[code]
	return w, ok
}

// Enemy returns the enemy record for code.
func (d *Dataset) Enemy(code Code) (*Enemy, bool) {
	e, ok := d.enemies[code]
	return e, ok
}

// EnemyGroup returns the enemy group record for code.
func (d *Dataset) EnemyGroup(code Code) (*EnemyGroup, bool) {
	g, ok := d.enemyGroups[code]
	return g, ok
}

// Item returns the item record for code.
func (d *Dataset) Item(code Code) (*Item, bool) {
	i, ok := d.items[code]
	return i, ok
}

// Domain returns the domain record for code.
func (d *Dataset) Domain(code Code) (*Domain, bool) {
	dom, ok := d.domains[code]
	return dom, ok
}

// CharacterCodes returns all character codes in canonical priority order.
func (d *Dataset) CharacterCodes() []Code {
	out := make([]Code, len(d.characterOrder))
	copy(out, d.characterOrder)
	return out
}

// ReleasedCharacterCodes returns character codes in priority order,
// excluding entities marked unreleased.
func (d *Dataset) ReleasedCharacterCodes() []Code {
	out := make([]Code, 0, len(d.characterOrder))
	for _, code := range d.characterOrder {
		if c := d.characters[code]; c != nil && !c.Unreleased {
			out = append(out, code)
		}
	}
	return out
}

// CharacterIndex returns the priority index of a character code, or a value
// past the end of the order for unknown codes so they sort last.
func (d *Dataset) CharacterIndex(code Code) int {
	for i, c := range d.characterOrder {
		if c == code {
			return i
		}
	}
	return len(d.characterOrder)
}

// WeaponNames returns code→name for all weapons, for building search indexes.
func (d *Dataset) WeaponNames() map[Code]string {
	out := make(map[Code]string, len(d.weapons))
	for code, w := range d.weapons {
		out[code] = w.Name
	}
	return out
}

// CharacterNames returns code→name for all characters.
func (d *Dataset) CharacterNames() map[Code]string {
	out := make(map[Code]string, len(d.characters))
	for code, c := range d.characters {
		out[code] = c.Name
	}
	return out
}

// LocationCodes returns every code present in any location-carrying bucket.
func (d *Dataset) LocationCodes() []Code {
	seen := make(map[Code]struct{})
	var out []Code
	add := func(code Code) {
		if _, ok := seen[code]; !ok {
			seen[code] = struct{}{}
			out = append(out, code)
		}
	}
	for code := range d.enemies {
		add(code)
	}
	for code := range d.enemyGroups {
		add(code)
	}
	for code := range d.items {
		add(code)
	}
	return out
}

// BucketsFor returns the location-carrying kinds that contain code.
func (d *Dataset) BucketsFor(code Code) []Kind {
	var out []Kind
	if _, ok := d.enemies[code]; ok {
		out = append(out, KindEnemy)
	}
	if _, ok := d.enemyGroups[code]; ok {
		out = append(out, KindEnemyGroup)
	}
	if _, ok := d.items[code]; ok {
		out = append(out, KindItem)
	}
	return out
}

// SetLocations overwrites the location list of one record. The list is
// sorted into the canonical (map index, x, y) order so repeated extraction
// is idempotent regardless of external source ordering.
func (d *Dataset) SetLocations(kind Kind, code Code, locs []MapLocation) error {
	sorted := make([]MapLocation, len(locs))
	copy(sorted, locs)
	d.SortLocations(sorted)

	switch kind {
	case KindEnemy:
		if e, ok := d.enemies[code]; ok {
			e.Locations = sorted
			return nil
		}
	case KindEnemyGroup:
		if g, ok := d.enemyGroups[code]; ok {
			g.Locations = sorted
			return nil
		}
	case KindItem:
		if i, ok := d.items[code]; ok {
			i.Locations = sorted
			return nil
		}
	default:
		return &errors.ValidationError{Field: "kind", Value: kind, Message: "kind cannot carry locations"}
	}
	return &errors.NotFoundError{Resource: string(kind), ID: string(code)}
}

// SetCharacterRegion sets the region attribute of a character.
func (d *Dataset) SetCharacterRegion(code Code, region string) error {
	c, ok := d.characters[code]
	if !ok {
		return &errors.NotFoundError{Resource: "character", ID: string(code)}
	}
	c.Region = region
	return nil
}

// SetCharacterReleaseVersion sets the release version of a character.
func (d *Dataset) SetCharacterReleaseVersion(code Code, version string) error {
	c, ok := d.characters[code]
	if !ok {
		return &errors.NotFoundError{Resource: "character", ID: string(code)}
	}
	c.ReleaseVersion = version
	return nil
}

// SetWeaponObtainSources overwrites the obtain sources of a weapon.
func (d *Dataset) SetWeaponObtainSources(code Code, sources []string) error {
	w, ok := d.weapons[code]
	if !ok {
		return &errors.NotFoundError{Resource: "weapon", ID: string(code)}
	}
	w.ObtainSources = sources
	return nil
}
