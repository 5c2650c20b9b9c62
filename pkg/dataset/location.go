package dataset

import (
	"math"
	"sort"
)

// MapCode names one of the game's maps.
type MapCode string

// MapLocation is an integer-rounded, offset-adjusted coordinate on a named map.
type MapLocation struct {
	MapCode MapCode `yaml:"mapCode"`
	X       int     `yaml:"x"`
	Y       int     `yaml:"y"`
}

// Offset is a per-map integer coordinate correction applied after rounding.
type Offset struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// LocationFromRaw converts raw floating point source coordinates into a
// MapLocation. The order is round-then-offset: round(10.6)+(-22) = -11, not
// round(10.6-22). Both steps are integral so repeated conversion of the same
// input is bit-exact.
func LocationFromRaw(mapCode MapCode, xPos, yPos float64, offset Offset) MapLocation {
	return MapLocation{
		MapCode: mapCode,
		X:       int(math.Round(xPos)) + offset.X,
		Y:       int(math.Round(yPos)) + offset.Y,
	}
}

// Maps returns the canonical map ordering.
func (d *Dataset) Maps() []MapCode {
	out := make([]MapCode, len(d.maps))
	copy(out, d.maps)
	return out
}

// MapIndex returns the position of mapCode in the canonical map ordering.
// Unknown maps sort after all known ones.
func (d *Dataset) MapIndex(mapCode MapCode) int {
	for i, m := range d.maps {
		if m == mapCode {
			return i
		}
	}
	return len(d.maps)
}

// SortLocations orders locations by (map index, x, y) ascending. Unknown
// maps fall to the end, ordered by code so the result stays deterministic.
func (d *Dataset) SortLocations(locs []MapLocation) {
	sort.Slice(locs, func(i, j int) bool {
		a, b := locs[i], locs[j]
		ai, bi := d.MapIndex(a.MapCode), d.MapIndex(b.MapCode)
		if ai != bi {
			return ai < bi
		}
		if a.MapCode != b.MapCode {
			return a.MapCode < b.MapCode
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
}
