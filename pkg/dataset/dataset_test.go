package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDataset() *Dataset {
	d := New()
	d.SetMaps([]MapCode{"teyvat", "enkanomiya"})
	d.AddCharacter(&Character{Code: "amber", Name: "Amber"})
	d.AddCharacter(&Character{Code: "diluc", Name: "Diluc"})
	d.AddCharacter(&Character{Code: "yae-miko", Name: "Yae Miko", Unreleased: true})
	d.AddWeapon(&Weapon{Code: "rust", Name: "Rust", Rarity: 4})
	d.AddEnemy(&Enemy{Code: "ruin-guard", Name: "Ruin Guard"})
	d.AddEnemyGroup(&EnemyGroup{Code: "hypostases", Name: "Hypostases"})
	d.AddItem(&Item{Code: "crystal-chunk", Name: "Crystal Chunk"})
	d.AddItem(&Item{Code: "ruin-guard", Name: "Ruin Guard Figurine"})
	return d
}

func TestCharacterCodesPreserveOrder(t *testing.T) {
	d := testDataset()

	assert.Equal(t, []Code{"amber", "diluc", "yae-miko"}, d.CharacterCodes())
}

func TestReleasedCharacterCodesExcludesUnreleased(t *testing.T) {
	d := testDataset()

	assert.Equal(t, []Code{"amber", "diluc"}, d.ReleasedCharacterCodes())
}

func TestCharacterIndex(t *testing.T) {
	d := testDataset()

	assert.Equal(t, 0, d.CharacterIndex("amber"))
	assert.Equal(t, 1, d.CharacterIndex("diluc"))
	assert.Equal(t, 3, d.CharacterIndex("nobody"), "unknown codes sort last")
}

func TestBucketsFor(t *testing.T) {
	d := testDataset()

	assert.Equal(t, []Kind{KindItem}, d.BucketsFor("crystal-chunk"))
	assert.Equal(t, []Kind{KindEnemy, KindItem}, d.BucketsFor("ruin-guard"))
	assert.Empty(t, d.BucketsFor("amber"))
}

func TestSetLocationsSortsAndOverwrites(t *testing.T) {
	d := testDataset()

	err := d.SetLocations(KindEnemy, "ruin-guard", []MapLocation{
		{MapCode: "enkanomiya", X: 1, Y: 1},
		{MapCode: "teyvat", X: 2, Y: 2},
	})
	require.NoError(t, err)

	e, ok := d.Enemy("ruin-guard")
	require.True(t, ok)
	assert.Equal(t, MapCode("teyvat"), e.Locations[0].MapCode)

	// Second write replaces, it does not append.
	err = d.SetLocations(KindEnemy, "ruin-guard", []MapLocation{
		{MapCode: "teyvat", X: 9, Y: 9},
	})
	require.NoError(t, err)
	e, _ = d.Enemy("ruin-guard")
	assert.Len(t, e.Locations, 1)
}

func TestSetLocationsUnknownCode(t *testing.T) {
	d := testDataset()

	err := d.SetLocations(KindItem, "nope", nil)
	assert.Error(t, err)
}

func TestSetLocationsInvalidKind(t *testing.T) {
	d := testDataset()

	err := d.SetLocations(KindCharacter, "amber", nil)
	assert.Error(t, err)
}

func TestAugmentAttributes(t *testing.T) {
	d := testDataset()

	require.NoError(t, d.SetCharacterRegion("amber", "mondstadt"))
	require.NoError(t, d.SetCharacterReleaseVersion("amber", "1.0"))
	require.NoError(t, d.SetWeaponObtainSources("rust", []string{"wishes"}))

	c, _ := d.Character("amber")
	assert.Equal(t, "mondstadt", c.Region)
	assert.Equal(t, "1.0", c.ReleaseVersion)

	w, _ := d.Weapon("rust")
	assert.Equal(t, []string{"wishes"}, w.ObtainSources)

	assert.Error(t, d.SetCharacterRegion("nope", "x"))
	assert.Error(t, d.SetCharacterReleaseVersion("nope", "x"))
	assert.Error(t, d.SetWeaponObtainSources("nope", nil))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	d := testDataset()
	require.NoError(t, d.SetCharacterRegion("amber", "mondstadt"))
	require.NoError(t, d.SetLocations(KindItem, "crystal-chunk", []MapLocation{
		{MapCode: "teyvat", X: 3, Y: 4},
	}))

	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, d.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, d.CharacterCodes(), loaded.CharacterCodes())
	assert.Equal(t, d.Maps(), loaded.Maps())

	c, ok := loaded.Character("amber")
	require.True(t, ok)
	assert.Equal(t, "mondstadt", c.Region)

	i, ok := loaded.Item("crystal-chunk")
	require.True(t, ok)
	assert.Equal(t, []MapLocation{{MapCode: "teyvat", X: 3, Y: 4}}, i.Locations)
}

func TestLoadEmptyDir(t *testing.T) {
	d, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, d.CharacterCodes())
}
