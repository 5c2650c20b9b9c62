package fixes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLedger() *Ledger {
	return New(Document{
		"map.search": {
			{NameOnMap: "shougun", UseCode: "raiden"},
			{NameOnMap: "Anemo Hypostase", UseCode: "anemo-hypostasis"},
		},
		"stats.characters": {
			{NameOnMap: "Hutao", UseCode: "hu-tao"},
		},
	})
}

func TestLookupHitMarksUsed(t *testing.T) {
	l := testLedger()

	code, ok := l.Lookup("map.search", "shougun")
	require.True(t, ok)
	assert.Equal(t, "raiden", code)

	unused := l.Unused()
	require.Len(t, unused, 2)
	for _, u := range unused {
		assert.NotEqual(t, "shougun", u.NameOnMap)
	}
}

func TestLookupMissIsNotAnError(t *testing.T) {
	l := testLedger()

	code, ok := l.Lookup("map.search", "Hilichurl")
	assert.False(t, ok)
	assert.Empty(t, code)
}

func TestLookupScopedToDomain(t *testing.T) {
	l := testLedger()

	_, ok := l.Lookup("map.search", "Hutao")
	assert.False(t, ok, "entry from another domain must not match")

	code, ok := l.Lookup("stats.characters", "Hutao")
	require.True(t, ok)
	assert.Equal(t, "hu-tao", code)
}

func TestUnusedAfterFullPass(t *testing.T) {
	l := testLedger()

	l.Lookup("map.search", "shougun")
	l.Lookup("map.search", "Anemo Hypostase")
	l.Lookup("stats.characters", "Hutao")

	assert.Empty(t, l.Unused())
}

func TestUnusedStableOrder(t *testing.T) {
	l := testLedger()

	unused := l.Unused()
	require.Len(t, unused, 3)
	assert.Equal(t, "map.search", unused[0].Domain)
	assert.Equal(t, 0, unused[0].Index)
	assert.Equal(t, "shougun", unused[0].NameOnMap)
	assert.Equal(t, "stats.characters", unused[2].Domain)
}

func TestResetClearsUsage(t *testing.T) {
	l := testLedger()

	l.Lookup("map.search", "shougun")
	l.Reset()

	assert.Len(t, l.Unused(), 3, "reset must forget all usage")
}

func TestRepeatedLookupCountsOnce(t *testing.T) {
	l := testLedger()

	l.Lookup("map.search", "shougun")
	l.Lookup("map.search", "shougun")

	assert.Len(t, l.Unused(), 2)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixes.yaml")
	content := []byte(`
map.search:
  - nameOnMap: shougun
    useCode: raiden
stats.characters:
  - nameOnMap: Hutao
    useCode: hu-tao
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	l, err := Load(path)
	require.NoError(t, err)

	code, ok := l.Lookup("map.search", "shougun")
	require.True(t, ok)
	assert.Equal(t, "raiden", code)
}

func TestLoadMissingFileYieldsEmptyLedger(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	_, ok := l.Lookup("map.search", "shougun")
	assert.False(t, ok)
	assert.Empty(t, l.Unused())
}
