package wiki

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamedex/gamedex/internal/fetch"
	"github.com/gamedex/gamedex/internal/sources"
	"github.com/gamedex/gamedex/pkg/dataset"
	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/fixes"
)

const charactersPage = `<html><body>
<h2>Playable Characters</h2>
<table>
<tr><th>Icon</th><th>Name</th><th>Region</th><th>Version Released</th></tr>
<tr><td></td><td>Amber</td><td>Mondstadt</td><td>1.0</td></tr>
<tr><td></td><td>Traveler</td><td></td><td>1.0</td></tr>
<tr><td></td><td>Hu Tao</td><td>Liyue</td><td>1.3</td></tr>
<tr><td></td><td>Qqqzzz</td><td>Nowhere</td><td>9.9</td></tr>
</table>
</body></html>`

const weaponsPage = `<html><body>
<h2>List of Weapons</h2>
<table>
<tr><th>Name</th><th>Rarity</th><th>How to Obtain</th></tr>
<tr><td>Traveler's Handy Sword</td><td>3</td><td><ul><li>Chests</li><li>Starglitter Exchange</li></ul></td></tr>
<tr><td>Wolf's Gravestone</td><td>5</td><td>Wishes</td></tr>
<tr><td>Mystery Blade</td><td>1</td><td></td></tr>
</table>
</body></html>`

func testPass(t *testing.T, characters, weapons string) *sources.Pass {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/characters", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(characters))
	})
	mux.HandleFunc("/weapons", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(weapons))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	d := dataset.New()
	d.AddCharacter(&dataset.Character{Code: "amber", Name: "Amber"})
	d.AddCharacter(&dataset.Character{Code: "hu-tao", Name: "Hu Tao"})
	d.AddCharacter(&dataset.Character{Code: "traveler-anemo", Name: "Traveler (Anemo)"})
	d.AddCharacter(&dataset.Character{Code: "traveler-geo", Name: "Traveler (Geo)"})
	d.AddWeapon(&dataset.Weapon{Code: "travelers-handy-sword", Name: "Traveler's Handy Sword"})
	d.AddWeapon(&dataset.Weapon{Code: "wolfs-gravestone", Name: "Wolf's Gravestone"})

	ledger := fixes.New(fixes.Document{})
	cfg := &sources.Config{
		WikiCharactersURL: srv.URL + "/characters",
		WikiWeaponsURL:    srv.URL + "/weapons",
	}
	return sources.NewPass(d, ledger, fetch.New(fetch.WithPause(0)), cfg)
}

func TestExtractCharacterAttributes(t *testing.T) {
	pass := testPass(t, charactersPage, weaponsPage)

	require.NoError(t, New().Extract(context.Background(), pass))

	amber, _ := pass.Dataset.Character("amber")
	assert.Equal(t, "Mondstadt", amber.Region)
	assert.Equal(t, "1.0", amber.ReleaseVersion)

	huTao, _ := pass.Dataset.Character("hu-tao")
	assert.Equal(t, "Liyue", huTao.Region)
	assert.Equal(t, "1.3", huTao.ReleaseVersion)
}

func TestExtractTravelerFanOut(t *testing.T) {
	pass := testPass(t, charactersPage, weaponsPage)

	require.NoError(t, New().Extract(context.Background(), pass))

	for _, code := range []dataset.Code{"traveler-anemo", "traveler-geo"} {
		c, ok := pass.Dataset.Character(code)
		require.True(t, ok)
		assert.Equal(t, "1.0", c.ReleaseVersion, "%s inherits the generic traveler row", code)
		assert.Empty(t, c.Region, "empty cell must not overwrite")
	}
}

func TestExtractWeaponObtainSources(t *testing.T) {
	pass := testPass(t, charactersPage, weaponsPage)

	require.NoError(t, New().Extract(context.Background(), pass))

	sword, _ := pass.Dataset.Weapon("travelers-handy-sword")
	assert.Equal(t, []string{"Chests", "Starglitter Exchange"}, sword.ObtainSources)

	wolf, _ := pass.Dataset.Weapon("wolfs-gravestone")
	assert.Equal(t, []string{"Wishes"}, wolf.ObtainSources)
}

func TestExtractMissingHeadingFatal(t *testing.T) {
	pass := testPass(t, `<html><body><p>nothing here</p></body></html>`, weaponsPage)

	err := New().Extract(context.Background(), pass)
	require.Error(t, err)
	assert.True(t, errors.IsMalformedSource(err))
}

func TestExtractMissingColumnFatal(t *testing.T) {
	page := `<html><body>
<h2>Playable Characters</h2>
<table>
<tr><th>Icon</th><th>Name</th><th>Element</th></tr>
<tr><td></td><td>Amber</td><td>Pyro</td></tr>
</table>
</body></html>`
	pass := testPass(t, page, weaponsPage)

	err := New().Extract(context.Background(), pass)
	require.Error(t, err)
	assert.True(t, errors.IsMalformedSource(err))

	amber, _ := pass.Dataset.Character("amber")
	assert.Empty(t, amber.Region, "structural failure must not write attributes")
}

func TestExtractLedgerOverride(t *testing.T) {
	page := `<html><body>
<h2>Playable Characters</h2>
<table>
<tr><th>Name</th><th>Region</th><th>Version Released</th></tr>
<tr><td>The Outlander</td><td>Mondstadt</td><td>1.0</td></tr>
</table>
</body></html>`
	pass := testPass(t, page, weaponsPage)
	pass.Fixes = fixes.New(fixes.Document{
		CharactersFixesDomain: {{NameOnMap: "The Outlander", UseCode: "amber"}},
	})

	require.NoError(t, New().Extract(context.Background(), pass))

	amber, _ := pass.Dataset.Character("amber")
	assert.Equal(t, "Mondstadt", amber.Region)
	assert.Empty(t, pass.Fixes.Unused())
}

func TestExtractIdempotent(t *testing.T) {
	pass := testPass(t, charactersPage, weaponsPage)

	require.NoError(t, New().Extract(context.Background(), pass))
	first, _ := pass.Dataset.Weapon("travelers-handy-sword")
	firstSources := append([]string(nil), first.ObtainSources...)

	require.NoError(t, New().Extract(context.Background(), pass))
	second, _ := pass.Dataset.Weapon("travelers-handy-sword")
	assert.Equal(t, firstSources, second.ObtainSources)
}
