package mapapi

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
	"github.com/gamedex/gamedex/pkg/fixes"
)

const teyvatPayload = `{
	"point_list": [
		{"label_id": 1, "x_pos": 10.6, "y_pos": -3.2},
		{"label_id": 1, "x_pos": 1.0, "y_pos": 2.0},
		{"label_id": 2, "x_pos": 5.4, "y_pos": 5.5},
		{"label_id": 3, "x_pos": 7.0, "y_pos": 7.0},
		{"label_id": 4, "x_pos": 8.0, "y_pos": 8.0},
		{"label_id": 9, "x_pos": 0.0, "y_pos": 0.0}
	],
	"label_list": [
		{"id": 1, "name": "Ruin Guard"},
		{"id": 2, "name": "shougun"},
		{"id": 3, "name": "Crystal Chunk"},
		{"id": 4, "name": "Firefly"},
		{"id": 9, "name": "Utter Nonsense Qqq"}
	]
}`

func testPass(t *testing.T, url string) *sources.Pass {
	t.Helper()

	d := dataset.New()
	d.SetMaps([]dataset.MapCode{"teyvat"})
	d.AddEnemy(&dataset.Enemy{Code: "ruin-guard", Name: "Ruin Guard"})
	d.AddEnemy(&dataset.Enemy{Code: "raiden", Name: "Raiden"})
	d.AddItem(&dataset.Item{Code: "crystal-chunk", Name: "Crystal Chunk"})
	// "firefly" collides across kinds; only the pluralized item survives
	// disambiguation.
	d.AddEnemy(&dataset.Enemy{Code: "firefly", Name: "Firefly"})
	d.AddItem(&dataset.Item{Code: "firefly", Name: "Firefly"})
	d.AddItem(&dataset.Item{Code: "fireflys", Name: "Fireflies"})

	ledger := fixes.New(fixes.Document{
		FixesDomain: {{NameOnMap: "shougun", UseCode: "raiden"}},
	})

	cfg := &sources.Config{
		MapURLs:    map[dataset.MapCode]string{"teyvat": url},
		MapOffsets: map[dataset.MapCode]dataset.Offset{"teyvat": {X: -22, Y: -150}},
	}
	return sources.NewPass(d, ledger, fetch.New(fetch.WithPause(0)), cfg)
}

func serve(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtractGroupsAndSortsLocations(t *testing.T) {
	srv := serve(t, teyvatPayload)
	pass := testPass(t, srv.URL)

	require.NoError(t, New().Extract(context.Background(), pass))

	e, ok := pass.Dataset.Enemy("ruin-guard")
	require.True(t, ok)
	// round-then-offset: round(10.6)=11, 11-22=-11; round(-3.2)=-3, -3-150=-153.
	assert.Equal(t, []dataset.MapLocation{
		{MapCode: "teyvat", X: -21, Y: -148},
		{MapCode: "teyvat", X: -11, Y: -153},
	}, e.Locations)
}

func TestExtractLedgerOverride(t *testing.T) {
	srv := serve(t, teyvatPayload)
	pass := testPass(t, srv.URL)

	require.NoError(t, New().Extract(context.Background(), pass))

	e, ok := pass.Dataset.Enemy("raiden")
	require.True(t, ok)
	require.Len(t, e.Locations, 1)
	assert.Empty(t, pass.Fixes.Unused(), "the shougun fix must be marked used")
}

func TestExtractPluralDisambiguation(t *testing.T) {
	srv := serve(t, teyvatPayload)
	pass := testPass(t, srv.URL)

	require.NoError(t, New().Extract(context.Background(), pass))

	// "Firefly" exists as both enemy and item; the plural item wins.
	plural, ok := pass.Dataset.Item("fireflys")
	require.True(t, ok)
	assert.Len(t, plural.Locations, 1)

	enemy, _ := pass.Dataset.Enemy("firefly")
	assert.Empty(t, enemy.Locations)
	item, _ := pass.Dataset.Item("firefly")
	assert.Empty(t, item.Locations)
}

func TestExtractSkipsUnresolvedLabels(t *testing.T) {
	srv := serve(t, teyvatPayload)
	pass := testPass(t, srv.URL)

	// A garbage label must not abort the extractor.
	require.NoError(t, New().Extract(context.Background(), pass))

	i, ok := pass.Dataset.Item("crystal-chunk")
	require.True(t, ok)
	assert.Len(t, i.Locations, 1)
}

func TestExtractIdempotent(t *testing.T) {
	srv := serve(t, teyvatPayload)
	pass := testPass(t, srv.URL)

	require.NoError(t, New().Extract(context.Background(), pass))
	first, _ := pass.Dataset.Enemy("ruin-guard")
	firstLocs := append([]dataset.MapLocation(nil), first.Locations...)

	require.NoError(t, New().Extract(context.Background(), pass))
	second, _ := pass.Dataset.Enemy("ruin-guard")

	assert.Equal(t, firstLocs, second.Locations, "re-running against identical data must be bit-exact")
}

func TestExtractFetchFailureAborts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()
	pass := testPass(t, srv.URL)

	assert.Error(t, New().Extract(context.Background(), pass))
}

func TestPlacementsFor(t *testing.T) {
	d := dataset.New()
	d.AddEnemy(&dataset.Enemy{Code: "stonehide-lawachurl"})
	d.AddEnemyGroup(&dataset.EnemyGroup{Code: "lawachurls"})
	d.AddEnemy(&dataset.Enemy{Code: "lawachurls"})

	// Single bucket.
	placements, ok := placementsFor(d, "stonehide-lawachurl")
	require.True(t, ok)
	assert.Len(t, placements, 1)

	// Related enemy kinds both receive locations.
	placements, ok = placementsFor(d, "lawachurls")
	require.True(t, ok)
	assert.Len(t, placements, 2)

	// Unknown code has no bucket.
	_, ok = placementsFor(d, "nope")
	assert.False(t, ok)
}
