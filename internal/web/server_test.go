package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/peterkuimelis/cardclash/internal/game"
)

func newTestServer(t *testing.T, decksFile string, match http.Handler) *httptest.Server {
	t.Helper()
	cat, err := game.DefaultCatalog()
	require.NoError(t, err)
	srv := httptest.NewServer(NewServer(cat, decksFile, match, zaptest.NewLogger(t)))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestCardsEndpoint(t *testing.T) {
	srv := newTestServer(t, "../../decks.yaml", nil)

	var cards []CardInfo
	getJSON(t, srv.URL+"/api/cards", &cards)
	require.NotEmpty(t, cards)
	assert.Equal(t, "Village Recruit", cards[0].Name, "catalog order is kept")

	byName := make(map[string]CardInfo)
	for _, c := range cards {
		byName[c.Name] = c
	}
	paladin := byName["Sunlit Paladin"]
	assert.Equal(t, "creature", paladin.Kind)
	assert.Equal(t, 2, paladin.Attack)
	assert.Equal(t, "rare", paladin.Rarity)
	assert.Equal(t, 40, paladin.Price)
	assert.Equal(t, 2, paladin.Power)
	assert.ElementsMatch(t, []string{"Taunt", "Divine Shield"}, paladin.Keywords)
	assert.Empty(t, paladin.Target)

	bolt := byName["Fire Bolt"]
	assert.Equal(t, "spell", bolt.Kind)
	assert.Equal(t, game.TargetAnyEnemy.String(), bolt.Target)
	assert.Zero(t, bolt.Attack)
}

func TestDecksEndpoint(t *testing.T) {
	srv := newTestServer(t, "../../decks.yaml", nil)

	var decks []DeckInfo
	getJSON(t, srv.URL+"/api/decks", &decks)
	require.Len(t, decks, 3)
	assert.Equal(t, 1, decks[0].Number)
	assert.Equal(t, "Emberfall", decks[0].Name)
	for _, d := range decks {
		assert.Equal(t, game.DeckSize, d.Size, d.Name)
		assert.Empty(t, d.Unknown, d.Name)
	}
}

func TestDecksEndpointMissingFile(t *testing.T) {
	srv := newTestServer(t, "does-not-exist.yaml", nil)

	resp, err := http.Get(srv.URL + "/api/decks")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestWebsocketRouteMountsMatchHandler(t *testing.T) {
	var called atomic.Bool
	match := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
		w.WriteHeader(http.StatusTeapot)
	})
	srv := newTestServer(t, "../../decks.yaml", match)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, called.Load())
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	bare := newTestServer(t, "../../decks.yaml", nil)
	resp, err = http.Get(bare.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
