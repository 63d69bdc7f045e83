package tvdb

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(handler)
}

func TestLoginThenGetSerie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(loginResponse{Data: struct {
			Token string `json:"token"`
		}{Token: "jwt-token"}})
	})
	mux.HandleFunc("/series/121/extended", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(seriesResponse{Data: tvdbSerie{ID: 121, Name: "Naruto", FirstAired: "2002-10-03"}})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient("apikey", "", WithBaseURL(server.URL))
	serie, err := client.GetSerie(t.Context(), map[string]string{"thetvdb": "121"}, true)
	require.NoError(t, err)
	require.Equal(t, "Naruto", serie.Translations["en"].Name)
}

func TestResolveSpecialsFractionalOrder(t *testing.T) {
	episodes := []rawEpisode{
		{season: 1, episode: 1},
		{season: 1, episode: 2},
		{season: 0, episode: 1, airsBeforeSeason: intPtr(1), airsBeforeEpisode: intPtr(2)},
	}
	entries := resolveSpecials(episodes)
	require.Len(t, entries, 3)
	require.Equal(t, 1.5, entries[1].Order)
}

func intPtr(i int) *int { return &i }
