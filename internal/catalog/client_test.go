package catalog

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kyoo-project/scanner/internal/providers"
)

func TestPostMovieRetriesOnSlugConflict(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/movies", func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.Write([]byte(`{"id":"abc","slug":"dune-1984"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "key")
	ref, err := client.PostMovie(t.Context(), &providers.Movie{Slug: "dune", AirDate: "1984-12-14"})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
	require.Equal(t, "dune-1984", ref.Slug)
}

func TestGetKnownState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"paths":{"/a.mkv":true},"unmatched":{},"guesses":{}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL, "")
	state, err := client.GetKnownState(t.Context())
	require.NoError(t, err)
	require.True(t, state.Paths["/a.mkv"])
}
