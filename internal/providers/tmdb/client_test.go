package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyoo-project/scanner/internal/providers"
)

func TestClient_GetMovie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/550", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		resp := tmdbMovie{
			ID:          550,
			Title:       "Fight Club",
			Overview:    "A ticking-time-bomb insomniac...",
			ReleaseDate: "1999-10-15",
			VoteAverage: 8.4,
			Runtime:     139,
			GenreIDs:    []tmdbGenre{{ID: 18, Name: "Drama"}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient("test-token", WithBaseURL(server.URL))

	movie, err := client.GetMovie(context.Background(), map[string]string{"themoviedatabase": "550"})
	require.NoError(t, err)
	require.Equal(t, "1999-10-15", movie.AirDate)
	require.Equal(t, []string{"drama"}, movie.Genres)
	require.Equal(t, 139, movie.Runtime)
}

func TestClient_GetMovie_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient("test-token", WithBaseURL(server.URL))

	movie, err := client.GetMovie(context.Background(), map[string]string{"themoviedatabase": "0"})
	require.Nil(t, movie)
	require.ErrorIs(t, err, providers.ErrNotFound)
}

func TestClient_GetMovie_WithoutExternalID(t *testing.T) {
	client := NewClient("test-token")
	movie, err := client.GetMovie(context.Background(), map[string]string{})
	require.Nil(t, movie)
	require.ErrorIs(t, err, providers.ErrNotFound)
}

func TestClient_GetMovie_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-token", WithBaseURL(server.URL))
	_, err := client.GetMovie(context.Background(), map[string]string{"themoviedatabase": "1"})
	var rl *providers.RateLimitedError
	require.ErrorAs(t, err, &rl)
	require.Equal(t, "themoviedatabase", rl.Provider)
}

func TestCompoundGenreMapping(t *testing.T) {
	genres := mapGenres([]tmdbGenre{{ID: 10759, Name: "Action & Adventure"}})
	require.Equal(t, []string{"action", "adventure"}, genres)
}
