package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kyoo-project/scanner/internal/autosync/models"
)

func TestSimklSkipsUserWithoutToken(t *testing.T) {
	s := NewSimkl("client-id")
	err := s.Sync(t.Context(), &models.WatchStatusMessage{
		User:     models.User{},
		Resource: models.Resource{Kind: "movie", Movie: &models.Movie{}},
		Status:   models.StatusCompleted,
	})
	require.NoError(t, err)
}

func TestSimklEpisodeCompletedFanOut(t *testing.T) {
	var captured simklHistoryBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	s := NewSimkl("client-id", WithSimklBaseURL(server.URL))
	season := 1
	msg := &models.WatchStatusMessage{
		User: models.User{ExternalID: map[string]models.ExternalToken{"simkl": {Token: "tok"}}},
		Resource: models.Resource{
			Kind: "episode",
			Episode: &models.Episode{
				Kind:          "episode",
				Show:          models.Show{Kind: "show", ExternalID: map[string]models.MetadataID{"themoviedatabase": {DataID: "100"}}},
				SeasonNumber:  &season,
				EpisodeNumber: 2,
			},
		},
		Status:    models.StatusCompleted,
		AddedDate: "2024-01-01T00:00:00Z",
	}

	require.NoError(t, s.Sync(t.Context(), msg))
	require.Len(t, captured.Shows, 1)
	require.Equal(t, 100, captured.Shows[0].Show.IDs.TMDB)
	require.Equal(t, 2, captured.Shows[0].Seasons[0].Episodes[0].Number)
}

func TestSimklSkipsNonCompletedEpisode(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	s := NewSimkl("client-id", WithSimklBaseURL(server.URL))
	msg := &models.WatchStatusMessage{
		User:     models.User{ExternalID: map[string]models.ExternalToken{"simkl": {Token: "tok"}}},
		Resource: models.Resource{Kind: "episode", Episode: &models.Episode{EpisodeNumber: 1}},
		Status:   models.StatusWatching,
	}
	require.NoError(t, s.Sync(t.Context(), msg))
	require.False(t, called)
}
