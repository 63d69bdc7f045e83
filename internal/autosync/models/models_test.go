package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEpisodeWatchStatus(t *testing.T) {
	raw := []byte(`{
		"action": "watched",
		"type": "WatchStatus",
		"value": {
			"user": {"id": "u1", "username": "alice", "externalId": {"simkl": {"token": "tok"}}},
			"resource": {
				"kind": "episode",
				"externalId": {"themoviedatabase": {"dataId": "42"}},
				"show": {"kind": "show", "name": "Example"},
				"seasonNumber": 1,
				"episodeNumber": 2,
				"absoluteNumber": 2
			},
			"status": "Completed",
			"addedDate": "2024-01-01T00:00:00Z"
		}
	}`)

	msg, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "episode", msg.Value.Resource.Kind)
	require.NotNil(t, msg.Value.Resource.Episode)
	require.Equal(t, 2, msg.Value.Resource.Episode.EpisodeNumber)
	require.Equal(t, StatusCompleted, msg.Value.Status)
}

func TestDecodeUnknownResourceKind(t *testing.T) {
	raw := []byte(`{"action":"watched","type":"WatchStatus","value":{"user":{"id":"u1"},"resource":{"kind":"album"},"status":"Completed","addedDate":""}}`)
	_, err := Decode(raw)
	require.Error(t, err)
}
