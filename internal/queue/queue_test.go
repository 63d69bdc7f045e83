package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVideoRefRoundTrip(t *testing.T) {
	season := 1
	videos := []VideoRef{{ID: "vid-1", Episodes: []VideoEpisode{{Season: &season, Episode: 2}}}}
	raw, err := json.Marshal(videos)
	require.NoError(t, err)

	var decoded []VideoRef
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, videos, decoded)
}

func TestRequestVideosMergeIsAdditive(t *testing.T) {
	existing := []VideoRef{{ID: "vid-1"}}
	incoming := []VideoRef{{ID: "vid-2"}}
	merged := append(append([]VideoRef{}, existing...), incoming...)
	require.Len(t, merged, 2)
	require.Equal(t, "vid-1", merged[0].ID)
	require.Equal(t, "vid-2", merged[1].ID)
}
