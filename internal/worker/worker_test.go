package worker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kyoo-project/scanner/internal/providers"
	"github.com/kyoo-project/scanner/internal/queue"
)

func TestMatchEntryBySeasonEpisode(t *testing.T) {
	season1, episode2 := 1, 2
	entries := []providers.Entry{
		{SeasonNumber: &season1, EpisodeNumber: &episode2, Order: 2},
	}
	entry := matchEntry(entries, queue.VideoEpisode{Season: &season1, Episode: 2})
	require.NotNil(t, entry)
	require.Equal(t, float64(2), entry.Order)
}

func TestMatchEntryByAbsoluteOrder(t *testing.T) {
	entries := []providers.Entry{{Order: 1089}}
	entry := matchEntry(entries, queue.VideoEpisode{Episode: 1089})
	require.NotNil(t, entry)
}

func TestMatchEntryNoneFound(t *testing.T) {
	entries := []providers.Entry{{Order: 1}}
	require.Nil(t, matchEntry(entries, queue.VideoEpisode{Episode: 99}))
}

func TestVideoDelta(t *testing.T) {
	before := []queue.VideoRef{{ID: "a"}}
	after := []queue.VideoRef{{ID: "a"}, {ID: "b"}}
	delta := videoDelta(before, after)
	require.Len(t, delta, 1)
	require.Equal(t, "b", delta[0].ID)
}
