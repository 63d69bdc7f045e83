package guess

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMovie(t *testing.T) {
	g, err := Parse("/m/Inception (2010).mkv", nil)
	require.NoError(t, err)
	require.Equal(t, KindMovie, g.Kind)
	require.Equal(t, "Inception", g.Title)
	require.Equal(t, []int{2010}, g.Years)
	require.Empty(t, g.Episodes)
}

func TestParseAbsoluteEpisode(t *testing.T) {
	// S2: the season patterns never read the four-digit "1999", so no season
	// is set, and the bare number after "(1999)" is read as an absolute
	// episode.
	g, err := Parse("/s/One Piece (1999) 1089.mkv", nil)
	require.NoError(t, err)
	require.Equal(t, KindEpisode, g.Kind)
	require.Equal(t, "One Piece", g.Title)
	require.Equal(t, []int{1999}, g.Years)
	require.Len(t, g.Episodes, 1)
	require.Nil(t, g.Episodes[0].Season)
	require.Equal(t, 1089, g.Episodes[0].Episode)
}

func TestParseSeasonEpisode(t *testing.T) {
	g, err := Parse("/s/Attack on Titan S01E01.mkv", nil)
	require.NoError(t, err)
	require.Equal(t, KindEpisode, g.Kind)
	require.Equal(t, "Attack on Titan", g.Title)
	require.Len(t, g.Episodes, 1)
	require.NotNil(t, g.Episodes[0].Season)
	require.Equal(t, 1, *g.Episodes[0].Season)
	require.Equal(t, 1, g.Episodes[0].Episode)
}

func TestRenderingHashIndependentOfVersionAndPart(t *testing.T) {
	base := "/s/Show S01E01.mkv"
	versioned := "/s/Show S01E01-v2.mkv"
	require.Equal(t, RenderingHash(base), RenderingHash(versioned))
}

func TestClean(t *testing.T) {
	require.Equal(t, "one piece", Clean("One Piece (Dub)"))
	require.Equal(t, "attack on titan", Clean("Attack.On-Titan"))
}

func TestParseAnimeAbsoluteDashEpisode(t *testing.T) {
	// EpisodeTitlePromotion + TitleNumberFixup (rules 2/3): no year, no
	// season marker, a dash-separated absolute episode number. The title
	// itself ("Zom 100") contains digits that must stay part of the title
	// rather than being misread as the episode.
	g, err := Parse("/s/Zom 100 - 01.mkv", nil)
	require.NoError(t, err)
	require.Equal(t, KindEpisode, g.Kind)
	require.Equal(t, "Zom 100", g.Title)
	require.Len(t, g.Episodes, 1)
	require.Nil(t, g.Episodes[0].Season)
	require.Equal(t, 1, g.Episodes[0].Episode)
}

func TestParseTitleWithBareNumberIsNotMisreadAsEpisode(t *testing.T) {
	// TitleNumberFixup's safety net: a number glued to the title with no
	// dash separator never gets pulled out as an episode.
	_, err := Parse("/s/Zom 100.mkv", nil)
	require.Error(t, err)
}

func TestXemFixup(t *testing.T) {
	expected := map[string]bool{"fear the walking": true}

	merged := xemFixup("Fear The", "Walking", expected)
	require.Equal(t, "Fear The Walking", merged)

	unchanged := xemFixup("Some Other Show", "Walking", expected)
	require.Equal(t, "Some Other Show", unchanged)

	require.Equal(t, "Fear The", xemFixup("Fear The", "", expected))
}

func TestParseAppliesXemFixup(t *testing.T) {
	// Without the hint, title stops at the season/episode marker.
	plain, err := Parse("/s/Dino S01E01.mkv", nil)
	require.NoError(t, err)
	require.Equal(t, "Dino", plain.Title)

	// TheXEM knows "dino s01e01" as a single expected title (e.g. a show
	// whose real name embeds what looks like a season marker), so the
	// boundary absorbs that token instead of cutting before it.
	xem := &XemHint{ExpectedTitles: map[string]bool{"dino s01e01": true}}
	g, err := Parse("/s/Dino S01E01.mkv", xem)
	require.NoError(t, err)
	require.Equal(t, "Dino S01E01", g.Title)
}
