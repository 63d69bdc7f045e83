package tvdb

import (
	"sort"
	"strconv"

	"github.com/kyoo-project/scanner/internal/providers"
)

func (c *Client) convertMovie(raw *tvdbMovie) *providers.Movie {
	m := &providers.Movie{
		AirDate: raw.ReleaseDate,
		Status:  raw.Status.Name,
		Rating:  raw.Score,
		ExternalID: map[string]providers.MetadataID{
			c.Name(): {DataID: strconv.Itoa(raw.ID)},
		},
		Translations: map[string]providers.Translation{
			"en": {Name: raw.Name, Overview: raw.Overview},
		},
	}
	applyRemoteIDs(m.ExternalID, raw.RemoteIDs)
	if len(raw.Lists) > 0 {
		m.Collection = &providers.Collection{
			Name:       raw.Lists[0].Name,
			ExternalID: map[string]providers.MetadataID{c.Name(): {DataID: strconv.Itoa(raw.Lists[0].ID)}},
		}
	}
	return m
}

func (c *Client) convertSerie(raw *tvdbSerie) *providers.Serie {
	s := &providers.Serie{
		StartAir: raw.FirstAired,
		EndAir:   raw.LastAired,
		Status:   raw.Status.Name,
		Rating:   raw.Score,
		ExternalID: map[string]providers.MetadataID{
			c.Name(): {DataID: strconv.Itoa(raw.ID)},
		},
		Translations: map[string]providers.Translation{
			"en": {Name: raw.Name, Overview: raw.Overview},
		},
	}
	applyRemoteIDs(s.ExternalID, raw.RemoteIDs)
	for _, sn := range raw.Seasons {
		if sn.Type.Type != "official" {
			continue
		}
		s.Seasons = append(s.Seasons, providers.Season{
			SeasonNumber: sn.Number,
			ExternalID:   map[string]providers.MetadataID{c.Name(): {DataID: strconv.Itoa(raw.ID)}},
		})
	}
	return s
}

// remoteIDTypeNames maps a TVDB remote id's sourceName to the external
// provider key used across this codebase.
var remoteIDTypeNames = map[string]string{
	"IMDB": "imdb",
	"TheMovieDB.com": "themoviedatabase",
}

func applyRemoteIDs(dst map[string]providers.MetadataID, ids []remoteID) {
	for _, r := range ids {
		key, ok := remoteIDTypeNames[r.SourceName]
		if !ok {
			continue
		}
		dst[key] = providers.MetadataID{DataID: r.ID}
	}
}

func convertEpisodes(providerName, seriesID string, raw []tvdbEpisode) []rawEpisode {
	out := make([]rawEpisode, 0, len(raw))
	for _, ep := range raw {
		out = append(out, rawEpisode{
			season:            ep.SeasonNumber,
			episode:           ep.Number,
			name:              ep.Name,
			overview:          ep.Overview,
			airDate:           ep.Aired,
			thumbnail:         ep.Image,
			airsAfterSeason:   ep.AirsAfterSeason,
			airsBeforeSeason:  ep.AirsBeforeSeason,
			airsBeforeEpisode: ep.AirsBeforeEpisode,
			externalID: map[string]providers.MetadataID{
				providerName: {DataID: seriesID + "/" + strconv.Itoa(ep.SeasonNumber) + "/" + strconv.Itoa(ep.Number)},
			},
		})
	}
	return out
}

// rawEpisode is an intermediate representation used by resolveSpecials so
// the fractional-ordering computation doesn't need to know about the wire
// format.
type rawEpisode struct {
	season, episode int
	name, overview  string
	airDate, thumbnail string
	airsAfterSeason, airsBeforeSeason, airsBeforeEpisode *int
	externalID map[string]providers.MetadataID
}

// resolveSpecials assigns a global float Order to every episode, sorting
// regular episodes by (season_number, episode_number) and placing
// season==0 specials between adjacent entries using the
// airsAfterSeason/airsBeforeSeason/airsBeforeEpisode hints (spec.md §4.3).
func resolveSpecials(episodes []rawEpisode) []providers.Entry {
	var regular, specials []rawEpisode
	for _, ep := range episodes {
		if ep.season == 0 {
			specials = append(specials, ep)
		} else {
			regular = append(regular, ep)
		}
	}
	sort.SliceStable(regular, func(i, j int) bool {
		if regular[i].season != regular[j].season {
			return regular[i].season < regular[j].season
		}
		return regular[i].episode < regular[j].episode
	})

	entries := make([]providers.Entry, len(regular))
	orderOf := make(map[[2]int]int, len(regular))
	for i, ep := range regular {
		entries[i] = toEntry(ep, float64(i+1))
		orderOf[[2]int{ep.season, ep.episode}] = i + 1
	}

	for _, sp := range specials {
		order := fractionalOrder(sp, orderOf, len(regular))
		entries = append(entries, toEntry(sp, order))
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Order < entries[j].Order })
	return entries
}

func fractionalOrder(sp rawEpisode, orderOf map[[2]int]int, total int) float64 {
	if sp.airsBeforeSeason != nil && sp.airsBeforeEpisode != nil {
		if before, ok := orderOf[[2]int{*sp.airsBeforeSeason, *sp.airsBeforeEpisode}]; ok {
			return float64(before) - 0.5
		}
	}
	if sp.airsAfterSeason != nil {
		// Find the last regular episode of that season.
		last := 0
		for key, order := range orderOf {
			if key[0] == *sp.airsAfterSeason && order > last {
				last = order
			}
		}
		if last > 0 {
			return float64(last) + 0.5
		}
	}
	// No hint: append after everything else.
	return float64(total) + 0.5
}

func toEntry(ep rawEpisode, order float64) providers.Entry {
	season := ep.season
	episode := ep.episode
	return providers.Entry{
		Name:          ep.name,
		Overview:      ep.overview,
		Order:         order,
		SeasonNumber:  &season,
		EpisodeNumber: &episode,
		AirDate:       ep.airDate,
		Thumbnail:     ep.thumbnail,
		ExternalID:    ep.externalID,
	}
}
