package tmdb

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/kyoo-project/scanner/internal/providers"
)

// genreMap translates TMDB's numeric genre ids, including the compound
// "Action & Adventure" ids TMDB uses for TV, into the catalog's flat genre
// vocabulary (spec.md §4.3: "maps numeric genre ids (including compound ids
// like 10759 → [ACTION, ADVENTURE])").
var genreMap = map[int][]string{
	28:    {"action"},
	12:    {"adventure"},
	16:    {"animation"},
	35:    {"comedy"},
	80:    {"crime"},
	99:    {"documentary"},
	18:    {"drama"},
	10751: {"family"},
	14:    {"fantasy"},
	36:    {"history"},
	27:    {"horror"},
	10402: {"music"},
	9648:  {"mystery"},
	10749: {"romance"},
	878:   {"science-fantasy"},
	10770: {"tv-movie"},
	53:    {"thriller"},
	10752: {"war"},
	37:    {"western"},
	10759: {"action", "adventure"},
	10765: {"science-fantasy"},
	10762: {"kids"},
	10763: {"news"},
	10764: {"reality"},
	10766: {"soap"},
	10767: {"talk"},
	10768: {"war", "politics"},
}

func mapGenres(genres []tmdbGenre) []string {
	seen := map[string]bool{}
	var out []string
	for _, g := range genres {
		for _, mapped := range genreMap[g.ID] {
			if !seen[mapped] {
				seen[mapped] = true
				out = append(out, mapped)
			}
		}
	}
	return out
}

// bestImage picks by (vote_average, width) preferring the requested
// language, else language-null, else any (spec.md §4.3).
func bestImage(images []tmdbImage, preferred string) string {
	var inLang, noLang, any_ []tmdbImage
	for _, img := range images {
		switch {
		case preferred != "" && img.ISO6391 == preferred:
			inLang = append(inLang, img)
		case img.ISO6391 == "":
			noLang = append(noLang, img)
		default:
			any_ = append(any_, img)
		}
	}
	for _, bucket := range [][]tmdbImage{inLang, noLang, any_} {
		if len(bucket) == 0 {
			continue
		}
		sort.SliceStable(bucket, func(i, j int) bool {
			if bucket[i].VoteAverage != bucket[j].VoteAverage {
				return bucket[i].VoteAverage > bucket[j].VoteAverage
			}
			return bucket[i].Width > bucket[j].Width
		})
		return "https://image.tmdb.org/t/p/original" + bucket[0].FilePath
	}
	return ""
}

func (c *Client) convertMovie(raw *tmdbMovie) *providers.Movie {
	m := &providers.Movie{
		Kind:    "movie",
		AirDate: raw.ReleaseDate,
		Genres:  mapGenres(raw.GenreIDs),
		Status:  raw.Status,
		Rating:  raw.VoteAverage,
		Runtime: raw.Runtime,
		ExternalID: map[string]providers.MetadataID{
			c.Name(): {DataID: strconv.Itoa(raw.ID)},
		},
		Translations: translationsOf(raw.Translations, raw.Overview, raw.Tagline, bestImage(raw.Images.Posters, ""), bestImage(raw.Images.Backdrops, "")),
	}
	if raw.IMDBID != "" {
		m.ExternalID["imdb"] = providers.MetadataID{DataID: raw.IMDBID}
	}
	if raw.BelongsToCollection != nil {
		m.Collection = &providers.Collection{
			Name:       raw.BelongsToCollection.Name,
			ExternalID: map[string]providers.MetadataID{c.Name(): {DataID: strconv.Itoa(raw.BelongsToCollection.ID)}},
		}
	}
	for _, crew := range raw.Credits.Crew {
		if crew.Job == "Director" {
			m.Staff = append(m.Staff, providers.Staff{Name: crew.Name, Role: "director"})
		}
	}
	return m
}

func (c *Client) convertSerie(raw *tmdbSerie) *providers.Serie {
	s := &providers.Serie{
		StartAir: raw.FirstAirDate,
		EndAir:   raw.LastAirDate,
		Genres:   mapGenres(raw.GenreIDs),
		Status:   raw.Status,
		Rating:   raw.VoteAverage,
		ExternalID: map[string]providers.MetadataID{
			c.Name(): {DataID: strconv.Itoa(raw.ID)},
		},
		Translations: translationsOf(raw.Translations, raw.Overview, "", bestImage(raw.Images.Posters, ""), bestImage(raw.Images.Backdrops, "")),
	}
	for _, sn := range raw.Seasons {
		s.Seasons = append(s.Seasons, providers.Season{
			SeasonNumber: sn.SeasonNumber,
			ExternalID:   map[string]providers.MetadataID{c.Name(): {DataID: strconv.Itoa(raw.ID) + "/" + strconv.Itoa(sn.SeasonNumber)}},
		})
	}
	return s
}

func translationsOf(t tmdbTranslations, fallbackOverview, fallbackTagline, poster, backdrop string) map[string]providers.Translation {
	out := map[string]providers.Translation{
		"en": {Overview: fallbackOverview, Tagline: fallbackTagline, Poster: poster, Banner: backdrop},
	}
	for _, tr := range t.Translations {
		if tr.Data.Overview == "" && tr.Data.Name == "" && tr.Data.Title == "" {
			continue
		}
		name := tr.Data.Name
		if name == "" {
			name = tr.Data.Title
		}
		out[tr.ISO6391] = providers.Translation{
			Name:     name,
			Overview: tr.Data.Overview,
			Tagline:  tr.Data.Tagline,
			Poster:   poster,
			Banner:   backdrop,
		}
	}
	return out
}

// fillEntries fetches every season/episode in parallel and computes
// absolute ordering from type-2 ("absolute") episode groups, per spec.md
// §4.3 and Open Question #3's resolution (largest group meeting the 75%
// coverage threshold wins; ties break on the lowest group id).
func (c *Client) fillEntries(ctx context.Context, id string, raw *tmdbSerie, serie *providers.Serie) error {
	totalEpisodes := 0
	type seasonResult struct {
		seasonNumber int
		episodes     []tmdbEpisode
	}
	results := make([]seasonResult, len(raw.Seasons))
	g, gctx := errgroup.WithContext(ctx)
	for i, sn := range raw.Seasons {
		g.Go(func() error {
			var season tmdbSeason
			if err := c.get(gctx, fmt.Sprintf("/tv/%s/season/%d", id, sn.SeasonNumber), &season); err != nil {
				return err
			}
			results[i] = seasonResult{seasonNumber: sn.SeasonNumber, episodes: season.Episodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, sr := range results {
		totalEpisodes += len(sr.episodes)
	}

	absolute := selectAbsoluteGroup(raw.EpisodeGroups, totalEpisodes)

	absIndex := map[[2]int]int{}
	if absolute != nil {
		for _, grp := range absolute.Groups {
			for _, ep := range grp.Episodes {
				absIndex[[2]int{ep.SeasonNumber, ep.EpisodeNumber}] = ep.Order + 1
			}
		}
	}

	order := 1
	for _, sr := range results {
		for _, ep := range sr.episodes {
			seasonNumber := sr.seasonNumber
			episodeNumber := ep.EpisodeNumber
			entryOrder := float64(order)
			if v, ok := absIndex[[2]int{seasonNumber, episodeNumber}]; ok {
				entryOrder = float64(v)
			}
			serie.Entries = append(serie.Entries, providers.Entry{
				Name:          ep.Name,
				Overview:      ep.Overview,
				Order:         entryOrder,
				SeasonNumber:  &seasonNumber,
				EpisodeNumber: &episodeNumber,
				AirDate:       ep.AirDate,
				Thumbnail:     imagePath(ep.StillPath),
				ExternalID: map[string]providers.MetadataID{
					c.Name(): {DataID: fmt.Sprintf("%s/%d/%d", id, seasonNumber, episodeNumber)},
				},
			})
			order++
		}
	}
	sort.SliceStable(serie.Entries, func(i, j int) bool {
		return serie.Entries[i].Order < serie.Entries[j].Order
	})
	return nil
}

func selectAbsoluteGroup(groups tmdbEpisodeGroups, totalEpisodes int) *tmdbEpisodeGroup {
	var best *tmdbEpisodeGroup
	for i := range groups.Results {
		g := &groups.Results[i]
		if g.Type != 2 || totalEpisodes == 0 {
			continue
		}
		coverage := float64(g.GroupCount) / float64(totalEpisodes)
		if coverage < 0.75 {
			continue
		}
		if best == nil || g.GroupCount > best.GroupCount || (g.GroupCount == best.GroupCount && g.ID < best.ID) {
			best = g
		}
	}
	return best
}

func imagePath(path string) string {
	if path == "" {
		return ""
	}
	return "https://image.tmdb.org/t/p/original" + path
}
