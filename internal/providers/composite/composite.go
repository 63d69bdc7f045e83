// Package composite implements the Provider façade (spec component C5)
// that merges records from several concrete providers per field, and
// drives the find_movie/find_serie identification helpers consumed by
// the worker. Grounded on original_source's composite.py.
package composite

import (
	"context"
	"log/slog"

	"github.com/hbollon/go-edlib"

	"github.com/kyoo-project/scanner/internal/providers"
	"github.com/kyoo-project/scanner/pkg/release"
)

// Composite merges TMDB (authoritative for movies and global series
// fields), TVDB (authoritative for series seasons/entries) and AniList
// (anime-focused series enrichment).
type Composite struct {
	TMDB    providers.Provider
	TVDB    providers.Provider
	AniList providers.Provider

	log *slog.Logger
}

func New(tmdb, tvdb, anilist providers.Provider, log *slog.Logger) *Composite {
	if log == nil {
		log = slog.Default()
	}
	return &Composite{TMDB: tmdb, TVDB: tvdb, AniList: anilist, log: log.With("component", "composite")}
}

func (c *Composite) Name() string { return "composite" }

// GetMovie fetches the canonical movie record from TMDB, then enriches
// just the collection field plus external_id map from TVDB when TVDB
// recognises the same movie (spec.md §4.4).
func (c *Composite) GetMovie(ctx context.Context, externalID map[string]string) (*providers.Movie, error) {
	movie, err := c.TMDB.GetMovie(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if c.TVDB == nil {
		return movie, nil
	}
	tvdbMovie, err := c.TVDB.GetMovie(ctx, externalID)
	if err != nil {
		return movie, nil
	}
	if movie.Collection == nil {
		movie.Collection = tvdbMovie.Collection
	}
	// movie (TMDB) is the existing/base record and wins on conflict; TVDB
	// only backfills missing link fields (spec.md §4.4).
	movie.ExternalID = mergeExternalID(tvdbMovie.ExternalID, movie.ExternalID)
	return movie, nil
}

// GetSerie fetches the base record from TVDB (richer per-entry metadata),
// overlays TMDB's global fields via skip_entries=true, keeps TVDB's
// seasons/entries/extra, and unions external_id (spec.md §4.4).
func (c *Composite) GetSerie(ctx context.Context, externalID map[string]string, skipEntries bool) (*providers.Serie, error) {
	serie, err := c.TVDB.GetSerie(ctx, externalID, skipEntries)
	if err != nil {
		// Some identifications only carry a TMDB/AniList id (e.g. anime
		// without a TVDB mapping); fall back to whichever is available.
		if tmdbSerie, tmdbErr := c.TMDB.GetSerie(ctx, externalID, skipEntries); tmdbErr == nil {
			return c.enrichFromAniList(ctx, externalID, tmdbSerie)
		}
		return nil, err
	}

	tmdbSerie, tmdbErr := c.TMDB.GetSerie(ctx, externalID, true)
	if tmdbErr == nil {
		serie.Genres = preferNonEmptyStrings(tmdbSerie.Genres, serie.Genres)
		serie.Rating = preferNonZeroFloat(tmdbSerie.Rating, serie.Rating)
		serie.Status = preferNonEmpty(tmdbSerie.Status, serie.Status)
		serie.Studios = preferNonEmptyStudios(tmdbSerie.Studios, serie.Studios)
		serie.Staff = preferNonEmptyStaff(tmdbSerie.Staff, serie.Staff)
		if serie.Collection == nil {
			serie.Collection = tmdbSerie.Collection
		}
		// tmdbSerie wins on conflict (TMDB is authoritative for external_id
		// per spec.md §4.4); TVDB's serie only backfills missing link fields.
		serie.ExternalID = mergeExternalID(serie.ExternalID, tmdbSerie.ExternalID)
	}

	return c.enrichFromAniList(ctx, externalID, serie)
}

func (c *Composite) enrichFromAniList(ctx context.Context, externalID map[string]string, serie *providers.Serie) (*providers.Serie, error) {
	if c.AniList == nil {
		return serie, nil
	}
	aniSerie, err := c.AniList.GetSerie(ctx, externalID, true)
	if err != nil {
		return serie, nil
	}
	serie.Tags = mergeStrings(serie.Tags, aniSerie.Tags)
	// serie (already TMDB/TVDB-merged above) stays authoritative; AniList
	// only backfills link fields on ids it doesn't already hold.
	serie.ExternalID = mergeExternalID(aniSerie.ExternalID, serie.ExternalID)
	return serie, nil
}

func (c *Composite) SearchMovies(ctx context.Context, title string, year *int, language []string) ([]providers.SearchMovie, error) {
	return c.TMDB.SearchMovies(ctx, title, year, language)
}

func (c *Composite) SearchSeries(ctx context.Context, title string, year *int, language []string) ([]providers.SearchSerie, error) {
	return c.TVDB.SearchSeries(ctx, title, year, language)
}

// FindMovie combines get_movie with supplied ids, falling back to
// search_movies(title, year) + get_movie on the closest-matching result.
func (c *Composite) FindMovie(ctx context.Context, title string, year *int, externalID map[string]string) (*providers.Movie, error) {
	if len(externalID) > 0 {
		if m, err := c.GetMovie(ctx, externalID); err == nil {
			return m, nil
		}
	}
	results, err := c.SearchMovies(ctx, title, year, nil)
	if err != nil {
		return nil, err
	}
	best := closestMovie(results, title)
	if best == nil {
		return nil, providers.ErrNotFound
	}
	ids := idsOf(best.ExternalID)
	return c.GetMovie(ctx, ids)
}

// FindSerie combines get_serie with supplied ids, falling back to
// search_series(title, year) + get_serie on the closest-matching result.
func (c *Composite) FindSerie(ctx context.Context, title string, year *int, externalID map[string]string) (*providers.Serie, error) {
	if len(externalID) > 0 {
		if s, err := c.GetSerie(ctx, externalID, false); err == nil {
			return s, nil
		}
	}
	results, err := c.SearchSeries(ctx, title, year, nil)
	if err != nil {
		return nil, err
	}
	best := closestSerie(results, title)
	if best == nil {
		return nil, providers.ErrNotFound
	}
	ids := idsOf(best.ExternalID)
	return c.GetSerie(ctx, ids, false)
}

func idsOf(m map[string]providers.MetadataID) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.DataID
	}
	return out
}

func closestMovie(results []providers.SearchMovie, title string) *providers.SearchMovie {
	if len(results) == 0 {
		return nil
	}
	clean := release.CleanTitle(title)
	best, bestScore := 0, float32(-1)
	for i, r := range results {
		score, err := edlib.StringsSimilarity(clean, release.CleanTitle(r.Name), edlib.JaroWinkler)
		if err == nil && score > bestScore {
			best, bestScore = i, score
		}
	}
	return &results[best]
}

func closestSerie(results []providers.SearchSerie, title string) *providers.SearchSerie {
	if len(results) == 0 {
		return nil
	}
	clean := release.CleanTitle(title)
	best, bestScore := 0, float32(-1)
	for i, r := range results {
		score, err := edlib.StringsSimilarity(clean, release.CleanTitle(r.Name), edlib.JaroWinkler)
		if err == nil && score > bestScore {
			best, bestScore = i, score
		}
	}
	return &results[best]
}

// mergeExternalID unions two external_id maps. Keys present on both sides
// keep the right-hand side's data_id (right-biased); a missing link on
// the winning side backfills from the left (spec.md §4.4, invariant 6).
func mergeExternalID(left, right map[string]providers.MetadataID) map[string]providers.MetadataID {
	out := make(map[string]providers.MetadataID, len(left)+len(right))
	for k, v := range left {
		out[k] = v
	}
	for k, v := range right {
		merged := v
		if merged.Link == "" {
			if l, ok := left[k]; ok {
				merged.Link = l.Link
			}
		}
		out[k] = merged
	}
	return out
}

func mergeStrings(primary, extra []string) []string {
	seen := make(map[string]bool, len(primary))
	out := append([]string{}, primary...)
	for _, s := range primary {
		seen[s] = true
	}
	for _, s := range extra {
		if !seen[s] {
			out = append(out, s)
			seen[s] = true
		}
	}
	return out
}

func preferNonEmpty(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

func preferNonZeroFloat(primary, fallback float64) float64 {
	if primary != 0 {
		return primary
	}
	return fallback
}

func preferNonEmptyStrings(primary, fallback []string) []string {
	if len(primary) > 0 {
		return primary
	}
	return fallback
}

func preferNonEmptyStudios(primary, fallback []providers.Studio) []providers.Studio {
	if len(primary) > 0 {
		return primary
	}
	return fallback
}

func preferNonEmptyStaff(primary, fallback []providers.Staff) []providers.Staff {
	if len(primary) > 0 {
		return primary
	}
	return fallback
}
