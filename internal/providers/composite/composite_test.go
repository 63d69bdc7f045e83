package composite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kyoo-project/scanner/internal/providers"
)

type stubProvider struct {
	name   string
	movie  *providers.Movie
	serie  *providers.Serie
	movies []providers.SearchMovie
	series []providers.SearchSerie
	err    error
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) SearchMovies(ctx context.Context, title string, year *int, language []string) ([]providers.SearchMovie, error) {
	return s.movies, s.err
}
func (s *stubProvider) SearchSeries(ctx context.Context, title string, year *int, language []string) ([]providers.SearchSerie, error) {
	return s.series, s.err
}
func (s *stubProvider) GetMovie(ctx context.Context, externalID map[string]string) (*providers.Movie, error) {
	if s.movie == nil {
		return nil, providers.ErrNotFound
	}
	return s.movie, nil
}
func (s *stubProvider) GetSerie(ctx context.Context, externalID map[string]string, skipEntries bool) (*providers.Serie, error) {
	if s.serie == nil {
		return nil, providers.ErrNotFound
	}
	return s.serie, nil
}

func TestGetMovieEnrichesCollectionFromTVDB(t *testing.T) {
	tmdb := &stubProvider{name: "themoviedatabase", movie: &providers.Movie{
		ExternalID: map[string]providers.MetadataID{"themoviedatabase": {DataID: "1"}},
	}}
	tvdb := &stubProvider{name: "thetvdb", movie: &providers.Movie{
		Collection: &providers.Collection{Name: "Saga"},
		ExternalID: map[string]providers.MetadataID{"imdb": {DataID: "tt1", Link: "https://imdb/tt1"}},
	}}
	c := New(tmdb, tvdb, nil, nil)

	movie, err := c.GetMovie(t.Context(), map[string]string{"themoviedatabase": "1"})
	require.NoError(t, err)
	require.Equal(t, "Saga", movie.Collection.Name)
	require.Equal(t, "https://imdb/tt1", movie.ExternalID["imdb"].Link)
}

func TestGetMovieTMDBWinsOnOverlappingExternalID(t *testing.T) {
	tmdb := &stubProvider{name: "themoviedatabase", movie: &providers.Movie{
		ExternalID: map[string]providers.MetadataID{"imdb": {DataID: "tmdb-tt1"}},
	}}
	tvdb := &stubProvider{name: "thetvdb", movie: &providers.Movie{
		ExternalID: map[string]providers.MetadataID{"imdb": {DataID: "tvdb-tt1", Link: "https://imdb/tvdb-tt1"}},
	}}
	c := New(tmdb, tvdb, nil, nil)

	movie, err := c.GetMovie(t.Context(), map[string]string{"themoviedatabase": "1"})
	require.NoError(t, err)
	require.Equal(t, "tmdb-tt1", movie.ExternalID["imdb"].DataID)
	require.Equal(t, "https://imdb/tvdb-tt1", movie.ExternalID["imdb"].Link)
}

func TestGetSerieTMDBWinsOnOverlappingExternalID(t *testing.T) {
	tmdb := &stubProvider{name: "themoviedatabase", serie: &providers.Serie{
		ExternalID: map[string]providers.MetadataID{"imdb": {DataID: "tmdb-tt1"}},
	}}
	tvdb := &stubProvider{name: "thetvdb", serie: &providers.Serie{
		ExternalID: map[string]providers.MetadataID{"imdb": {DataID: "tvdb-tt1", Link: "https://imdb/tvdb-tt1"}},
	}}
	c := New(tmdb, tvdb, nil, nil)

	serie, err := c.GetSerie(t.Context(), map[string]string{"thetvdb": "1"}, false)
	require.NoError(t, err)
	require.Equal(t, "tmdb-tt1", serie.ExternalID["imdb"].DataID)
	require.Equal(t, "https://imdb/tvdb-tt1", serie.ExternalID["imdb"].Link)
}

func TestMergeExternalIDRightBiased(t *testing.T) {
	left := map[string]providers.MetadataID{"imdb": {DataID: "tt1", Link: "left-link"}}
	right := map[string]providers.MetadataID{"imdb": {DataID: "tt2"}}

	merged := mergeExternalID(left, right)
	require.Equal(t, "tt2", merged["imdb"].DataID)
	require.Equal(t, "left-link", merged["imdb"].Link)
}

