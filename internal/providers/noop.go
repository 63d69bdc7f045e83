package providers

import "context"

// Disabled is a Provider stub for sources that aren't configured (missing
// API credentials). It reports empty search results and ErrNotFound for
// every lookup so the composite façade can treat it the same as a real
// provider that simply doesn't recognise an id.
type Disabled struct {
	SourceName string
}

func (d Disabled) Name() string { return d.SourceName }

func (d Disabled) SearchMovies(ctx context.Context, title string, year *int, language []string) ([]SearchMovie, error) {
	return nil, nil
}

func (d Disabled) SearchSeries(ctx context.Context, title string, year *int, language []string) ([]SearchSerie, error) {
	return nil, nil
}

func (d Disabled) GetMovie(ctx context.Context, externalID map[string]string) (*Movie, error) {
	return nil, ErrNotFound
}

func (d Disabled) GetSerie(ctx context.Context, externalID map[string]string, skipEntries bool) (*Serie, error) {
	return nil, ErrNotFound
}
