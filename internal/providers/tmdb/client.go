// Package tmdb implements the Provider interface against TheMovieDatabase.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kyoo-project/scanner/internal/cache"
	"github.com/kyoo-project/scanner/internal/providers"
)

const defaultBaseURL = "https://api.themoviedb.org/3"
const defaultTTL = 24 * time.Hour

// Client is a TMDB Provider implementation: bearer token auth, genre
// mapping, best-image selection and absolute-ordering via episode groups
// (spec.md §4.3). Grounded on internal/tmdb/client.go's functional-options
// and cache-then-fetch shape in the teacher repo, generalised to the full
// Provider interface.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger

	movies  *cache.Cache[*providers.Movie]
	series  *cache.Cache[*providers.Serie]
	searchM *cache.Cache[[]providers.SearchMovie]
	searchS *cache.Cache[[]providers.SearchSerie]
}

type Option func(*Client)

func WithBaseURL(url string) Option { return func(c *Client) { c.baseURL = url } }
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log.With("component", "tmdb") }
}

func NewClient(accessToken string, opts ...Option) *Client {
	c := &Client{
		token:      accessToken,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        slog.Default().With("component", "tmdb"),
		movies:     cache.New[*providers.Movie](),
		series:     cache.New[*providers.Serie](),
		searchM:    cache.New[[]providers.SearchMovie](),
		searchS:    cache.New[[]providers.SearchSerie](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "themoviedatabase" }

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &providers.TransportError{Provider: c.Name(), Cause: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return providers.ErrNotFound
	case http.StatusTooManyRequests:
		retry := retryAfter(resp.Header)
		return &providers.RateLimitedError{Provider: c.Name(), Retry: retry}
	default:
		if resp.StatusCode >= 500 {
			return &providers.TransportError{Provider: c.Name(), Cause: fmt.Errorf("status %d", resp.StatusCode)}
		}
		return fmt.Errorf("tmdb: unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func retryAfter(h http.Header) time.Duration {
	if s := h.Get("Retry-After"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	if s := h.Get("X-RateLimit-Reset"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			d := time.Until(time.Unix(n, 0))
			if d > 0 {
				return d
			}
		}
	}
	return 60 * time.Second
}

func (c *Client) SearchMovies(ctx context.Context, title string, year *int, language []string) ([]providers.SearchMovie, error) {
	key := cache.MakeKey([]any{"search_movies", title, yearKey(year)}, nil)
	return c.searchM.Get(ctx, key, defaultTTL, func(ctx context.Context) ([]providers.SearchMovie, error) {
		var raw tmdbSearchMovieResponse
		path := fmt.Sprintf("/search/movie?query=%s", urlEscape(title))
		if year != nil {
			path += fmt.Sprintf("&year=%d", *year)
		}
		if err := c.get(ctx, path, &raw); err != nil {
			return nil, err
		}
		out := make([]providers.SearchMovie, 0, len(raw.Results))
		for _, r := range raw.Results {
			out = append(out, providers.SearchMovie{
				ExternalID:  map[string]providers.MetadataID{c.Name(): {DataID: strconv.Itoa(r.ID)}},
				Name:        r.Title,
				AirDate:     r.ReleaseDate,
				Popularity:  r.Popularity,
				VoteCount:   r.VoteCount,
				VoteAverage: r.VoteAverage,
			})
		}
		return providers.RankMovies(out, title), nil
	})
}

func (c *Client) SearchSeries(ctx context.Context, title string, year *int, language []string) ([]providers.SearchSerie, error) {
	key := cache.MakeKey([]any{"search_series", title, yearKey(year)}, nil)
	return c.searchS.Get(ctx, key, defaultTTL, func(ctx context.Context) ([]providers.SearchSerie, error) {
		var raw tmdbSearchSerieResponse
		path := fmt.Sprintf("/search/tv?query=%s", urlEscape(title))
		if year != nil {
			path += fmt.Sprintf("&first_air_date_year=%d", *year)
		}
		if err := c.get(ctx, path, &raw); err != nil {
			return nil, err
		}
		out := make([]providers.SearchSerie, 0, len(raw.Results))
		for _, r := range raw.Results {
			out = append(out, providers.SearchSerie{
				ExternalID:  map[string]providers.MetadataID{c.Name(): {DataID: strconv.Itoa(r.ID)}},
				Name:        r.Name,
				StartAir:    r.FirstAirDate,
				Popularity:  r.Popularity,
				VoteCount:   r.VoteCount,
				VoteAverage: r.VoteAverage,
			})
		}
		return providers.RankSeries(out, title), nil
	})
}

func (c *Client) GetMovie(ctx context.Context, externalID map[string]string) (*providers.Movie, error) {
	id, ok := externalID[c.Name()]
	if !ok {
		return nil, providers.ErrNotFound
	}
	key := cache.MakeKey([]any{"get_movie", id}, nil)
	return c.movies.Get(ctx, key, defaultTTL, func(ctx context.Context) (*providers.Movie, error) {
		var raw tmdbMovie
		if err := c.get(ctx, fmt.Sprintf("/movie/%s?append_to_response=alternative_titles,translations,credits,images", id), &raw); err != nil {
			return nil, err
		}
		return c.convertMovie(&raw), nil
	})
}

func (c *Client) GetSerie(ctx context.Context, externalID map[string]string, skipEntries bool) (*providers.Serie, error) {
	id, ok := externalID[c.Name()]
	if !ok {
		return nil, providers.ErrNotFound
	}
	key := cache.MakeKey([]any{"get_serie", id, skipEntries}, nil)
	return c.series.Get(ctx, key, defaultTTL, func(ctx context.Context) (*providers.Serie, error) {
		var raw tmdbSerie
		if err := c.get(ctx, fmt.Sprintf("/tv/%s?append_to_response=translations,credits,images,episode_groups", id), &raw); err != nil {
			return nil, err
		}
		serie := c.convertSerie(&raw)
		if !skipEntries {
			if err := c.fillEntries(ctx, id, &raw, serie); err != nil {
				return nil, err
			}
		}
		return serie, nil
	})
}

func yearKey(y *int) any {
	if y == nil {
		return "unknown"
	}
	return *y
}

func urlEscape(s string) string {
	return url.QueryEscape(s)
}
