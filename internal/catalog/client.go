// Package catalog is a thin HTTP client for the downstream catalog
// service (spec component C6). The catalog owns persistence; this client
// only translates Go calls to the documented REST surface. Grounded on
// the teacher's internal/tmdb.Client functional-options shape.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kyoo-project/scanner/internal/guess"
	"github.com/kyoo-project/scanner/internal/providers"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log.With("component", "catalog") }
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        slog.Default().With("component", "catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// KnownState is the response of GET /videos.
type KnownState struct {
	Paths     map[string]bool                             `json:"paths"`
	Unmatched map[string]bool                              `json:"unmatched"`
	Guesses   map[string]map[string]ShowRef                `json:"guesses"`
}

type ShowRef struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// VideoCreated is one element of POST /videos' response.
type VideoCreated struct {
	ID      string             `json:"id"`
	Path    string             `json:"path"`
	Guess   guess.Guess        `json:"guess"`
	Entries []struct{ Slug string `json:"slug"` } `json:"entries"`
}

// VideoLink is one element of the POST /videos/link body.
type VideoLink struct {
	VideoID string      `json:"videoId"`
	Target  guess.Target `json:"target"`
}

type CreatedRef struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("catalog %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return resp.StatusCode, fmt.Errorf("catalog %s %s: unexpected status %s", method, path, resp.Status)
	}
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// GetKnownState fetches the catalog's known paths, unmatched set, and
// title/year → show guesses table (spec.md §4.5).
func (c *Client) GetKnownState(ctx context.Context) (*KnownState, error) {
	var state KnownState
	if _, err := c.do(ctx, http.MethodGet, "/videos", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// PostVideos registers new videos and returns the catalog's view of each,
// including any entries it could already match.
func (c *Client) PostVideos(ctx context.Context, videos []guess.Video) ([]VideoCreated, error) {
	var created []VideoCreated
	if _, err := c.do(ctx, http.MethodPost, "/videos", videos, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// DeleteVideos removes videos by path.
func (c *Client) DeleteVideos(ctx context.Context, paths []string) error {
	_, err := c.do(ctx, http.MethodDelete, "/videos", paths, nil)
	return err
}

// PostMovie creates a movie. On a 409 slug conflict, retries once with the
// slug suffixed by the movie's air year (spec.md §4.5).
func (c *Client) PostMovie(ctx context.Context, movie *providers.Movie) (CreatedRef, error) {
	var ref CreatedRef
	status, err := c.do(ctx, http.MethodPost, "/movies", movie, &ref)
	if status == http.StatusConflict {
		retry := *movie
		retry.Slug = withYearSuffix(movie.Slug, movie.AirDate)
		if _, err := c.do(ctx, http.MethodPost, "/movies", &retry, &ref); err != nil {
			return CreatedRef{}, err
		}
		return ref, nil
	}
	if err != nil {
		return CreatedRef{}, err
	}
	return ref, nil
}

// PostSerie creates a series, retrying on slug conflict the same way as
// PostMovie.
func (c *Client) PostSerie(ctx context.Context, serie *providers.Serie) (CreatedRef, error) {
	var ref CreatedRef
	status, err := c.do(ctx, http.MethodPost, "/series", serie, &ref)
	if status == http.StatusConflict {
		retry := *serie
		retry.Slug = withYearSuffix(serie.Slug, serie.StartAir)
		if _, err := c.do(ctx, http.MethodPost, "/series", &retry, &ref); err != nil {
			return CreatedRef{}, err
		}
		return ref, nil
	}
	if err != nil {
		return CreatedRef{}, err
	}
	return ref, nil
}

// LinkVideos attaches already-registered videos to resolved targets
// (movie, episode, or special) after a worker resolves unmatched titles.
func (c *Client) LinkVideos(ctx context.Context, links []VideoLink) error {
	_, err := c.do(ctx, http.MethodPost, "/videos/link", links, nil)
	return err
}

func withYearSuffix(slug, date string) string {
	year := date
	if len(date) >= 4 {
		year = date[:4]
	}
	if year == "" {
		return slug
	}
	return slug + "-" + year
}
