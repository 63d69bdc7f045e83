// Package anilist implements the Provider interface against AniList's
// GraphQL API (spec.md §4.3, SPEC_FULL.md C4a).
package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kyoo-project/scanner/internal/cache"
	"github.com/kyoo-project/scanner/internal/providers"
)

const defaultBaseURL = "https://graphql.anilist.co"
const defaultTTL = 24 * time.Hour

// curatedGenres is the subset of AniList genres the original mapped;
// anything outside it surfaces as a free-form tag (Open Question 4).
var curatedGenres = map[string]string{
	"Action":        "action",
	"Adventure":     "adventure",
	"Comedy":        "comedy",
	"Drama":         "drama",
	"Fantasy":       "fantasy",
	"Horror":        "horror",
	"Mystery":       "mystery",
	"Romance":       "romance",
	"Sci-Fi":        "science-fantasy",
	"Slice of Life": "slice-of-life",
	"Sports":        "sports",
	"Supernatural":  "supernatural",
	"Thriller":      "thriller",
}

// Client is a minimal hand-written GraphQL client: no codegen library
// exists anywhere in the dependency corpus this project draws from to
// ground a generated client on, so queries are literal strings decoded
// with encoding/json, matching the corpus's general preference for
// explicit, inspectable HTTP clients over generated ones.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger

	series *cache.Cache[*providers.Serie]
}

type Option func(*Client)

func WithBaseURL(u string) Option          { return func(c *Client) { c.baseURL = u } }
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log.With("component", "anilist") }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        slog.Default().With("component", "anilist"),
		series:     cache.New[*providers.Serie](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "anilist" }

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func (c *Client) query(ctx context.Context, gql string, vars map[string]any, out any) error {
	body, _ := json.Marshal(graphqlRequest{Query: gql, Variables: vars})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &providers.TransportError{Provider: c.Name(), Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retry := 60 * time.Second
		if s := resp.Header.Get("Retry-After"); s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				retry = time.Duration(n) * time.Second
			}
		}
		return &providers.RateLimitedError{Provider: c.Name(), Retry: retry}
	}
	if remaining := resp.Header.Get("X-RateLimit-Remaining"); remaining == "0" {
		c.log.Debug("anilist rate limit exhausted, next call will likely 429")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("anilist: unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

const mediaByIDQuery = `
query ($id: Int) {
  Media(id: $id, type: ANIME) {
    id
    title { romaji english }
    description
    startDate { year month day }
    endDate { year month day }
    genres
    averageScore
    status
    coverImage { extraLarge }
    bannerImage
    idMal
  }
}`

type mediaResponse struct {
	Data struct {
		Media *anilistMedia `json:"Media"`
	} `json:"data"`
}

type anilistMedia struct {
	ID    int `json:"id"`
	Title struct {
		Romaji  string `json:"romaji"`
		English string `json:"english"`
	} `json:"title"`
	Description string `json:"description"`
	StartDate   anilistDate `json:"startDate"`
	EndDate     anilistDate `json:"endDate"`
	Genres      []string `json:"genres"`
	AverageScore int     `json:"averageScore"`
	Status      string  `json:"status"`
	CoverImage  struct {
		ExtraLarge string `json:"extraLarge"`
	} `json:"coverImage"`
	BannerImage string `json:"bannerImage"`
	IDMal       int    `json:"idMal"`
}

type anilistDate struct {
	Year, Month, Day int
}

func (d anilistDate) String() string {
	if d.Year == 0 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (c *Client) GetSerie(ctx context.Context, externalID map[string]string, skipEntries bool) (*providers.Serie, error) {
	id, ok := externalID[c.Name()]
	if !ok {
		return nil, providers.ErrNotFound
	}
	key := cache.MakeKey([]any{"get_serie", id}, nil)
	return c.series.Get(ctx, key, defaultTTL, func(ctx context.Context) (*providers.Serie, error) {
		n, _ := strconv.Atoi(id)
		var resp mediaResponse
		if err := c.query(ctx, mediaByIDQuery, map[string]any{"id": n}, &resp); err != nil {
			return nil, err
		}
		if resp.Data.Media == nil {
			return nil, providers.ErrNotFound
		}
		return c.convert(resp.Data.Media), nil
	})
}

// GetMovie: AniList only models anime (series/OVA/movie as "Media"
// entries); the composite never calls this since AniList isn't used for
// the movie path, but the interface requires it.
func (c *Client) GetMovie(ctx context.Context, externalID map[string]string) (*providers.Movie, error) {
	return nil, providers.ErrNotFound
}

func (c *Client) SearchMovies(ctx context.Context, title string, year *int, language []string) ([]providers.SearchMovie, error) {
	return nil, providers.ErrNotFound
}

const searchQuery = `
query ($search: String) {
  Page(perPage: 10) {
    media(search: $search, type: ANIME) {
      id
      title { romaji english }
      popularity
      averageScore
      startDate { year }
    }
  }
}`

type searchResponse struct {
	Data struct {
		Page struct {
			Media []struct {
				ID         int `json:"id"`
				Title      struct {
					Romaji  string `json:"romaji"`
					English string `json:"english"`
				} `json:"title"`
				Popularity   float64     `json:"popularity"`
				AverageScore int         `json:"averageScore"`
				StartDate    anilistDate `json:"startDate"`
			} `json:"media"`
		} `json:"Page"`
	} `json:"data"`
}

func (c *Client) SearchSeries(ctx context.Context, title string, year *int, language []string) ([]providers.SearchSerie, error) {
	var resp searchResponse
	if err := c.query(ctx, searchQuery, map[string]any{"search": title}, &resp); err != nil {
		return nil, err
	}
	out := make([]providers.SearchSerie, 0, len(resp.Data.Page.Media))
	for _, m := range resp.Data.Page.Media {
		name := m.Title.English
		if name == "" {
			name = m.Title.Romaji
		}
		out = append(out, providers.SearchSerie{
			ExternalID:  map[string]providers.MetadataID{c.Name(): {DataID: strconv.Itoa(m.ID)}},
			Name:        name,
			StartAir:    m.StartDate.String(),
			Popularity:  m.Popularity,
			VoteAverage: float64(m.AverageScore),
		})
	}
	return providers.RankSeries(out, title), nil
}

func (c *Client) convert(m *anilistMedia) *providers.Serie {
	name := m.Title.English
	if name == "" {
		name = m.Title.Romaji
	}
	s := &providers.Serie{
		StartAir: m.StartDate.String(),
		EndAir:   m.EndDate.String(),
		Status:   m.Status,
		Rating:   float64(m.AverageScore) / 10,
		ExternalID: map[string]providers.MetadataID{
			c.Name(): {DataID: strconv.Itoa(m.ID)},
		},
		Translations: map[string]providers.Translation{
			"en": {Name: name, Overview: m.Description, Poster: m.CoverImage.ExtraLarge, Banner: m.BannerImage},
		},
	}
	if m.IDMal != 0 {
		s.ExternalID["myanimelist"] = providers.MetadataID{DataID: strconv.Itoa(m.IDMal)}
	}
	for _, g := range m.Genres {
		if mapped, ok := curatedGenres[g]; ok {
			s.Genres = append(s.Genres, mapped)
		} else {
			// Open Question 4: dropped genres surface as tags instead of
			// being silently discarded.
			s.Tags = append(s.Tags, g)
		}
	}
	return s
}
