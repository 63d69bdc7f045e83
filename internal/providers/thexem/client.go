// Package thexem implements a client for the XEM community scene-to-tvdb
// numbering mapping service (spec.md §4.3, SPEC_FULL.md C4b). Only
// GetExpectedTitles is used outside this package: the scanner feeds it to
// the parser's XemFixup rule.
// Grounded on original_source's thexem.py client.
package thexem

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kyoo-project/scanner/internal/cache"
	"github.com/kyoo-project/scanner/internal/guess"
	"github.com/kyoo-project/scanner/internal/providers"
)

const defaultBaseURL = "https://thexem.info"
const mapTTL = 24 * time.Hour

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger

	maps     *cache.Cache[Map]
	showMaps *cache.Cache[map[int]int]
	expected *cache.Cache[map[string]bool]
}

type Option func(*Client)

func WithBaseURL(u string) Option          { return func(c *Client) { c.baseURL = u } }
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log.With("component", "thexem") }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        slog.Default().With("component", "thexem"),
		maps:       cache.New[Map](),
		showMaps:   cache.New[map[int]int](),
		expected:   cache.New[map[string]bool](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "thexem" }

// Entry is one episode's numbering across all origins known to XEM
// (scene, tvdb, anidb, ...) for a given show.
type Entry struct {
	Season  int `json:"season"`
	Episode int `json:"episode"`
	Absolute int `json:"absolute"`
}

// Map is the per-origin numbering table for a show, keyed by origin name
// ("scene", "tvdb", "anidb").
type Map map[string][]Entry

type allResponse struct {
	Result string                   `json:"result"`
	Data   map[string]xemEntryGroup `json:"data"`
}

type xemEntryGroup map[string]xemSingleEntry

type xemSingleEntry struct {
	Season   int `json:"season"`
	Episode  int `json:"episode"`
	Absolute int `json:"absolute,omitempty"`
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &providers.TransportError{Provider: c.Name(), Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &providers.RateLimitedError{Provider: c.Name(), Retry: 60 * time.Second}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("thexem: unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetMap returns the full multi-origin numbering map for a TVDB series id.
func (c *Client) GetMap(ctx context.Context, tvdbID int) (Map, error) {
	key := cache.MakeKey([]any{"get_map", tvdbID}, nil)
	return c.maps.Get(ctx, key, mapTTL, func(ctx context.Context) (Map, error) {
		var resp allResponse
		path := fmt.Sprintf("/map/all?id=%d&origin=tvdb", tvdbID)
		if err := c.get(ctx, path, &resp); err != nil {
			return nil, err
		}
		if resp.Result != "success" {
			return nil, providers.ErrNotFound
		}
		out := Map{}
		for _, group := range resp.Data {
			for origin, e := range group {
				out[origin] = append(out[origin], Entry{Season: e.Season, Episode: e.Episode, Absolute: e.Absolute})
			}
		}
		return out, nil
	})
}

// GetShowMap returns the scene->tvdb absolute-number translation table for
// a show, keyed by scene absolute number.
func (c *Client) GetShowMap(ctx context.Context, tvdbID int) (map[int]int, error) {
	key := cache.MakeKey([]any{"get_show_map", tvdbID}, nil)
	return c.showMaps.Get(ctx, key, mapTTL, func(ctx context.Context) (map[int]int, error) {
		m, err := c.GetMap(ctx, tvdbID)
		if err != nil {
			return nil, err
		}
		scene := m["scene"]
		tvdb := m["tvdb"]
		out := make(map[int]int, len(scene))
		for i := range scene {
			if i < len(tvdb) {
				out[scene[i].Absolute] = tvdb[i].Absolute
			}
		}
		return out, nil
	})
}

type overrideResponse struct {
	Result string          `json:"result"`
	Data   []overrideEntry `json:"data"`
}

type overrideEntry struct {
	Season   *int `json:"season"`
	Episode  int  `json:"episode"`
	Absolute int  `json:"absolute"`
}

// GetShowOverride returns a manually-curated season number override for a
// show, or (0, false) if none exists.
func (c *Client) GetShowOverride(ctx context.Context, tvdbID int) (int, bool) {
	entries, err := c.getOverrides(ctx, tvdbID)
	if err != nil || len(entries) == 0 {
		return 0, false
	}
	if entries[0].Season == nil {
		return 0, false
	}
	return *entries[0].Season, true
}

// GetSeasonOverride returns the overridden absolute number for a season,
// treating a nil/`-1` season in the response as "not season-specific"
// (Open Question 5).
func (c *Client) GetSeasonOverride(ctx context.Context, tvdbID, season int) (int, bool) {
	entries, err := c.getOverrides(ctx, tvdbID)
	if err != nil {
		return 0, false
	}
	for _, e := range entries {
		if e.Season == nil || *e.Season == -1 {
			continue
		}
		if *e.Season == season {
			return e.Absolute, true
		}
	}
	return 0, false
}

// GetEpisodeOverride returns the TVDB absolute number overriding a
// specific (season, episode) pair.
func (c *Client) GetEpisodeOverride(ctx context.Context, tvdbID, season, episode int) (int, bool) {
	entries, err := c.getOverrides(ctx, tvdbID)
	if err != nil {
		return 0, false
	}
	for _, e := range entries {
		if e.Season != nil && *e.Season == season && e.Episode == episode {
			return e.Absolute, true
		}
	}
	return 0, false
}

func (c *Client) getOverrides(ctx context.Context, tvdbID int) ([]overrideEntry, error) {
	var resp overrideResponse
	path := fmt.Sprintf("/map/single?id=%d&origin=tvdb", tvdbID)
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	if resp.Result != "success" {
		return nil, providers.ErrNotFound
	}
	return resp.Data, nil
}

type allNamesResponse struct {
	Result string                       `json:"result"`
	Data   map[string][]json.RawMessage `json:"data"`
}

// GetExpectedTitles returns the set of community-known alternate titles
// across every show XEM tracks, cleaned via internal/guess.Clean so they
// compare directly against parsed filename titles. Unlike GetMap/
// GetShowMap this is not scoped to a single show: XEM's /map/allNames
// endpoint returns every show's name list in one call, and the scanner
// uses that whole set as a global hint for XemFixup (spec.md rule 5) --
// it has no TVDB id for a file until after identification, so the hint
// can only be built globally, up front.
func (c *Client) GetExpectedTitles(ctx context.Context) (map[string]bool, error) {
	key := cache.MakeKey([]any{"expected_titles"}, nil)
	return c.expected.Get(ctx, key, mapTTL, func(ctx context.Context) (map[string]bool, error) {
		var resp allNamesResponse
		if err := c.get(ctx, "/map/allNames?origin=tvdb&seasonNumbers=1&defaultNames=1", &resp); err != nil {
			return nil, err
		}
		if resp.Result != "success" {
			return nil, providers.ErrNotFound
		}

		out := map[string]bool{}
		for _, entries := range resp.Data {
			for _, raw := range entries {
				// Each show's entry is [masterName string, {altName: season}...].
				// Both the master name and every alt name are expected titles.
				var name string
				if err := json.Unmarshal(raw, &name); err == nil {
					out[guess.Clean(name)] = true
					continue
				}
				var alt map[string]int
				if err := json.Unmarshal(raw, &alt); err == nil {
					for n := range alt {
						out[guess.Clean(n)] = true
					}
				}
			}
		}
		return out, nil
	})
}
