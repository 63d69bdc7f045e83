package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kyoo-project/scanner/internal/autosync/models"
)

const defaultSimklBaseURL = "https://api.simkl.com"

// statusMap translates the internal Status enum to Simkl's history
// vocabulary; Deleted has no Simkl equivalent and is skipped entirely
// (spec.md §4.9).
var statusMap = map[models.Status]string{
	models.StatusCompleted: "completed",
	models.StatusWatching:  "watching",
	models.StatusPlanned:   "plantowatch",
}

// Simkl syncs watch-status events to Simkl's history API.
type Simkl struct {
	clientID   string
	enabled    bool
	baseURL    string
	httpClient *http.Client
}

type SimklOption func(*Simkl)

func WithSimklBaseURL(u string) SimklOption       { return func(s *Simkl) { s.baseURL = u } }
func WithSimklHTTPClient(hc *http.Client) SimklOption { return func(s *Simkl) { s.httpClient = hc } }

// NewSimkl constructs the service. It is Enabled() only when clientID is
// non-empty (OIDC_SIMKL_CLIENTID configured).
func NewSimkl(clientID string, opts ...SimklOption) *Simkl {
	s := &Simkl{
		clientID:   clientID,
		enabled:    clientID != "",
		baseURL:    defaultSimklBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simkl) Name() string   { return "simkl" }
func (s *Simkl) Enabled() bool  { return s.enabled }

type simklIDs struct {
	TMDB int    `json:"tmdb,omitempty"`
	IMDB string `json:"imdb,omitempty"`
}

type simklEpisode struct {
	Number int `json:"number"`
}

type simklSeason struct {
	Number   int            `json:"number"`
	Episodes []simklEpisode `json:"episodes"`
}

type simklShowEntry struct {
	WatchedAt string        `json:"watched_at,omitempty"`
	Show      struct {
		IDs simklIDs `json:"ids"`
	} `json:"show"`
	Seasons []simklSeason `json:"seasons"`
}

type simklMovieEntry struct {
	WatchedAt string `json:"watched_at,omitempty"`
	IDs       simklIDs `json:"ids"`
}

type simklHistoryBody struct {
	Movies []simklMovieEntry `json:"movies,omitempty"`
	Shows  []simklShowEntry  `json:"shows,omitempty"`
}

// Sync skips users without a linked Simkl token, and events Simkl has no
// equivalent for (spec.md §4.9's Simkl adapter semantics).
func (s *Simkl) Sync(ctx context.Context, msg *models.WatchStatusMessage) error {
	token, ok := msg.User.ExternalID["simkl"]
	if !ok || token.Token == "" {
		return nil
	}
	if msg.Resource.Kind == "episode" && msg.Status != models.StatusCompleted {
		return nil
	}
	if _, ok := statusMap[msg.Status]; !ok {
		return nil // Deleted, or any status Simkl has no mapping for.
	}

	var watchedAt string
	if msg.Status == models.StatusCompleted {
		watchedAt = msg.AddedDate
	}

	body, err := buildHistoryBody(msg, watchedAt)
	if err != nil {
		return err
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal simkl history body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/sync/history", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("simkl-api-key", s.clientID)
	req.Header.Set("Authorization", "Bearer "+token.Token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("simkl sync: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("simkl sync: unexpected status %s", resp.Status)
	}
	return nil
}

func buildHistoryBody(msg *models.WatchStatusMessage, watchedAt string) (simklHistoryBody, error) {
	var body simklHistoryBody
	switch msg.Resource.Kind {
	case "movie":
		body.Movies = append(body.Movies, simklMovieEntry{
			WatchedAt: watchedAt,
			IDs:       translateIDs(msg.Resource.Movie.ExternalID),
		})
	case "show":
		entry := simklShowEntry{WatchedAt: watchedAt}
		entry.Show.IDs = translateIDs(msg.Resource.Show.ExternalID)
		body.Shows = append(body.Shows, entry)
	case "episode":
		ep := msg.Resource.Episode
		entry := simklShowEntry{WatchedAt: watchedAt}
		entry.Show.IDs = translateIDs(ep.Show.ExternalID)
		season := 0
		if ep.SeasonNumber != nil {
			season = *ep.SeasonNumber
		}
		entry.Seasons = []simklSeason{{Number: season, Episodes: []simklEpisode{{Number: ep.EpisodeNumber}}}}
		body.Shows = append(body.Shows, entry)
	default:
		return simklHistoryBody{}, fmt.Errorf("simkl: unsupported resource kind %q", msg.Resource.Kind)
	}
	return body, nil
}

// translateIDs maps this project's provider-id keys to Simkl's expected
// id namespace: themoviedatabase -> tmdb (as an int), imdb passthrough
// (spec.md §4.9).
func translateIDs(externalID map[string]models.MetadataID) simklIDs {
	var ids simklIDs
	if tmdb, ok := externalID["themoviedatabase"]; ok {
		if n, err := strconv.Atoi(tmdb.DataID); err == nil {
			ids.TMDB = n
		}
	}
	if imdb, ok := externalID["imdb"]; ok {
		ids.IMDB = imdb.DataID
	}
	return ids
}
