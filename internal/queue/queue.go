// Package queue implements the durable, coalescing request queue
// (spec component C8) backed by Postgres LISTEN/NOTIFY and
// SELECT ... FOR UPDATE SKIP LOCKED. Grounded on the teacher's
// internal/library Store/querier pattern, adapted from SQLite to
// Postgres via github.com/lib/pq.
package queue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound mirrors the teacher's library.ErrNotFound for a missing row.
var ErrNotFound = errors.New("queue: request not found")

// Kind enumerates the two request kinds a video can be queued under.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "episode"
)

// Status mirrors the scanner.requests.status check constraint.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusFailed  Status = "failed"
)

// VideoEpisode is one episode reference carried by a queued video.
type VideoEpisode struct {
	Season  *int `json:"season,omitempty"`
	Episode int  `json:"episode"`
}

// VideoRef is one video awaiting identification, as stored in the
// videos jsonb column.
type VideoRef struct {
	ID       string         `json:"id"`
	Episodes []VideoEpisode `json:"episodes,omitempty"`
}

// Request is a row of scanner.requests.
type Request struct {
	PK         int64             `json:"pk"`
	Kind       Kind              `json:"kind"`
	Title      string            `json:"title"`
	Year       *int              `json:"year"`
	ExternalID map[string]string `json:"externalId"`
	Videos     []VideoRef        `json:"videos"`
	Status     Status            `json:"status"`
}

// Store provides access to the request queue.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Enqueue inserts a request or, on (kind,title,year) conflict, merges the
// new videos into the existing row's videos array, then notifies any
// listening workers (spec.md §4.7).
func (s *Store) Enqueue(kind Kind, title string, year *int, externalID map[string]string, videos []VideoRef) error {
	extJSON, err := json.Marshal(externalID)
	if err != nil {
		return fmt.Errorf("marshal external_id: %w", err)
	}
	videosJSON, err := json.Marshal(videos)
	if err != nil {
		return fmt.Errorf("marshal videos: %w", err)
	}

	_, err = s.db.Exec(`
		insert into scanner.requests (kind, title, year, external_id, videos)
		values ($1, $2, $3, $4, $5)
		on conflict (kind, title, year) do update
		set videos = scanner.requests.videos || excluded.videos,
		    external_id = scanner.requests.external_id || excluded.external_id
	`, string(kind), title, year, extJSON, videosJSON)
	if err != nil {
		return fmt.Errorf("enqueue request: %w", err)
	}

	if _, err := s.db.Exec("notify scanner_requests"); err != nil {
		return fmt.Errorf("notify scanner_requests: %w", err)
	}
	return nil
}

// Dequeue atomically claims one pending row, marking it running, or
// returns ErrNotFound if the queue is empty.
func (s *Store) Dequeue() (*Request, error) {
	row := s.db.QueryRow(`
		update scanner.requests
		set status = 'running', started_at = now()
		where pk in (
			select pk from scanner.requests
			where status = 'pending'
			order by pk
			for update skip locked
			limit 1
		)
		returning pk, kind, title, year, external_id, videos, status
	`)
	return scanRequest(row)
}

// Complete deletes a finished request and returns the videos it held at
// delete time. The caller compares this against the videos it read when
// it dequeued to detect a concurrent enqueue merged in mid-processing
// (spec.md §4.7).
func (s *Store) Complete(pk int64) ([]VideoRef, error) {
	row := s.db.QueryRow(`delete from scanner.requests where pk = $1 returning videos`, pk)
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("complete request %d: %w", pk, err)
	}
	var videos []VideoRef
	if err := json.Unmarshal(raw, &videos); err != nil {
		return nil, fmt.Errorf("unmarshal videos: %w", err)
	}
	return videos, nil
}

// Fail marks a request failed; ClearFailed (run at the start of each Scan pass) will
// delete it so the next scan's enqueue starts it fresh.
func (s *Store) Fail(pk int64) error {
	_, err := s.db.Exec(`update scanner.requests set status = 'failed' where pk = $1`, pk)
	if err != nil {
		return fmt.Errorf("fail request %d: %w", pk, err)
	}
	return nil
}

// ClearFailed deletes every failed row. Called at the start of every Scan
// pass (spec.md §4.6 step 1): the full scan and the subtree scans the
// monitor runs for new directories.
func (s *Store) ClearFailed() error {
	_, err := s.db.Exec(`delete from scanner.requests where status = 'failed'`)
	if err != nil {
		return fmt.Errorf("clear failed requests: %w", err)
	}
	return nil
}

// ResetRunning moves every row stuck in 'running' back to 'pending'. The
// elected master calls this once at startup, before the worker's first
// drain, to recover requests a previous (crashed) master left claimed but
// never completed.
func (s *Store) ResetRunning() error {
	_, err := s.db.Exec(`update scanner.requests set status = 'pending' where status = 'running'`)
	if err != nil {
		return fmt.Errorf("reset running requests: %w", err)
	}
	return nil
}

func scanRequest(row *sql.Row) (*Request, error) {
	var (
		r       Request
		kind    string
		status  string
		extRaw  []byte
		videosRaw []byte
	)
	err := row.Scan(&r.PK, &kind, &r.Title, &r.Year, &extRaw, &videosRaw, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan request: %w", err)
	}
	r.Kind = Kind(kind)
	r.Status = Status(status)
	if len(extRaw) > 0 {
		if err := json.Unmarshal(extRaw, &r.ExternalID); err != nil {
			return nil, fmt.Errorf("unmarshal external_id: %w", err)
		}
	}
	if len(videosRaw) > 0 {
		if err := json.Unmarshal(videosRaw, &r.Videos); err != nil {
			return nil, fmt.Errorf("unmarshal videos: %w", err)
		}
	}
	return &r, nil
}
