// Package models defines the watch-status message envelope consumed by
// the autosync component (spec component C9), including its tagged-union
// resource decoding. Grounded on the teacher's internal/events tagged
// envelope (Action/Type/Value) and registry-by-discriminator idiom.
package models

import (
	"encoding/json"
	"fmt"
)

// Status is the watch-status enum. "Droped" preserves the upstream
// source's typo rather than silently correcting it, since it is a wire
// value other systems already depend on.
type Status string

const (
	StatusCompleted Status = "Completed"
	StatusWatching  Status = "Watching"
	StatusDroped    Status = "Droped"
	StatusPlanned   Status = "Planned"
	StatusDeleted   Status = "Deleted"
)

// MetadataID mirrors providers.MetadataID's shape for wire messages that
// don't depend on the providers package.
type MetadataID struct {
	DataID string `json:"dataId"`
	Link   string `json:"link,omitempty"`
}

// ExternalToken is a user's linked account on a third-party tracker.
type ExternalToken struct {
	Token string `json:"token"`
}

// User is the actor a watch-status event is attributed to.
type User struct {
	ID         string                   `json:"id"`
	Username   string                   `json:"username"`
	ExternalID map[string]ExternalToken `json:"externalId"`
}

// Movie, Show, Episode are the three tagged variants of Resource,
// discriminated by "kind".
type Movie struct {
	Kind       string                `json:"kind"`
	Name       string                `json:"name"`
	ExternalID map[string]MetadataID `json:"externalId"`
}

type Show struct {
	Kind       string                `json:"kind"`
	Name       string                `json:"name"`
	ExternalID map[string]MetadataID `json:"externalId"`
}

type Episode struct {
	Kind           string                `json:"kind"`
	Show           Show                  `json:"show"`
	SeasonNumber   *int                  `json:"seasonNumber"`
	EpisodeNumber  int                   `json:"episodeNumber"`
	AbsoluteNumber int                   `json:"absoluteNumber,omitempty"`
	ExternalID     map[string]MetadataID `json:"externalId"`
}

// Resource is the decoded tagged union: exactly one of Movie/Show/Episode
// is non-nil, matching the "kind" discriminator.
type Resource struct {
	Kind    string
	Movie   *Movie
	Show    *Show
	Episode *Episode
}

func (r *Resource) UnmarshalJSON(data []byte) error {
	var discriminator struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &discriminator); err != nil {
		return fmt.Errorf("decode resource kind: %w", err)
	}
	r.Kind = discriminator.Kind

	switch discriminator.Kind {
	case "movie":
		r.Movie = &Movie{}
		return json.Unmarshal(data, r.Movie)
	case "show":
		r.Show = &Show{}
		return json.Unmarshal(data, r.Show)
	case "episode":
		r.Episode = &Episode{}
		return json.Unmarshal(data, r.Episode)
	default:
		return fmt.Errorf("resource: unknown kind %q", discriminator.Kind)
	}
}

func (r Resource) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case "movie":
		return json.Marshal(r.Movie)
	case "show":
		return json.Marshal(r.Show)
	case "episode":
		return json.Marshal(r.Episode)
	default:
		return nil, fmt.Errorf("resource: unknown kind %q", r.Kind)
	}
}

// WatchStatusMessage is the envelope's value field.
type WatchStatusMessage struct {
	User           User     `json:"user"`
	Resource       Resource `json:"resource"`
	Status         Status   `json:"status"`
	AddedDate      string   `json:"addedDate"`
	PlayedDate     string   `json:"playedDate,omitempty"`
	WatchedTime    *float64 `json:"watchedTime,omitempty"`
	WatchedPercent *float64 `json:"watchedPercent,omitempty"`
}

// Message is the top-level AMQP envelope (spec.md §4.9).
type Message struct {
	Action string              `json:"action"`
	Type   string              `json:"type"`
	Value  WatchStatusMessage  `json:"value"`
}

// Decode parses a raw AMQP message body into a Message.
func Decode(body []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("decode watch status message: %w", err)
	}
	return &msg, nil
}
