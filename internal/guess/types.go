// Package guess implements the filename parsing pipeline (spec component
// C2): turning a filesystem path into a Guess, plus the shared rendering
// hash and title-cleaning helpers used by the providers and the scanner.
package guess

import (
	"github.com/kyoo-project/scanner/pkg/release"
)

// Kind discriminates what a path was identified as.
type Kind string

const (
	KindEpisode Kind = "episode"
	KindMovie   Kind = "movie"
	KindExtra   Kind = "extra"
)

// EpisodeRef is a (season?, episode) pair as extracted from the filename;
// Season is nil when the episode is given in absolute numbering only.
type EpisodeRef struct {
	Season  *int
	Episode int
}

// Guess is the parser's output for one path (spec.md §3 Data Model).
type Guess struct {
	Title      string
	Kind       Kind
	ExtraKind  string // set when Kind == KindExtra
	Years      []int
	Episodes   []EpisodeRef
	ExternalID map[string]string
	From       string // source tag, e.g. "filename"
	Raw        *release.Info
}

// Video is the unit the scanner hands to the catalog (spec.md §3).
type Video struct {
	Path          string
	RenderingHash string
	Part          *int
	Version       int
	Guess         Guess
	For           []Target
}

// TargetKind discriminates the Target tagged variant.
type TargetKind string

const (
	TargetSlug       TargetKind = "slug"
	TargetExternalID TargetKind = "external_id"
	TargetMovie      TargetKind = "movie"
	TargetEpisode    TargetKind = "episode"
	TargetOrder      TargetKind = "order"
	TargetSpecial    TargetKind = "special"
)

// Target hints the catalog about what a video maps to (spec.md §3).
// Exactly the fields relevant to Kind are populated.
type Target struct {
	Kind       TargetKind
	Slug       string
	ExternalID map[string]MetadataRef
	Movie      string
	Serie      string
	Season     int
	Episode    int
	Order      float64
	Special    int
}

// MetadataRef is either a MetadataId or an EpisodeId depending on context;
// Link is always optional.
type MetadataRef struct {
	DataID string
	Link   string
	Show   string
	Season *int
	Episode int
}

// ParseError is returned when the parser cannot determine type/title.
type ParseError struct {
	Path   string
	Reason string
}

func (e *ParseError) Error() string {
	return "parse " + e.Path + ": " + e.Reason
}
