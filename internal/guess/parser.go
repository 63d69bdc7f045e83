package guess

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kyoo-project/scanner/pkg/release"
)

// This file implements the C2 rule pipeline described in spec.md §4.2. The
// tokeniser the spec treats as an external engine is written by hand here
// (no rule-matching-engine library exists in the dependency corpus this
// project draws from); the named steps run in this order: MultipleSeasonRule
// (part of the season/episode matching), EpisodeTitlePromotion +
// TitleNumberFixup, SeasonYearDedup, UnlistTitles, XemFixup.

var (
	seasonEpisodeRegex   = regexp.MustCompile(`(?i)[Ss](\d{1,2})[Ee](\d{1,4})(?:-?[Ee](\d{1,4}))?`)
	seasonRangeRegex     = regexp.MustCompile(`(?i)season\s*(\d{1,2})\s*-\s*(\d{1,4})`)
	altSeasonEpRegex     = regexp.MustCompile(`(?i)\b(\d{1,2})x(\d{1,4})\b`)
	yearParenRegex       = regexp.MustCompile(`\((\d{4})\)`)
	yearBareRegex        = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	absoluteEpRegex      = regexp.MustCompile(`\)\s*-?\s*(\d{2,4})\b`)
	absoluteEpDashRegex  = regexp.MustCompile(`(?i)\s-\s*(\d{1,3})\b`)
	trailingSepRegex     = regexp.MustCompile(`[ ._\-]+$`)
	leadingSepRegex      = regexp.MustCompile(`^[ ._\-]+`)
	dotToSpaceRegex      = regexp.MustCompile(`[._]+`)
	extraKeywordRegex    = regexp.MustCompile(`(?i)\b(sample|trailer|extra|featurette|deleted scene|behind the scenes)\b`)
)

// XemHint, when non-nil, is consulted by the XemFixup rule for
// "title nextmatch" concatenations (spec.md rule 5). The scanner wires this
// from the TheXEM client's GetExpectedTitles.
type XemHint struct {
	// ExpectedTitles is a set of clean()-normalised show names. XemFixup
	// absorbs the token after the title when clean(title + " " + token) is
	// in the set.
	ExpectedTitles map[string]bool
}

// Parse extracts a Guess from a filesystem path (spec.md §4.2).
func Parse(path string, xem *XemHint) (Guess, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := dotToSpaceRegex.ReplaceAllString(strings.TrimSuffix(base, ext), " ")

	g := Guess{
		From:       "filename",
		ExternalID: map[string]string{},
	}

	var seasonMatch *int
	var episodes []int
	titleEnd := len(name)

	if m := seasonEpisodeRegex.FindStringSubmatchIndex(name); m != nil {
		s := atoi(name[m[2]:m[3]])
		e1 := atoi(name[m[4]:m[5]])
		seasonMatch = &s
		episodes = []int{e1}
		if m[6] >= 0 {
			e2 := atoi(name[m[6]:m[7]])
			episodes = expandRange(e1, e2)
		}
		titleEnd = m[0]
	} else if m := altSeasonEpRegex.FindStringSubmatchIndex(name); m != nil {
		s := atoi(name[m[2]:m[3]])
		e := atoi(name[m[4]:m[5]])
		seasonMatch = &s
		episodes = []int{e}
		titleEnd = m[0]
	} else if m := seasonRangeRegex.FindStringSubmatchIndex(name); m != nil {
		// MultipleSeasonRule (rule 4): first value is the season, the rest
		// are episodes produced by dash-range expansion.
		s := atoi(name[m[2]:m[3]])
		e := atoi(name[m[4]:m[5]])
		seasonMatch = &s
		episodes = []int{e}
		titleEnd = m[0]
	}

	var years []int
	yearEnd := -1
	if m := yearParenRegex.FindStringSubmatchIndex(name); m != nil {
		years = append(years, atoi(name[m[2]:m[3]]))
		if titleEnd > m[0] {
			titleEnd = m[0]
		}
		yearEnd = m[1]
	} else if m := yearBareRegex.FindStringIndex(name); m != nil {
		years = append(years, atoi(name[m[0]:m[1]]))
		if titleEnd > m[0] {
			titleEnd = m[0]
		}
	}

	// Absolute episode numbering: a bare number following a "(year)" group
	// with no season/episode match, e.g. "One Piece (1999) 1089".
	if seasonMatch == nil && len(episodes) == 0 && yearEnd >= 0 {
		if m := absoluteEpRegex.FindStringSubmatchIndex(name[yearEnd-1:]); m != nil {
			episodes = []int{atoi(name[yearEnd-1:][m[2]:m[3]])}
		}
	}

	// EpisodeTitlePromotion (rule 2) + TitleNumberFixup (rule 3): anime-style
	// absolute numbering with no year or season marker at all, e.g.
	// "Zom 100 - 01". The episode_title an external tagger would emit here
	// is purely numeric, so it is promoted straight to episode. Requiring
	// the dash separator before the number is what implements
	// TitleNumberFixup: a bare number glued to the title with no separator
	// (e.g. "Zom 100" on its own) never matches, so it stays merged into
	// the title instead of being misread as an episode number.
	if seasonMatch == nil && len(episodes) == 0 && len(years) == 0 {
		if m := absoluteEpDashRegex.FindStringSubmatchIndex(name); m != nil {
			episodes = []int{atoi(name[m[2]:m[3]])}
			if titleEnd > m[0] {
				titleEnd = m[0]
			}
		}
	}

	// SeasonYearDedup (rule 6): a single season equal to a single year is
	// the show's year, not a season number.
	if seasonMatch != nil && len(years) == 1 && *seasonMatch == years[0] {
		seasonMatch = nil
	}

	title := name[:min(titleEnd, len(name))]
	title = unlistTitles(title)
	title = cleanTitleSpacing(title)

	if xem != nil && xem.ExpectedTitles != nil {
		title = xemFixup(title, nextToken(name[min(titleEnd, len(name)):]), xem.ExpectedTitles)
	}

	g.Title = title
	g.Years = years

	var epRefs []EpisodeRef
	for _, e := range episodes {
		var s *int
		if seasonMatch != nil {
			sv := *seasonMatch
			s = &sv
		}
		epRefs = append(epRefs, EpisodeRef{Season: s, Episode: e})
	}
	g.Episodes = epRefs

	switch {
	case extraKeywordRegex.MatchString(base):
		g.Kind = KindExtra
		if m := extraKeywordRegex.FindString(base); m != "" {
			g.ExtraKind = strings.ToLower(m)
		}
	case len(epRefs) > 0:
		g.Kind = KindEpisode
	case len(years) > 0:
		g.Kind = KindMovie
	default:
		return g, &ParseError{Path: path, Reason: "could not determine title/year/episode"}
	}

	g.Raw = release.Parse(base)
	return g, nil
}

// unlistTitles (rule 1): the hand-rolled tokeniser here never splits a
// title into multiple adjacent matches the way a generic rule engine
// would, so this rule is a no-op seam kept for symmetry with the spec's
// pipeline and as the extension point if a future tokeniser does split
// titles.
func unlistTitles(s string) string {
	return s
}

func cleanTitleSpacing(s string) string {
	s = trailingSepRegex.ReplaceAllString(s, "")
	s = leadingSepRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// nextTokenRegex extracts the first run of alphanumeric characters from a
// string, skipping any leading separators.
var nextTokenRegex = regexp.MustCompile(`[A-Za-z0-9]+`)

// nextToken returns the first word-like token in rest, or "" if none.
func nextToken(rest string) string {
	return nextTokenRegex.FindString(rest)
}

// xemFixup (rule 5): the title/season boundary was cut one token too early
// if concatenating title with the token that immediately follows it in the
// source name is a known "title nextmatch" pair from TheXEM's
// expected-titles list; when that's the case, absorb that token into the
// title.
func xemFixup(title, next string, expected map[string]bool) string {
	if next == "" {
		return title
	}
	candidate := Clean(title + " " + next)
	if expected[candidate] {
		return title + " " + next
	}
	return title
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func expandRange(a, b int) []int {
	if b < a {
		return []int{a}
	}
	out := make([]int, 0, b-a+1)
	for i := a; i <= b; i++ {
		out = append(out, i)
	}
	return out
}
