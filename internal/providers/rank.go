package providers

import "sort"

// RankMovies orders search results per spec.md §4.3: exact case-insensitive
// name matches first (sorted by vote_count, popularity desc), then the
// rest, deprioritising (but not dropping) low-signal items
// (vote_count<5 or popularity<5), stable within each bucket.
func RankMovies(results []SearchMovie, title string) []SearchMovie {
	exact, rest := splitExactMovie(results, title)
	sort.SliceStable(exact, func(i, j int) bool {
		if exact[i].VoteCount != exact[j].VoteCount {
			return exact[i].VoteCount > exact[j].VoteCount
		}
		return exact[i].Popularity > exact[j].Popularity
	})
	rest = deprioritizeLowSignalMovies(rest)
	return append(exact, rest...)
}

func splitExactMovie(results []SearchMovie, title string) (exact, rest []SearchMovie) {
	lower := lowerASCII(title)
	for _, r := range results {
		if lowerASCII(r.Name) == lower {
			exact = append(exact, r)
		} else {
			rest = append(rest, r)
		}
	}
	return exact, rest
}

func deprioritizeLowSignalMovies(results []SearchMovie) []SearchMovie {
	var strong, weak []SearchMovie
	for _, r := range results {
		if r.VoteCount < 5 || r.Popularity < 5 {
			weak = append(weak, r)
		} else {
			strong = append(strong, r)
		}
	}
	return append(strong, weak...)
}

// RankSeries is RankMovies' twin for series search results.
func RankSeries(results []SearchSerie, title string) []SearchSerie {
	lower := lowerASCII(title)
	var exact, rest []SearchSerie
	for _, r := range results {
		if lowerASCII(r.Name) == lower {
			exact = append(exact, r)
		} else {
			rest = append(rest, r)
		}
	}
	sort.SliceStable(exact, func(i, j int) bool {
		if exact[i].VoteCount != exact[j].VoteCount {
			return exact[i].VoteCount > exact[j].VoteCount
		}
		return exact[i].Popularity > exact[j].Popularity
	})
	var strong, weak []SearchSerie
	for _, r := range rest {
		if r.VoteCount < 5 || r.Popularity < 5 {
			weak = append(weak, r)
		} else {
			strong = append(strong, r)
		}
	}
	rest = append(strong, weak...)
	return append(exact, rest...)
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
