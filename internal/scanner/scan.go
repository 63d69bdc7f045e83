// Package scanner implements the filesystem walker and monitor (spec
// component C7): a full recursive scan that reconciles the filesystem
// against the catalog's known state, and an fsnotify-based monitor for
// incremental updates. Grounded on the teacher's internal/server.Runner
// lifecycle shape and internal/search.Indexer's directory-walk pattern.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"regexp"

	"github.com/kyoo-project/scanner/internal/catalog"
	"github.com/kyoo-project/scanner/internal/guess"
	"github.com/kyoo-project/scanner/internal/providers/thexem"
	"github.com/kyoo-project/scanner/internal/queue"
)

const ignoreMarker = ".ignore"

// Config parameterizes a Scanner.
type Config struct {
	Root          string
	IgnorePattern *regexp.Regexp
}

// Scanner ties the filesystem to the catalog and request queue.
type Scanner struct {
	cfg     Config
	catalog *catalog.Client
	queue   *queue.Store
	xem     *thexem.Client
	log     *slog.Logger
}

// New builds a Scanner. xemClient is optional: if nil, the XemFixup parser
// rule (spec.md rule 5) never fires and filenames are parsed without a
// community title hint.
func New(cfg Config, catalogClient *catalog.Client, queueStore *queue.Store, xemClient *thexem.Client, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{cfg: cfg, catalog: catalogClient, queue: queueStore, xem: xemClient, log: log.With("component", "scanner")}
}

// xemHint fetches the current global XEM expected-titles set, if a XEM
// client is configured. A fetch failure only disables the XemFixup rule
// for this pass; it never fails the scan.
func (s *Scanner) xemHint(ctx context.Context) *guess.XemHint {
	if s.xem == nil {
		return nil
	}
	titles, err := s.xem.GetExpectedTitles(ctx)
	if err != nil {
		s.log.Warn("failed to fetch xem expected titles, skipping XemFixup", "error", err)
		return nil
	}
	return &guess.XemHint{ExpectedTitles: titles}
}

func (s *Scanner) shouldIgnore(path string) bool {
	if s.cfg.IgnorePattern != nil && s.cfg.IgnorePattern.MatchString(path) {
		return true
	}
	return false
}

func isVideo(path string) bool {
	ext := filepath.Ext(path)
	t := mime.TypeByExtension(ext)
	if t == "" {
		return false
	}
	return len(t) >= 6 && t[:6] == "video/"
}

// walk returns every non-ignored video path under root, skipping any
// directory containing a .ignore marker file (spec.md §4.6 step 2).
func (s *Scanner) walk() (map[string]bool, error) {
	paths := map[string]bool{}
	err := filepath.WalkDir(s.cfg.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.cfg.Root {
				if _, statErr := os.Stat(filepath.Join(path, ignoreMarker)); statErr == nil {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if s.shouldIgnore(path) {
			return nil
		}
		if isVideo(path) {
			paths[path] = true
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.cfg.Root, err)
	}
	return paths, nil
}

// Scan runs a full reconciliation pass: clear failed requests, diff the
// filesystem against the catalog's known state, delete missing paths (if
// removeDeleted), identify and register new paths, and enqueue anything
// the catalog couldn't resolve (spec.md §4.6).
func (s *Scanner) Scan(ctx context.Context, removeDeleted bool) error {
	if err := s.queue.ClearFailed(); err != nil {
		return err
	}

	fsPaths, err := s.walk()
	if err != nil {
		return err
	}

	state, err := s.catalog.GetKnownState(ctx)
	if err != nil {
		return fmt.Errorf("get known state: %w", err)
	}

	toRegister := diff(fsPaths, state.Paths)
	var toDelete map[string]bool
	if removeDeleted {
		toDelete = diff(state.Paths, fsPaths)
	}

	if len(toRegister) == 0 && removeDeleted && len(toDelete) == len(state.Paths) && len(state.Paths) > 0 {
		s.log.Warn("refusing to delete the entire catalog: filesystem root may be unavailable", "root", s.cfg.Root)
		toDelete = nil
	}

	if len(toDelete) > 0 {
		paths := make([]string, 0, len(toDelete))
		for p := range toDelete {
			paths = append(paths, p)
		}
		if err := s.catalog.DeleteVideos(ctx, paths); err != nil {
			return fmt.Errorf("delete videos: %w", err)
		}
	}

	hint := s.xemHint(ctx)

	entries := make([]guess.Video, 0, len(toRegister))
	for p := range toRegister {
		v, err := s.identify(p, state, hint)
		if err != nil {
			s.log.Warn("failed to parse path, skipping", "path", p, "error", err)
			continue
		}
		entries = append(entries, v)
	}

	if err := s.registerAndEnqueue(ctx, entries); err != nil {
		return err
	}

	for p := range state.Unmatched {
		if _, ok := toDelete[p]; ok {
			continue
		}
		if v, err := s.identify(p, state, hint); err == nil {
			s.enqueueForVideo(p, v)
		}
	}

	return nil
}

func diff(a, b map[string]bool) map[string]bool {
	out := map[string]bool{}
	for p := range a {
		if !b[p] {
			out[p] = true
		}
	}
	return out
}

// identify runs the parser and matches against the catalog's known
// title/year → slug table (spec.md §4.6 "Identification of a single
// file").
func (s *Scanner) identify(path string, state *catalog.KnownState, hint *guess.XemHint) (guess.Video, error) {
	g, err := guess.Parse(path, hint)
	if err != nil {
		return guess.Video{}, err
	}

	v := guess.Video{
		Path:          path,
		RenderingHash: guess.RenderingHash(path),
		Part:          guess.ExtractPart(path),
		Version:       guess.ExtractVersion(path),
		Guess:         g,
	}
	v.For = targetsFor(g, state)
	return v, nil
}

func targetsFor(g guess.Guess, state *catalog.KnownState) []guess.Target {
	var targets []guess.Target
	years := append([]int{}, g.Years...)
	years = append(years, -1) // sentinel for "unknown"

	for _, y := range years {
		key := "unknown"
		if y != -1 {
			key = fmt.Sprintf("%d", y)
		}
		if byYear, ok := state.Guesses[g.Title]; ok {
			if ref, ok := byYear[key]; ok {
				targets = append(targets, guess.Target{Kind: guess.TargetSlug, Slug: ref.Slug})
			}
		}
	}

	for provider, id := range g.ExternalID {
		targets = append(targets, guess.Target{
			Kind:       guess.TargetExternalID,
			ExternalID: map[string]guess.MetadataRef{provider: {DataID: id}},
		})
	}

	switch g.Kind {
	case guess.KindMovie:
		targets = append(targets, guess.Target{Kind: guess.TargetMovie})
	case guess.KindEpisode:
		for _, ep := range g.Episodes {
			if ep.Season != nil {
				targets = append(targets, guess.Target{Kind: guess.TargetEpisode, Season: *ep.Season, Episode: ep.Episode})
			} else {
				targets = append(targets, guess.Target{Kind: guess.TargetOrder, Order: float64(ep.Episode)})
			}
		}
	}
	return targets
}

func (s *Scanner) registerAndEnqueue(ctx context.Context, videos []guess.Video) error {
	if len(videos) == 0 {
		return nil
	}
	created, err := s.catalog.PostVideos(ctx, videos)
	if err != nil {
		return fmt.Errorf("post videos: %w", err)
	}
	for i, c := range created {
		if len(c.Entries) > 0 {
			continue // catalog already matched this video to a show/movie
		}
		s.enqueueForVideo(c.ID, videos[i])
	}
	return nil
}

// enqueueForVideo queues an unresolved video under its catalog-assigned id
// (videoID) so the worker's later /videos/link call can address it.
func (s *Scanner) enqueueForVideo(videoID string, v guess.Video) {
	kind := queue.KindMovie
	var episodes []queue.VideoEpisode
	if v.Guess.Kind == guess.KindEpisode {
		kind = queue.KindEpisode
		for _, ep := range v.Guess.Episodes {
			episodes = append(episodes, queue.VideoEpisode{Season: ep.Season, Episode: ep.Episode})
		}
	}

	var year *int
	if len(v.Guess.Years) > 0 {
		y := v.Guess.Years[0]
		year = &y
	}

	if err := s.queue.Enqueue(kind, v.Guess.Title, year, v.Guess.ExternalID, []queue.VideoRef{{ID: videoID, Episodes: episodes}}); err != nil {
		s.log.Error("failed to enqueue request", "videoId", videoID, "error", err)
	}
}
