// Package worker implements the request processor (spec component C8): it
// drains the durable request queue, resolves each request against the
// composite provider, and upserts the result into the catalog. Grounded
// on the teacher's internal/importer episode-matching idiom (matching a
// file to a library.Episode by season/episode) generalized from files to
// queued requests matching provider Entries.
package worker

import (
	"context"
	"log/slog"

	"github.com/kyoo-project/scanner/internal/catalog"
	"github.com/kyoo-project/scanner/internal/guess"
	"github.com/kyoo-project/scanner/internal/providers"
	"github.com/kyoo-project/scanner/internal/providers/composite"
	"github.com/kyoo-project/scanner/internal/queue"
)

// Worker drains the request queue and resolves requests against the
// composite provider.
type Worker struct {
	queue     *queue.Store
	listener  *queue.Listener
	composite *composite.Composite
	catalog   *catalog.Client
	log       *slog.Logger
}

func New(store *queue.Store, listener *queue.Listener, comp *composite.Composite, catalogClient *catalog.Client, log *slog.Logger) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{queue: store, listener: listener, composite: comp, catalog: catalogClient, log: log.With("component", "worker")}
}

// Run blocks LISTENing on scanner_requests; on startup and on every
// notification it drains the queue until Dequeue reports empty
// (spec.md §4.8).
func (w *Worker) Run(ctx context.Context) error {
	if err := w.drain(ctx); err != nil {
		w.log.Error("initial drain failed", "error", err)
	}
	for {
		if err := w.listener.Wait(ctx); err != nil {
			return err
		}
		if err := w.drain(ctx); err != nil {
			w.log.Error("drain failed", "error", err)
		}
	}
}

func (w *Worker) drain(ctx context.Context) error {
	for {
		req, err := w.queue.Dequeue()
		if err == queue.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		w.process(ctx, req)
	}
}

func (w *Worker) process(ctx context.Context, req *queue.Request) {
	var err error
	switch req.Kind {
	case queue.KindMovie:
		err = w.processMovie(ctx, req)
	case queue.KindEpisode:
		err = w.processEpisode(ctx, req)
	}
	if err != nil {
		w.log.Error("failed to process request", "title", req.Title, "kind", req.Kind, "error", err)
		if failErr := w.queue.Fail(req.PK); failErr != nil {
			w.log.Error("failed to mark request failed", "pk", req.PK, "error", failErr)
		}
		return
	}

	newVideos, err := w.queue.Complete(req.PK)
	if err != nil {
		w.log.Error("failed to complete request", "pk", req.PK, "error", err)
		return
	}
	if delta := videoDelta(req.Videos, newVideos); len(delta) > 0 {
		w.linkDelta(ctx, req, delta)
	}
}

func (w *Worker) processMovie(ctx context.Context, req *queue.Request) error {
	movie, err := w.composite.FindMovie(ctx, req.Title, req.Year, req.ExternalID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(req.Videos))
	for _, v := range req.Videos {
		ids = append(ids, v.ID)
	}
	movie.Videos = ids
	_, err = w.catalog.PostMovie(ctx, movie)
	return err
}

func (w *Worker) processEpisode(ctx context.Context, req *queue.Request) error {
	serie, err := w.composite.FindSerie(ctx, req.Title, req.Year, req.ExternalID)
	if err != nil {
		return err
	}

	for _, v := range req.Videos {
		for _, ep := range v.Episodes {
			entry := matchEntry(serie.Entries, ep)
			if entry == nil {
				w.log.Warn("no matching entry for episode, skipping", "title", req.Title, "season", ep.Season, "episode", ep.Episode)
				continue
			}
			entry.Videos = append(entry.Videos, v.ID)
		}
	}

	_, err = w.catalog.PostSerie(ctx, serie)
	return err
}

// matchEntry locates the Entry a queued episode reference names: by
// (season, episode) when the episode carries a season, or by the serie's
// global Order when it was parsed as an absolute/seasonless number
// (spec.md §4.8).
func matchEntry(entries []providers.Entry, ep queue.VideoEpisode) *providers.Entry {
	for i := range entries {
		e := &entries[i]
		if ep.Season != nil {
			if e.SeasonNumber != nil && *e.SeasonNumber == *ep.Season && e.EpisodeNumber != nil && *e.EpisodeNumber == ep.Episode {
				return e
			}
		} else if e.Order == float64(ep.Episode) {
			return e
		}
	}
	return nil
}

// videoDelta returns videos present in after but not before: a concurrent
// enqueue merged new work into the row while this request was running
// (spec.md §4.7 "Complete").
func videoDelta(before, after []queue.VideoRef) []queue.VideoRef {
	seen := make(map[string]bool, len(before))
	for _, v := range before {
		seen[v.ID] = true
	}
	var delta []queue.VideoRef
	for _, v := range after {
		if !seen[v.ID] {
			delta = append(delta, v)
		}
	}
	return delta
}

func (w *Worker) linkDelta(ctx context.Context, req *queue.Request, delta []queue.VideoRef) {
	var links []catalog.VideoLink
	for _, v := range delta {
		if req.Kind == queue.KindMovie {
			links = append(links, catalog.VideoLink{VideoID: v.ID, Target: guess.Target{Kind: guess.TargetMovie}})
			continue
		}
		for _, ep := range v.Episodes {
			target := guess.Target{Kind: guess.TargetOrder, Order: float64(ep.Episode)}
			if ep.Season != nil {
				target = guess.Target{Kind: guess.TargetEpisode, Season: *ep.Season, Episode: ep.Episode}
			}
			links = append(links, catalog.VideoLink{VideoID: v.ID, Target: target})
		}
	}
	if err := w.catalog.LinkVideos(ctx, links); err != nil {
		w.log.Error("failed to link delta videos", "pk", req.PK, "error", err)
	}
}

