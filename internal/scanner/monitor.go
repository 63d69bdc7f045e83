package scanner

import (
	"context"
	"os"

	"github.com/fsnotify/fsnotify"

	"github.com/kyoo-project/scanner/internal/guess"
)

// Monitor watches the scanner root and applies incremental updates as
// filesystem events arrive: a new directory triggers a recursive scan of
// just that subtree, a new video file is identified and posted directly,
// a removal deletes the path from the catalog, and modifications are a
// no-op (spec.md §4.6 "Monitor").
func (s *Scanner) Monitor(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addRecursive(watcher, s.cfg.Root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, watcher, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Error("watcher error", "error", err)
		}
	}
}

func (s *Scanner) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event) {
	if s.shouldIgnore(event.Name) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if err := addRecursive(watcher, event.Name); err != nil {
				s.log.Error("failed to watch new directory", "path", event.Name, "error", err)
			}
			if err := s.scanSubtree(ctx, event.Name); err != nil {
				s.log.Error("failed to scan new directory", "path", event.Name, "error", err)
			}
			return
		}
		if isVideo(event.Name) {
			s.identifyAndRegisterOne(ctx, event.Name)
		}

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		if err := s.catalog.DeleteVideos(ctx, []string{event.Name}); err != nil {
			s.log.Error("failed to delete removed video", "path", event.Name, "error", err)
		}

	case event.Op.Has(fsnotify.Write):
		// modified: no-op, matches the source's monitor policy.
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return walkDirs(root, func(dir string) error {
		return watcher.Add(dir)
	})
}

func walkDirs(root string, visit func(dir string) error) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	if err := visit(root); err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := walkDirs(root+"/"+e.Name(), visit); err != nil {
				return err
			}
		}
	}
	return nil
}

// scanSubtree re-runs the full-scan reconciliation scoped to a newly added
// directory, without the remove_deleted pass (a monitor event only ever
// adds).
func (s *Scanner) scanSubtree(ctx context.Context, dir string) error {
	sub := &Scanner{cfg: Config{Root: dir, IgnorePattern: s.cfg.IgnorePattern}, catalog: s.catalog, queue: s.queue, xem: s.xem, log: s.log}
	return sub.Scan(ctx, false)
}

func (s *Scanner) identifyAndRegisterOne(ctx context.Context, path string) {
	state, err := s.catalog.GetKnownState(ctx)
	if err != nil {
		s.log.Error("failed to fetch known state", "error", err)
		return
	}
	v, err := s.identify(path, state, s.xemHint(ctx))
	if err != nil {
		s.log.Warn("failed to parse path, skipping", "path", path, "error", err)
		return
	}
	if err := s.registerAndEnqueue(ctx, []guess.Video{v}); err != nil {
		s.log.Error("failed to register video", "path", path, "error", err)
	}
}
