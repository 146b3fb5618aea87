package cli

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/kode4food/bpmspec/internal/util"
	"github.com/kode4food/bpmspec/pkg/log"
)

const watchedOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove |
	fsnotify.Rename

var watchedExts = util.SetOf(".yaml", ".yml", ".json")

// watch runs the patterns once, then again each time a watched file
// settles after a change. Blocks until ctx is done
func (s *session) watch(
	ctx context.Context, patterns []string, debounce time.Duration,
) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	dirs, err := watchDirs(patterns)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			return err
		}
	}
	slog.Info("Watching scenario files", slog.Any("dirs", dirs))

	s.rerun(ctx, patterns)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			s.rerun(ctx, patterns)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			slog.Debug("Scenario file changed",
				slog.String("path", ev.Name),
				slog.String("op", ev.Op.String()))
			timer.Reset(debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", log.Error(err))
		}
	}
}

// watchDirs returns the base directory of every pattern along with all of
// its subdirectories. fsnotify does not watch recursively
func watchDirs(patterns []string) ([]string, error) {
	dirs := util.Set[string]{}
	for _, p := range patterns {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(p))
		err := filepath.WalkDir(filepath.FromSlash(base),
			func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() {
					dirs.Add(path)
				}
				return nil
			},
		)
		if err != nil {
			return nil, err
		}
	}
	return util.SortedStrings(dirs), nil
}

func relevant(ev fsnotify.Event) bool {
	if ev.Op&watchedOps == 0 {
		return false
	}
	return watchedExts.Contains(strings.ToLower(filepath.Ext(ev.Name)))
}
