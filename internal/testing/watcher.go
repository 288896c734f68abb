package testing

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"boardcheck/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce collapses editor save bursts into one re-run.
const DefaultWatchDebounce = 500 * time.Millisecond

// ScenarioWatcher re-runs the suite when scenario YAML under a path changes.
type ScenarioWatcher struct {
	path     string
	debounce time.Duration
}

// NewScenarioWatcher creates a watcher for a scenario file or directory.
func NewScenarioWatcher(path string, debounce time.Duration) *ScenarioWatcher {
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &ScenarioWatcher{path: path, debounce: debounce}
}

// Watch blocks until ctx is done, calling onChange once per debounced burst
// of YAML changes. onChange runs on the watch goroutine, so runs never
// overlap.
func (w *ScenarioWatcher) Watch(ctx context.Context, onChange func(context.Context)) error {
	if w.path == "" {
		return errors.New("watching needs a scenario path; the embedded scenarios cannot change")
	}
	info, err := os.Stat(w.path)
	if err != nil {
		return fmt.Errorf("failed to stat scenario path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// A single file is watched through its directory so that editors that
	// replace the file on save are still seen.
	onlyFile := ""
	if info.IsDir() {
		err = filepath.WalkDir(w.path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return watcher.Add(p)
			}
			return nil
		})
	} else {
		onlyFile = filepath.Clean(w.path)
		err = watcher.Add(filepath.Dir(onlyFile))
	}
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	logging.Info("ScenarioWatcher", "Watching %s for scenario changes", w.path)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && onlyFile == "" {
				if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logging.Warn("ScenarioWatcher", "Failed to watch new directory %s: %v", event.Name, err)
					}
					continue
				}
			}
			if !isYAMLFile(event.Name) {
				continue
			}
			if onlyFile != "" && filepath.Clean(event.Name) != onlyFile {
				continue
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			logging.Debug("ScenarioWatcher", "Change detected: %s", event)
			timer.Reset(w.debounce)

		case <-timer.C:
			onChange(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("ScenarioWatcher", err, "File watcher error")
		}
	}
}
