package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/subflow/internal/discover"
	"github.com/nguyentantai21042004/subflow/internal/logger"
)

type implWatcher struct {
	root      string
	recursive bool
	debounce  time.Duration
	handler   BatchHandler
	logger    logger.Logger
	watcher   *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]struct{}
	// busy holds a token while a batch runs
	busy chan struct{}
	wg   sync.WaitGroup
}

// Start collects video events and hands them to the handler once the
// library has been quiet for the debounce interval.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started (debounce %s). Monitoring: %s", w.debounce, w.root)

	var timer *time.Timer
	var fire <-chan time.Time
	arm := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			timer.Reset(w.debounce)
		}
		fire = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for ongoing batch to complete...")
			w.wg.Wait()
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if w.handleEvent(ctx, event) {
				arm()
			}

		case <-fire:
			fire = nil
			if !w.dispatch(ctx) {
				arm()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

// handleEvent updates the pending set and reports whether the debounce
// timer should restart.
func (w *implWatcher) handleEvent(ctx context.Context, event fsnotify.Event) bool {
	if isHidden(event.Name) {
		return false
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.mu.Lock()
		delete(w.pending, event.Name)
		w.mu.Unlock()
		return false
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}

	if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
		if !w.recursive || !event.Has(fsnotify.Create) {
			return false
		}
		if err := w.addTree(event.Name); err != nil {
			w.logger.Warn(ctx, "Cannot watch %s: %v", event.Name, err)
		}
		// files may have landed before the watch was added
		videos, err := discover.Collect(event.Name, true)
		if err != nil {
			w.logger.Warn(ctx, "Cannot list %s: %v", event.Name, err)
		}
		w.add(videos...)
		return len(videos) > 0
	}

	if !discover.IsVideo(event.Name) {
		w.logger.Debug(ctx, "Ignoring non-video file: %s", event.Name)
		return false
	}
	w.add(event.Name)
	return true
}

// dispatch starts a batch with everything pending. It reports false when a
// previous batch is still running.
func (w *implWatcher) dispatch(ctx context.Context) bool {
	select {
	case w.busy <- struct{}{}:
	default:
		return false
	}

	batch := w.drain()
	if len(batch) == 0 {
		<-w.busy
		return true
	}

	w.logger.Info(ctx, "Detected %d new or changed video(s)", len(batch))
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() { <-w.busy }()
		w.handler(ctx, batch)
	}()
	return true
}

func (w *implWatcher) add(paths ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range paths {
		w.pending[p] = struct{}{}
	}
}

func (w *implWatcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.pending))
	for p := range w.pending {
		out = append(out, p)
	}
	w.pending = make(map[string]struct{})
	sort.Strings(out)
	return out
}

func (w *implWatcher) addTree(dir string) error {
	if !w.recursive {
		return w.watcher.Add(dir)
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
