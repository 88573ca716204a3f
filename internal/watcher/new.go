package watcher

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/subflow/internal/logger"
)

// New creates a Watcher on root. With recursive set, every non-hidden
// subdirectory is watched too, including ones created later.
func New(root string, recursive bool, debounce time.Duration, handler BatchHandler, log logger.Logger) (Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Default to 2s of quiet before a batch starts
	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	w := &implWatcher{
		root:      root,
		recursive: recursive,
		debounce:  debounce,
		handler:   handler,
		logger:    log,
		watcher:   watcher,
		pending:   make(map[string]struct{}),
		busy:      make(chan struct{}, 1),
	}

	if err := w.addTree(root); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}
	return w, nil
}
