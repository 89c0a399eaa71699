package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/drcloud/assistant/internal/logging"
)

// ReloadCallback is called when the agents config file is successfully
// reloaded. A callback error is logged but the watcher keeps watching.
type ReloadCallback func(config *AgentsFile) error

// AgentsWatcherConfig holds configuration for the AgentsWatcher.
type AgentsWatcherConfig struct {
	// FilePath is the path to the agents YAML file to watch
	FilePath string

	// DebounceMillis coalesces multiple file change events within this
	// period into a single reload. Default: 500ms.
	DebounceMillis int
}

// AgentsWatcher watches the agents config file and triggers reload
// callbacks with debouncing, so editor save sequences do not cause
// reload storms. An invalid config during reload is logged and the
// previous valid config stays in effect.
type AgentsWatcher struct {
	config   AgentsWatcherConfig
	callback ReloadCallback
	logger   *logging.Logger
	cancel   context.CancelFunc
	stopped  chan struct{}
	ready    chan struct{}
	mu       sync.Mutex

	debounceTimer *time.Timer
}

// NewAgentsWatcher creates a new watcher for the given config file.
func NewAgentsWatcher(config AgentsWatcherConfig, callback ReloadCallback) (*AgentsWatcher, error) {
	if config.FilePath == "" {
		return nil, fmt.Errorf("FilePath cannot be empty")
	}
	if callback == nil {
		return nil, fmt.Errorf("callback cannot be nil")
	}
	if config.DebounceMillis == 0 {
		config.DebounceMillis = 500
	}

	return &AgentsWatcher{
		config:   config,
		callback: callback,
		logger:   logging.GetLogger("config.watcher"),
		stopped:  make(chan struct{}),
		ready:    make(chan struct{}),
	}, nil
}

// Start loads the initial config, calls the callback, and begins
// watching for file changes. It fails fast if the initial load or
// callback fails.
func (w *AgentsWatcher) Start(ctx context.Context) error {
	initialConfig, err := LoadAgentsFile(w.config.FilePath)
	if err != nil {
		return fmt.Errorf("failed to load initial config: %w", err)
	}

	if err := w.callback(initialConfig); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	w.logger.Info("loaded initial agents config from %s", w.config.FilePath)

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go w.watchLoop(watchCtx)

	// Wait for the fsnotify watcher to initialize so file changes are
	// not missed between Start returning and the watch being in place.
	select {
	case <-w.ready:
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for file watcher to initialize")
	}

	return nil
}

// signalReady safely closes the ready channel exactly once
func (w *AgentsWatcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
}

// watchLoop is the main file watching loop
func (w *AgentsWatcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.ErrorWithErr("failed to create file watcher", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.FilePath); err != nil {
		w.logger.ErrorWithErr("failed to watch file "+w.config.FilePath, err)
		return
	}

	w.logger.Info("watching %s for changes (debounce: %dms)",
		w.config.FilePath, w.config.DebounceMillis)

	w.signalReady()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("context cancelled, stopping watcher")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Rename and remove matter for atomic writes where the old
			// file is unlinked before the new one is renamed into
			// place. The watch follows the inode, so re-add it.
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Rename == fsnotify.Rename ||
				event.Op&fsnotify.Remove == fsnotify.Remove {
				if event.Op&fsnotify.Rename == fsnotify.Rename ||
					event.Op&fsnotify.Remove == fsnotify.Remove {
					time.Sleep(50 * time.Millisecond)
					if err := watcher.Add(w.config.FilePath); err != nil {
						w.logger.Warn("failed to re-add watch after %s: %v", event.Op, err)
					}
				}
				w.handleFileChange()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.ErrorWithErr("watcher error", err)
		}
	}
}

// handleFileChange debounces change events by resetting a timer.
func (w *AgentsWatcher) handleFileChange() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(
		time.Duration(w.config.DebounceMillis)*time.Millisecond,
		w.reloadConfig,
	)
}

// reloadConfig reloads the config file and calls the callback.
// Invalid configs are logged but do not crash the watcher.
func (w *AgentsWatcher) reloadConfig() {
	newConfig, err := LoadAgentsFile(w.config.FilePath)
	if err != nil {
		w.logger.ErrorWithErr("failed to reload agents config (keeping previous config)", err)
		return
	}

	if err := w.callback(newConfig); err != nil {
		w.logger.ErrorWithErr("reload callback failed (continuing to watch)", err)
		return
	}

	w.logger.Info("agents config reloaded from %s", w.config.FilePath)
}

// Stop gracefully stops the file watcher.
func (w *AgentsWatcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}

	select {
	case <-w.stopped:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for watcher to stop")
	}
}
