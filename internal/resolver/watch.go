package resolver

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// WeightsSource holds the weights used for new sessions and optionally
// reloads them when the backing YAML file changes.
type WeightsSource struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	current Weights
}

// NewWeightsSource loads path, or returns defaults when path is empty.
func NewWeightsSource(path string, logger *slog.Logger) (*WeightsSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ws := &WeightsSource{path: path, logger: logger, current: DefaultWeights()}
	if path == "" {
		return ws, nil
	}
	w, err := LoadWeights(path)
	if err != nil {
		return nil, err
	}
	ws.current = w
	return ws, nil
}

// Current returns the weights for the next session.
func (ws *WeightsSource) Current() Weights {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.current
}

// Reload re-reads the weights file. A broken file keeps the previous weights.
func (ws *WeightsSource) Reload() error {
	if ws.path == "" {
		return nil
	}
	w, err := LoadWeights(ws.path)
	if err != nil {
		return err
	}
	ws.mu.Lock()
	ws.current = w
	ws.mu.Unlock()
	ws.logger.Info("scoring weights reloaded", "path", ws.path)
	return nil
}

// WatchAndReload watches the weights file's directory and reloads on change.
// It blocks until done is closed. Sessions already running keep the weights
// they started with.
func (ws *WeightsSource) WatchAndReload(done <-chan struct{}) error {
	if ws.path == "" {
		<-done
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files via rename, so watch the directory.
	dir := filepath.Dir(ws.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch dir %q: %w", dir, err)
	}
	target := filepath.Clean(ws.path)

	for {
		select {
		case <-done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if err := ws.Reload(); err != nil {
					ws.logger.Warn("weights reload failed", "path", ws.path, "error", err)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
