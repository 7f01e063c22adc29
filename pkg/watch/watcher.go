// Package watch re-runs analysis when Python modules change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/pygenii/genii/internal/scanner"
	"github.com/pygenii/genii/pkg/config"
)

// DefaultDebounce is used when NewWatcher is given a non-positive debounce.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors directories and reports changed modules in batches once
// they have been quiet for the debounce period.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    *config.Config
	scanner   *scanner.Scanner
	logger    zerolog.Logger
	debounce  time.Duration
	roots     []string
	callback  func(changed []string)

	mu      sync.Mutex
	pending map[string]time.Time
}

// NewWatcher creates a watcher over roots. A root may be a directory or a
// single module; for a module its parent directory is watched.
func NewWatcher(roots []string, cfg *config.Config, debounce time.Duration, logger zerolog.Logger) (*Watcher, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	abs := make([]string, 0, len(roots))
	for _, root := range roots {
		a, err := filepath.Abs(scanner.ExpandPath(root))
		if err != nil {
			fsWatcher.Close()
			return nil, err
		}
		abs = append(abs, a)
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		scanner:   scanner.NewScanner(cfg),
		logger:    logger,
		debounce:  debounce,
		roots:     abs,
		pending:   make(map[string]time.Time),
	}, nil
}

// SetCallback sets the function called with each batch of changed modules.
// The batch is sorted and holds absolute paths.
func (w *Watcher) SetCallback(fn func(changed []string)) {
	w.callback = fn
}

// Start registers the roots and processes events until ctx is done. It
// returns ctx.Err() on cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	for _, root := range w.roots {
		if err := w.addRoot(root); err != nil {
			return err
		}
	}

	w.logger.Info().
		Int("dirs", len(w.fsWatcher.WatchList())).
		Dur("debounce", w.debounce).
		Msg("watching for changes")

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) addRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return w.fsWatcher.Add(filepath.Dir(root))
	}

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.excludedDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			w.logger.Debug().Err(err).Str("dir", path).Msg("cannot watch directory")
		}
		return nil
	})
}

func (w *Watcher) excludedDir(path string) bool {
	base := filepath.Base(path)
	return slices.Contains(w.config.Exclude.Dirs, base)
}

// rootOf returns the watched root containing path, or "".
func (w *Watcher) rootOf(path string) string {
	for _, root := range w.roots {
		if path == root {
			return filepath.Dir(root)
		}
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel) {
			return root
		}
	}
	return ""
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:2] == ".." && os.IsPathSeparator(rel[2])
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Chmod) && !event.Op.Has(fsnotify.Write) {
		return
	}

	// New directories are watched as they appear.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.excludedDir(event.Name) {
				if err := w.fsWatcher.Add(event.Name); err == nil {
					w.logger.Debug().Str("dir", event.Name).Msg("watching new directory")
				}
			}
			return
		}
	}

	if !w.scanner.IsModule(event.Name) {
		return
	}
	root := w.rootOf(event.Name)
	if root != "" {
		if rel, err := filepath.Rel(root, event.Name); err == nil && w.config.ShouldExclude(rel) {
			return
		}
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
	w.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("change queued")
}

func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending hands every module quiet for the debounce period to the
// callback as one batch. Batches are delivered one at a time.
func (w *Watcher) processPending() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, changed := range w.pending {
		if now.Sub(changed) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	if len(ready) == 0 || w.callback == nil {
		return
	}
	slices.Sort(ready)
	w.logger.Info().Int("modules", len(ready)).Msg("modules changed")
	w.callback(ready)
}

// Stop closes the underlying watcher.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// WatchedDirs returns the directories currently watched.
func (w *Watcher) WatchedDirs() []string {
	return w.fsWatcher.WatchList()
}
