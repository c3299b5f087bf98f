// Package watcher reloads the macro dictionary when macros.json of the
// loaded game changes on disk
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// MacrosFile is the file whose changes trigger a reload
const MacrosFile = "macros.json"

// Refresher is the part of the game service the watcher drives
type Refresher interface {
	CurrentGame() string
	RefreshMacros(ctx context.Context) error
}

// Config holds watcher settings
type Config struct {
	// Root is the games directory; each subdirectory is a game
	Root string

	// Refresher is notified when the loaded game's macros change
	Refresher Refresher

	// Debounce collapses bursts of writes from editors. Defaults to 250ms.
	Debounce time.Duration

	Logger *zap.Logger
}

// Watcher watches the games directory
type Watcher struct {
	root      string
	refresher Refresher
	debounce  time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	pending map[string]time.Time
}

// New creates a watcher for cfg.Root
func New(cfg *Config) *Watcher {
	if cfg == nil || cfg.Refresher == nil {
		panic("refresher is required")
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Watcher{
		root:      cfg.Root,
		refresher: cfg.Refresher,
		debounce:  debounce,
		logger:    logger.Named("watcher"),
		pending:   make(map[string]time.Time),
	}
}

// Run watches until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.root); err != nil {
		return err
	}

	entries, err := os.ReadDir(w.root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			w.add(fsw, filepath.Join(w.root, entry.Name()))
		}
	}

	w.logger.Info("watching games directory", zap.String("root", w.root))

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) add(fsw *fsnotify.Watcher, dir string) {
	if err := fsw.Add(dir); err != nil {
		w.logger.Warn("failed to watch game directory", zap.String("dir", dir), zap.Error(err))
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	// a new game directory
	if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == filepath.Clean(w.root) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.add(fsw, event.Name)
		}
		return
	}

	if filepath.Base(event.Name) != MacrosFile {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	game := filepath.Base(filepath.Dir(event.Name))

	w.mu.Lock()
	w.pending[game] = time.Now()
	w.mu.Unlock()
}

// flush refreshes once the loaded game has been quiet for the debounce window
func (w *Watcher) flush(ctx context.Context, now time.Time) {
	current := w.refresher.CurrentGame()

	w.mu.Lock()
	var due bool
	for game, at := range w.pending {
		if now.Sub(at) < w.debounce {
			continue
		}
		delete(w.pending, game)
		if game == current {
			due = true
		}
	}
	w.mu.Unlock()

	if !due {
		return
	}

	if err := w.refresher.RefreshMacros(ctx); err != nil {
		w.logger.Warn("failed to reload macros", zap.String("game", current), zap.Error(err))
		return
	}
	w.logger.Info("macros reloaded from disk", zap.String("game", current))
}
