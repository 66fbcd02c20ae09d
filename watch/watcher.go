// Package watch re-runs the pipeline when project sources change.
// Changes are debounced and each flush triggers a full re-parse; the
// graph is cheap to rebuild and incremental invalidation is not worth
// its complexity at typical project sizes.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/halcyon-dev/angraph/frontend"
	"github.com/halcyon-dev/angraph/parser"
)

// Config configures the watcher.
type Config struct {
	// Root is the project directory to watch.
	Root string

	// Parse configures each rebuild.
	Parse parser.Options

	// DebounceDelay is how long to wait for further changes before
	// rebuilding. Defaults to 300ms.
	DebounceDelay time.Duration

	Logger *slog.Logger
}

// Event is one rebuild outcome.
type Event struct {
	// Changed lists the root-relative paths that triggered the rebuild.
	Changed []string

	// Result is the new parse result; nil when Err is set.
	Result *parser.Result

	Err error
}

// Watcher drives debounced rebuilds over a project tree.
type Watcher struct {
	config  Config
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]struct{}

	events chan Event
}

// NewWatcher creates a watcher. Call Start to begin, then consume
// Events until the context ends.
func NewWatcher(config Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.DebounceDelay == 0 {
		config.DebounceDelay = 300 * time.Millisecond
	}
	config.Parse.Root = config.Root

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]struct{}),
		events:  make(chan Event, 16),
	}, nil
}

// Events returns the rebuild event channel.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start adds recursive watches and begins processing in a goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.config.Root); err != nil {
		return err
	}
	go w.processEvents(ctx)

	w.logger.Info("watching project", "root", w.config.Root, "debounce", w.config.DebounceDelay)
	return nil
}

// Stop closes the underlying filesystem watcher. The event channel is
// closed by the processing goroutine once it drains, so a rebuild in
// flight can still deliver its result.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// skippedDir mirrors the scanner's directory pruning.
func skippedDir(name string) bool {
	switch name {
	case "node_modules", "dist", "coverage":
		return true
	}
	return strings.HasPrefix(name, ".")
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && skippedDir(filepath.Base(path)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("watch failed", "path", path, "error", err)
		}
		return nil
	})
}

// processEvents is the only sender on w.events, so closing the channel
// here cannot race a send.
func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if !frontend.IsSourceFile(path) {
		// New directories need their own watches.
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() && !skippedDir(filepath.Base(path)) {
				if err := w.watcher.Add(path); err != nil {
					w.logger.Warn("watch failed", "path", path, "error", err)
				}
			}
		}
		return
	}

	rel, err := filepath.Rel(w.config.Root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	w.pendingMu.Lock()
	w.pending[rel] = struct{}{}
	w.pendingMu.Unlock()

	w.logger.Debug("change detected", "path", rel, "op", event.Op.String())
}

// flushPending rebuilds once for all changes accumulated during the
// debounce window.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for rel := range w.pending {
		changed = append(changed, rel)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	w.logger.Info("rebuilding", "changed", len(changed))
	result, err := parser.ParseProject(ctx, w.config.Parse)

	select {
	case w.events <- Event{Changed: changed, Result: result, Err: err}:
	case <-ctx.Done():
	}
}
