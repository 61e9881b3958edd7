package fs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last raw image event
// before a rebuild is triggered.
const DefaultDebounce = 500 * time.Millisecond

const rebuildKey = "rebuild"

// RebuildFunc is invoked once per debounced burst of raw image changes.
type RebuildFunc func(ctx context.Context) error

// WatchWorker watches the raw image directory and triggers rebuilds.
// It follows the lifecycle worker model so it can run under a supervisor.
type WatchWorker struct {
	*worker.BaseWorker
	dir       string
	pattern   string
	delay     time.Duration
	rebuild   RebuildFunc
	logger    *slog.Logger
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc

	runMu sync.Mutex // serializes rebuilds

	statsMu     sync.Mutex
	triggers    int
	failures    int
	lastTrigger time.Time
}

// WatchOption configures a WatchWorker.
type WatchOption func(*WatchWorker)

// WithDebounce sets the quiet period before a rebuild.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *WatchWorker) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithWatchLogger sets the logger.
func WithWatchLogger(logger *slog.Logger) WatchOption {
	return func(w *WatchWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithWatchPattern sets the glob that raw filenames must match.
func WithWatchPattern(pattern string) WatchOption {
	return func(w *WatchWorker) {
		if pattern != "" {
			w.pattern = pattern
		}
	}
}

// NewWatchWorker creates a worker watching dir.
func NewWatchWorker(dir string, rebuild RebuildFunc, opts ...WatchOption) *WatchWorker {
	w := &WatchWorker{
		BaseWorker: worker.NewBaseWorker("raw-watcher"),
		dir:        dir,
		pattern:    RawPattern,
		delay:      DefaultDebounce,
		rebuild:    rebuild,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WatchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(w.delay)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	w.logger.Info("watching raw images", "dir", w.dir, "pattern", w.pattern)
	return w.StartFunc(runCtx, w.run)
}

func (w *WatchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *WatchWorker) State() worker.State {
	w.statsMu.Lock()
	meta := map[string]string{
		worker.MetadataType: string(worker.TypeGoroutine),
		"dir":               w.dir,
		"triggers":          strconv.Itoa(w.triggers),
		"failures":          strconv.Itoa(w.failures),
	}
	if !w.lastTrigger.IsZero() {
		meta["last_trigger"] = w.lastTrigger.Format(time.RFC3339)
	}
	w.statsMu.Unlock()

	return w.ExportState(func(s *worker.State) {
		s.Metadata = meta
	})
}

// ComponentType implements introspection.Component.
func (w *WatchWorker) ComponentType() string {
	return "watcher"
}

// Triggers returns how many rebuilds have been dispatched.
func (w *WatchWorker) Triggers() int {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.triggers
}

// relevant reports whether the event names a raw image that was created,
// written or renamed.
func (w *WatchWorker) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	if isTempFile(name) {
		return false
	}
	ok, err := doublestar.Match(strings.ToLower(w.pattern), strings.ToLower(name))
	return err == nil && ok
}

// dispatch runs the rebuild in a tracked goroutine. Rebuilds never overlap.
func (w *WatchWorker) dispatch(ctx context.Context) {
	w.statsMu.Lock()
	w.triggers++
	w.lastTrigger = time.Now()
	w.statsMu.Unlock()

	lifecycle.Go(ctx, func(ctx context.Context) error {
		w.runMu.Lock()
		defer w.runMu.Unlock()

		if ctx.Err() != nil {
			return nil
		}
		if err := w.rebuild(ctx); err != nil {
			w.statsMu.Lock()
			w.failures++
			w.statsMu.Unlock()
			w.logger.Error("rebuild failed", "error", err)
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		w.logger.Error("rebuild panic", "error", err)
	}))
}

// run is the main event loop for the watcher worker.
func (w *WatchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			if w.logger.Enabled(ctx, slog.LevelDebug) {
				w.logger.Error("watcher panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				w.logger.Error("watcher panic", "error", panicErr)
			}
			err = panicErr
		}
	}()
	defer w.watcher.Close()

	err = w.mainEventLoop(ctx)

	// Wait for in-flight timers so no rebuild is dispatched after shutdown.
	w.debouncer.stopAndWait(5 * time.Second)

	return err
}

func (w *WatchWorker) mainEventLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.logger.Debug("event received", "name", event.Name, "op", event.Op.String())
			if !w.relevant(event) {
				continue
			}
			w.debouncer.add(rebuildKey, func() { w.dispatch(ctx) })

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("fsnotify error", "error", wErr)
		}
	}
}
