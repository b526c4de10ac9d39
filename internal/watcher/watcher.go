// Package watcher provides file watching with debouncing using fsnotify.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of writes to
// settle before reporting a change.
const DefaultDebounce = 150 * time.Millisecond

// ErrAlreadyStarted is returned by Start on a running watcher.
var ErrAlreadyStarted = errors.New("watcher already started")

// ChangeFunc is called once per settled burst of changes to the watched file.
type ChangeFunc func(path string)

// ErrorFunc receives errors reported by the underlying fsnotify watcher.
type ErrorFunc func(err error)

// FileWatcher reports changes to a single file. It watches the parent
// directory so editors that save by rename keep being tracked.
type FileWatcher struct {
	path     string
	debounce time.Duration
	onChange ChangeFunc
	onError  ErrorFunc
	logger   *slog.Logger

	mu         sync.Mutex
	fsw        *fsnotify.Watcher
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithDebounce sets the debounce window. Zero reports every event.
func WithDebounce(d time.Duration) Option {
	return func(w *FileWatcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithErrorHandler sets the callback for watcher errors.
func WithErrorHandler(fn ErrorFunc) Option {
	return func(w *FileWatcher) {
		w.onError = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *FileWatcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a FileWatcher for path. onChange may be nil.
func New(path string, onChange ChangeFunc, opts ...Option) *FileWatcher {
	w := &FileWatcher{
		path:     filepath.Clean(path),
		debounce: DefaultDebounce,
		onChange: onChange,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Path returns the watched file.
func (w *FileWatcher) Path() string { return w.path }

// Start begins watching in a background goroutine.
func (w *FileWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		return ErrAlreadyStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancelFunc = cancel

	w.wg.Add(1)
	go w.run(ctx, fsw)

	w.logger.Debug("watcher started", "path", w.path, "debounce", w.debounce)
	return nil
}

// Stop halts the watcher and waits for the loop to exit. Safe to call more
// than once.
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	cancel, fsw := w.cancelFunc, w.fsw
	w.cancelFunc, w.fsw = nil, nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
	if fsw != nil {
		fsw.Close()
		w.logger.Debug("watcher stopped", "path", w.path)
	}
}

// Running reports whether the watcher is active.
func (w *FileWatcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fsw != nil
}

func (w *FileWatcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("watcher event", "op", ev.Op.String(), "name", ev.Name)
			if w.debounce == 0 {
				w.fire()
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			w.fire()

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "path", w.path, "error", err)
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *FileWatcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (w *FileWatcher) fire() {
	if w.onChange != nil {
		w.onChange(w.path)
	}
}
