package watcher

import (
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/blackwell-systems/dumbinstall/internal/errors"
	"github.com/blackwell-systems/dumbinstall/internal/exclude"
	"github.com/blackwell-systems/dumbinstall/internal/logging"
)

// DefaultDebounce is the quiet period after the last event before the
// callback runs.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a source tree and runs a callback once per burst of
// changes.
type Watcher struct {
	root     string
	ex       exclude.Set
	onChange func() error
	debounce time.Duration
	logger   zerolog.Logger

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
	runs    int
	lastErr error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a Watcher for root. Entries matching ex are neither watched nor
// reported.
func New(root string, ex exclude.Set, onChange func() error, opts ...Option) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New(errors.ErrInvalidInput, "change callback cannot be nil")
	}
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotFound, "source directory %s does not exist", root)
		}
		return nil, errors.Wrapf(err, errors.ErrFilesystem, "stat %s", root)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrInvalidInput, "%s is not a directory", root)
	}

	w := &Watcher{
		root:     root,
		ex:       ex,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   logging.GetLogger("watcher"),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start registers the tree, runs the callback once so the install starts out
// current, and begins processing events in the background.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.started || w.stopped {
		w.mu.Unlock()
		return errors.New(errors.ErrInvalidInput, "watcher already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return errors.Wrap(err, errors.ErrFilesystem, "create filesystem watcher")
	}
	w.fsw = fsw
	if err := w.addTree(w.root); err != nil {
		fsw.Close()
		w.mu.Unlock()
		return err
	}
	w.started = true
	w.mu.Unlock()

	w.sync()

	w.wg.Add(1)
	go w.run()
	return nil
}

// run collects events until stopped and fires the callback after each quiet
// period.
func (w *Watcher) run() {
	defer w.wg.Done()

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending int
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			pending++
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
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Filesystem watcher error")

		case <-fire:
			fire = nil
			w.logger.Debug().Int("events", pending).Msg("Change burst settled")
			pending = 0
			w.sync()

		case <-w.stopCh:
			return
		}
	}
}

// relevant filters excluded paths and registers directories created under
// the root.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return false
	}
	if w.ignored(ev.Name) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn().Err(err).Str("dir", ev.Name).Msg("Failed to watch new directory")
			}
		}
	}
	w.logger.Trace().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("Source changed")
	return true
}

func (w *Watcher) sync() {
	err := w.onChange()
	if err != nil {
		w.logger.Error().Err(err).Str("source", w.root).Msg("Sync after change failed")
	}
	w.mu.Lock()
	w.runs++
	w.lastErr = err
	w.mu.Unlock()
}

// Runs reports how many times the callback has run and its last error.
func (w *Watcher) Runs() (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs, w.lastErr
}

// Stop halts the watcher. Stopping a watcher that never started is a no-op.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	started := w.started
	w.mu.Unlock()

	close(w.stopCh)
	if !started {
		return nil
	}
	w.wg.Wait()
	if err := w.fsw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrFilesystem, "close filesystem watcher")
	}
	return nil
}
