package watch

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/mdredirect/internal/docs"
	"git.home.luguber.info/inful/mdredirect/internal/foundation/errors"
	"git.home.luguber.info/inful/mdredirect/internal/logfields"
)

// DefaultDebounce is the quiet window used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Watcher.
type Options struct {
	// Debounce is the per-file quiet window before a rewrite.
	Debounce time.Duration
	// SweepInterval schedules a full rewrite of the tree. Zero disables it.
	SweepInterval time.Duration
	// Mode selects whether rewritten documents are written back.
	Mode docs.Mode
	// InitialSweep rewrites the whole tree once before watching.
	InitialSweep bool
	// OnResult is called after every processed document.
	OnResult func(docs.FileResult)
	Logger   *slog.Logger
}

// Watcher rewrites markdown files below a root as they change.
type Watcher struct {
	root      string
	processor *docs.Processor
	opts      Options
	logger    *slog.Logger

	fs        *fsnotify.Watcher
	debouncer *debouncer

	readyOnce sync.Once
	ready     chan struct{}

	// processMu serializes rewrites from events and sweeps.
	processMu sync.Mutex

	mu sync.Mutex
	// ownWrites maps paths written by the watcher to the end of the window in
	// which their events are ignored.
	ownWrites map[string]time.Time
}

// New creates a Watcher for root.
func New(root string, processor *docs.Processor, opts Options) (*Watcher, error) {
	if processor == nil {
		return nil, errors.ValidationError("processor is required").Build()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "resolve watch root").
			WithContext("path", root).
			Build()
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "stat watch root").
			WithContext("path", abs).
			Build()
	}
	if !info.IsDir() {
		return nil, errors.ValidationError("watch root must be a directory").
			WithContext("path", abs).
			Build()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.SweepInterval < 0 {
		return nil, errors.ValidationError("sweep interval must not be negative").Build()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	w := &Watcher{
		root:      abs,
		processor: processor,
		opts:      opts,
		logger:    opts.Logger.With(logfields.Path(abs)),
		ready:     make(chan struct{}),
		ownWrites: make(map[string]time.Time),
	}
	w.debouncer = newDebouncer(opts.Debounce, w.processPath)
	return w, nil
}

// Ready is closed once Run watches the whole tree.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.fs = fsw
	defer func() {
		w.debouncer.Stop()
		if err := fsw.Close(); err != nil {
			w.logger.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	if _, err := w.addTree(w.root); err != nil {
		return err
	}

	if w.opts.InitialSweep {
		w.sweep(ctx)
	}

	if w.opts.SweepInterval > 0 {
		sched, err := NewScheduler()
		if err != nil {
			return err
		}
		if _, err := sched.ScheduleEvery("sweep", w.opts.SweepInterval, func() { w.sweep(ctx) }); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				w.logger.Warn("Error stopping scheduler", logfields.Error(err))
			}
		}()
	}

	w.logger.Info("Watching for markdown changes",
		slog.Duration("debounce", w.opts.Debounce),
		slog.Duration("sweep_interval", w.opts.SweepInterval),
		slog.String("mode", w.opts.Mode.String()))
	w.readyOnce.Do(func() { close(w.ready) })

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping watcher")
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", logfields.Error(err))
		}
	}
}

// addTree watches dir and every directory below it that is not skipped. It
// returns the selected documents found on the way.
func (w *Watcher) addTree(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directories can disappear between the event and the walk.
			if stderrors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			if d.Type().IsRegular() && w.selected(path) {
				files = append(files, path)
			}
			return nil
		}
		if path != w.root && docs.SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "watch directory").
				WithContext("path", path).
				Build()
		}
		w.logger.Debug("Watching directory", slog.String("dir", path))
		return nil
	})
	return files, err
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if docs.SkipDir(filepath.Base(path)) {
				return
			}
			// Files created together with the directory produce no events of
			// their own.
			files, err := w.addTree(path)
			if err != nil {
				w.logger.Warn("Failed to watch new directory", logfields.Error(err))
			}
			for _, f := range files {
				w.debouncer.Trigger(f)
			}
			return
		}
	}

	if !w.selected(path) || w.isOwnWrite(path) {
		return
	}
	w.logger.Debug("Markdown change detected", logfields.Event(event.Op.String()), slog.String("file", path))
	w.debouncer.Trigger(path)
}

func (w *Watcher) selected(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	return w.processor.Selector().Match(rel)
}

func (w *Watcher) isOwnWrite(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	until, ok := w.ownWrites[path]
	if !ok {
		return false
	}
	if time.Now().Before(until) {
		return true
	}
	delete(w.ownWrites, path)
	return false
}

func (w *Watcher) markOwnWrite(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ownWrites[path] = time.Now().Add(w.opts.Debounce)
}

// processPath rewrites one document and writes it back when it changed.
func (w *Watcher) processPath(path string) {
	w.processMu.Lock()
	defer w.processMu.Unlock()

	res, err := w.processor.ProcessFile(path)
	if err != nil {
		if !stderrors.Is(err, fs.ErrNotExist) {
			w.logger.Warn("Failed to process document", logfields.Error(err))
		}
		return
	}
	if res.Changed && w.opts.Mode == docs.ModeWrite {
		w.markOwnWrite(path)
		if err := docs.WriteResult(res); err != nil {
			w.logger.Error("Failed to write document", logfields.Error(err))
			return
		}
		w.logger.Info("Document rewritten", slog.String("file", path), logfields.Matches(res.Matches()))
	}
	if w.opts.OnResult != nil {
		w.opts.OnResult(res)
	}
}

// sweep rewrites every selected document below the root.
func (w *Watcher) sweep(ctx context.Context) {
	files, err := w.processor.Expand([]string{w.root})
	if err != nil {
		w.logger.Warn("Sweep failed", logfields.Error(err))
		return
	}
	w.logger.Debug("Sweeping documents", slog.Int("files", len(files)))
	for _, f := range files {
		if ctx.Err() != nil {
			return
		}
		w.processPath(f)
	}
}
