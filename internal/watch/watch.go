package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gubarz/twchain/internal/apply"
	"github.com/gubarz/twchain/internal/logging"
	"github.com/gubarz/twchain/internal/workspace"
)

// Watcher rewrites eligible files in place whenever they change
type Watcher struct {
	root      string
	rewriter  *workspace.Rewriter
	applier   *apply.Applier
	debounce  time.Duration
	log       *zap.Logger
	onRewrite func(workspace.FileChange)
}

// New creates a watcher for the tree under root
func New(root string, rw *workspace.Rewriter, a *apply.Applier) *Watcher {
	return &Watcher{
		root:     root,
		rewriter: rw,
		applier:  a,
		debounce: 100 * time.Millisecond,
		log:      zap.NewNop(),
	}
}

// WithDebounce sets how long a path must be quiet before it is rewritten
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// WithLogger sets the logger
func (w *Watcher) WithLogger(l *zap.Logger) *Watcher {
	w.log = logging.OrNop(l)
	return w
}

// OnRewrite registers a callback invoked after each file is written
func (w *Watcher) OnRewrite(fn func(workspace.FileChange)) *Watcher {
	w.onRewrite = fn
	return w
}

// Run rewrites the whole tree once, then keeps watching until ctx is done.
// Rewrites are idempotent, so the event caused by our own write settles
// without a second change.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher error: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.root); err != nil {
		return err
	}
	if err := w.rewriteTree(ctx, w.root); err != nil {
		return err
	}
	w.log.Info("watching", zap.String("root", w.root))

	fired := make(chan string)
	timers := make(map[string]*time.Timer)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	schedule := func(path string) {
		if t, ok := timers[path]; ok {
			t.Stop()
		}
		timers[path] = time.AfterFunc(w.debounce, func() {
			select {
			case fired <- path:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fsw, ev, schedule)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case path := <-fired:
			delete(timers, path)
			w.rewrite(path)
		}
	}
}

// handleEvent schedules eligible files and starts watching new directories
func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event, schedule func(string)) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.rewriter.Hook().ExcludedDir(info.Name()) {
				return
			}
			if err := w.addTree(fsw, ev.Name); err != nil {
				w.log.Warn("cannot watch directory", zap.String("path", ev.Name), zap.Error(err))
				return
			}
			files, err := w.rewriter.Collect(ctx, []string{ev.Name})
			if err != nil {
				w.log.Warn("cannot scan directory", zap.String("path", ev.Name), zap.Error(err))
				return
			}
			for _, f := range files {
				schedule(f)
			}
			return
		}
	}

	if w.rewriter.Hook().Eligible(ev.Name) {
		w.log.Debug("change detected", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
		schedule(ev.Name)
	}
}

// addTree watches dir and every non-excluded directory below it
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	hook := w.rewriter.Hook()
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && hook.ExcludedDir(d.Name()) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
	if err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	return nil
}

// rewriteTree runs one full pass over dir
func (w *Watcher) rewriteTree(ctx context.Context, dir string) error {
	files, err := w.rewriter.Collect(ctx, []string{dir})
	if err != nil {
		return err
	}
	changes, err := w.rewriter.Run(ctx, files)
	if err != nil {
		return err
	}
	for _, fc := range changes {
		w.write(fc)
	}
	return nil
}

// rewrite rewrites one file if it still exists and needs expanding
func (w *Watcher) rewrite(path string) {
	fc, err := w.rewriter.RewriteFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.log.Debug("file vanished before rewrite", zap.String("path", path))
		} else {
			w.log.Warn("rewrite failed", zap.String("path", path), zap.Error(err))
		}
		return
	}
	if fc != nil {
		w.write(*fc)
	}
}

func (w *Watcher) write(fc workspace.FileChange) {
	if err := w.applier.Apply([]workspace.FileChange{fc}, apply.ModeWrite); err != nil {
		w.log.Warn("write failed", zap.String("path", fc.Path), zap.Error(err))
		return
	}
	w.log.Info("expanded chained classes",
		zap.String("path", fc.Path),
		zap.Int("tokens", len(fc.Changes)))
	if w.onRewrite != nil {
		w.onRewrite(fc)
	}
}
