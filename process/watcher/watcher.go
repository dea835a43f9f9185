// Package watcher feeds videos dropped into an inbox directory to a handler
// through a bounded worker pool.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"handscan/internal/hands"
)

// Handler processes one file. A nil error moves the file to processed/,
// anything else to failed/.
type Handler func(ctx context.Context, path string) error

type Watcher struct {
	Dir     string
	Workers int
	// Quiet is how long a file must go without writes before it is handed
	// over. Defaults to two seconds.
	Quiet time.Duration
	// Accept filters file names; nil accepts everything.
	Accept func(name string) bool
	Handle Handler
	Logger *zap.Logger

	inflight sync.Map
}

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

func (w *Watcher) log() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}

func (w *Watcher) accept(name string) bool {
	return w.Accept == nil || w.Accept(name)
}

// listFiles returns the accepted regular files already in dir, sorted.
func (w *Watcher) listFiles() []string {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !w.accept(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

// Run processes the files already present, then watches for new ones until
// ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(w.Dir); err != nil {
		return err
	}
	quiet := w.Quiet
	if quiet <= 0 {
		quiet = 2 * time.Second
	}
	workers := max(w.Workers, 1)
	w.log().Info("watching inbox", zap.String("dir", w.Dir), zap.Int("workers", workers))

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan string, 256)

	g.Go(func() error {
		defer close(jobs)
		for _, name := range w.listFiles() {
			if !w.dispatch(gctx, jobs, name) {
				return nil
			}
		}
		return w.debounce(gctx, fw, jobs, quiet)
	})
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for name := range jobs {
				w.process(gctx, name)
			}
			return nil
		})
	}
	return g.Wait()
}

// dispatch queues name unless it is already queued or running. It returns
// false once ctx is done.
func (w *Watcher) dispatch(ctx context.Context, jobs chan<- string, name string) bool {
	if _, busy := w.inflight.LoadOrStore(name, struct{}{}); busy {
		return true
	}
	select {
	case jobs <- name:
		return true
	case <-ctx.Done():
		w.inflight.Delete(name)
		return false
	}
}

// debounce collects create and write events and releases a file once it
// has been quiet for the given period.
func (w *Watcher) debounce(ctx context.Context, fw *fsnotify.Watcher, jobs chan<- string, quiet time.Duration) error {
	pending := map[string]time.Time{}
	ticker := time.NewTicker(quiet / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(ev.Name)
			if !w.accept(name) {
				continue
			}
			pending[name] = time.Now()
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) < quiet {
					continue
				}
				delete(pending, name)
				if !w.dispatch(ctx, jobs, name) {
					return nil
				}
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log().Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) process(ctx context.Context, name string) {
	defer w.inflight.Delete(name)
	src := filepath.Join(w.Dir, name)
	if fi, err := os.Stat(src); err != nil || !fi.Mode().IsRegular() {
		return
	}
	dest := ProcessedDir
	if err := w.Handle(ctx, src); err != nil {
		w.log().Warn("inbox file failed", zap.String("file", name), zap.Error(err))
		dest = FailedDir
	} else {
		w.log().Info("inbox file processed", zap.String("file", name))
	}
	if ctx.Err() != nil {
		// leave the file for the next run
		return
	}
	if err := hands.MoveFile(src, filepath.Join(w.Dir, dest, name)); err != nil {
		w.log().Warn("failed to move inbox file", zap.String("file", name), zap.String("to", dest), zap.Error(err))
	}
}
