package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 150 * time.Millisecond

// Watcher reloads config.yml when it changes on disk and delivers each
// successfully parsed config on Changes.
type Watcher struct {
	loader    *Loader
	fs        *fsnotify.Watcher
	changes   chan Config
	closeCh   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// Watch starts watching the directory holding the loader's file. Watching
// the directory keeps working when editors replace the file.
func Watch(loader *Loader) (*Watcher, error) {
	if loader == nil || loader.Path() == "" {
		return nil, fmt.Errorf("config: watch requires a path")
	}
	dir := filepath.Dir(loader.Path())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("config: create dir: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: new watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", dir, err)
	}
	w := &Watcher{
		loader:  loader,
		fs:      fsw,
		changes: make(chan Config, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Changes receives reloaded configs. Only the newest pending one is kept.
func (w *Watcher) Changes() <-chan Config {
	return w.changes
}

// Run blocks until ctx ends, calling apply for every reload.
func (w *Watcher) Run(ctx context.Context, apply func(Config)) error {
	for {
		select {
		case <-ctx.Done():
			return w.Close()
		case <-w.done:
			return nil
		case cfg := <-w.changes:
			if apply != nil {
				apply(cfg)
			}
		}
	}
}

// Close stops the watcher. Safe to call multiple times.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closeCh)
		err = w.fs.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	target := filepath.Clean(w.loader.Path())
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-w.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("config: watcher error", slog.Any("err", err))
		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, changed, err := w.loader.Load()
	if err != nil {
		slog.Warn("config: reload failed", slog.String("path", w.loader.Path()), slog.Any("err", err))
		return
	}
	if !changed {
		return
	}
	slog.Info("config: reloaded", slog.String("path", w.loader.Path()))
	select {
	case <-w.changes:
	default:
	}
	w.changes <- cfg
}
