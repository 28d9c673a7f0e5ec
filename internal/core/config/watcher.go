package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"scriptls/internal/core/errors"

	"github.com/fsnotify/fsnotify"
)

const defaultReloadDebounce = 100 * time.Millisecond

// ReloadError reports a configuration file that changed but could not be
// applied. The previous configuration stays in effect.
type ReloadError struct {
	Path string
	Err  error
}

func (e *ReloadError) Error() string {
	return fmt.Sprintf("reload %s: %v", e.Path, e.Err)
}

func (e *ReloadError) Unwrap() error { return e.Err }

type WatcherOptions struct {
	Debounce time.Duration
	Logger   *slog.Logger
	// OnError receives every *ReloadError. Failures are only logged when nil.
	OnError func(error)
}

// Watcher reloads a scriptls.toml file when it is saved and hands the new
// configuration to onReload.
type Watcher struct {
	path     string
	onReload func(*Config)
	opts     WatcherOptions
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewWatcher(path string, onReload func(*Config), opts WatcherOptions) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultReloadDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		onReload: onReload,
		opts:     opts,
		logger:   logger.With("config", path),
	}
}

// Start watches the directory holding the file, so editors that save by
// replacing the file are noticed too.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.CodeUnavailable, "create config watcher")
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return errors.AddContext(errors.Wrap(err, errors.CodeUnavailable, "watch config directory"), "path", w.path)
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.loop(ctx, fsw)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer close(w.done)
	defer fsw.Close()

	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) == w.path && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				timer.Reset(w.opts.Debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		case <-timer.C:
			if _, err := w.Reload(); err != nil {
				w.fail(err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Reload reads the file now. A configuration that fails to load or to
// validate after environment overrides is returned as a *ReloadError and
// onReload is not called.
func (w *Watcher) Reload() (*Config, error) {
	cfg, err := Load(w.path)
	if err != nil {
		return nil, &ReloadError{Path: w.path, Err: err}
	}
	ApplyEnvOverrides(cfg)
	if errs := Validate(cfg); len(errs) > 0 {
		return nil, &ReloadError{Path: w.path, Err: errs[0]}
	}

	w.logger.Info("configuration reloaded")
	if w.onReload != nil {
		w.onReload(cfg)
	}
	return cfg, nil
}

func (w *Watcher) fail(err error) {
	if w.opts.OnError != nil {
		w.opts.OnError(err)
		return
	}
	w.logger.Warn("configuration not reloaded", "code", errors.CodeOf(err), "error", err)
}

// Stop ends watching and waits for the loop to exit. It is safe to call
// more than once and before Start.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		if w.cancel == nil {
			return
		}
		w.cancel()
		<-w.done
	})
}
