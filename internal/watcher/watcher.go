package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// DefaultDebounce is how long the watcher waits for further triggers before
// refreshing.
const DefaultDebounce = 500 * time.Millisecond

// Refresher reloads the inventory. *source.AppSource implements it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Options configures a Watcher. An empty Path disables file watching and
// an empty Schedule disables the cron trigger.
type Options struct {
	Path     string
	Schedule string
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher triggers refreshes of its target on file changes and on a
// schedule.
type Watcher struct {
	target   Refresher
	path     string
	schedule string
	debounce time.Duration
	logger   *slog.Logger

	fsw     *fsnotify.Watcher
	cron    *cron.Cron
	trigger chan string
	stopCh  chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	stopOnce sync.Once
}

// New creates a new Watcher instance.
func New(target Refresher, opts Options) (*Watcher, error) {
	if target == nil {
		return nil, fmt.Errorf("refresh target cannot be nil")
	}
	if opts.Debounce == 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	w := &Watcher{
		target:   target,
		path:     opts.Path,
		schedule: opts.Schedule,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		trigger:  make(chan string, 1),
		stopCh:   make(chan struct{}),
	}
	if w.path != "" {
		abs, err := filepath.Abs(w.path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve inventory path: %w", err)
		}
		w.path = abs
	}
	return w, nil
}

// Start sets up the file watch and the schedule, then refreshes once
// immediately.
func (w *Watcher) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	if w.path != "" {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			cancel()
			return fmt.Errorf("failed to create file watcher: %w", err)
		}
		if err := fsw.Add(filepath.Dir(w.path)); err != nil {
			fsw.Close()
			cancel()
			return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
		}
		w.fsw = fsw

		w.wg.Add(1)
		go w.runFileEvents()
	}

	if w.schedule != "" {
		w.cron = cron.New()
		if _, err := w.cron.AddFunc(w.schedule, func() { w.Trigger("schedule") }); err != nil {
			w.closeFileWatcher()
			cancel()
			return fmt.Errorf("invalid schedule %q: %w", w.schedule, err)
		}
		w.cron.Start()
	}

	w.wg.Add(1)
	go w.runRefresher(ctx)

	w.Trigger("startup")
	return nil
}

// Trigger requests a refresh. Requests arriving while one is pending are
// merged into it.
func (w *Watcher) Trigger(reason string) {
	select {
	case w.trigger <- reason:
	default:
	}
}

// runFileEvents turns writes to the inventory file into triggers.
func (w *Watcher) runFileEvents() {
	defer w.wg.Done()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if matchesInventory(ev, w.path) {
				w.logger.Debug("inventory changed", "path", ev.Name, "op", ev.Op.String())
				w.Trigger("file")
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		case <-w.stopCh:
			return
		}
	}
}

// runRefresher debounces triggers and runs one refresh at a time.
func (w *Watcher) runRefresher(ctx context.Context) {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	var pending string
	for {
		select {
		case reason := <-w.trigger:
			pending = reason
			timer.Reset(w.debounce)
		case <-timer.C:
			w.refresh(ctx, pending)
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) refresh(ctx context.Context, reason string) {
	start := time.Now()
	if err := w.target.Refresh(ctx); err != nil {
		if ctx.Err() == nil {
			w.logger.Error("refresh failed", "reason", reason, "error", err)
		}
		return
	}
	w.logger.Info("refreshed inventory", "reason", reason, "duration", time.Since(start))
}

// Stop halts the watcher and waits for an in-flight refresh to finish.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.cron != nil {
			<-w.cron.Stop().Done()
		}
		if w.cancel != nil {
			w.cancel()
		}
		w.closeFileWatcher()
	})

	w.wg.Wait()
	return nil
}

func (w *Watcher) closeFileWatcher() {
	if w.fsw != nil {
		w.fsw.Close()
	}
}
