package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oscalarm/oscalarm/internal/alarm"
	"github.com/oscalarm/oscalarm/pkg/logger"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 250 * time.Millisecond

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	Logger   logger.Logger
	Debounce time.Duration
}

// Watcher reloads the settings file when it changes on disk and hands the
// result to onChange. It needs the store to live on the OS filesystem.
type Watcher struct {
	store    *Store
	onChange func(alarm.Settings)
	log      logger.Logger
	debounce time.Duration
}

func NewWatcher(store *Store, onChange func(alarm.Settings), opts *WatcherOptions) *Watcher {
	if opts == nil {
		opts = &WatcherOptions{}
	}
	w := &Watcher{
		store:    store,
		onChange: onChange,
		log:      logger.OrNop(opts.Logger),
		debounce: opts.Debounce,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	return w
}

// Run watches until ctx is done. The parent directory is watched rather
// than the file so that replace-by-rename saves are seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.store.Path())
	if err := w.store.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("ensure dir %s: %w", dir, err)
	}
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var (
		pending *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.store.Path() {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if pending == nil {
				pending = time.NewTimer(w.debounce)
			} else {
				pending.Reset(w.debounce)
			}
			fire = pending.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	st, err := w.store.Load()
	if err != nil {
		w.log.Warning("ignoring external edit: %v", err)
		return
	}
	w.log.Info("reloaded %s", w.store.Path())
	w.onChange(st)
}
