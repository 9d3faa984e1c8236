package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	xlog "github.com/firstone/holidays-google-poly/internal/log"
)

// Watcher re-reads the config file when it changes on disk. This is how a
// pasted auth code reaches the daemon without a restart: the user saves the
// file, the watcher fires, and the new Config is handed to the callback.
type Watcher struct {
	path     string
	dataDir  string
	onChange func(*Config)
	debounce time.Duration
}

// NewWatcher creates a watcher for the config file at path. onChange is
// invoked with each successfully re-loaded configuration.
func NewWatcher(path, dataDir string, onChange func(*Config)) *Watcher {
	return &Watcher{
		path:     path,
		dataDir:  dataDir,
		onChange: onChange,
		debounce: 250 * time.Millisecond,
	}
}

// Run blocks until ctx is cancelled. The parent directory is watched rather
// than the file itself: editors and atomic writers replace the file by
// rename, which would otherwise drop the watch.
func (w *Watcher) Run(ctx context.Context) error {
	logger := xlog.WithComponent("config.watch")

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return err
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			// Coalesce bursts of events from a single save.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Str("event", "config.watch_error").Msg("config watcher error")
		case <-fire:
			cfg, err := Load(w.path, w.dataDir)
			if err != nil {
				logger.Error().Err(err).Str("event", "config.reload_failed").
					Str("path", w.path).Msg("ignoring invalid config change")
				continue
			}
			logger.Info().Str("event", "config.reloaded").Str("path", w.path).
				Msg("configuration reloaded")
			w.onChange(cfg)
		}
	}
}
