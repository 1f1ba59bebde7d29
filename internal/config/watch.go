package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the user config file when it changes on disk. Invalid
// edits are logged and the running config is kept.
type Watcher struct {
	Path string
	Live *Live
	// Load reads the file; nil means Load.
	Load     func(path string) (Config, error)
	Debounce time.Duration
	Log      *zap.Logger
}

// Run blocks until ctx is done. The parent directory is watched, not the file,
// because SaveAtomic replaces the file by rename.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.Path)); err != nil {
		return err
	}

	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config")
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	target := filepath.Clean(w.Path)

	var fire <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
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
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))

		case <-fire:
			fire = nil
			w.reload(log)
		}
	}
}

func (w *Watcher) reload(log *zap.Logger) {
	load := w.Load
	if load == nil {
		load = Load
	}
	cfg, err := load(w.Path)
	if err != nil {
		log.Warn("reload failed, keeping current config", zap.String("path", w.Path), zap.Error(err))
		return
	}
	cfg, res := NormalizeAndValidate(cfg)
	if !res.OK() {
		log.Warn("reloaded config is invalid, keeping current config",
			zap.String("path", w.Path), zap.Strings("errors", res.Errors))
		return
	}
	for _, warn := range res.Warnings {
		log.Info("config warning", zap.String("warning", warn))
	}
	w.Live.Set(cfg)
	log.Info("config reloaded", zap.String("path", w.Path))
}
