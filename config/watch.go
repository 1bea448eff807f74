package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher 监听配置文件变化，防抖后重新加载并回调。
// 监听的是所在目录，编辑器"写临时文件再 rename"的保存方式同样能触发。
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *zap.Logger
	fw       *fsnotify.Watcher
}

// NewWatcher registers the watch synchronously, so changes made after it
// returns are never missed.
func NewWatcher(path string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = fw.Close()
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch config dir: %w", err)
	}
	return &Watcher{path: abs, debounce: debounce, logger: logger, fw: fw}, nil
}

// Run blocks until ctx is done. onUpdate receives every config that loads
// and validates; invalid edits are logged and skipped.
func (w *Watcher) Run(ctx context.Context, onUpdate func(AppConfig)) error {
	defer w.fw.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			cfg, err := LoadWithEnvOverrides(w.path)
			if err != nil {
				w.logger.Warn("config_reload_failed", zap.String("path", w.path), zap.Error(err))
				continue
			}
			w.logger.Info("config_reloaded", zap.String("path", w.path))
			if onUpdate != nil {
				onUpdate(cfg)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config_watch_error", zap.Error(err))
		}
	}
}

// Close releases the underlying watcher without running it.
func (w *Watcher) Close() error { return w.fw.Close() }
