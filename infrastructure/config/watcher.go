package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 100 * time.Millisecond

// Watcher keeps the configuration current by watching its file. Every
// change is re-loaded and re-validated; a broken file leaves the
// previous configuration in place. Each applied change bumps the
// generation, which the update scheduler reads as "rebuild now".
type Watcher struct {
	path   string
	logger *zap.Logger
	fsw    *fsnotify.Watcher

	mu      sync.RWMutex
	current *Config

	generation atomic.Uint64
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewWatcher starts watching the given configuration file. initial is
// the configuration already loaded from that file at startup.
func NewWatcher(path string, initial *Config, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %s: %w", path, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory, not the file: editors that write through a
	// rename would otherwise detach the watch.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	w := &Watcher{
		path:    abs,
		logger:  logger,
		fsw:     fsw,
		current: initial,
		stopCh:  make(chan struct{}),
	}
	go w.watchLoop()

	logger.Info("Configuration hot reload enabled", zap.String("path", abs))
	return w, nil
}

// Current returns the live configuration
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Generation identifies the currently applied configuration
func (w *Watcher) Generation() uint64 {
	return w.generation.Load()
}

// RebuildInterval is the live updater interval
func (w *Watcher) RebuildInterval() time.Duration {
	return time.Duration(w.Current().Updater.Interval)
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) watchLoop() {
	var debounce *time.Timer

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.logger.Debug("Configuration file changed",
				zap.String("operation", event.Op.String()),
			)

			// Debounce: editors fire several events per save
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, w.reload)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			if debounce != nil {
				debounce.Stop()
			}
			return
		}
	}
}

// reload re-reads the file and applies the result when it is valid
// and different from the current configuration.
func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error("Configuration reload failed, keeping previous",
			zap.String("path", w.path),
			zap.Error(err),
		)
		return
	}

	w.mu.Lock()
	if reflect.DeepEqual(w.current, cfg) {
		w.mu.Unlock()
		w.logger.Debug("Configuration unchanged after reload")
		return
	}
	w.current = cfg
	w.mu.Unlock()

	gen := w.generation.Add(1)
	w.logger.Info("Configuration reloaded",
		zap.String("path", w.path),
		zap.Uint64("generation", gen),
	)
}
