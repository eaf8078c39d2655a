package config

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 500 * time.Millisecond

// Watcher hot-reloads the configuration file in development. Changed
// values are re-validated before replacing the current config;
// registered callbacks run on every successful reload.
type Watcher struct {
	path      string
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopOnce  sync.Once
	stopCh    chan struct{}
}

// NewWatcher creates a configuration watcher. Hot reloading only
// activates in development; in production the watcher is inert and
// GetConfig simply returns the initial configuration.
func NewWatcher(path string, initial *Config, logger *zap.Logger) (*Watcher, error) {
	w := &Watcher{
		path:   path,
		config: initial,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if !initial.IsDevelopment() || path == "" {
		logger.Info("configuration hot reloading disabled",
			zap.String("environment", initial.Server.Environment))
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(path); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch config file %s: %w", path, err)
	}
	w.watcher = fsWatcher

	go w.watchLoop()
	logger.Info("configuration hot reloading enabled", zap.String("file", path))
	return w, nil
}

// GetConfig returns the current configuration
func (w *Watcher) GetConfig() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// OnChange registers a callback invoked after every successful reload
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// Stop stops the watcher. Idempotent.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
}

func (w *Watcher) watchLoop() {
	var debounce *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Info("configuration file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()))
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	next, err := Load(w.path)
	if err != nil {
		w.logger.Error("invalid configuration after reload", zap.Error(err))
		return
	}

	w.mu.Lock()
	if reflect.DeepEqual(w.config, next) {
		w.mu.Unlock()
		w.logger.Debug("configuration unchanged after reload")
		return
	}
	w.config = next
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	for _, callback := range callbacks {
		go func(cb func(*Config)) {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("config change callback panicked", zap.Any("panic", r))
				}
			}()
			cb(next)
		}(callback)
	}

	w.logger.Info("configuration reloaded", zap.Int("callbacks", len(callbacks)))
}
