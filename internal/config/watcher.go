package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the configuration file when it changes on disk.
// Reloads are debounced; a file that fails to load or validate is ignored.
type Watcher struct {
	configPath    string
	watcher       *fsnotify.Watcher
	onChange      func(*Config)
	validate      func(*Config) error
	logger        *slog.Logger
	debounce      time.Duration
	timerMu       sync.Mutex
	debounceTimer *time.Timer
}

// NewWatcher watches configPath. validate may be nil.
func NewWatcher(configPath string, validate func(*Config) error, onChange func(*Config), logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	configPath = filepath.Clean(configPath)

	// Watch the directory: editors often replace the file instead of writing it.
	if err := fsWatcher.Add(filepath.Dir(configPath)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		configPath: configPath,
		watcher:    fsWatcher,
		onChange:   onChange,
		validate:   validate,
		logger:     logger,
		debounce:   500 * time.Millisecond,
	}, nil
}

// Start blocks until ctx is done or the underlying watcher is closed
func (w *Watcher) Start(ctx context.Context) error {
	defer w.watcher.Close()
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != w.configPath {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Config watcher error",
				slog.Any("error", err),
			)
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
}

func (w *Watcher) reload() {
	w.logger.Info("Config file changed, reloading",
		slog.String("path", w.configPath),
	)

	cfg, err := Load(w.configPath)
	if err != nil {
		w.logger.Error("Failed to reload config",
			slog.String("path", w.configPath),
			slog.Any("error", err),
		)
		return
	}

	if w.validate != nil {
		if err := w.validate(cfg); err != nil {
			w.logger.Error("Reloaded config is invalid, keeping previous settings",
				slog.String("path", w.configPath),
				slog.Any("error", err),
			)
			return
		}
	}

	w.onChange(cfg)
}
