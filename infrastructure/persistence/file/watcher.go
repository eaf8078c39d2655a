package file

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"mindcanvas/application/store"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	watchDebounce = 300 * time.Millisecond

	// selfWriteWindow filters out events caused by our own saves
	selfWriteWindow = time.Second
)

// Watcher reloads the store when the document file changes on disk
// outside this process. Events arriving right after our own save are
// ignored using the repository's last-save timestamp.
type Watcher struct {
	store  *store.Store
	repo   *Repository
	logger *zap.Logger

	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewWatcher creates and starts a document file watcher. The parent
// directory is watched rather than the file itself, so atomic
// rename-into-place saves by other processes are still observed.
func NewWatcher(s *store.Store, repo *Repository, logger *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create document watcher: %w", err)
	}
	dir := filepath.Dir(repo.Path())
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{
		store:   s,
		repo:    repo,
		logger:  logger,
		watcher: fsWatcher,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go w.loop()
	logger.Info("watching document for external changes", zap.String("path", repo.Path()))
	return w, nil
}

// Stop halts the watcher and waits for the loop to exit. Idempotent.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
	<-w.doneCh
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	var debounce *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.repo.Path()) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if time.Since(w.repo.LastSaved()) < selfWriteWindow {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("document watcher error", zap.Error(err))

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	file, err := w.repo.Load()
	if err != nil {
		w.logger.Error("failed to reload externally changed document", zap.Error(err))
		return
	}
	if err := w.store.Deserialize(file); err != nil {
		w.logger.Error("externally changed document is invalid", zap.Error(err))
		return
	}
	w.store.MarkClean()
	w.logger.Info("document reloaded after external change",
		zap.String("path", w.repo.Path()),
		zap.Int("nodes", w.store.NodeCount()))
}
