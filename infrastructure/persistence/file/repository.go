// Package file persists the mindmap document as JSON on disk.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"mindcanvas/application/compat"
	"mindcanvas/application/store"
	pkgerrors "mindcanvas/pkg/errors"

	"go.uber.org/zap"
)

// Repository reads and writes the document file. Writes are atomic:
// the file is written to a temp sibling and renamed into place, so a
// crash mid-save never corrupts the previous document.
type Repository struct {
	path   string
	logger *zap.Logger

	mu        sync.Mutex
	lastSaved time.Time
}

// NewRepository creates a repository for the document at path
func NewRepository(path string, logger *zap.Logger) *Repository {
	return &Repository{path: path, logger: logger}
}

// Path returns the document file path
func (r *Repository) Path() string {
	return r.path
}

// Exists reports whether the document file is present
func (r *Repository) Exists() bool {
	_, err := os.Stat(r.path)
	return err == nil
}

// LastSaved returns the time of the most recent successful save by
// this process, zero if none.
func (r *Repository) LastSaved() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSaved
}

// Load reads the document from disk. Files in the legacy flat format
// are migrated transparently; the next save writes the current format.
func (r *Repository) Load() (store.DocumentFile, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return store.DocumentFile{}, pkgerrors.NewNotFoundError(fmt.Sprintf("document %s", r.path))
		}
		return store.DocumentFile{}, pkgerrors.NewIOError(fmt.Sprintf("failed to read %s", r.path), err)
	}

	if compat.IsLegacyDocument(raw) {
		var legacy compat.LegacyDocument
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return store.DocumentFile{}, pkgerrors.NewIOError(fmt.Sprintf("failed to parse legacy document %s", r.path), err)
		}
		r.logger.Info("migrating legacy document",
			zap.String("path", r.path),
			zap.Int("nodes", len(legacy.Nodes)))
		return compat.MigrateLegacy(legacy, r.logger)
	}

	var file store.DocumentFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return store.DocumentFile{}, pkgerrors.NewIOError(fmt.Sprintf("failed to parse document %s", r.path), err)
	}
	return file, nil
}

// Save writes the document atomically
func (r *Repository) Save(file store.DocumentFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return pkgerrors.NewIOError("failed to encode document", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pkgerrors.NewIOError(fmt.Sprintf("failed to create directory %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp-*")
	if err != nil {
		return pkgerrors.NewIOError("failed to create temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return pkgerrors.NewIOError("failed to write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return pkgerrors.NewIOError("failed to sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return pkgerrors.NewIOError("failed to close temp file", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return pkgerrors.NewIOError(fmt.Sprintf("failed to replace %s", r.path), err)
	}

	r.lastSaved = time.Now()
	r.logger.Debug("document saved",
		zap.String("path", r.path),
		zap.Int("bytes", len(data)))
	return nil
}
