// Package history persists the question log as a JSON array or a SQLite table.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/pkg/filesystem"
	"github.com/doeshing/puremath/internal/ports"
)

// FileStore keeps the log as one JSON array, rewritten in full on every
// append.
type FileStore struct {
	path string
	log  ports.Logger
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string, log ports.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

// Append adds record to the end of the log. A log that cannot be read is
// left untouched and the record is dropped.
func (f *FileStore) Append(record domain.QuestionLogRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	records, err := f.read()
	if err != nil {
		f.log.Warn("question log unreadable, record not saved", map[string]interface{}{
			"path":  f.path,
			"error": err.Error(),
		})
		return fmt.Errorf("read question log %s: %w", f.path, err)
	}
	records = append(records, record)

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return err
	}
	return filesystem.WriteFileAtomic(f.path, data, 0o644)
}

// Records returns up to limit entries, newest first, whose question,
// response or username contains search.
func (f *FileStore) Records(limit int, search string) ([]domain.QuestionLogRecord, error) {
	f.mu.Lock()
	records, err := f.read()
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var out []domain.QuestionLogRecord
	for i := len(records) - 1; i >= 0; i-- {
		if !matches(records[i], search) {
			continue
		}
		out = append(out, records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ExportJSON writes every record, oldest first, as JSON lines to dest.
func (f *FileStore) ExportJSON(dest string) error {
	f.mu.Lock()
	records, err := f.read()
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return writeJSONLines(dest, records)
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// Clear removes the log file.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (f *FileStore) read() ([]domain.QuestionLogRecord, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var records []domain.QuestionLogRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

var _ ports.QuestionLogRepository = (*FileStore)(nil)
