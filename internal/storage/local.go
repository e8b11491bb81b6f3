package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/thorsignia/backend/internal/model"
)

// JSONFileLog stores the audit trail as a single pretty-printed JSON array.
//
// Appends from this process are serialized and each rewrite replaces the file
// atomically, so concurrent submissions never drop an entry and a crash never
// leaves a torn file. Several processes sharing one file can still race.
type JSONFileLog struct {
	path string
	mu   sync.Mutex
}

var _ SubmissionLog = (*JSONFileLog)(nil)

// NewJSONFileLog creates a JSONFileLog at path. The file and its directory are
// created on first append.
func NewJSONFileLog(path string) *JSONFileLog {
	return &JSONFileLog{path: path}
}

// Path returns the log file location.
func (l *JSONFileLog) Path() string { return l.path }

// Append reads the current array, adds entry and writes it back.
func (l *JSONFileLog) Append(ctx context.Context, entry model.BackupEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	entries, err := l.read()
	if err != nil {
		return err
	}
	entries = append(entries, entry)

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}
	if err := atomic.WriteFile(l.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("storage: write: %w", err)
	}
	return nil
}

func (l *JSONFileLog) read() ([]model.BackupEntry, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.BackupEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []model.BackupEntry{}, nil
	}
	var entries []model.BackupEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", l.path, err)
	}
	return entries, nil
}
