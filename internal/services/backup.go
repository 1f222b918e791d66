package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/lidercheck/apiserver/internal/db"
	"github.com/lidercheck/apiserver/internal/storage"
	"go.uber.org/zap"
)

const backupPrefix = "backups/"

// ErrSnapshotUnsupported is returned when the live store cannot be copied
// into a single file.
var ErrSnapshotUnsupported = errors.New("database snapshot is only supported for sqlite")

// BackupStore is the object storage backups are written to.
type BackupStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]storage.Object, error)
}

// BackupService stores client exports and copies of the live database.
type BackupService struct {
	db      *sql.DB
	dialect db.Dialect
	store   BackupStore
	logger  *zap.Logger
	now     func() time.Time
}

func NewBackupService(handle *sql.DB, dialect db.Dialect, store BackupStore, logger *zap.Logger) *BackupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{db: handle, dialect: dialect, store: store, logger: logger, now: time.Now}
}

// Save decodes a base64 payload, optionally prefixed by a data URL header,
// and stores it under the base name of fileName.
func (s *BackupService) Save(ctx context.Context, fileName, payload string) (string, error) {
	name := backupName(fileName)
	if name == "" {
		return "", ErrInvalidInput
	}
	if i := strings.LastIndex(payload, ";base64,"); i >= 0 {
		payload = payload[i+len(";base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", fmt.Errorf("%w: payload is not base64", ErrInvalidInput)
	}

	key := backupPrefix + name
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/octet-stream"); err != nil {
		return "", fmt.Errorf("store backup %s: %w", key, err)
	}
	s.logger.Info("backup saved", zap.String("key", key), zap.Int("bytes", len(data)))
	return key, nil
}

// List returns the stored backups.
func (s *BackupService) List(ctx context.Context) ([]storage.Object, error) {
	return s.store.List(ctx, backupPrefix)
}

// Open returns a stored backup by name.
func (s *BackupService) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	name = backupName(name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	return s.store.Get(ctx, backupPrefix+name)
}

// Delete removes a stored backup by name.
func (s *BackupService) Delete(ctx context.Context, name string) error {
	name = backupName(name)
	if name == "" {
		return ErrInvalidInput
	}
	return s.store.Delete(ctx, backupPrefix+name)
}

// Snapshot copies the live SQLite database into a temporary file and opens
// it. Closing the reader removes the copy.
func (s *BackupService) Snapshot(ctx context.Context) (io.ReadCloser, int64, error) {
	if s.dialect != db.SQLite {
		return nil, 0, ErrSnapshotUnsupported
	}

	dir, err := os.MkdirTemp("", "lidercheck-snapshot-*")
	if err != nil {
		return nil, 0, err
	}
	target := filepath.Join(dir, "snapshot.db")
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", target); err != nil {
		_ = os.RemoveAll(dir)
		return nil, 0, fmt.Errorf("vacuum into %s: %w", target, err)
	}

	f, err := os.Open(target)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		_ = os.RemoveAll(dir)
		return nil, 0, err
	}
	return &snapshotFile{File: f, dir: dir}, info.Size(), nil
}

// Archive stores a snapshot of the live database and returns its key.
func (s *BackupService) Archive(ctx context.Context) (string, error) {
	r, size, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	defer r.Close()

	key := backupPrefix + "lidercheck-" + s.now().UTC().Format("20060102-150405") + ".db"
	if err := s.store.Put(ctx, key, r, size, "application/vnd.sqlite3"); err != nil {
		return "", fmt.Errorf("store snapshot %s: %w", key, err)
	}
	s.logger.Info("database archived", zap.String("key", key), zap.Int64("bytes", size))
	return key, nil
}

func backupName(fileName string) string {
	name := path.Base(filepath.ToSlash(strings.TrimSpace(fileName)))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}

type snapshotFile struct {
	*os.File
	dir string
}

func (f *snapshotFile) Close() error {
	err := f.File.Close()
	if rmErr := os.RemoveAll(f.dir); err == nil {
		err = rmErr
	}
	return err
}
