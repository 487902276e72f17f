package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playforge/ladder/internal/domain/model"
	"github.com/playforge/ladder/internal/domain/ranking"
	"github.com/playforge/ladder/internal/domain/types"
	"github.com/playforge/ladder/pkg/metrics"
)

// Defaults for the on-disk snapshot location.
const (
	defaultDataDir  = "data"
	defaultFileName = "leaderboard.json"

	dirPermission  = 0o755
	filePermission = 0o644
)

// FileStore persists the full record collection as one JSON snapshot on
// disk. Every mutation rewrites the whole snapshot through a temp file and
// an atomic rename, so readers never observe a partially written state and
// a crash mid-write leaves the prior snapshot intact.
//
// A single mutex serializes the entire read-modify-persist cycle of every
// mutation. Reads skip the mutex and reload the snapshot fresh; no in-memory
// copy is treated as authoritative between calls.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// FileStoreOption applies a configuration option to the FileStore.
type FileStoreOption func(*FileStore)

// WithDataDir sets the directory holding the snapshot file.
func WithDataDir(dir string) FileStoreOption {
	return func(s *FileStore) {
		if dir != "" {
			s.path = filepath.Join(dir, filepath.Base(s.path))
		}
	}
}

// WithSnapshotPath sets the full snapshot file path directly.
func WithSnapshotPath(path string) FileStoreOption {
	return func(s *FileStore) {
		if path != "" {
			s.path = path
		}
	}
}

// NewFileStore creates a file-backed store. The snapshot file and its parent
// directory are created lazily on first use.
func NewFileStore(_ context.Context, opts ...FileStoreOption) *FileStore {
	s := &FileStore{
		path: filepath.Join(defaultDataDir, defaultFileName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the record for guid, or nil when absent.
func (s *FileStore) Get(ctx context.Context, guid string) (*model.Record, error) {
	start := time.Now()
	list, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	for i := range list {
		if list[i].GUID == guid {
			rec := list[i]
			return &rec, nil
		}
	}
	return nil, nil
}

// Create adds a new record and persists the snapshot atomically.
func (s *FileStore) Create(ctx context.Context, guid string, fields model.Fields) (*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	list, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].GUID == guid {
			return nil, fmt.Errorf("create %q: %w", guid, ErrAlreadyExists)
		}
	}

	rec, err := model.NewRecord(guid, fields)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	rec.UpdatedAt = &now

	list = append(list, rec)
	if err := s.writeAll(ctx, list); err != nil {
		metrics.RecordStoreError()
		return nil, err
	}
	metrics.RecordStoreMutationLatency(float64(time.Since(start).Milliseconds()))
	metrics.UpdateRecordsTotal(len(list))
	return &rec, nil
}

// Update merges a patch over an existing record, re-normalizes the result
// and persists atomically. Returns nil when guid is absent.
func (s *FileStore) Update(ctx context.Context, guid string, patch model.Patch) (*model.Record, error) {
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	list, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range list {
		if list[i].GUID == guid {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}

	merged, err := model.Merge(list[idx], patch)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	merged.UpdatedAt = &now
	list[idx] = merged

	if err := s.writeAll(ctx, list); err != nil {
		metrics.RecordStoreError()
		return nil, err
	}
	metrics.RecordStoreMutationLatency(float64(time.Since(start).Milliseconds()))
	return &merged, nil
}

// Delete removes the record for guid, reporting whether anything changed.
func (s *FileStore) Delete(ctx context.Context, guid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	list, err := s.readAll(ctx)
	if err != nil {
		return false, err
	}

	filtered := list[:0:0]
	for i := range list {
		if list[i].GUID != guid {
			filtered = append(filtered, list[i])
		}
	}
	if len(filtered) == len(list) {
		return false, nil
	}

	if err := s.writeAll(ctx, filtered); err != nil {
		metrics.RecordStoreError()
		return false, err
	}
	metrics.RecordStoreMutationLatency(float64(time.Since(start).Milliseconds()))
	metrics.UpdateRecordsTotal(len(filtered))
	return true, nil
}

// ListPaged ranks the current snapshot and returns the requested page.
func (s *FileStore) ListPaged(ctx context.Context, page, pageSize int) (types.PageResult, error) {
	start := time.Now()
	list, err := s.readAll(ctx)
	if err != nil {
		return types.PageResult{}, err
	}
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return ranking.Paginate(list, page, pageSize), nil
}

// Count returns the number of records, best effort (0 on read failure).
func (s *FileStore) Count(ctx context.Context) int {
	list, err := s.readAll(ctx)
	if err != nil {
		return 0
	}
	return len(list)
}

// Path returns the canonical snapshot location.
func (s *FileStore) Path() string {
	return s.path
}

// ensureStorage creates the parent directory and seeds an empty snapshot
// when none exists.
func (s *FileStore) ensureStorage() error {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPermission); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if _, err := os.Stat(s.path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat snapshot: %w", err)
		}
		if err := os.WriteFile(s.path, []byte("[]"), filePermission); err != nil {
			return fmt.Errorf("seed snapshot: %w", err)
		}
	}
	return nil
}

// readAll loads the latest fully-written snapshot from disk.
func (s *FileStore) readAll(_ context.Context) ([]model.Record, error) {
	if err := s.ensureStorage(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var list []model.Record
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	return list, nil
}

// writeAll serializes the full collection to a temp file and renames it over
// the canonical path. The rename is the sole point of visible mutation.
func (s *FileStore) writeAll(_ context.Context, list []model.Record) error {
	start := time.Now()

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("open temp snapshot: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}

	metrics.RecordSnapshotWrite(float64(time.Since(start).Milliseconds()))
	return nil
}
