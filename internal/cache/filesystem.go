package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agromandi-lab/agromandi/internal/core/market"
)

// FileSystemStore keeps one pretty-printed JSON file per key under a root
// directory. Freshness comes from the file's modification time — there is
// no index and no sweeper, matching the layout the service has always used.
type FileSystemStore struct {
	dir   string
	ttl   time.Duration
	nowFn func() time.Time
}

// NewFileSystemStore creates the root directory if needed.
func NewFileSystemStore(dir string, ttl time.Duration) (*FileSystemStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", dir, err)
	}
	return &FileSystemStore{
		dir:   dir,
		ttl:   ttl,
		nowFn: time.Now,
	}, nil
}

func (s *FileSystemStore) path(key Key) string {
	return filepath.Join(s.dir, key.Filename())
}

// Get reads the entry if it exists and is younger than the TTL.
func (s *FileSystemStore) Get(_ context.Context, key Key) (*market.AggregationResult, error) {
	path := s.path(key)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("stat cache file %s: %w", path, err)
	}
	if s.nowFn().Sub(info.ModTime()) >= s.ttl {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cache file %s: %w", path, err)
	}

	var result market.AggregationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding cache file %s: %w", path, err)
	}
	return &result, nil
}

// Put overwrites the entry for key. The write goes through a temp file and
// rename so a concurrent reader never sees a torn entry.
func (s *FileSystemStore) Put(_ context.Context, key Key, result *market.AggregationResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}

	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, key.Filename()+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file for %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache file %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing cache file %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming cache file %s: %w", path, err)
	}
	return nil
}
