package contentstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore stores blobs as files named by their content address under a
// root directory, sharded by the first two address bytes.
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create content store root: %w", err)
	}
	return &FileStore{root: dir}, nil
}

func (s *FileStore) path(address string) string {
	shard := "00"
	if len(address) >= 2 {
		shard = address[:2]
	}
	return filepath.Join(s.root, shard, address)
}

// Put implements Store.
func (s *FileStore) Put(_ context.Context, data []byte) (string, error) {
	addr := Address(data)
	p := s.path(addr)

	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	// Content-addressed writes are idempotent: an existing file already
	// holds identical bytes.
	if _, err := os.Stat(p); err == nil {
		return addr, nil
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return addr, nil
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, address string) ([]byte, error) {
	data, err := os.ReadFile(s.path(address))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, nil
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, address string) error {
	err := os.Remove(s.path(address))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", address, err)
	}
	return nil
}
