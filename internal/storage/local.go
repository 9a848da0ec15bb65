package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage implements Storage on the local filesystem. Intended for
// development and tests; production deployments use S3Storage.
type LocalStorage struct {
	dataDir string
}

func NewLocalStorage(dataDir string) *LocalStorage {
	return &LocalStorage{dataDir: dataDir}
}

func (s *LocalStorage) Save(key string, content io.Reader) (int64, error) {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(s.dataDir, key)
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, content)
	if err != nil {
		// Clean up the partial file so no orphan blob is left behind
		os.Remove(path)
		return 0, fmt.Errorf("failed to write file content: %w", err)
	}

	return size, nil
}

func (s *LocalStorage) Open(key string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(s.dataDir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object not found: %s", key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

func (s *LocalStorage) Delete(key string) error {
	if err := os.Remove(filepath.Join(s.dataDir, key)); err != nil {
		if os.IsNotExist(err) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
