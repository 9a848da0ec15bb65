package storage

import (
	"fmt"
	"io"

	cfg "github.com/mycloudhq/mycloud/internal/config"
)

// Storage is the persistent object store the file service writes blobs to.
// Keys are system-generated storage names, never user-supplied.
type Storage interface {
	// Save stores the content under key and returns the number of bytes
	// actually written. Callers must use this count as the authoritative
	// file size, never client-supplied metadata.
	Save(key string, content io.Reader) (int64, error)

	// Open returns a reader for the stored content
	Open(key string) (io.ReadCloser, error)

	// Delete removes the content at key
	Delete(key string) error
}

// New creates the storage backend selected by configuration
func New(c *cfg.Config) (Storage, error) {
	switch c.StorageDriver {
	case "s3":
		return NewS3Storage(S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
		})
	case "local":
		return NewLocalStorage(c.LocalDataDir), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}
