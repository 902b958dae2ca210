package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/feichai0017/docintel/pkg/logger"
	"github.com/feichai0017/docintel/pkg/storage/memory"
	"github.com/feichai0017/docintel/pkg/storage/minio"
	"github.com/feichai0017/docintel/pkg/storage/s3"
)

type StorageType string

const (
	StorageTypeS3     StorageType = "s3"
	StorageTypeMinio  StorageType = "minio"
	StorageTypeMemory StorageType = "memory"
)

// ErrNotFound is returned by Get for a missing object
var ErrNotFound = memory.ErrNotFound

// Storage holds uploaded documents and serialized analysis results
type Storage interface {
	Store(ctx context.Context, reader io.Reader, filename string) (string, error)
	Get(ctx context.Context, fileID string) (io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

func NewStorage(ctx context.Context, storageType StorageType, log logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeS3:
		return s3.NewS3Storage(ctx, log)
	case StorageTypeMinio:
		return minio.NewMinioStorage(ctx, log)
	case StorageTypeMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// IsNotFound reports whether err means the object does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || s3.IsNotFound(err) || minio.IsNotFound(err)
}
