package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ayurtrace/ayurtrace/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("blob",
	fx.Provide(New),
)

type Driver string

const (
	DriverMemory Driver = "memory"
	DriverS3     Driver = "s3"
)

var ErrNotFound = errors.New("blob not found")

type Info struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Store keeps generated documents. Put overwrites an existing key.
type Store interface {
	Driver() Driver
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// URL returns a link a client can fetch the object from.
	URL(ctx context.Context, key string) (string, error)
}

// New picks the backend from BLOB_DRIVER.
func New(cfg config.Config, log *zap.Logger) (Store, error) {
	log = log.Named("blob")
	switch Driver(strings.ToLower(strings.TrimSpace(cfg.Blob.Driver))) {
	case DriverS3:
		store, err := NewS3Store(context.Background(), cfg.Blob)
		if err != nil {
			return nil, fmt.Errorf("open s3 blob store: %w", err)
		}
		log.Info("using s3 blob store", zap.String("bucket", cfg.Blob.Bucket))
		return store, nil
	case DriverMemory, "":
		log.Info("using in-memory blob store")
		return NewMemoryStore(cfg.PublicBaseURL + "/public/blobs"), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Blob.Driver)
	}
}

// CleanKey rejects keys that could escape their prefix.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return key, nil
}
