package policies

import (
	"context"
	"io"
)

// PhotoStoragePort puts listing photos into object storage and hands back a
// public URL.
type PhotoStoragePort interface {
	Upload(ctx context.Context, key string, contentType string, size int64, body io.Reader) (string, error)
	Remove(ctx context.Context, key string) error
}
