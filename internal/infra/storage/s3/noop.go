package s3

import (
	"context"
	"errors"
	"io"
)

// NoopStorage fails fast when object storage is not configured.
type NoopStorage struct{}

func (NoopStorage) Upload(_ context.Context, _ string, _ string, _ int64, _ io.Reader) (string, error) {
	return "", errors.New("s3 storage is not configured")
}

func (NoopStorage) Remove(_ context.Context, _ string) error {
	return errors.New("s3 storage is not configured")
}
