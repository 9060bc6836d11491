package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Get for a missing key
var ErrNotExist = errors.New("object does not exist")

// Store keeps opaque blobs, used to share manifest archives between instances.
type Store interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, r io.Reader) error
	Exists(ctx context.Context, key string) (bool, error)
}
