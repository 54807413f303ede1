package domain

import (
	"context"
	"io"
)

// BlobStore is the object-storage boundary for uploaded images. Put writes
// the blob at the given store-relative path, overwriting any existing blob,
// and returns the public URL that resolves to it.
type BlobStore interface {
	Put(ctx context.Context, path string, r io.Reader) (string, error)
}
