// Package storage publishes converted output trees to a local mirror or to
// S3 compatible object storage.
package storage

import (
	"context"
	"io"
)

// Adapter is a storage backend. Keys are slash separated relative paths.
type Adapter interface {
	// Put stores data under key, replacing existing object.
	Put(ctx context.Context, key string, data io.Reader) error
	// Exists reports whether object with key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// List returns keys starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes object, missing object is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}
