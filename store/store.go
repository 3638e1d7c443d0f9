// Package store provides the object store abstraction the sync job reads
// domain files from. A Bucket is bound to a single bucket and exposes the
// three operations the job needs: a bounded prefix listing, a whole-object
// read and a whole-object write.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned (wrapped) by Get when the key does not exist.
var ErrNotFound = errors.New("object not found")

// Bucket is an object store bound to one bucket.
//
// Example:
//
//	keys, err := bucket.List(ctx, "qa/", 1)
//	if err != nil {
//	    return err
//	}
//	if len(keys) == 0 {
//	    // folder is empty
//	}
type Bucket interface {
	// Name returns the bucket name, used for logging.
	Name() string
	// List returns at most limit keys starting with prefix in a single
	// request. A limit <= 0 leaves the page size to the backend.
	List(ctx context.Context, prefix string, limit int32) ([]string, error)
	// Get returns the full content of key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put replaces the content of key.
	Put(ctx context.Context, key string, data []byte, contentType string) error
}
