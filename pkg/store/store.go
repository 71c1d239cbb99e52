// Package store provides byte-level document storage keyed by URI.
//
// A [Store] holds encoded documents. Backends cover local files, HTTP
// endpoints, Redis, Badger, MongoDB and memory; a [Router] picks one by
// URI scheme:
//
//	r := store.NewRouter(store.NewMemory())
//	r.Handle("file", store.NewLocal())
//	r.Handle("http", store.NewHTTP(nil))
//	data, ok, err := r.Get(ctx, "file:///data/users.json")
//
// Backends report misses as ok=false rather than as errors. Wrap a store
// with [Instrument] to feed the observability store hooks.
package store

import (
	"context"
	"time"
)

// Store is the interface implemented by every backend.
type Store interface {
	// Get returns the data stored under key. ok is false on a miss.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A ttl of zero keeps it forever; backends
	// without expiry ignore ttl.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the backend.
	Close() error
}
