package store

import (
	"context"
	"time"
)

// Null is a store that never keeps anything.
// Useful for testing or when caching should be disabled.
type Null struct{}

// NewNull creates a null store.
func NewNull() Store {
	return Null{}
}

// Get always returns a miss.
func (Null) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set does nothing.
func (Null) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (Null) Delete(ctx context.Context, key string) error {
	return nil
}

// Close does nothing.
func (Null) Close() error {
	return nil
}

var _ Store = Null{}
