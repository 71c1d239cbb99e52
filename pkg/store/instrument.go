package store

import (
	"context"
	"time"

	"github.com/matzehuels/graphjson/pkg/observability"
)

// Instrumented reports hits, misses and writes of an inner store to the
// registered observability.StoreHooks under a backend name.
type Instrumented struct {
	Store
	backend string
}

// Instrument wraps s. backend labels the reported events.
func Instrument(backend string, s Store) *Instrumented {
	return &Instrumented{Store: s, backend: backend}
}

func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := i.Store.Get(ctx, key)
	switch {
	case err != nil:
	case ok:
		observability.Store().OnStoreHit(ctx, i.backend)
	default:
		observability.Store().OnStoreMiss(ctx, i.backend)
	}
	return data, ok, err
}

func (i *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := i.Store.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Store().OnStoreSet(ctx, i.backend, len(data))
	return nil
}
