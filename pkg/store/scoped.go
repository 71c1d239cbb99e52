package store

import (
	"context"
	"time"
)

// Scoped prefixes every key before handing it to an inner store. It
// gives tenants or environments separate namespaces in a shared backend:
//
//	staging := store.NewScoped(redisStore, "staging:")
//	staging.Set(ctx, "file:///a.json", data, 0) // key "staging:file:///a.json"
type Scoped struct {
	inner  Store
	prefix string
}

// NewScoped wraps inner with prefix. Scopes nest: the prefixes concatenate.
func NewScoped(inner Store, prefix string) *Scoped {
	if inner == nil {
		inner = NewNull()
	}
	if s, ok := inner.(*Scoped); ok {
		return &Scoped{inner: s.inner, prefix: s.prefix + prefix}
	}
	return &Scoped{inner: inner, prefix: prefix}
}

// Prefix returns the full key prefix.
func (s *Scoped) Prefix() string { return s.prefix }

func (s *Scoped) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *Scoped) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.prefix+key, data, ttl)
}

func (s *Scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

// Close closes the inner store.
func (s *Scoped) Close() error { return s.inner.Close() }
