package store

import (
	"context"
	"errors"
	"sync"
	"time"

	gjerrors "github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/uri"
)

// Router dispatches each key to the store registered for its URI scheme.
// Keys without a scheme, or with an unregistered one, go to the fallback.
type Router struct {
	mu       sync.RWMutex
	schemes  map[string]Store
	fallback Store
}

// NewRouter creates a router. fallback may be nil, in which case keys
// with no matching scheme fail with a configuration error.
func NewRouter(fallback Store) *Router {
	return &Router{schemes: make(map[string]Store), fallback: fallback}
}

// Handle registers s for scheme, replacing any earlier registration.
func (r *Router) Handle(scheme string, s Store) {
	r.mu.Lock()
	r.schemes[scheme] = s
	r.mu.Unlock()
}

// Route returns the store responsible for key.
func (r *Router) Route(key string) (Store, error) {
	scheme := uri.Scheme(key)
	r.mu.RLock()
	s, ok := r.schemes[scheme]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, gjerrors.New(gjerrors.ErrCodeConfiguration, "no store for scheme %q", scheme)
}

func (r *Router) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s, err := r.Route(key)
	if err != nil {
		return nil, false, err
	}
	return s.Get(ctx, key)
}

func (r *Router) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	s, err := r.Route(key)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, data, ttl)
}

func (r *Router) Delete(ctx context.Context, key string) error {
	s, err := r.Route(key)
	if err != nil {
		return err
	}
	return s.Delete(ctx, key)
}

// Close closes every registered store once.
func (r *Router) Close() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[Store]bool{}
	var errs []error
	closeOnce := func(s Store) {
		if s == nil || seen[s] {
			return
		}
		seen[s] = true
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, s := range r.schemes {
		closeOnce(s)
	}
	closeOnce(r.fallback)
	return errors.Join(errs...)
}

var _ Store = (*Router)(nil)
