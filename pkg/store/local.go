package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/graphjson/pkg/uri"
)

// Local reads and writes documents at the filesystem path named by their
// file: URI. Unlike [File] it stores plain document bytes, so the files
// can be edited by hand.
type Local struct {
	root string
}

// NewLocal creates a local store. Relative keys resolve against the
// working directory.
func NewLocal() *Local { return &Local{} }

// NewLocalRoot creates a local store that resolves relative keys against
// root.
func NewLocalRoot(root string) *Local { return &Local{root: root} }

// Get reads the file behind key.
func (l *Local) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path, err := l.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set writes the file behind key, creating parent directories. ttl is
// ignored.
func (l *Local) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Delete removes the file behind key.
func (l *Local) Delete(ctx context.Context, key string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing.
func (l *Local) Close() error { return nil }

func (l *Local) path(key string) (string, error) {
	p, err := uri.ToPath(key)
	if err != nil {
		return "", err
	}
	if l.root != "" && !filepath.IsAbs(p) {
		p = filepath.Join(l.root, p)
	}
	return p, nil
}

var _ Store = (*Local)(nil)
