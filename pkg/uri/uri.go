// Package uri resolves and deresolves reference identifiers against a
// document's base URI.
package uri

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Handler turns reference identifiers into absolute URIs and back.
type Handler interface {
	// Resolve makes ref absolute against base.
	Resolve(base, ref string) string

	// Deresolve makes abs relative to base where possible.
	Deresolve(base, abs string) string
}

// Base resolves with RFC 3986 reference resolution and deresolves to
// sibling-relative paths when scheme and authority match.
type Base struct{}

// Resolve implements Handler. Unparseable input is returned unchanged.
func (Base) Resolve(base, ref string) string {
	if base == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// Deresolve implements Handler.
func (Base) Deresolve(base, abs string) string {
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return abs
	}
	a, err := url.Parse(abs)
	if err != nil || !a.IsAbs() {
		return abs
	}
	if a.Scheme != b.Scheme || a.Host != b.Host || a.User.String() != b.User.String() {
		return abs
	}

	frag := ""
	if a.Fragment != "" {
		frag = "#" + a.EscapedFragment()
	}
	if a.Path == b.Path && a.RawQuery == b.RawQuery {
		return frag
	}

	dir := path.Dir(b.Path)
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	if !strings.HasPrefix(a.Path, dir) {
		return abs
	}
	rel := strings.TrimPrefix(a.Path, dir)
	if rel == "" || strings.Contains(strings.SplitN(rel, "/", 2)[0], ":") {
		return abs
	}
	if a.RawQuery != "" {
		rel += "?" + a.RawQuery
	}
	return rel + frag
}

// Identity leaves identifiers untouched.
type Identity struct{}

// Resolve returns ref.
func (Identity) Resolve(_, ref string) string { return ref }

// Deresolve returns abs.
func (Identity) Deresolve(_, abs string) string { return abs }

// Split separates a URI into its document part and fragment.
func Split(u string) (doc, fragment string) {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		return u[:i], u[i+1:]
	}
	return u, ""
}

// Join builds doc#fragment.
func Join(doc, fragment string) string {
	if fragment == "" {
		return doc
	}
	return doc + "#" + fragment
}

// Scheme returns the lowercased scheme of u, or "" for relative URIs and
// plain paths.
func Scheme(u string) string {
	i := strings.IndexByte(u, ':')
	if i <= 1 {
		return ""
	}
	for _, c := range u[:i] {
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '+' || c == '-' || c == '.') {
			return ""
		}
	}
	return strings.ToLower(u[:i])
}

// FromPath converts a filesystem path into an absolute file: URI.
func FromPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// ToPath converts a file: URI, or a plain path, into a filesystem path.
// The fragment is dropped.
func ToPath(u string) (string, error) {
	doc, _ := Split(u)
	if Scheme(doc) == "" {
		return filepath.FromSlash(doc), nil
	}
	p, err := url.Parse(doc)
	if err != nil {
		return "", err
	}
	if p.Scheme != "file" {
		return "", fmt.Errorf("not a file URI: %s", u)
	}
	if p.Host != "" && p.Host != "localhost" {
		return "", fmt.Errorf("remote file URI: %s", u)
	}
	return filepath.FromSlash(p.Path), nil
}

var (
	_ Handler = Base{}
	_ Handler = Identity{}
)
