// Package resource manages a set of documents that reference each other.
//
// A [Set] loads documents from a store, decodes them with a codec and acts
// as the codec's external resolver. References into documents that are not
// loaded yet come back as proxies; the set queues those documents and,
// with EagerProxies, loads them after the current one and patches the
// proxies in place. Loading is iterative, so mutually referencing
// documents neither recurse nor deadlock.
//
//	set := resource.NewSet(c, st, resource.Options{EagerProxies: true})
//	doc, err := set.Load(ctx, "file:///data/users.json")
package resource

import (
	"bytes"
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/graphjson/pkg/codec"
	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/schema"
	"github.com/matzehuels/graphjson/pkg/store"
	"github.com/matzehuels/graphjson/pkg/uri"
)

const tracerName = "github.com/matzehuels/graphjson/pkg/resource"

// Options configures a Set.
type Options struct {
	// EagerProxies loads every referenced document during Load and
	// replaces the proxies pointing into it. Without it proxies stay until
	// ResolveProxy or ResolveAllProxies is called.
	EagerProxies bool

	// TTL is passed to the store on Save.
	TTL time.Duration

	// Logger receives load and resolution events. Nil discards them.
	Logger *log.Logger
}

// Set is a collection of documents keyed by URI. It is safe for
// concurrent use, but the documents it hands out are not.
type Set struct {
	codec  *codec.Codec
	store  store.Store
	opts   Options
	log    *log.Logger
	tracer trace.Tracer
	group  singleflight.Group

	mu      sync.Mutex
	docs    map[string]*graph.Document
	order   []string
	pending []string // documents referenced but not loaded yet
	queued  map[string]bool
}

// NewSet creates an empty set.
func NewSet(c *codec.Codec, st store.Store, opts Options) *Set {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if st == nil {
		st = store.NewNull()
	}
	return &Set{
		codec:  c,
		store:  st,
		opts:   opts,
		log:    logger,
		tracer: otel.Tracer(tracerName),
		docs:   make(map[string]*graph.Document),
		queued: make(map[string]bool),
	}
}

// Codec returns the codec documents are decoded with.
func (s *Set) Codec() *codec.Codec { return s.codec }

// Document returns the loaded document for uri, or nil.
func (s *Set) Document(u string) *graph.Document {
	doc, _ := uri.Split(u)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[doc]
}

// Documents returns the loaded documents in load order.
func (s *Set) Documents() []*graph.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*graph.Document, 0, len(s.order))
	for _, u := range s.order {
		out = append(out, s.docs[u])
	}
	return out
}

// Create adds an empty document. It fails if uri is already loaded.
func (s *Set) Create(u string) (*graph.Document, error) {
	if u == "" {
		return nil, errors.New(errors.ErrCodeInvalidURI, "empty document URI")
	}
	doc := graph.NewDocument(u)
	if !s.add(doc) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "document %s already exists", u)
	}
	return doc, nil
}

// Add registers an existing document. It fails if its URI is taken.
func (s *Set) Add(doc *graph.Document) error {
	if !s.add(doc) {
		return errors.New(errors.ErrCodeInvalidInput, "document %s already exists", doc.URI)
	}
	return nil
}

// Remove drops the document for uri from the set. Proxies into it are
// left alone.
func (s *Set) Remove(u string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[u]; !ok {
		return false
	}
	delete(s.docs, u)
	s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == u })
	return true
}

func (s *Set) add(doc *graph.Document) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.URI]; ok {
		return false
	}
	s.docs[doc.URI] = doc
	s.order = append(s.order, doc.URI)
	delete(s.queued, doc.URI)
	return true
}

// Load returns the document for uri, reading and decoding it if needed.
// With EagerProxies every document it references, directly or not, is
// loaded too and proxies into them are replaced. Failures to load those
// referenced documents are logged and leave their proxies in place.
func (s *Set) Load(ctx context.Context, u string) (*graph.Document, error) {
	docURI, _ := uri.Split(u)
	ctx, span := s.tracer.Start(ctx, "resource.Load", trace.WithAttributes(attribute.String("document.uri", docURI)))
	defer span.End()

	doc, err := s.load(ctx, docURI)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if s.opts.EagerProxies {
		s.drain(ctx)
		for _, d := range s.Documents() {
			s.resolveProxies(ctx, d, true)
		}
	}
	span.SetAttributes(attribute.Int("resource.documents", len(s.Documents())))
	return doc, nil
}

// load reads and decodes one document. Concurrent loads of the same URI
// share one read.
func (s *Set) load(ctx context.Context, docURI string) (*graph.Document, error) {
	if doc := s.Document(docURI); doc != nil {
		return doc, nil
	}
	v, err, _ := s.group.Do(docURI, func() (any, error) {
		if doc := s.Document(docURI); doc != nil {
			return doc, nil
		}
		data, ok, err := s.store.Get(ctx, docURI)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read %s", docURI)
		}
		if !ok {
			return nil, errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", docURI)
		}
		doc := graph.NewDocument(docURI)
		if err := s.codec.Decode(ctx, bytes.NewReader(data), doc, s); err != nil {
			return nil, err
		}
		if !s.add(doc) {
			// lost a race with Create or Add
			return s.Document(docURI), nil
		}
		s.log.Debug("loaded document", "uri", docURI, "nodes", doc.Len(), "diagnostics", len(doc.Diagnostics()))
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*graph.Document), nil
}

// drain loads queued documents until none are left.
func (s *Set) drain(ctx context.Context) {
	for {
		next, ok := s.dequeue()
		if !ok {
			return
		}
		if _, err := s.load(ctx, next); err != nil {
			s.log.Warn("referenced document not loaded", "uri", next, "err", err)
		}
	}
}

func (s *Set) dequeue() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		if _, loaded := s.docs[next]; !loaded {
			return next, true
		}
	}
	return "", false
}

func (s *Set) enqueue(docURI string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, loaded := s.docs[docURI]; loaded || s.queued[docURI] {
		return
	}
	s.queued[docURI] = true
	s.pending = append(s.pending, docURI)
}

// Pending returns the URIs of referenced documents that are queued but
// not loaded.
func (s *Set) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.pending)
}

// ResolveExternal implements codec.ExternalResolver. A reference into a
// loaded document resolves to its node; anything else becomes a proxy
// and, with EagerProxies, queues the document for loading.
func (s *Set) ResolveExternal(u string, hint *schema.Type) (*graph.Node, error) {
	docURI, frag := uri.Split(u)
	if doc := s.Document(docURI); doc != nil {
		n := lookup(doc, frag)
		if n == nil {
			return nil, errors.New(errors.ErrCodeUnresolvedReference, "%s: no node at %q", docURI, frag)
		}
		return n, nil
	}
	if s.opts.EagerProxies {
		s.enqueue(docURI)
	}
	return graph.NewProxy(hint, u), nil
}

// Save encodes doc and writes it to the store under its URI.
func (s *Set) Save(ctx context.Context, doc *graph.Document) error {
	data, err := s.codec.Marshal(ctx, doc)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, doc.URI, data, s.opts.TTL); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "write %s", doc.URI)
	}
	s.log.Debug("saved document", "uri", doc.URI, "bytes", len(data))
	return nil
}

// Resolve returns the node a proxy stands for, loading its document if
// needed. Non-proxies are returned unchanged.
func (s *Set) Resolve(ctx context.Context, proxy *graph.Node) (*graph.Node, error) {
	if proxy == nil || !proxy.IsProxy() {
		return proxy, nil
	}
	docURI, frag := uri.Split(proxy.ProxyURI())
	doc, err := s.load(ctx, docURI)
	if err != nil {
		return nil, err
	}
	n := lookup(doc, frag)
	if n == nil {
		return nil, errors.New(errors.ErrCodeUnresolvedReference, "%s: no node at %q", docURI, frag)
	}
	if want := proxy.Type(); want != nil && n.Type() != nil && !n.Type().IsSubtypeOf(want) {
		return nil, errors.New(errors.ErrCodeUnresolvedReference, "%s is a %s, not a %s", proxy.ProxyURI(), n.Type(), want)
	}
	return n, nil
}

// ResolveProxy resolves proxy and replaces it in owner's feature, keeping
// its position.
func (s *Set) ResolveProxy(ctx context.Context, owner *graph.Node, feature string, proxy *graph.Node) (*graph.Node, error) {
	n, err := s.Resolve(ctx, proxy)
	if err != nil {
		return nil, err
	}
	if n != proxy && !owner.ReplaceValue(feature, proxy, n) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "%s does not hold %s in %s", owner, proxy.ProxyURI(), feature)
	}
	return n, nil
}

// ProxyStats reports the outcome of ResolveAllProxies.
type ProxyStats struct {
	Resolved   int
	Unresolved int
}

// ResolveAllProxies replaces every proxy held in a non-containment slot
// of doc, lazy features included. Proxies that cannot be resolved are
// logged and kept.
func (s *Set) ResolveAllProxies(ctx context.Context, doc *graph.Document) ProxyStats {
	return s.resolveProxies(ctx, doc, false)
}

func (s *Set) resolveProxies(ctx context.Context, doc *graph.Document, skipLazy bool) ProxyStats {
	var stats ProxyStats
	for n := range doc.Nodes() {
		for _, name := range n.Features() {
			f := n.Type().Feature(name)
			if skipLazy && f.Lazy {
				continue
			}
			for _, p := range proxies(n, f) {
				if _, err := s.ResolveProxy(ctx, n, name, p); err != nil {
					stats.Unresolved++
					s.log.Warn("proxy not resolved", "uri", p.ProxyURI(), "owner", n, "err", err)
					continue
				}
				stats.Resolved++
			}
		}
	}
	return stats
}

// proxies lists the distinct proxies n holds in f outside containment.
func proxies(n *graph.Node, f *schema.Feature) []*graph.Node {
	var out []*graph.Node
	add := func(v any, contained bool) {
		if p, ok := v.(*graph.Node); ok && p != nil && p.IsProxy() && !contained && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	switch v := n.Get(f.Name).(type) {
	case *graph.Node:
		add(v, f.IsContainment())
	case []*graph.Node:
		for _, x := range v {
			add(x, f.IsContainment())
		}
	case *graph.Map:
		for _, k := range v.Keys() {
			x, _ := v.Get(k)
			add(x, f.IsContainment())
		}
	case []graph.Entry:
		for _, e := range v {
			add(e.Value, e.Feature.IsContainment())
		}
	}
	return out
}

// lookup finds frag in doc. An empty fragment names the first root.
func lookup(doc *graph.Document, frag string) *graph.Node {
	if frag == "" {
		if roots := doc.Roots(); len(roots) > 0 {
			return roots[0]
		}
		return nil
	}
	return doc.ResolveFragment(frag)
}

var _ codec.ExternalResolver = (*Set)(nil)
