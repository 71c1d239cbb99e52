package codec

import (
	"strings"

	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/schema"
	"github.com/matzehuels/graphjson/pkg/uri"
)

// Reference is a reference read during decoding that still has to be
// bound to its target.
type Reference struct {
	Owner    *graph.Node
	Feature  *schema.Feature // reference, map or mixed feature of Owner
	ID       string          // identifier as written in the source
	TypeHint string          // type tag given next to the identifier
	Offset   int64

	// Member and Placeholder are set for mixed entries: the placeholder
	// proxy holding the entry's position until resolution.
	Member      *schema.Feature
	Placeholder *graph.Node

	// Key is set, with Keyed, for map values.
	Key   any
	Keyed bool
}

func (r Reference) lazy() bool {
	if r.Member != nil {
		return r.Member.Lazy || r.Feature.Lazy
	}
	return r.Feature.Lazy
}

func (r Reference) target() *schema.Type {
	if r.Member != nil {
		return r.Member.Target()
	}
	return r.Feature.Target()
}

// Stats summarizes a resolution pass.
type Stats struct {
	Resolved   int
	Unresolved int
	Proxies    int // references left as proxies to other documents
}

// Ledger collects references during decoding and binds them once the
// whole document has been read, so forward references work.
type Ledger struct {
	c     *Codec
	refs  []Reference
	cache map[string]*graph.Node
}

// NewLedger creates an empty ledger for c.
func (c *Codec) NewLedger() *Ledger {
	return &Ledger{c: c, cache: make(map[string]*graph.Node)}
}

// Record adds a pending reference.
func (l *Ledger) Record(r Reference) { l.refs = append(l.refs, r) }

// Len returns the number of pending references.
func (l *Ledger) Len() int { return len(l.refs) }

// ResolveAll binds every pending reference in the order recorded.
//
// A target is looked up by id, then by fragment path in doc. References
// into other documents become lazy proxies when the feature is lazy and
// a type hint is present, and are otherwise handed to ext. Without ext
// they stay proxies. References that cannot be bound leave their slot
// empty and add an unresolved-reference diagnostic to doc.
func (l *Ledger) ResolveAll(doc *graph.Document, ext ExternalResolver) Stats {
	var stats Stats
	for _, r := range l.refs {
		target, ok := l.cache[r.ID]
		if !ok {
			target = l.lookup(doc, r, ext)
			l.cache[r.ID] = target
		}
		if target == nil {
			stats.Unresolved++
			doc.Diagnosef(errors.ErrCodeUnresolvedReference, r.Offset, "%s: cannot resolve %q", r.Feature, r.ID)
			l.drop(r)
			continue
		}
		if err := l.apply(r, target); err != nil {
			stats.Unresolved++
			doc.Diagnosef(errors.ErrCodeUnresolvedReference, r.Offset, "%s: bind %q: %v", r.Feature, r.ID, err)
			l.drop(r)
			continue
		}
		if target.IsProxy() {
			stats.Proxies++
		} else {
			stats.Resolved++
		}
	}
	l.refs = nil
	return stats
}

func (l *Ledger) lookup(doc *graph.Document, r Reference, ext ExternalResolver) *graph.Node {
	if !strings.Contains(r.ID, "#") {
		if n := doc.Lookup(r.ID); n != nil {
			return n
		}
		return doc.ResolveFragment(r.ID)
	}

	docPart, frag := uri.Split(r.ID)
	abs := l.c.opts.URIHandler.Resolve(doc.URI, docPart)
	if docPart == "" || abs == doc.URI {
		return doc.ResolveFragment(frag)
	}
	target := uri.Join(abs, frag)

	hint := r.target()
	if r.TypeHint != "" {
		if t := l.c.schema.Type(r.TypeHint); t != nil {
			hint = t
		}
	}
	if r.lazy() && r.TypeHint != "" {
		return graph.NewProxy(hint, target)
	}
	if ext == nil {
		return graph.NewProxy(hint, target)
	}
	n, err := ext.ResolveExternal(target, hint)
	if err != nil {
		l.c.log.Warn("external reference failed", "uri", target, "err", err)
		return nil
	}
	return n
}

func (l *Ledger) apply(r Reference, target *graph.Node) error {
	if want := r.target(); want != nil && target.Type() != nil && !target.Type().IsSubtypeOf(want) {
		return errors.New(errors.ErrCodeInvalidValue, "%s is not a %s", target.Type(), want)
	}
	name := r.Feature.Name
	switch {
	case r.Placeholder != nil:
		if !r.Owner.ReplaceValue(name, r.Placeholder, target) {
			return errors.New(errors.ErrCodeInternal, "placeholder for %q not found", r.ID)
		}
		return nil
	case r.Keyed:
		return r.Owner.PutMap(name, r.Key, target)
	case r.Feature.Many:
		return r.Owner.Add(name, target)
	}
	return r.Owner.Set(name, target)
}

// drop removes whatever was reserved for an unresolved reference.
func (l *Ledger) drop(r Reference) {
	switch {
	case r.Placeholder != nil:
		r.Owner.Remove(r.Feature.Name, r.Placeholder)
	case r.Keyed:
		if m := r.Owner.Map(r.Feature.Name); m != nil {
			m.Delete(r.Key)
		}
	}
}
