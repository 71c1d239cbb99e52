package graph

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/matzehuels/graphjson/pkg/schema"
)

// Sentinel errors for graph mutations.
var (
	// ErrContainmentCycle is returned when a node would become its own ancestor.
	ErrContainmentCycle = errors.New("containment cycle")

	// ErrNotMany is returned when a list operation targets a single-valued feature.
	ErrNotMany = errors.New("feature is not many-valued")

	// ErrUnknownFeature is returned when a feature does not belong to the node's type.
	ErrUnknownFeature = errors.New("unknown feature")

	// ErrInvalidKey is returned when a map key is not comparable.
	ErrInvalidKey = errors.New("map key is not comparable")

	// ErrAbstractType is returned when instantiating an abstract type.
	ErrAbstractType = errors.New("abstract type")
)

// Node is an instance of a schema type.
//
// Values are stored by feature name:
//   - single attributes hold a scalar, many attributes a []any
//   - single references and containments hold a *Node, many a []*Node
//   - maps hold a *Map, mixed features a []Entry
//
// A node has at most one container. Use the mutators rather than
// touching containment slots directly, so ownership stays consistent.
// A Node is not safe for concurrent mutation.
type Node struct {
	typ       *schema.Type
	values    map[string]any
	container *Node
	slot      *schema.Feature
	doc       *Document
	proxyURI  string
}

// New creates a node of type t.
func New(t *schema.Type) (*Node, error) {
	if t == nil {
		return nil, fmt.Errorf("new node: nil type")
	}
	if t.Abstract {
		return nil, fmt.Errorf("new node %s: %w", t, ErrAbstractType)
	}
	return &Node{typ: t, values: make(map[string]any)}, nil
}

// MustNew is New that panics on error.
func MustNew(t *schema.Type) *Node {
	n, err := New(t)
	if err != nil {
		panic(err)
	}
	return n
}

// NewProxy creates a placeholder standing in for the node at uri.
// t may be nil or abstract when the target type is not known.
func NewProxy(t *schema.Type, uri string) *Node {
	return &Node{typ: t, values: make(map[string]any), proxyURI: uri}
}

// Type returns the node's type.
func (n *Node) Type() *schema.Type { return n.typ }

// Retype changes the node's type to a subtype of its current type.
// Existing values stay valid since a subtype has every supertype feature.
func (n *Node) Retype(t *schema.Type) error {
	if n.typ != nil && !t.IsSubtypeOf(n.typ) {
		return fmt.Errorf("retype %s to %s: not a subtype", n.typ, t)
	}
	n.typ = t
	return nil
}

// IsProxy reports whether n is an unresolved placeholder.
func (n *Node) IsProxy() bool { return n.proxyURI != "" }

// ProxyURI returns the target URI of a proxy, or "".
func (n *Node) ProxyURI() string { return n.proxyURI }

// SetProxyURI marks n as a proxy for uri. An empty uri clears it.
func (n *Node) SetProxyURI(uri string) { n.proxyURI = uri }

// Container returns the owning node, or nil for roots and detached nodes.
func (n *Node) Container() *Node { return n.container }

// ContainingFeature returns the feature of the container holding n.
// For members of a mixed feature this is the member feature.
func (n *Node) ContainingFeature() *schema.Feature { return n.slot }

// Root returns the top-most container of n (n itself when uncontained).
func (n *Node) Root() *Node {
	r := n
	for r.container != nil {
		r = r.container
	}
	return r
}

// Document returns the document whose roots contain n, or nil.
func (n *Node) Document() *Document {
	return n.Root().doc
}

// IsAncestorOf reports whether n directly or indirectly contains o.
func (n *Node) IsAncestorOf(o *Node) bool {
	for c := o.container; c != nil; c = c.container {
		if c == n {
			return true
		}
	}
	return false
}

func (n *Node) feature(name string) (*schema.Feature, error) {
	if n.typ == nil {
		return nil, fmt.Errorf("%w: %s on untyped node", ErrUnknownFeature, name)
	}
	f := n.typ.Feature(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownFeature, n.typ, name)
	}
	return f, nil
}

// IsSet reports whether the feature has a value. Empty lists count as unset.
func (n *Node) IsSet(name string) bool {
	v, ok := n.values[name]
	if !ok {
		if f := n.featureOrNil(name); f != nil && f.Group() != nil {
			return len(n.memberValues(f)) > 0
		}
		return false
	}
	switch v := v.(type) {
	case []any:
		return len(v) > 0
	case []*Node:
		return len(v) > 0
	case []Entry:
		return len(v) > 0
	case *Map:
		return v.Len() > 0
	}
	return true
}

func (n *Node) featureOrNil(name string) *schema.Feature {
	if n.typ == nil {
		return nil
	}
	return n.typ.Feature(name)
}

// Get returns the raw value of a feature. Members of a mixed feature
// return the values of their entries: a single value or a []any.
func (n *Node) Get(name string) any {
	if v, ok := n.values[name]; ok {
		return v
	}
	if f := n.featureOrNil(name); f != nil && f.Group() != nil {
		vals := n.memberValues(f)
		if f.Many {
			return vals
		}
		if len(vals) > 0 {
			return vals[0]
		}
	}
	return nil
}

func (n *Node) memberValues(m *schema.Feature) []any {
	var out []any
	for _, e := range n.Entries(m.Group().Name) {
		if e.Feature == m {
			out = append(out, e.Value)
		}
	}
	return out
}

// Attr returns a single attribute value.
func (n *Node) Attr(name string) any { return n.Get(name) }

// Attrs returns the values of a many-valued attribute.
func (n *Node) Attrs(name string) []any {
	v, _ := n.values[name].([]any)
	return v
}

// Ref returns the node held by a single-valued reference or containment.
func (n *Node) Ref(name string) *Node {
	v, _ := n.values[name].(*Node)
	return v
}

// Refs returns the nodes of a many-valued reference or containment.
// The returned slice must not be modified.
func (n *Node) Refs(name string) []*Node {
	v, _ := n.values[name].([]*Node)
	return v
}

// Map returns the map stored in a map feature, or nil.
func (n *Node) Map(name string) *Map {
	v, _ := n.values[name].(*Map)
	return v
}

// Entries returns the entries of a mixed feature.
func (n *Node) Entries(name string) []Entry {
	v, _ := n.values[name].([]Entry)
	return v
}

// Set assigns a single-valued feature. Containment values are attached
// to n and detached from their previous owner.
func (n *Node) Set(name string, v any) error {
	f, err := n.feature(name)
	if err != nil {
		return err
	}
	if f.Many || f.Kind == schema.Map || f.Kind == schema.Mixed {
		if f.IsContainment() || f.Kind == schema.Mixed {
			return fmt.Errorf("set %s: use Add, PutMap or AddEntry for owned collections", f)
		}
	}
	if f.IsContainment() && f.Kind != schema.Map {
		child, _ := v.(*Node)
		if old := n.Ref(name); old != nil && old != child {
			old.detachFrom(n)
		}
		if child == nil {
			delete(n.values, name)
			return nil
		}
		if err := n.adopt(child, f); err != nil {
			return err
		}
	}
	if v == nil {
		delete(n.values, name)
		return nil
	}
	n.values[name] = v
	return nil
}

// Add appends to a many-valued attribute, reference or containment.
func (n *Node) Add(name string, v any) error {
	f, err := n.feature(name)
	if err != nil {
		return err
	}
	if !f.Many || f.Kind == schema.Mixed {
		return fmt.Errorf("add %s: %w", f, ErrNotMany)
	}
	switch f.Kind {
	case schema.Attribute:
		n.values[name] = append(n.Attrs(name), v)
		return nil
	case schema.Containment:
		child, ok := v.(*Node)
		if !ok || child == nil {
			return fmt.Errorf("add %s: expected node, got %T", f, v)
		}
		if err := n.adopt(child, f); err != nil {
			return err
		}
	}
	child, ok := v.(*Node)
	if !ok || child == nil {
		return fmt.Errorf("add %s: expected node, got %T", f, v)
	}
	n.values[name] = append(n.Refs(name), child)
	return nil
}

// AddEntry appends an entry to a mixed feature. Containment members are
// attached to n.
func (n *Node) AddEntry(name string, e Entry) error {
	f, err := n.feature(name)
	if err != nil {
		return err
	}
	if f.Kind != schema.Mixed {
		return fmt.Errorf("add entry %s: not a mixed feature", f)
	}
	if e.Feature == nil || e.Feature.Group() != f {
		return fmt.Errorf("add entry %s: %v is not a member", f, e.Feature)
	}
	if e.Feature.Kind == schema.Containment {
		child, ok := e.Value.(*Node)
		if !ok || child == nil {
			return fmt.Errorf("add entry %s: expected node, got %T", e.Feature, e.Value)
		}
		if err := n.adopt(child, e.Feature); err != nil {
			return err
		}
	}
	n.values[name] = append(n.Entries(name), e)
	return nil
}

// PutMap sets key in a map feature, creating the map on first use.
// Containment values are attached to n.
func (n *Node) PutMap(name string, key, v any) error {
	f, err := n.feature(name)
	if err != nil {
		return err
	}
	if f.Kind != schema.Map {
		return fmt.Errorf("put %s: not a map feature", f)
	}
	if key != nil && !reflect.TypeOf(key).Comparable() {
		return fmt.Errorf("put %s: %T: %w", f, key, ErrInvalidKey)
	}
	if child, ok := v.(*Node); ok && child != nil && f.IsContainment() {
		if err := n.adopt(child, f); err != nil {
			return err
		}
	}
	m := n.Map(name)
	if m == nil {
		m = NewMap()
		n.values[name] = m
	}
	m.Put(key, v)
	return nil
}

// Unset clears a feature. Contained children are detached.
func (n *Node) Unset(name string) {
	switch v := n.values[name].(type) {
	case *Node:
		if v.container == n {
			v.container, v.slot = nil, nil
		}
	case []*Node:
		for _, c := range v {
			if c.container == n {
				c.container, c.slot = nil, nil
			}
		}
	case []Entry:
		for _, e := range v {
			if c, ok := e.Value.(*Node); ok && c.container == n {
				c.container, c.slot = nil, nil
			}
		}
	case *Map:
		for _, k := range v.Keys() {
			if c, _ := v.Get(k); c != nil {
				if c, ok := c.(*Node); ok && c.container == n {
					c.container, c.slot = nil, nil
				}
			}
		}
	}
	delete(n.values, name)
}

// Remove deletes the first occurrence of v from a many-valued feature,
// a mixed feature or a map (by value). It reports whether v was found.
func (n *Node) Remove(name string, v any) bool {
	switch cur := n.values[name].(type) {
	case []*Node:
		child, _ := v.(*Node)
		i := slices.Index(cur, child)
		if i < 0 {
			return false
		}
		n.values[name] = slices.Delete(cur, i, i+1)
		if child.container == n {
			child.container, child.slot = nil, nil
		}
		return true
	case []any:
		for i, x := range cur {
			if x == v {
				n.values[name] = slices.Delete(cur, i, i+1)
				return true
			}
		}
	case []Entry:
		for i, e := range cur {
			if e.Value == v {
				n.values[name] = slices.Delete(cur, i, i+1)
				if child, ok := v.(*Node); ok && child.container == n {
					child.container, child.slot = nil, nil
				}
				return true
			}
		}
	case *Map:
		for _, k := range cur.Keys() {
			if got, _ := cur.Get(k); got == v {
				cur.Delete(k)
				return true
			}
		}
	case *Node:
		if cur == v {
			n.Unset(name)
			return true
		}
	}
	return false
}

// ReplaceValue swaps old for repl wherever old occurs in the feature,
// keeping its position. It is how placeholder proxies are patched.
func (n *Node) ReplaceValue(name string, old, repl *Node) bool {
	found := false
	switch cur := n.values[name].(type) {
	case *Node:
		if cur == old {
			n.values[name] = repl
			found = true
		}
	case []*Node:
		for i, x := range cur {
			if x == old {
				cur[i] = repl
				found = true
			}
		}
	case []Entry:
		for i, e := range cur {
			if e.Value == old {
				cur[i].Value = repl
				found = true
			}
		}
	case *Map:
		for _, k := range cur.Keys() {
			if got, _ := cur.Get(k); got == old {
				cur.Put(k, repl)
				found = true
			}
		}
	}
	return found
}

// Features returns the names of features that currently hold a value,
// in the type's declaration order.
func (n *Node) Features() []string {
	if n.typ == nil {
		return nil
	}
	var out []string
	for _, f := range n.typ.AllFeatures() {
		if _, ok := n.values[f.Name]; ok {
			out = append(out, f.Name)
		}
	}
	return out
}

// Children returns the contained nodes of n in feature order.
func (n *Node) Children() []*Node {
	if n.typ == nil {
		return nil
	}
	var out []*Node
	for _, f := range n.typ.AllFeatures() {
		switch v := n.values[f.Name].(type) {
		case *Node:
			if f.IsContainment() && v.container == n {
				out = append(out, v)
			}
		case []*Node:
			if f.IsContainment() {
				for _, c := range v {
					if c.container == n {
						out = append(out, c)
					}
				}
			}
		case *Map:
			if f.IsContainment() {
				for _, k := range v.Keys() {
					if c, _ := v.Get(k); c != nil {
						if c, ok := c.(*Node); ok && c.container == n {
							out = append(out, c)
						}
					}
				}
			}
		case []Entry:
			for _, e := range v {
				if c, ok := e.Value.(*Node); ok && c.container == n {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

// adopt makes n the owner of child, detaching it from wherever it was.
func (n *Node) adopt(child *Node, f *schema.Feature) error {
	if child == n || child.IsAncestorOf(n) {
		return fmt.Errorf("attach %s: %w", f, ErrContainmentCycle)
	}
	if child.container != nil && (child.container != n || child.slot != f) {
		child.detachFrom(child.container)
	}
	if child.doc != nil {
		child.doc.removeRoot(child)
	}
	child.container = n
	child.slot = f
	return nil
}

// detachFrom removes n from whichever slot of owner holds it.
func (n *Node) detachFrom(owner *Node) {
	if n.slot != nil {
		name := n.slot.Name
		if g := n.slot.Group(); g != nil {
			name = g.Name
		}
		switch cur := owner.values[name].(type) {
		case *Node:
			if cur == n {
				delete(owner.values, name)
			}
		case []*Node:
			if i := slices.Index(cur, n); i >= 0 {
				owner.values[name] = slices.Delete(cur, i, i+1)
			}
		case []Entry:
			for i, e := range cur {
				if e.Value == n {
					owner.values[name] = slices.Delete(cur, i, i+1)
					break
				}
			}
		case *Map:
			for _, k := range cur.Keys() {
				if got, _ := cur.Get(k); got == n {
					cur.Delete(k)
					break
				}
			}
		}
	}
	n.container, n.slot = nil, nil
}

func (n *Node) String() string {
	name := "<nil>"
	if n.typ != nil {
		name = n.typ.Name
	}
	if n.proxyURI != "" {
		return fmt.Sprintf("%s(proxy %s)", name, n.proxyURI)
	}
	if d := n.Document(); d != nil {
		if id := d.ID(n); id != "" {
			return fmt.Sprintf("%s(%s)", name, id)
		}
	}
	return name
}
