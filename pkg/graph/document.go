package graph

import (
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/schema"
)

// Diagnostic is a non-fatal problem found while decoding or encoding.
type Diagnostic struct {
	Code    errors.Code
	Message string
	Offset  int64 // byte offset in the source stream, -1 when unknown
}

func (d Diagnostic) String() string {
	if d.Offset >= 0 {
		return fmt.Sprintf("%s at offset %d: %s", d.Code, d.Offset, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// Document is a unit of serialization: an ordered list of root nodes,
// an identity index and the diagnostics collected while processing it.
//
// The zero value is not usable; use NewDocument.
type Document struct {
	URI string

	roots   []*Node
	ids     map[string]*Node
	nodeIDs map[*Node]string
	diags   []Diagnostic
}

// NewDocument creates an empty document identified by uri.
func NewDocument(uri string) *Document {
	return &Document{
		URI:     uri,
		ids:     make(map[string]*Node),
		nodeIDs: make(map[*Node]string),
	}
}

// Roots returns the root nodes in order.
func (d *Document) Roots() []*Node { return d.roots }

// AddRoot appends n to the roots, detaching it from its container or
// from another document.
func (d *Document) AddRoot(n *Node) {
	if n.container != nil {
		n.detachFrom(n.container)
	}
	if n.doc == d {
		return
	}
	if n.doc != nil {
		n.doc.removeRoot(n)
	}
	n.doc = d
	d.roots = append(d.roots, n)
}

// RemoveRoot removes n from the roots and reports whether it was one.
func (d *Document) RemoveRoot(n *Node) bool {
	if n.doc != d {
		return false
	}
	d.removeRoot(n)
	return true
}

func (d *Document) removeRoot(n *Node) {
	if i := slices.Index(d.roots, n); i >= 0 {
		d.roots = slices.Delete(d.roots, i, i+1)
	}
	n.doc = nil
}

// Contains reports whether n belongs to d's containment trees.
func (d *Document) Contains(n *Node) bool {
	return n != nil && n.Document() == d
}

// SetID registers id for n. Any previous id of n is dropped; an id
// already used by another node is taken over by n.
func (d *Document) SetID(n *Node, id string) {
	if old, ok := d.nodeIDs[n]; ok {
		delete(d.ids, old)
	}
	if prev, ok := d.ids[id]; ok && prev != n {
		delete(d.nodeIDs, prev)
	}
	d.ids[id] = n
	d.nodeIDs[n] = id
}

// ID returns the id registered for n, or "".
func (d *Document) ID(n *Node) string { return d.nodeIDs[n] }

// Lookup returns the node registered under id, or nil.
func (d *Document) Lookup(id string) *Node { return d.ids[id] }

// EnsureID returns n's id, assigning one from gen when it has none.
// A nil gen or an empty generated id leaves n without an id.
func (d *Document) EnsureID(n *Node, gen func(*Node) string) string {
	if id := d.nodeIDs[n]; id != "" {
		return id
	}
	if gen == nil {
		return ""
	}
	id := gen(n)
	if id != "" {
		d.SetID(n, id)
	}
	return id
}

// Diagnostics returns the diagnostics recorded so far.
func (d *Document) Diagnostics() []Diagnostic { return d.diags }

// AddDiagnostic records a diagnostic.
func (d *Document) AddDiagnostic(diag Diagnostic) {
	d.diags = append(d.diags, diag)
}

// Diagnosef records a formatted diagnostic.
func (d *Document) Diagnosef(code errors.Code, offset int64, format string, args ...any) {
	d.AddDiagnostic(Diagnostic{Code: code, Message: fmt.Sprintf(format, args...), Offset: offset})
}

// ClearDiagnostics drops recorded diagnostics.
func (d *Document) ClearDiagnostics() { d.diags = nil }

// Nodes iterates over every node in the document in depth-first
// pre-order, roots first.
func (d *Document) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		var walk func(n *Node) bool
		walk = func(n *Node) bool {
			if !yield(n) {
				return false
			}
			for _, c := range n.Children() {
				if !walk(c) {
					return false
				}
			}
			return true
		}
		for _, r := range d.roots {
			if !walk(r) {
				return
			}
		}
	}
}

// Len returns the number of nodes in the document.
func (d *Document) Len() int {
	count := 0
	for range d.Nodes() {
		count++
	}
	return count
}

// Fragment returns the address of n inside d: its id when it has one,
// otherwise a containment path such as "/", "/1" or "//@friends.0".
// It returns "" when n is not part of d.
func (d *Document) Fragment(n *Node) string {
	if id := d.nodeIDs[n]; id != "" {
		return id
	}
	return d.Path(n)
}

// Path returns the containment path of n, ignoring ids.
func (d *Document) Path(n *Node) string {
	if !d.Contains(n) {
		return ""
	}
	var segs []string
	for c := n; c.container != nil; c = c.container {
		segs = append(segs, segment(c))
	}
	root := n.Root()
	rootSeg := ""
	if len(d.roots) > 1 {
		rootSeg = strconv.Itoa(slices.Index(d.roots, root))
	}
	slices.Reverse(segs)
	if len(segs) == 0 {
		return "/" + rootSeg
	}
	return "/" + rootSeg + "/" + strings.Join(segs, "/")
}

func segment(c *Node) string {
	owner, f := c.container, c.slot
	if g := f.Group(); g != nil {
		for i, e := range owner.Entries(g.Name) {
			if e.Value == c {
				return "@" + g.Name + "." + strconv.Itoa(i)
			}
		}
		return "@" + g.Name
	}
	switch v := owner.values[f.Name].(type) {
	case []*Node:
		return "@" + f.Name + "." + strconv.Itoa(slices.Index(v, c))
	case *Map:
		for _, k := range v.Keys() {
			if got, _ := v.Get(k); got == c {
				return "@" + f.Name + "[" + fmt.Sprint(k) + "]"
			}
		}
	}
	return "@" + f.Name
}

// ResolveFragment finds the node addressed by frag: an id registered in
// d, or a containment path produced by Fragment.
func (d *Document) ResolveFragment(frag string) *Node {
	if frag == "" {
		return nil
	}
	if n := d.ids[frag]; n != nil {
		return n
	}
	if !strings.HasPrefix(frag, "/") {
		return nil
	}

	segs := strings.Split(frag[1:], "/")
	idx := 0
	if segs[0] != "" {
		i, err := strconv.Atoi(segs[0])
		if err != nil {
			return nil
		}
		idx = i
	}
	if idx < 0 || idx >= len(d.roots) {
		return nil
	}
	cur := d.roots[idx]

	var entryOf *schema.Feature
	for _, seg := range segs[1:] {
		if !strings.HasPrefix(seg, "@") {
			// mixed entries may be addressed as @group.i/value or @group.i/member
			if entryOf != nil && (seg == "value" || entryOf.Member(seg) != nil) {
				entryOf = nil
				continue
			}
			return nil
		}
		next, group := step(cur, seg[1:])
		if next == nil {
			return nil
		}
		cur, entryOf = next, group
	}
	return cur
}

// step follows one "@name", "@name.i" or "@name[key]" segment.
func step(n *Node, seg string) (*Node, *schema.Feature) {
	name, index, key := seg, -1, ""
	hasKey := false
	if i := strings.IndexByte(seg, '['); i >= 0 && strings.HasSuffix(seg, "]") {
		name, key, hasKey = seg[:i], seg[i+1:len(seg)-1], true
	} else if i := strings.LastIndexByte(seg, '.'); i >= 0 {
		if v, err := strconv.Atoi(seg[i+1:]); err == nil {
			name, index = seg[:i], v
		}
	}

	switch v := n.values[name].(type) {
	case *Node:
		if index <= 0 && !hasKey {
			return v, nil
		}
	case []*Node:
		if index < 0 {
			index = 0
		}
		if index < len(v) {
			return v[index], nil
		}
	case []Entry:
		if index >= 0 && index < len(v) {
			if c, ok := v[index].Value.(*Node); ok {
				return c, n.featureOrNil(name)
			}
		}
	case *Map:
		if hasKey {
			for _, k := range v.Keys() {
				if fmt.Sprint(k) == key {
					c, _ := v.Get(k)
					node, _ := c.(*Node)
					return node, nil
				}
			}
		}
	}
	return nil, nil
}
