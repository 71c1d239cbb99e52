package graph

import (
	"errors"
	"testing"

	"github.com/matzehuels/graphjson/pkg/schema"
)

func testSchema(t *testing.T) *schema.Registry {
	t.Helper()
	return schema.MustRegistry(&schema.Package{
		Name: "tree",
		URI:  "http://example.org/tree",
		Types: []*schema.Type{
			{Name: "Base", Abstract: true, Features: []*schema.Feature{
				{Name: "label", Type: "string"},
			}},
			{Name: "Tree", Supertypes: []string{"Base"}, Features: []*schema.Feature{
				{Name: "children", Kind: schema.Containment, Type: "Tree", Many: true},
				{Name: "child", Kind: schema.Containment, Type: "Tree"},
				{Name: "friends", Kind: schema.Reference, Type: "Tree", Many: true},
				{Name: "byName", Kind: schema.Map, ValueKind: schema.Containment, Type: "Tree"},
				{Name: "text", Type: "string"},
				{Name: "item", Kind: schema.Containment, Type: "Tree"},
				{Name: "body", Kind: schema.Mixed, Members: []string{"text", "item"}},
			}},
			{Name: "Leaf", Supertypes: []string{"Tree"}},
		},
	})
}

func TestNewRejectsAbstract(t *testing.T) {
	reg := testSchema(t)
	if _, err := New(reg.Type("Base")); !errors.Is(err, ErrAbstractType) {
		t.Errorf("New(Base) error = %v, want %v", err, ErrAbstractType)
	}
	if _, err := New(nil); err == nil {
		t.Error("New(nil) should fail")
	}
}

func TestContainmentSingleOwner(t *testing.T) {
	reg := testSchema(t)
	tree := reg.Type("Tree")
	a, b, c := MustNew(tree), MustNew(tree), MustNew(tree)

	if err := a.Add("children", c); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if c.Container() != a {
		t.Fatalf("Container() = %v, want a", c.Container())
	}

	// moving c to b detaches it from a
	if err := b.Set("child", c); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if c.Container() != b {
		t.Errorf("Container() = %v, want b", c.Container())
	}
	if len(a.Refs("children")) != 0 {
		t.Errorf("a.children = %v, want empty", a.Refs("children"))
	}
	if c.ContainingFeature().Name != "child" {
		t.Errorf("ContainingFeature = %s, want child", c.ContainingFeature().Name)
	}
}

func TestContainmentCycleRejected(t *testing.T) {
	reg := testSchema(t)
	tree := reg.Type("Tree")
	a, b := MustNew(tree), MustNew(tree)

	if err := a.Set("child", b); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := b.Set("child", a); !errors.Is(err, ErrContainmentCycle) {
		t.Errorf("Set ancestor error = %v, want %v", err, ErrContainmentCycle)
	}
	if err := a.Add("children", a); !errors.Is(err, ErrContainmentCycle) {
		t.Errorf("Add self error = %v, want %v", err, ErrContainmentCycle)
	}
}

func TestReferencesAllowCycles(t *testing.T) {
	reg := testSchema(t)
	tree := reg.Type("Tree")
	a, b := MustNew(tree), MustNew(tree)

	if err := a.Add("friends", b); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := b.Add("friends", a); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if a.Container() != nil || b.Container() != nil {
		t.Error("references must not set containers")
	}
}

func TestAddRootDetaches(t *testing.T) {
	reg := testSchema(t)
	tree := reg.Type("Tree")
	doc := NewDocument("mem:/a.json")
	a, b := MustNew(tree), MustNew(tree)
	doc.AddRoot(a)
	if err := a.Add("children", b); err != nil {
		t.Fatalf("Add: %v", err)
	}

	doc.AddRoot(b)
	if b.Container() != nil {
		t.Error("AddRoot should detach from container")
	}
	if got := len(doc.Roots()); got != 2 {
		t.Errorf("len(Roots) = %d, want 2", got)
	}

	// attaching a root elsewhere removes it from the roots
	if err := a.Set("child", b); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := len(doc.Roots()); got != 1 {
		t.Errorf("len(Roots) = %d, want 1", got)
	}
	if b.Document() != doc {
		t.Error("contained node should report its root's document")
	}
}

func TestRetype(t *testing.T) {
	reg := testSchema(t)
	n := MustNew(reg.Type("Tree"))
	if err := n.Set("label", "x"); err != nil {
		t.Fatal(err)
	}
	if err := n.Retype(reg.Type("Leaf")); err != nil {
		t.Fatalf("Retype: %v", err)
	}
	if n.Attr("label") != "x" {
		t.Errorf("label = %v, want x", n.Attr("label"))
	}
	leaf := MustNew(reg.Type("Leaf"))
	if err := leaf.Retype(reg.Type("Base")); err == nil {
		t.Error("Retype to supertype should fail")
	}
}

func TestFragments(t *testing.T) {
	reg := testSchema(t)
	tree := reg.Type("Tree")
	text := tree.Feature("text")
	item := tree.Feature("item")

	doc := NewDocument("mem:/a.json")
	root := MustNew(tree)
	doc.AddRoot(root)
	c0, c1, inner, entry, mapped := MustNew(tree), MustNew(tree), MustNew(tree), MustNew(tree), MustNew(tree)
	must(t, root.Add("children", c0))
	must(t, root.Add("children", c1))
	must(t, c1.Set("child", inner))
	must(t, root.AddEntry("body", Entry{Feature: text, Value: "hi"}))
	must(t, root.AddEntry("body", Entry{Feature: item, Value: entry}))
	must(t, root.PutMap("byName", "k", mapped))

	tests := []struct {
		node *Node
		want string
	}{
		{root, "/"},
		{c0, "//@children.0"},
		{c1, "//@children.1"},
		{inner, "//@children.1/@child"},
		{entry, "//@body.1"},
		{mapped, "//@byName[k]"},
	}
	for _, tt := range tests {
		got := doc.Fragment(tt.node)
		if got != tt.want {
			t.Errorf("Fragment = %q, want %q", got, tt.want)
		}
		if back := doc.ResolveFragment(got); back != tt.node {
			t.Errorf("ResolveFragment(%q) = %v, want %v", got, back, tt.node)
		}
	}

	if got := doc.ResolveFragment("//@body.1/value"); got != entry {
		t.Errorf("ResolveFragment with value segment = %v, want entry", got)
	}
	if got := doc.ResolveFragment("//@body.1/item"); got != entry {
		t.Errorf("ResolveFragment with member segment = %v, want entry", got)
	}
	if got := doc.ResolveFragment("//@children.9"); got != nil {
		t.Errorf("out of range fragment = %v, want nil", got)
	}

	second := MustNew(tree)
	doc.AddRoot(second)
	if got := doc.Fragment(second); got != "/1" {
		t.Errorf("Fragment(second root) = %q, want /1", got)
	}
	if got := doc.Fragment(c0); got != "/0/@children.0" {
		t.Errorf("Fragment with several roots = %q, want /0/@children.0", got)
	}
}

func TestIDsTakePrecedence(t *testing.T) {
	reg := testSchema(t)
	doc := NewDocument("mem:/a.json")
	n := MustNew(reg.Type("Tree"))
	doc.AddRoot(n)

	doc.SetID(n, "u1")
	if got := doc.Fragment(n); got != "u1" {
		t.Errorf("Fragment = %q, want u1", got)
	}
	if doc.Lookup("u1") != n || doc.ResolveFragment("u1") != n {
		t.Error("id lookup failed")
	}

	doc.SetID(n, "u2")
	if doc.Lookup("u1") != nil {
		t.Error("old id should be dropped")
	}

	calls := 0
	gen := func(*Node) string { calls++; return "gen" }
	if got := doc.EnsureID(n, gen); got != "u2" || calls != 0 {
		t.Errorf("EnsureID = %q (calls %d), want existing id", got, calls)
	}
	m := MustNew(reg.Type("Tree"))
	doc.AddRoot(m)
	if got := doc.EnsureID(m, gen); got != "gen" || doc.Lookup("gen") != m {
		t.Errorf("EnsureID = %q, want generated id", got)
	}
}

func TestMixedMemberViews(t *testing.T) {
	reg := testSchema(t)
	tree := reg.Type("Tree")
	n := MustNew(tree)
	child := MustNew(tree)

	must(t, n.AddEntry("body", Entry{Feature: tree.Feature("text"), Value: "a"}))
	must(t, n.AddEntry("body", Entry{Feature: tree.Feature("item"), Value: child}))
	must(t, n.AddEntry("body", Entry{Feature: tree.Feature("text"), Value: "b"}))

	if got := n.Get("text"); got != "a" {
		t.Errorf("Get(text) = %v, want a", got)
	}
	if got := n.Get("item"); got != child {
		t.Errorf("Get(item) = %v, want child", got)
	}
	if child.Container() != n {
		t.Error("containment member should be attached")
	}
	if err := n.AddEntry("body", Entry{Feature: tree.Feature("label"), Value: "x"}); err == nil {
		t.Error("non-member entry should fail")
	}
}

func TestReplaceValue(t *testing.T) {
	reg := testSchema(t)
	tree := reg.Type("Tree")
	owner, real := MustNew(tree), MustNew(tree)
	proxy := NewProxy(tree, "b.json#/")
	other := MustNew(tree)

	must(t, owner.Add("friends", other))
	must(t, owner.Add("friends", proxy))
	if !proxy.IsProxy() {
		t.Fatal("IsProxy = false")
	}
	if !owner.ReplaceValue("friends", proxy, real) {
		t.Fatal("ReplaceValue reported no match")
	}
	refs := owner.Refs("friends")
	if refs[0] != other || refs[1] != real {
		t.Errorf("friends = %v, want [other real]", refs)
	}
}

func TestMapOrder(t *testing.T) {
	m := NewMap()
	m.Put("b", 1)
	m.Put(nil, 2)
	m.Put("a", 3)
	m.Put("b", 4)

	keys := m.Keys()
	if len(keys) != 3 || keys[0] != "b" || keys[1] != nil || keys[2] != "a" {
		t.Errorf("Keys = %v, want [b <nil> a]", keys)
	}
	if v, _ := m.Get("b"); v != 4 {
		t.Errorf("Get(b) = %v, want 4", v)
	}
	if !m.Delete(nil) || m.Len() != 2 {
		t.Errorf("Delete(nil) failed, Len = %d", m.Len())
	}
}

func TestDocumentNodes(t *testing.T) {
	reg := testSchema(t)
	tree := reg.Type("Tree")
	doc := NewDocument("mem:/a.json")
	root, a, b := MustNew(tree), MustNew(tree), MustNew(tree)
	doc.AddRoot(root)
	must(t, root.Add("children", a))
	must(t, a.Set("child", b))
	must(t, root.Add("friends", b)) // references are not walked twice

	if got := doc.Len(); got != 3 {
		t.Errorf("Len = %d, want 3", got)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestPutMapRejectsUncomparableKey(t *testing.T) {
	reg := testSchema(t)
	tree := reg.Type("Tree")
	root, child := MustNew(tree), MustNew(tree)

	if err := root.PutMap("byName", []byte("k"), child); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("PutMap([]byte) error = %v, want %v", err, ErrInvalidKey)
	}
	if child.Container() != nil {
		t.Errorf("Container() = %v, want nil after a rejected put", child.Container())
	}
	if root.Map("byName").Len() != 0 {
		t.Errorf("Len() = %d, want 0", root.Map("byName").Len())
	}
	if err := root.PutMap("byName", nil, child); err != nil {
		t.Errorf("PutMap(nil key): %v", err)
	}
}
