package schema

import (
	"strings"
	"sync"

	"github.com/matzehuels/graphjson/pkg/errors"
)

// Registry is an in-memory Provider built from registered packages.
//
// Register links types (supertypes, feature targets, data types, mixed
// members) and fails on dangling names or inheritance cycles. Lookups are
// safe for concurrent use; registered types must not be mutated.
type Registry struct {
	mu        sync.RWMutex
	packages  []*Package
	types     map[string]*Type
	dataTypes map[string]*DataType
	subtypes  map[*Type][]*Type
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:     make(map[string]*Type),
		dataTypes: make(map[string]*DataType),
		subtypes:  make(map[*Type][]*Type),
	}
}

// MustRegistry builds a registry from pkgs and panics on link errors.
// Intended for tests and package-level schema definitions.
func MustRegistry(pkgs ...*Package) *Registry {
	r := NewRegistry()
	if err := r.Register(pkgs...); err != nil {
		panic(err)
	}
	return r
}

// Register adds packages and relinks the whole registry.
// On error the registry is left unchanged.
func (r *Registry) Register(pkgs ...*Package) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := append(append([]*Package(nil), r.packages...), pkgs...)
	types, dataTypes, err := index(all)
	if err != nil {
		return err
	}
	l := &linker{types: types, dataTypes: dataTypes}
	if err := l.link(all); err != nil {
		return err
	}

	r.packages = all
	r.types = types
	r.dataTypes = dataTypes
	r.subtypes = l.subtypes()
	return nil
}

// Type resolves a bare name, a qualified name or a type URI.
func (r *Registry) Type(id string) *Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[id]
}

// Features returns all features of t, inherited ones first.
func (r *Registry) Features(t *Type) []*Feature {
	if t == nil {
		return nil
	}
	return t.all
}

// Subtypes returns all registered subtypes of t, excluding t itself.
func (r *Registry) Subtypes(t *Type) []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subtypes[t]
}

// DataType returns a registered or built-in data type.
func (r *Registry) DataType(name string) *DataType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dataTypes[name]
}

// Types returns every registered type in registration order.
func (r *Registry) Types() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Type
	for _, p := range r.packages {
		out = append(out, p.Types...)
	}
	return out
}

// Packages returns the registered packages.
func (r *Registry) Packages() []*Package {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Package(nil), r.packages...)
}

var _ Provider = (*Registry)(nil)

func index(pkgs []*Package) (map[string]*Type, map[string]*DataType, error) {
	types := make(map[string]*Type)
	dataTypes := make(map[string]*DataType, len(builtins))
	for name, dt := range builtins {
		dataTypes[name] = dt
	}

	for _, p := range pkgs {
		for _, dt := range p.DataTypes {
			if dt.Name == "" {
				return nil, nil, errors.New(errors.ErrCodeInvalidSchema, "package %q: data type without name", p.Name)
			}
			dataTypes[dt.Name] = dt
			if p.Name != "" {
				dataTypes[p.Name+"."+dt.Name] = dt
			}
		}
		for _, t := range p.Types {
			if t.Name == "" {
				return nil, nil, errors.New(errors.ErrCodeInvalidSchema, "package %q: type without name", p.Name)
			}
			t.pkg = p
			if _, dup := types[t.QualifiedName()]; dup {
				return nil, nil, errors.New(errors.ErrCodeInvalidSchema, "duplicate type %s", t.QualifiedName())
			}
			types[t.QualifiedName()] = t
			types[t.URI()] = t
			// bare names resolve to the first registration
			if _, ok := types[t.Name]; !ok {
				types[t.Name] = t
			}
		}
	}
	return types, dataTypes, nil
}

type linker struct {
	types     map[string]*Type
	dataTypes map[string]*DataType
	ordered   []*Type
}

func (l *linker) lookupType(from *Type, name string) *Type {
	if t, ok := l.types[name]; ok {
		return t
	}
	// unqualified names prefer the referring package
	if from.pkg != nil && from.pkg.Name != "" && !strings.Contains(name, ".") {
		return l.types[from.pkg.Name+"."+name]
	}
	return nil
}

func (l *linker) link(pkgs []*Package) error {
	for _, p := range pkgs {
		for _, t := range p.Types {
			t.supers = t.supers[:0]
			for _, sn := range t.Supertypes {
				s := l.lookupType(t, sn)
				if s == nil {
					return errors.New(errors.ErrCodeInvalidSchema, "type %s: unknown supertype %q", t, sn)
				}
				t.supers = append(t.supers, s)
			}
			l.ordered = append(l.ordered, t)
		}
	}

	for _, t := range l.ordered {
		if err := checkCycle(t, nil); err != nil {
			return err
		}
	}

	for _, t := range l.ordered {
		for _, f := range t.Features {
			if err := l.linkFeature(t, f); err != nil {
				return err
			}
		}
		for _, op := range t.Operations {
			op.owner = t
		}
	}

	for _, t := range l.ordered {
		t.all = nil
		t.allOps = nil
		collect(t, map[*Type]bool{}, &t.all, &t.allOps)
		t.byName = make(map[string]*Feature, len(t.all))
		for _, f := range t.all {
			t.byName[f.Name] = f
		}
	}

	for _, t := range l.ordered {
		for _, f := range t.Features {
			if f.Kind != Mixed {
				continue
			}
			if err := l.linkMembers(t, f); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *linker) linkFeature(t *Type, f *Feature) error {
	f.owner = t
	f.target, f.dataType, f.keyType = nil, nil, nil
	f.group, f.members = nil, nil

	switch f.ValueKindOf() {
	case Reference, Containment:
		f.target = l.lookupType(t, f.Type)
		if f.target == nil {
			return errors.New(errors.ErrCodeInvalidSchema, "feature %s: unknown type %q", f, f.Type)
		}
	case Attribute:
		f.dataType = l.dataType(t, f.Type)
	case Map, Mixed:
		if f.Kind == Map {
			return errors.New(errors.ErrCodeInvalidSchema, "feature %s: map values must be attributes, references or containments", f)
		}
	}

	if f.Kind == Map {
		f.keyType = l.dataType(t, f.KeyType)
		f.Many = false
	}
	return nil
}

// dataType falls back to string for undeclared names.
func (l *linker) dataType(t *Type, name string) *DataType {
	if name == "" {
		return String
	}
	if dt, ok := l.dataTypes[name]; ok {
		return dt
	}
	if t.pkg != nil && t.pkg.Name != "" {
		if dt, ok := l.dataTypes[t.pkg.Name+"."+name]; ok {
			return dt
		}
	}
	return String
}

func (l *linker) linkMembers(t *Type, f *Feature) error {
	f.Many = true
	for _, name := range f.Members {
		m := t.byName[name]
		if m == nil {
			return errors.New(errors.ErrCodeInvalidSchema, "feature %s: unknown member %q", f, name)
		}
		if m.Kind == Map || m.Kind == Mixed {
			return errors.New(errors.ErrCodeInvalidSchema, "feature %s: member %s must be an attribute, reference or containment", f, m.Name)
		}
		m.group = f
		f.members = append(f.members, m)
	}
	return nil
}

func (l *linker) subtypes() map[*Type][]*Type {
	out := make(map[*Type][]*Type)
	for _, t := range l.ordered {
		for _, s := range l.ordered {
			if s != t && s.IsSubtypeOf(t) {
				out[t] = append(out[t], s)
			}
		}
	}
	return out
}

func checkCycle(t *Type, path []*Type) error {
	for _, p := range path {
		if p == t {
			return errors.New(errors.ErrCodeInvalidSchema, "inheritance cycle through %s", t)
		}
	}
	path = append(path, t)
	for _, s := range t.supers {
		if err := checkCycle(s, path); err != nil {
			return err
		}
	}
	return nil
}

func collect(t *Type, seen map[*Type]bool, feats *[]*Feature, ops *[]*Operation) {
	if seen[t] {
		return
	}
	seen[t] = true
	for _, s := range t.supers {
		collect(s, seen, feats, ops)
	}
	*feats = append(*feats, t.Features...)
	*ops = append(*ops, t.Operations...)
}
