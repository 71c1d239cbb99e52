package schema

import (
	"fmt"
	"strings"
)

// Kind classifies a structural feature.
type Kind uint8

const (
	// Attribute holds scalar data values.
	Attribute Kind = iota
	// Reference is a non-owning edge to another node.
	Reference
	// Containment is an owning edge; the target's lifetime is bound to the owner.
	Containment
	// Map holds an ordered key/value collection.
	Map
	// Mixed holds an ordered heterogeneous sequence of member-tagged entries.
	Mixed
)

var kindNames = [...]string{"attribute", "reference", "containment", "map", "mixed"}

// String returns the lowercase kind name used in schema files.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseKind parses a kind name. The empty string is Attribute.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return Attribute, nil
	}
	for i, n := range kindNames {
		if strings.EqualFold(n, s) {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown feature kind %q", s)
}

// Feature describes one structural feature of a type.
//
// Type names the feature's value type: a data type for attributes and
// scalar map values, a node type for references, containments and
// node-valued maps.
type Feature struct {
	Name     string
	JSONName string   // serialized field name, defaults to Name
	Aliases  []string // alternative field names accepted on decode
	Kind     Kind
	Type     string
	Many     bool

	KeyType   string // map key data type, defaults to "string"
	ValueKind Kind   // map value kind: Attribute, Reference or Containment

	Members []string // names of the member features of a Mixed feature

	Ignore    bool // never serialized
	Transient bool // never serialized, kept in memory
	Raw       bool // string attribute holding raw JSON
	Lazy      bool // unresolved references stay proxies until accessed
	Default   any  // value written when unset and defaults are serialized

	owner    *Type
	target   *Type
	dataType *DataType
	keyType  *DataType
	group    *Feature
	members  []*Feature
}

// Field returns the serialized field name.
func (f *Feature) Field() string {
	if f.JSONName != "" {
		return f.JSONName
	}
	return f.Name
}

// Owner returns the type that declares f.
func (f *Feature) Owner() *Type { return f.owner }

// Target returns the node type of a reference, containment or node-valued map.
func (f *Feature) Target() *Type { return f.target }

// DataType returns the data type of an attribute or scalar-valued map.
func (f *Feature) DataType() *DataType { return f.dataType }

// KeyDataType returns the key data type of a map feature.
func (f *Feature) KeyDataType() *DataType { return f.keyType }

// Group returns the Mixed feature f is a member of, or nil.
func (f *Feature) Group() *Feature { return f.group }

// MemberFeatures returns the resolved members of a Mixed feature.
func (f *Feature) MemberFeatures() []*Feature { return f.members }

// Member returns the member whose name or field name is name.
func (f *Feature) Member(name string) *Feature {
	for _, m := range f.members {
		if m.Name == name || m.Field() == name {
			return m
		}
	}
	return nil
}

// ValueKindOf returns the kind of values held by f: the declared ValueKind
// for maps, f.Kind otherwise.
func (f *Feature) ValueKindOf() Kind {
	if f.Kind == Map {
		return f.ValueKind
	}
	return f.Kind
}

// IsContainment reports whether values of f are owned by the declaring node.
func (f *Feature) IsContainment() bool {
	return f.ValueKindOf() == Containment
}

// IsReference reports whether values of f are non-owning node edges.
func (f *Feature) IsReference() bool {
	return f.ValueKindOf() == Reference
}

// Serialized reports whether f takes part in JSON encoding.
func (f *Feature) Serialized() bool {
	return !f.Ignore && !f.Transient && f.group == nil
}

func (f *Feature) String() string {
	if f.owner != nil {
		return f.owner.Name + "." + f.Name
	}
	return f.Name
}

// Operation is a derived, computed property of a type.
// Only exposed operations without parameters are serialized.
type Operation struct {
	Name       string
	JSONName   string
	Expression string
	Params     []string
	Expose     bool

	owner *Type
}

// Field returns the serialized field name.
func (o *Operation) Field() string {
	if o.JSONName != "" {
		return o.JSONName
	}
	return o.Name
}

// Owner returns the type that declares o.
func (o *Operation) Owner() *Type { return o.owner }

// Type describes a node type: its supertypes, features and operations.
// Types are linked by a Registry and must not be mutated afterwards.
type Type struct {
	Name       string
	Abstract   bool
	Supertypes []string
	TypeField  string // overrides the type-tag field name for this type
	Features   []*Feature
	Operations []*Operation

	pkg    *Package
	supers []*Type
	all    []*Feature
	allOps []*Operation
	byName map[string]*Feature
}

// Package returns the package t belongs to.
func (t *Type) Package() *Package { return t.pkg }

// URI returns the type's URI in the form nsURI#//Name.
func (t *Type) URI() string {
	if t.pkg == nil || t.pkg.URI == "" {
		return "#//" + t.Name
	}
	return t.pkg.URI + "#//" + t.Name
}

// QualifiedName returns package.Name, or Name when t has no named package.
func (t *Type) QualifiedName() string {
	if t.pkg == nil || t.pkg.Name == "" {
		return t.Name
	}
	return t.pkg.Name + "." + t.Name
}

// Supers returns the resolved direct supertypes.
func (t *Type) Supers() []*Type { return t.supers }

// IsSubtypeOf reports whether t equals o or inherits from it.
func (t *Type) IsSubtypeOf(o *Type) bool {
	if t == nil || o == nil {
		return false
	}
	if t == o {
		return true
	}
	for _, s := range t.supers {
		if s.IsSubtypeOf(o) {
			return true
		}
	}
	return false
}

// AllFeatures returns every feature of t including inherited ones.
// Supertype features come first, in declaration order.
func (t *Type) AllFeatures() []*Feature { return t.all }

// AllOperations returns every operation of t including inherited ones.
func (t *Type) AllOperations() []*Operation { return t.allOps }

// Feature returns the feature named name, searching supertypes.
func (t *Type) Feature(name string) *Feature {
	return t.byName[name]
}

func (t *Type) String() string { return t.QualifiedName() }

// Package groups types and data types under a namespace URI.
type Package struct {
	Name      string
	URI       string
	Types     []*Type
	DataTypes []*DataType
}

// Provider is the read-only schema oracle consumed by the codec.
type Provider interface {
	// Type resolves a type identifier: a bare name, a qualified name, or a type URI.
	Type(id string) *Type

	// Features returns all features of t, inherited ones first.
	Features(t *Type) []*Feature

	// Subtypes returns all known direct and indirect subtypes of t.
	Subtypes(t *Type) []*Type
}
