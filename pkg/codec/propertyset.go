package codec

import (
	"github.com/matzehuels/graphjson/pkg/schema"
)

// PropertySet is the ordered list of properties that make up the JSON
// form of one type, plus a field-name index used on decode.
//
// Order: reference tag, type tag, identity, features (supertypes first),
// exposed operations.
type PropertySet struct {
	typ        *schema.Type
	typeField  string
	props      []Property
	byField    map[string]Property
	typeFields map[string]bool
}

// Type returns the set's type, nil for the default set.
func (s *PropertySet) Type() *schema.Type { return s.typ }

// TypeField returns the field that carries this type's tag.
func (s *PropertySet) TypeField() string { return s.typeField }

// Properties returns the properties in encoding order.
func (s *PropertySet) Properties() []Property { return s.props }

// Lookup returns the property serialized under field, or nil.
// When two properties share a field name the later one wins.
func (s *PropertySet) Lookup(field string) Property { return s.byField[field] }

// IsTypeField reports whether field carries a type tag for this type or
// one of its subtypes.
func (s *PropertySet) IsTypeField(field string) bool { return s.typeFields[field] }

func (s *PropertySet) add(p Property, aliases ...string) {
	s.props = append(s.props, p)
	s.byField[p.Field()] = p
	for _, a := range aliases {
		s.byField[a] = p
	}
}

func (c *Codec) buildSet(t *schema.Type) *PropertySet {
	s := &PropertySet{
		typ:        t,
		typeField:  c.opts.TypeField,
		byField:    make(map[string]Property),
		typeFields: map[string]bool{c.opts.TypeField: true},
	}
	if t != nil && t.TypeField != "" {
		s.typeField = t.TypeField
	}
	s.typeFields[s.typeField] = true
	if t != nil {
		for _, sub := range c.schema.Subtypes(t) {
			if sub.TypeField != "" {
				s.typeFields[sub.TypeField] = true
			}
		}
	}

	s.add(&refTagProperty{field: c.opts.RefField})
	s.add(&typeTagProperty{field: s.typeField})
	if t == nil {
		return s
	}
	if c.opts.UseID {
		s.add(&identityProperty{field: c.opts.IDField})
	}
	for _, f := range c.schema.Features(t) {
		if !f.Serialized() {
			continue
		}
		s.add(c.featureProperty(f), f.Aliases...)
	}
	for _, op := range t.AllOperations() {
		if op.Expose && len(op.Params) == 0 {
			s.add(&operationProperty{op: op})
		}
	}
	return s
}

func (c *Codec) featureProperty(f *schema.Feature) Property {
	switch f.Kind {
	case schema.Reference:
		return &referenceProperty{f: f}
	case schema.Containment:
		return &containmentProperty{f: f}
	case schema.Map:
		return &mapProperty{f: f}
	case schema.Mixed:
		return &mixedProperty{f: f}
	}
	return &attributeProperty{f: f}
}
