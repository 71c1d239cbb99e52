package codec

import (
	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/schema"
	"github.com/matzehuels/graphjson/pkg/token"
)

// readObject decodes one JSON object into a node.
//
// hint is the declared type of the slot, or the root type. When conform
// is set the object's type must be hint or one of its subtypes, and a
// concrete hint creates the node before any field is read. A later type
// tag naming a subtype retypes it in place, so fields unknown to the
// current type are held back until the end of the object.
//
// Without a concrete hint, fields are buffered until a type tag shows up
// and replayed once the node exists. If no tag appears the hint is used
// when concrete; otherwise the object is dropped with a diagnostic.
func (st *decodeState) readObject(s token.Stream, hint *schema.Type, conform bool) (*graph.Node, error) {
	start, err := next(s)
	if err != nil {
		return nil, err
	}
	if start.Kind != token.BeginObject {
		return nil, unexpected(start, "object")
	}

	var (
		node *graph.Node
		set  = st.c.PropertySet(hint)
		buf  *token.Buffer // fields seen before the type is known
		late *token.Buffer // unknown fields that may belong to a subtype
	)
	if conform && hint != nil && !hint.Abstract {
		if node, err = graph.New(hint); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "instantiate %s", hint)
		}
	}

	for {
		tok, err := next(s)
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.EndObject {
			break
		}
		if tok.Kind != token.Field {
			return nil, unexpected(tok, "field")
		}

		if set.IsTypeField(tok.Text) {
			t, err := st.readTypeTag(s, hint, conform)
			if err != nil {
				return nil, err
			}
			if t == nil {
				continue
			}
			switch {
			case node == nil:
				if node, err = graph.New(t); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInternal, err, "instantiate %s", t)
				}
				set = st.c.PropertySet(t)
				if buf != nil {
					if err := st.replay(buf, set, node); err != nil {
						return nil, err
					}
					buf = nil
				}
			case t == node.Type():
			case t.IsSubtypeOf(node.Type()):
				if err := node.Retype(t); err != nil {
					return nil, errors.Wrap(errors.ErrCodeInternal, err, "retype")
				}
				set = st.c.PropertySet(t)
			default:
				st.diagnose(errors.ErrCodeInvalidValue, tok.Offset, "type %s conflicts with %s", t, node.Type())
			}
			continue
		}

		if node == nil {
			if buf == nil {
				buf = &token.Buffer{}
			}
			buf.Append(tok)
			if err := token.Copy(s, buf); err != nil {
				return nil, errors.Wrap(errors.ErrCodeStructural, err, "buffer field %q", tok.Text)
			}
			continue
		}
		if set.Lookup(tok.Text) == nil && len(st.c.schema.Subtypes(node.Type())) > 0 {
			if late == nil {
				late = &token.Buffer{}
			}
			late.Append(tok)
			if err := token.Copy(s, late); err != nil {
				return nil, errors.Wrap(errors.ErrCodeStructural, err, "buffer field %q", tok.Text)
			}
			continue
		}
		if err := st.field(s, tok, set, node); err != nil {
			return nil, err
		}
	}

	if node != nil {
		if late != nil {
			if err := st.replay(late, set, node); err != nil {
				return nil, err
			}
		}
		return node, nil
	}
	if buf != nil {
		if t := st.bufferedType(buf, hint, conform); t != nil {
			if node, err = graph.New(t); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "instantiate %s", t)
			}
			if err := st.replay(buf, st.c.PropertySet(t), node); err != nil {
				return nil, err
			}
			return node, nil
		}
	}
	if hint == nil || hint.Abstract {
		st.diagnose(errors.ErrCodeUnknownType, start.Offset, "cannot determine the type of object")
		return nil, nil
	}
	if node, err = graph.New(hint); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "instantiate %s", hint)
	}
	if buf != nil {
		if err := st.replay(buf, st.c.PropertySet(hint), node); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// bufferedType looks for a type-specific tag field among buffered fields.
// The named type must declare that field as its own tag.
func (st *decodeState) bufferedType(buf *token.Buffer, hint *schema.Type, conform bool) *schema.Type {
	for _, field := range st.c.typeFields {
		name, ok := buf.FieldString(field)
		if !ok {
			continue
		}
		t := st.c.schema.Type(name)
		if t == nil || t.Abstract || t.TypeField != field {
			continue
		}
		if conform && hint != nil && !t.IsSubtypeOf(hint) {
			continue
		}
		return t
	}
	return nil
}

// readTypeTag reads a type tag value and checks it against hint.
func (st *decodeState) readTypeTag(s token.Stream, hint *schema.Type, conform bool) (*schema.Type, error) {
	tok, ok, err := st.scalar(s, "type tag")
	if err != nil || !ok || tok.Kind == token.Null {
		return nil, err
	}
	if tok.Kind != token.String {
		st.diagnose(errors.ErrCodeInvalidValue, tok.Offset, "type tag: expected a string, got %s", tok.Kind)
		return nil, nil
	}
	t := st.c.schema.Type(tok.Text)
	switch {
	case t == nil:
		st.diagnose(errors.ErrCodeUnknownType, tok.Offset, "unknown type %q", tok.Text)
		return nil, nil
	case t.Abstract:
		st.diagnose(errors.ErrCodeUnknownType, tok.Offset, "type %s is abstract", t)
		return nil, nil
	case conform && hint != nil && !t.IsSubtypeOf(hint):
		st.diagnose(errors.ErrCodeInvalidValue, tok.Offset, "type %s is not a %s", t, hint)
		return nil, nil
	}
	return t, nil
}

// field decodes the value of the field named by tok.
func (st *decodeState) field(s token.Stream, tok token.Token, set *PropertySet, n *graph.Node) error {
	p := set.Lookup(tok.Text)
	if p == nil {
		st.unknownField(tok, n.Type())
		return skip(s)
	}
	return p.decode(st, s, n)
}

// replay decodes buffered fields into n.
func (st *decodeState) replay(buf *token.Buffer, set *PropertySet, n *graph.Node) error {
	rs := buf.Stream()
	for {
		tok, err := next(rs)
		if err != nil {
			return err
		}
		switch tok.Kind {
		case token.EOF:
			return nil
		case token.Field:
		default:
			return unexpected(tok, "field")
		}
		if err := st.field(rs, tok, set, n); err != nil {
			return err
		}
	}
}

// writeObject writes n as a JSON object. slot is the feature holding n,
// nil for roots.
func (st *encodeState) writeObject(n *graph.Node, slot *schema.Feature) error {
	prev := st.slot
	st.slot = slot
	defer func() { st.slot = prev }()

	st.nodes++
	st.w.BeginObject()
	for _, p := range st.c.PropertySet(n.Type()).Properties() {
		if err := p.encode(st, n); err != nil {
			return err
		}
	}
	st.w.EndObject()
	return st.w.Err()
}
