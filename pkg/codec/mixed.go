package codec

import (
	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/schema"
	"github.com/matzehuels/graphjson/pkg/token"
)

// mixedProperty encodes a mixed feature as an array of single-member
// objects, {"text": "hi"}, or in key/value form as
// {"featureName": "text", "value": "hi"}. Both forms decode.
type mixedProperty struct{ f *schema.Feature }

func (p *mixedProperty) Field() string      { return p.f.Field() }
func (p *mixedProperty) Kind() PropertyKind { return MixedProperty }

func (p *mixedProperty) decode(st *decodeState, s token.Stream, n *graph.Node) error {
	ok, err := beginArray(s, p.f.Field())
	if err != nil || !ok {
		return err
	}
	for {
		done, err := endOf(s, token.EndArray)
		if err != nil || done {
			return err
		}
		tok, err := next(s)
		if err != nil {
			return err
		}
		switch tok.Kind {
		case token.Null:
			continue
		case token.BeginObject:
		default:
			return unexpected(tok, "object in "+p.f.Field())
		}
		if err := p.decodeElement(st, s, n); err != nil {
			return err
		}
	}
}

// decodeElement reads the members of one array element after its '{'.
func (p *mixedProperty) decodeElement(st *decodeState, s token.Stream, n *graph.Node) error {
	var (
		member  *schema.Feature
		pending *token.Buffer // value seen before featureName
	)
	for {
		ft, err := next(s)
		if err != nil {
			return err
		}
		if ft.Kind == token.EndObject {
			break
		}
		if ft.Kind != token.Field {
			return unexpected(ft, "field")
		}

		switch {
		case ft.Text == mixedKeyField && p.f.Member(mixedKeyField) == nil:
			vt, ok, err := st.scalar(s, ft.Text)
			if err != nil {
				return err
			}
			if !ok || vt.Kind != token.String {
				continue
			}
			if member = p.f.Member(vt.Text); member == nil {
				st.diagnose(errors.ErrCodeUnknownField, vt.Offset, "%s: unknown member %q", p.f, vt.Text)
				continue
			}
			if pending != nil {
				if err := p.decodeMember(st, pending.Stream(), n, member); err != nil {
					return err
				}
				pending = nil
			}

		case ft.Text == mixedValueField && p.f.Member(mixedValueField) == nil:
			if member != nil {
				if err := p.decodeMember(st, s, n, member); err != nil {
					return err
				}
				continue
			}
			pending = &token.Buffer{}
			if err := token.Copy(s, pending); err != nil {
				return errors.Wrap(errors.ErrCodeStructural, err, "read %s", p.f)
			}

		default:
			m := p.f.Member(ft.Text)
			if m == nil {
				st.unknownField(ft, n.Type())
				if err := skip(s); err != nil {
					return err
				}
				continue
			}
			if err := p.decodeMember(st, s, n, m); err != nil {
				return err
			}
		}
	}
	if pending != nil {
		st.diagnose(errors.ErrCodeInvalidValue, -1, "%s: value without %s", p.f, mixedKeyField)
	}
	return nil
}

// decodeMember reads one entry value. Reference members reserve their
// position with a placeholder proxy that resolution replaces.
func (p *mixedProperty) decodeMember(st *decodeState, s token.Stream, n *graph.Node, m *schema.Feature) error {
	switch m.Kind {
	case schema.Containment:
		child, err := st.child(s, m.Target(), m.Field())
		if err != nil || child == nil {
			return err
		}
		return mutation(n.AddEntry(p.f.Name, graph.Entry{Feature: m, Value: child}), p.f)

	case schema.Reference:
		ref, ok, err := st.readRef(s, m)
		if err != nil || !ok {
			return err
		}
		placeholder := graph.NewProxy(m.Target(), ref.id)
		if err := n.AddEntry(p.f.Name, graph.Entry{Feature: m, Value: placeholder}); err != nil {
			return mutation(err, p.f)
		}
		pending := ref.pending(n, p.f)
		pending.Member = m
		pending.Placeholder = placeholder
		st.ledger.Record(pending)
		return nil
	}

	v, ok, err := st.attributeValue(s, m)
	if err != nil || !ok {
		return err
	}
	return mutation(n.AddEntry(p.f.Name, graph.Entry{Feature: m, Value: v}), p.f)
}

func (p *mixedProperty) encode(st *encodeState, n *graph.Node) error {
	entries := n.Entries(p.f.Name)
	if len(entries) == 0 {
		return nil
	}
	st.w.Field(p.Field())
	st.w.BeginArray()
	for _, e := range entries {
		st.w.BeginObject()
		if st.c.opts.MixedKeyValue {
			st.w.Field(mixedKeyField)
			st.w.String(e.Feature.Field())
			st.w.Field(mixedValueField)
		} else {
			st.w.Field(e.Feature.Field())
		}
		if err := p.encodeValue(st, e); err != nil {
			return err
		}
		st.w.EndObject()
	}
	st.w.EndArray()
	return nil
}

func (p *mixedProperty) encodeValue(st *encodeState, e graph.Entry) error {
	switch e.Feature.Kind {
	case schema.Containment:
		child, _ := e.Value.(*graph.Node)
		if child == nil {
			st.w.Null()
			return nil
		}
		return st.writeObject(child, e.Feature)
	case schema.Reference:
		t, _ := e.Value.(*graph.Node)
		if t == nil {
			st.w.Null()
			return nil
		}
		st.writeRef(t)
		return nil
	}
	encodeScalar(st.w, e.Feature.DataType(), e.Value)
	return nil
}
