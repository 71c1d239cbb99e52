package codec

import (
	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/schema"
	"github.com/matzehuels/graphjson/pkg/token"
)

// mapProperty encodes a map feature as a JSON object keyed by the
// textual form of each key.
type mapProperty struct{ f *schema.Feature }

func (p *mapProperty) Field() string      { return p.f.Field() }
func (p *mapProperty) Kind() PropertyKind { return MapProperty }

func (p *mapProperty) decode(st *decodeState, s token.Stream, n *graph.Node) error {
	tok, err := next(s)
	if err != nil {
		return err
	}
	switch tok.Kind {
	case token.Null:
		return nil
	case token.BeginObject:
	default:
		return unexpected(tok, "object for "+p.f.Field())
	}

	for {
		kt, err := next(s)
		if err != nil {
			return err
		}
		if kt.Kind == token.EndObject {
			return nil
		}
		if kt.Kind != token.Field {
			return unexpected(kt, "key")
		}
		key, err := decodeKey(p.f.KeyDataType(), kt.Text)
		if err != nil {
			st.diagnose(errors.ErrCodeInvalidKey, kt.Offset, "%s: %v", p.f, err)
			key = kt.Text
		}
		if err := p.decodeValue(st, s, n, key); err != nil {
			return err
		}
	}
}

func (p *mapProperty) decodeValue(st *decodeState, s token.Stream, n *graph.Node, key any) error {
	switch p.f.ValueKind {
	case schema.Containment:
		child, err := st.child(s, p.f.Target(), p.f.Field())
		if err != nil || child == nil {
			return err
		}
		return mutation(n.PutMap(p.f.Name, key, child), p.f)

	case schema.Reference:
		ref, ok, err := st.readRef(s, p.f)
		if err != nil || !ok {
			return err
		}
		// reserve the key so resolution keeps source order
		if err := n.PutMap(p.f.Name, key, nil); err != nil {
			return mutation(err, p.f)
		}
		pending := ref.pending(n, p.f)
		pending.Key, pending.Keyed = key, true
		st.ledger.Record(pending)
		return nil
	}

	tok, err := peek(s)
	if err != nil {
		return err
	}
	if tok.Kind == token.Null {
		if _, err := next(s); err != nil {
			return err
		}
		return mutation(n.PutMap(p.f.Name, key, nil), p.f)
	}
	v, ok, err := st.attributeValue(s, p.f)
	if err != nil || !ok {
		return err
	}
	return mutation(n.PutMap(p.f.Name, key, v), p.f)
}

func (p *mapProperty) encode(st *encodeState, n *graph.Node) error {
	m := n.Map(p.f.Name)
	if m == nil || m.Len() == 0 {
		return nil
	}
	st.w.Field(p.Field())
	st.w.BeginObject()
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		st.w.Field(formatKey(p.f.KeyDataType(), k))
		switch p.f.ValueKind {
		case schema.Containment:
			child, _ := v.(*graph.Node)
			if child == nil {
				st.w.Null()
				continue
			}
			if err := st.writeObject(child, p.f); err != nil {
				return err
			}
		case schema.Reference:
			t, _ := v.(*graph.Node)
			if t == nil {
				st.w.Null()
				continue
			}
			st.writeRef(t)
		default:
			encodeScalar(st.w, p.f.DataType(), v)
		}
	}
	st.w.EndObject()
	return nil
}
