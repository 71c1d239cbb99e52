package codec

import (
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/schema"
	"github.com/matzehuels/graphjson/pkg/token"
)

// containmentProperty owns its values. A child is attached only after it
// has been fully decoded.
type containmentProperty struct{ f *schema.Feature }

func (p *containmentProperty) Field() string      { return p.f.Field() }
func (p *containmentProperty) Kind() PropertyKind { return ContainmentProperty }

func (p *containmentProperty) decode(st *decodeState, s token.Stream, n *graph.Node) error {
	if !p.f.Many {
		child, err := st.child(s, p.f.Target(), p.f.Field())
		if err != nil || child == nil {
			return err
		}
		return mutation(n.Set(p.f.Name, child), p.f)
	}
	ok, err := beginArray(s, p.f.Field())
	if err != nil || !ok {
		return err
	}
	for {
		done, err := endOf(s, token.EndArray)
		if err != nil || done {
			return err
		}
		child, err := st.child(s, p.f.Target(), p.f.Field())
		if err != nil {
			return err
		}
		if child != nil {
			if err := n.Add(p.f.Name, child); err != nil {
				return mutation(err, p.f)
			}
		}
	}
}

// child reads a contained object. null yields no node.
func (st *decodeState) child(s token.Stream, t *schema.Type, what string) (*graph.Node, error) {
	tok, err := peek(s)
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case token.Null:
		_, err = next(s)
		return nil, err
	case token.BeginObject:
		return st.readObject(s, t, true)
	}
	return nil, unexpected(tok, "object for "+what)
}

func (p *containmentProperty) encode(st *encodeState, n *graph.Node) error {
	if !p.f.Many {
		child := n.Ref(p.f.Name)
		if child == nil {
			return nil
		}
		st.w.Field(p.Field())
		return st.writeObject(child, p.f)
	}
	children := n.Refs(p.f.Name)
	if len(children) == 0 {
		return nil
	}
	st.w.Field(p.Field())
	st.w.BeginArray()
	for _, child := range children {
		if err := st.writeObject(child, p.f); err != nil {
			return err
		}
	}
	st.w.EndArray()
	return nil
}
