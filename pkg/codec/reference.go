package codec

import (
	"strings"

	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/schema"
	"github.com/matzehuels/graphjson/pkg/token"
	"github.com/matzehuels/graphjson/pkg/uri"
)

type referenceProperty struct{ f *schema.Feature }

func (p *referenceProperty) Field() string      { return p.f.Field() }
func (p *referenceProperty) Kind() PropertyKind { return ReferenceProperty }

func (p *referenceProperty) decode(st *decodeState, s token.Stream, n *graph.Node) error {
	if !p.f.Many {
		ref, ok, err := st.readRef(s, p.f)
		if err != nil || !ok {
			return err
		}
		st.ledger.Record(ref.pending(n, p.f))
		return nil
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
		ref, ok, err := st.readRef(s, p.f)
		if err != nil {
			return err
		}
		if ok {
			st.ledger.Record(ref.pending(n, p.f))
		}
	}
}

func (p *referenceProperty) encode(st *encodeState, n *graph.Node) error {
	if !p.f.Many {
		t := n.Ref(p.f.Name)
		if t == nil {
			return nil
		}
		st.w.Field(p.Field())
		st.writeRef(t)
		return nil
	}
	refs := n.Refs(p.f.Name)
	if len(refs) == 0 {
		return nil
	}
	st.w.Field(p.Field())
	st.w.BeginArray()
	for _, t := range refs {
		st.writeRef(t)
	}
	st.w.EndArray()
	return nil
}

// refValue is a reference as read from JSON, before resolution.
type refValue struct {
	id     string
	hint   string
	offset int64
}

func (r refValue) pending(owner *graph.Node, f *schema.Feature) Reference {
	return Reference{Owner: owner, Feature: f, ID: r.id, TypeHint: r.hint, Offset: r.offset}
}

// readRef reads a reference value: {"$ref": id, "eClass": type} or a
// bare id string. Field names inside the object match case-insensitively.
// ok is false for null, for a null $ref and for values without an id.
func (st *decodeState) readRef(s token.Stream, f *schema.Feature) (refValue, bool, error) {
	tok, err := peek(s)
	if err != nil {
		return refValue{}, false, err
	}
	r := refValue{offset: tok.Offset}
	switch tok.Kind {
	case token.Null:
		_, err = next(s)
		return r, false, err
	case token.String:
		if _, err = next(s); err != nil {
			return r, false, err
		}
		r.id = tok.Text
		return r, r.id != "", nil
	case token.BeginObject:
	default:
		st.diagnose(errors.ErrCodeInvalidValue, tok.Offset, "%s: expected a reference, got %s", f, tok.Kind)
		return r, false, skip(s)
	}

	if _, err = next(s); err != nil {
		return r, false, err
	}
	opts := st.c.opts
	empty := false // explicit null target
	for {
		ft, err := next(s)
		if err != nil {
			return r, false, err
		}
		if ft.Kind == token.EndObject {
			break
		}
		if ft.Kind != token.Field {
			return r, false, unexpected(ft, "field")
		}
		switch {
		case strings.EqualFold(ft.Text, opts.RefField):
			vt, ok, err := st.scalar(s, ft.Text)
			if err != nil {
				return r, false, err
			}
			switch {
			case ok && vt.Kind == token.String:
				r.id = vt.Text
			case ok && vt.Kind == token.Null:
				empty = true
			}
		case strings.EqualFold(ft.Text, opts.TypeField):
			vt, ok, err := st.scalar(s, ft.Text)
			if err != nil {
				return r, false, err
			}
			if ok && vt.Kind == token.String {
				r.hint = vt.Text
			}
		default:
			st.unknownField(ft, f.Target())
			if err := skip(s); err != nil {
				return r, false, err
			}
		}
	}
	if r.id == "" {
		if empty {
			return r, false, nil
		}
		st.diagnose(errors.ErrCodeInvalidValue, r.offset, "%s: reference without %s", f, opts.RefField)
		return r, false, nil
	}
	return r, true, nil
}

// writeRef writes {"eClass": type, "$ref": href}. The href is null when t
// cannot be addressed.
func (st *encodeState) writeRef(t *graph.Node) {
	href := st.href(t)
	st.w.BeginObject()
	if st.c.opts.SerializeTypes && t.Type() != nil {
		st.w.Field(st.c.opts.TypeField)
		st.w.String(st.c.typeTag(t.Type()))
	}
	st.w.Field(st.c.opts.RefField)
	if href == "" {
		st.w.Null()
	} else {
		st.w.String(href)
	}
	st.w.EndObject()
}

// href returns the identifier written for a reference to t: its fragment
// within the document being encoded, otherwise a URI relative to it.
func (st *encodeState) href(t *graph.Node) string {
	if t.IsProxy() {
		return st.deresolve(t.ProxyURI())
	}
	d := t.Document()
	switch {
	case d == nil:
		return ""
	case d == st.doc:
		if st.c.opts.UseID {
			if id := d.EnsureID(t, st.c.newID); id != "" {
				return id
			}
		}
		return d.Fragment(t)
	}
	frag := d.Fragment(t)
	if frag == "" {
		return ""
	}
	return st.deresolve(uri.Join(d.URI, frag))
}
