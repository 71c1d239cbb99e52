package codec

import (
	"encoding/json"

	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/schema"
	"github.com/matzehuels/graphjson/pkg/token"
)

type attributeProperty struct{ f *schema.Feature }

func (p *attributeProperty) Field() string      { return p.f.Field() }
func (p *attributeProperty) Kind() PropertyKind { return AttributeProperty }

func (p *attributeProperty) decode(st *decodeState, s token.Stream, n *graph.Node) error {
	if !p.f.Many {
		v, ok, err := st.attributeValue(s, p.f)
		if err != nil || !ok {
			return err
		}
		return mutation(n.Set(p.f.Name, v), p.f)
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
		v, ok, err := st.attributeValue(s, p.f)
		if err != nil {
			return err
		}
		if ok {
			if err := n.Add(p.f.Name, v); err != nil {
				return mutation(err, p.f)
			}
		}
	}
}

// attributeValue reads one value of an attribute. Nulls and values that
// fail conversion report ok false; conversion failures are diagnosed.
func (st *decodeState) attributeValue(s token.Stream, f *schema.Feature) (any, bool, error) {
	dt := f.DataType()
	if f.Raw || kindOf(dt) == schema.KindAny {
		tok, err := peek(s)
		if err != nil {
			return nil, false, err
		}
		if tok.Kind == token.Null {
			_, err = next(s)
			return nil, false, err
		}
		if f.Raw {
			text, err := rawJSON(s)
			if err != nil {
				return nil, false, errors.Wrap(errors.ErrCodeStructural, err, "read %s", f)
			}
			return text, true, nil
		}
		v, err := decodeAny(s)
		return v, err == nil, err
	}

	tok, ok, err := st.scalar(s, f.Field())
	if err != nil || !ok || tok.Kind == token.Null {
		return nil, false, err
	}
	v, err := decodeScalar(dt, tok)
	if err != nil {
		st.diagnose(errors.ErrCodeInvalidValue, tok.Offset, "%s: %v", f, err)
		return nil, false, nil
	}
	return v, true, nil
}

func (p *attributeProperty) encode(st *encodeState, n *graph.Node) error {
	if !n.IsSet(p.f.Name) {
		if st.c.opts.SerializeDefaults && p.f.Default != nil && !p.f.Many {
			st.w.Field(p.Field())
			p.value(st.w, p.f.Default)
		}
		return nil
	}
	st.w.Field(p.Field())
	if !p.f.Many {
		p.value(st.w, n.Attr(p.f.Name))
		return nil
	}
	st.w.BeginArray()
	for _, v := range n.Attrs(p.f.Name) {
		p.value(st.w, v)
	}
	st.w.EndArray()
	return nil
}

func (p *attributeProperty) value(w *token.Writer, v any) {
	if s, ok := v.(string); ok && p.f.Raw && json.Valid([]byte(s)) {
		w.Raw([]byte(s))
		return
	}
	encodeScalar(w, p.f.DataType(), v)
}
