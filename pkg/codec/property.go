package codec

import (
	"context"
	"fmt"

	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/schema"
	"github.com/matzehuels/graphjson/pkg/token"
)

// PropertyKind identifies what a property reads and writes.
type PropertyKind uint8

const (
	RefTagProperty PropertyKind = iota
	TypeTagProperty
	IdentityProperty
	AttributeProperty
	ReferenceProperty
	ContainmentProperty
	MapProperty
	MixedProperty
	OperationProperty
)

var propertyKindNames = [...]string{
	"ref-tag", "type-tag", "identity", "attribute", "reference",
	"containment", "map", "mixed", "operation",
}

func (k PropertyKind) String() string {
	if int(k) < len(propertyKindNames) {
		return propertyKindNames[k]
	}
	return fmt.Sprintf("property(%d)", k)
}

// Property is one serialized field of a type: a synthetic tag, a
// structural feature or an exposed operation.
type Property interface {
	// Field is the JSON field name.
	Field() string
	Kind() PropertyKind

	// decode reads the field's value, whose first token has not been
	// consumed yet, into n.
	decode(st *decodeState, s token.Stream, n *graph.Node) error

	// encode writes the field and its value for n, or nothing when the
	// value is absent.
	encode(st *encodeState, n *graph.Node) error
}

// decodeState is the per-call decoding context.
type decodeState struct {
	ctx    context.Context
	c      *Codec
	doc    *graph.Document
	ledger *Ledger
}

func (st *decodeState) diagnose(code errors.Code, offset int64, format string, args ...any) {
	st.doc.Diagnosef(code, offset, format, args...)
	st.c.log.Debug("decode diagnostic", "code", code, "offset", offset, "msg", fmt.Sprintf(format, args...))
}

func (st *decodeState) unknownField(tok token.Token, t *schema.Type) {
	if st.c.opts.StrictUnknownFields {
		st.diagnose(errors.ErrCodeUnknownField, tok.Offset, "unknown field %q on %v", tok.Text, t)
	}
}

// resolve turns a reference identifier into an absolute URI.
func (st *decodeState) resolve(ref string) string {
	return st.c.opts.URIHandler.Resolve(st.doc.URI, ref)
}

// scalar consumes a scalar value. A container is skipped and reported as
// an invalid value, with ok false.
func (st *decodeState) scalar(s token.Stream, what string) (tok token.Token, ok bool, err error) {
	tok, err = peek(s)
	if err != nil {
		return tok, false, err
	}
	switch {
	case tok.Kind == token.BeginObject || tok.Kind == token.BeginArray:
		st.diagnose(errors.ErrCodeInvalidValue, tok.Offset, "%s: expected a scalar, got %s", what, tok.Kind)
		return tok, false, skip(s)
	case !tok.Kind.IsScalar():
		return tok, false, unexpected(tok, "a value")
	}
	tok, err = next(s)
	return tok, err == nil, err
}

// beginArray consumes the '[' of a many-valued field. A null value is
// consumed and reported with ok false.
func beginArray(s token.Stream, what string) (ok bool, err error) {
	tok, err := next(s)
	if err != nil {
		return false, err
	}
	switch tok.Kind {
	case token.BeginArray:
		return true, nil
	case token.Null:
		return false, nil
	}
	return false, unexpected(tok, "array for "+what)
}

// endOf consumes the closing token if it is next.
func endOf(s token.Stream, kind token.Kind) (bool, error) {
	tok, err := peek(s)
	if err != nil {
		return false, err
	}
	if tok.Kind == kind {
		_, err = next(s)
		return true, err
	}
	if tok.Kind == token.EOF {
		return false, unexpected(tok, kind.String())
	}
	return false, nil
}

func next(s token.Stream) (token.Token, error) {
	tok, err := s.Next()
	if err != nil {
		return tok, errors.Wrap(errors.ErrCodeStructural, err, "read token")
	}
	return tok, nil
}

func peek(s token.Stream) (token.Token, error) {
	tok, err := s.Peek()
	if err != nil {
		return tok, errors.Wrap(errors.ErrCodeStructural, err, "read token")
	}
	return tok, nil
}

func skip(s token.Stream) error {
	if err := token.Skip(s); err != nil {
		return errors.Wrap(errors.ErrCodeStructural, err, "skip value")
	}
	return nil
}

func unexpected(tok token.Token, want string) error {
	return errors.New(errors.ErrCodeStructural, "offset %d: expected %s, got %s", tok.Offset, want, tok)
}

func mutation(err error, f *schema.Feature) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "update %s", f)
}

// encodeState is the per-call encoding context.
type encodeState struct {
	ctx   context.Context
	c     *Codec
	doc   *graph.Document
	w     *token.Writer
	slot  *schema.Feature // feature holding the object being written
	nodes int
}

func (st *encodeState) deresolve(abs string) string {
	return st.c.opts.URIHandler.Deresolve(st.doc.URI, abs)
}

// refTagProperty marks proxies: on decode the object becomes a proxy for
// the given URI, on encode a proxy writes its URI.
type refTagProperty struct{ field string }

func (p *refTagProperty) Field() string      { return p.field }
func (p *refTagProperty) Kind() PropertyKind { return RefTagProperty }

func (p *refTagProperty) decode(st *decodeState, s token.Stream, n *graph.Node) error {
	tok, ok, err := st.scalar(s, p.field)
	if err != nil || !ok {
		return err
	}
	switch tok.Kind {
	case token.String:
		n.SetProxyURI(st.resolve(tok.Text))
	case token.Null:
	default:
		st.diagnose(errors.ErrCodeInvalidValue, tok.Offset, "%s: expected a string, got %s", p.field, tok.Kind)
	}
	return nil
}

func (p *refTagProperty) encode(st *encodeState, n *graph.Node) error {
	if !n.IsProxy() {
		return nil
	}
	st.w.Field(p.field)
	st.w.String(st.deresolve(n.ProxyURI()))
	return nil
}

// typeTagProperty writes the node's type. Type tags are intercepted by the
// object decoder before property lookup.
type typeTagProperty struct{ field string }

func (p *typeTagProperty) Field() string      { return p.field }
func (p *typeTagProperty) Kind() PropertyKind { return TypeTagProperty }

func (p *typeTagProperty) decode(_ *decodeState, s token.Stream, _ *graph.Node) error {
	return skip(s)
}

func (p *typeTagProperty) encode(st *encodeState, n *graph.Node) error {
	t := n.Type()
	if !st.c.opts.SerializeTypes || t == nil {
		return nil
	}
	if st.c.opts.MinimizeTypes && st.slot != nil && st.slot.Target() == t {
		return nil
	}
	st.w.Field(p.field)
	st.w.String(st.c.typeTag(t))
	return nil
}

// identityProperty reads and writes document-level ids.
type identityProperty struct{ field string }

func (p *identityProperty) Field() string      { return p.field }
func (p *identityProperty) Kind() PropertyKind { return IdentityProperty }

func (p *identityProperty) decode(st *decodeState, s token.Stream, n *graph.Node) error {
	tok, ok, err := st.scalar(s, p.field)
	if err != nil || !ok {
		return err
	}
	switch tok.Kind {
	case token.String, token.Number:
		if tok.Text != "" {
			st.doc.SetID(n, tok.Text)
		}
	case token.Null:
	default:
		st.diagnose(errors.ErrCodeInvalidValue, tok.Offset, "%s: expected a string, got %s", p.field, tok.Kind)
	}
	return nil
}

func (p *identityProperty) encode(st *encodeState, n *graph.Node) error {
	if n.IsProxy() {
		return nil
	}
	if id := st.doc.EnsureID(n, st.c.newID); id != "" {
		st.w.Field(p.field)
		st.w.String(id)
	}
	return nil
}
