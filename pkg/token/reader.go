package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

type frame uint8

const (
	inObject frame = iota + 1
	inArray
)

// Reader is a Stream over JSON text.
type Reader struct {
	dec       *json.Decoder
	stack     []frame
	expectKey bool
	peeked    *Token
}

// NewReader creates a Stream reading JSON from r.
// Numbers are kept as their literal text.
func NewReader(r io.Reader) *Reader {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &Reader{dec: dec}
}

// Next implements Stream.
func (r *Reader) Next() (Token, error) {
	if r.peeked != nil {
		tok := *r.peeked
		r.peeked = nil
		return tok, nil
	}
	return r.read()
}

// Peek implements Stream.
func (r *Reader) Peek() (Token, error) {
	if r.peeked == nil {
		tok, err := r.read()
		if err != nil {
			return tok, err
		}
		r.peeked = &tok
	}
	return *r.peeked, nil
}

func (r *Reader) read() (Token, error) {
	off := r.dec.InputOffset()
	raw, err := r.dec.Token()
	if errors.Is(err, io.EOF) {
		if len(r.stack) > 0 {
			return Token{Kind: Invalid, Offset: off}, fmt.Errorf("%w: unexpected end of input at offset %d", ErrSyntax, off)
		}
		return Token{Kind: EOF, Offset: off}, nil
	}
	if err != nil {
		return Token{Kind: Invalid, Offset: off}, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	switch v := raw.(type) {
	case json.Delim:
		switch v {
		case '{':
			r.stack = append(r.stack, inObject)
			r.expectKey = true
			return Token{Kind: BeginObject, Offset: off}, nil
		case '[':
			r.stack = append(r.stack, inArray)
			return Token{Kind: BeginArray, Offset: off}, nil
		case '}':
			r.pop()
			return Token{Kind: EndObject, Offset: off}, nil
		default:
			r.pop()
			return Token{Kind: EndArray, Offset: off}, nil
		}
	case string:
		if r.top() == inObject && r.expectKey {
			r.expectKey = false
			return Token{Kind: Field, Text: v, Offset: off}, nil
		}
		r.valueDone()
		return Token{Kind: String, Text: v, Offset: off}, nil
	case json.Number:
		r.valueDone()
		return Token{Kind: Number, Text: string(v), Offset: off}, nil
	case bool:
		r.valueDone()
		return Token{Kind: Bool, Bool: v, Offset: off}, nil
	case nil:
		r.valueDone()
		return Token{Kind: Null, Offset: off}, nil
	}
	return Token{Kind: Invalid, Offset: off}, fmt.Errorf("%w: unexpected token %v", ErrSyntax, raw)
}

func (r *Reader) top() frame {
	if len(r.stack) == 0 {
		return 0
	}
	return r.stack[len(r.stack)-1]
}

func (r *Reader) pop() {
	if len(r.stack) > 0 {
		r.stack = r.stack[:len(r.stack)-1]
	}
	r.valueDone()
}

// valueDone is called after a complete value; inside an object the
// next string is a key again.
func (r *Reader) valueDone() {
	if r.top() == inObject {
		r.expectKey = true
	}
}

var _ Stream = (*Reader)(nil)
