// Package token provides the pull-based JSON token stream the codec reads
// from, a replay buffer for deferred decoding, and a streaming writer.
//
// A [Stream] yields one [Token] per call to Next. Object keys arrive as
// [Field] tokens, so the consumer always knows whether a string is a key
// or a value. A [Buffer] records tokens from a stream and replays them
// later as another Stream; this is how objects whose type is not yet
// known are decoded once the type is found.
package token

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind identifies a token.
type Kind uint8

const (
	Invalid Kind = iota
	BeginObject
	EndObject
	BeginArray
	EndArray
	Field
	String
	Number
	Bool
	Null
	EOF
)

var kindNames = [...]string{"invalid", "'{'", "'}'", "'['", "']'", "field", "string", "number", "bool", "null", "EOF"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsScalar reports whether k is a value that is not a container.
func (k Kind) IsScalar() bool {
	return k == String || k == Number || k == Bool || k == Null
}

// Token is a single JSON token.
//
// Text holds the field name for Field, the content for String and the
// literal for Number. Offset is the byte offset in the source, or -1 for
// synthesized tokens.
type Token struct {
	Kind   Kind
	Text   string
	Bool   bool
	Offset int64
}

func (t Token) String() string {
	switch t.Kind {
	case Field:
		return fmt.Sprintf("field %q", t.Text)
	case String:
		return fmt.Sprintf("string %q", t.Text)
	case Number:
		return "number " + t.Text
	case Bool:
		return "bool " + strconv.FormatBool(t.Bool)
	}
	return t.Kind.String()
}

// Stream is a pull-based token source.
type Stream interface {
	// Next consumes and returns the next token. At the end of input it
	// returns a token of kind EOF.
	Next() (Token, error)

	// Peek returns the next token without consuming it.
	Peek() (Token, error)
}

// ErrSyntax is returned for malformed input.
var ErrSyntax = errors.New("syntax error")

// Skip consumes one complete value from s: a scalar or a whole container.
// The value's first token must not have been consumed yet.
func Skip(s Stream) error {
	return Copy(s, nil)
}

// Copy consumes one complete value from s and records it into b.
// A nil b discards the value.
func Copy(s Stream, b *Buffer) error {
	depth := 0
	for {
		tok, err := s.Next()
		if err != nil {
			return err
		}
		if b != nil {
			b.Append(tok)
		}
		switch tok.Kind {
		case BeginObject, BeginArray:
			depth++
		case EndObject, EndArray:
			depth--
		case EOF:
			return fmt.Errorf("%w: unexpected end of input", ErrSyntax)
		}
		if depth == 0 && tok.Kind != Field {
			return nil
		}
	}
}
