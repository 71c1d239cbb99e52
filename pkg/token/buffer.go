package token

// Buffer records tokens for later replay.
// The zero value is an empty buffer ready to use.
type Buffer struct {
	toks []Token
}

// Append records tok.
func (b *Buffer) Append(tok Token) {
	b.toks = append(b.toks, tok)
}

// Len returns the number of recorded tokens.
func (b *Buffer) Len() int { return len(b.toks) }

// Tokens returns the recorded tokens.
func (b *Buffer) Tokens() []Token { return b.toks }

// Reset drops all recorded tokens.
func (b *Buffer) Reset() { b.toks = b.toks[:0] }

// Stream returns a Stream replaying the recorded tokens, followed by EOF.
// Replaying does not consume the buffer.
func (b *Buffer) Stream() Stream {
	return &replay{toks: b.toks}
}

// FieldString scans top-level fields for name and returns its value when
// that value is a string. The buffer is expected to hold object members
// (field, value, field, value...) without the enclosing braces.
func (b *Buffer) FieldString(name string) (string, bool) {
	depth := 0
	for i, tok := range b.toks {
		switch tok.Kind {
		case BeginObject, BeginArray:
			depth++
		case EndObject, EndArray:
			depth--
		case Field:
			if depth == 0 && tok.Text == name && i+1 < len(b.toks) && b.toks[i+1].Kind == String {
				return b.toks[i+1].Text, true
			}
		}
	}
	return "", false
}

type replay struct {
	toks []Token
	pos  int
}

func (r *replay) Next() (Token, error) {
	tok, err := r.Peek()
	if err == nil && tok.Kind != EOF {
		r.pos++
	}
	return tok, err
}

func (r *replay) Peek() (Token, error) {
	if r.pos >= len(r.toks) {
		return Token{Kind: EOF, Offset: -1}, nil
	}
	return r.toks[r.pos], nil
}

// Tokens returns a Stream over toks. Handy for tests and synthesized input.
func Tokens(toks ...Token) Stream {
	return &replay{toks: toks}
}
