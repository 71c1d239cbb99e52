package token

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Writer emits JSON incrementally, in exactly the order calls are made.
// Errors are sticky: after the first failure every call is a no-op and
// Flush returns the error.
type Writer struct {
	w          *bufio.Writer
	indent     string
	stack      []wframe
	afterField bool
	err        error
}

type wframe struct {
	object bool
	count  int
}

// NewWriter creates a Writer. A non-empty indent enables pretty printing.
func NewWriter(w io.Writer, indent string) *Writer {
	return &Writer{w: bufio.NewWriter(w), indent: indent}
}

// BeginObject writes '{'.
func (w *Writer) BeginObject() {
	w.beforeValue()
	w.writeByte('{')
	w.stack = append(w.stack, wframe{object: true})
}

// EndObject writes '}'.
func (w *Writer) EndObject() { w.end('}', true) }

// BeginArray writes '['.
func (w *Writer) BeginArray() {
	w.beforeValue()
	w.writeByte('[')
	w.stack = append(w.stack, wframe{})
}

// EndArray writes ']'.
func (w *Writer) EndArray() { w.end(']', false) }

// Field writes an object key. The next call must write its value.
func (w *Writer) Field(name string) {
	if w.err != nil {
		return
	}
	if len(w.stack) == 0 || !w.stack[len(w.stack)-1].object || w.afterField {
		w.err = fmt.Errorf("%w: field %q outside object", ErrSyntax, name)
		return
	}
	w.separate()
	w.writeString(quote(name))
	if w.indent != "" {
		w.writeString(": ")
	} else {
		w.writeByte(':')
	}
	w.afterField = true
}

// String writes a string value.
func (w *Writer) String(s string) {
	w.beforeValue()
	w.writeString(quote(s))
}

// Number writes a numeric literal as given.
func (w *Writer) Number(lit string) {
	w.beforeValue()
	w.writeString(lit)
}

// Int writes an integer.
func (w *Writer) Int(v int64) { w.Number(strconv.FormatInt(v, 10)) }

// Float writes a float. NaN and infinities have no JSON form and are
// written as null.
func (w *Writer) Float(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		w.Null()
		return
	}
	w.Number(strconv.FormatFloat(v, 'g', -1, 64))
}

// Bool writes true or false.
func (w *Writer) Bool(v bool) {
	w.beforeValue()
	w.writeString(strconv.FormatBool(v))
}

// Null writes null.
func (w *Writer) Null() {
	w.beforeValue()
	w.writeString("null")
}

// Raw writes a pre-encoded JSON value. Invalid JSON is an error.
func (w *Writer) Raw(data []byte) {
	if w.err != nil {
		return
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		w.err = fmt.Errorf("%w: raw value: %v", ErrSyntax, err)
		return
	}
	w.beforeValue()
	w.writeString(buf.String())
}

// Token writes tok. It allows copying a Stream straight to a Writer.
func (w *Writer) Token(tok Token) {
	switch tok.Kind {
	case BeginObject:
		w.BeginObject()
	case EndObject:
		w.EndObject()
	case BeginArray:
		w.BeginArray()
	case EndArray:
		w.EndArray()
	case Field:
		w.Field(tok.Text)
	case String:
		w.String(tok.Text)
	case Number:
		w.Number(tok.Text)
	case Bool:
		w.Bool(tok.Bool)
	case Null:
		w.Null()
	}
}

// Err returns the first error encountered.
func (w *Writer) Err() error { return w.err }

// Flush writes buffered output and returns the first error.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if len(w.stack) == 0 && w.indent != "" {
		w.writeByte('\n')
	}
	if err := w.w.Flush(); err != nil && w.err == nil {
		w.err = err
	}
	return w.err
}

func (w *Writer) beforeValue() {
	if w.err != nil {
		return
	}
	if w.afterField {
		w.afterField = false
		w.stack[len(w.stack)-1].count++
		return
	}
	if len(w.stack) > 0 {
		if w.stack[len(w.stack)-1].object {
			w.err = fmt.Errorf("%w: value without field inside object", ErrSyntax)
			return
		}
		w.separate()
	}
}

// separate writes the comma and line break before a member.
func (w *Writer) separate() {
	top := &w.stack[len(w.stack)-1]
	if top.count > 0 {
		w.writeByte(',')
	}
	if !top.object {
		top.count++
	}
	w.newline(len(w.stack))
}

func (w *Writer) end(c byte, object bool) {
	if w.err != nil {
		return
	}
	if len(w.stack) == 0 || w.stack[len(w.stack)-1].object != object || w.afterField {
		w.err = fmt.Errorf("%w: unbalanced %q", ErrSyntax, c)
		return
	}
	top := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	if top.count > 0 {
		w.newline(len(w.stack))
	}
	w.writeByte(c)
}

func (w *Writer) newline(depth int) {
	if w.indent == "" {
		return
	}
	w.writeByte('\n')
	w.writeString(strings.Repeat(w.indent, depth))
}

func (w *Writer) writeByte(c byte) {
	if w.err == nil {
		w.err = w.w.WriteByte(c)
	}
}

func (w *Writer) writeString(s string) {
	if w.err == nil {
		_, w.err = w.w.WriteString(s)
	}
}

const hex = "0123456789abcdef"

// quote produces a JSON string literal without HTML escaping.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			switch {
			case c == '"' || c == '\\':
				b.WriteByte('\\')
				b.WriteByte(c)
			case c == '\n':
				b.WriteString(`\n`)
			case c == '\r':
				b.WriteString(`\r`)
			case c == '\t':
				b.WriteString(`\t`)
			case c < 0x20:
				b.WriteString(`\u00`)
				b.WriteByte(hex[c>>4])
				b.WriteByte(hex[c&0xf])
			default:
				b.WriteByte(c)
			}
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteString(`\ufffd`)
		} else {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	b.WriteByte('"')
	return b.String()
}
