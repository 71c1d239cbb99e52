package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/matzehuels/graphjson/pkg/schema"
	"github.com/matzehuels/graphjson/pkg/token"
)

func kindOf(dt *schema.DataType) schema.DataKind {
	if dt == nil {
		return schema.KindString
	}
	return dt.Kind
}

func dataTypeName(dt *schema.DataType) string {
	if dt == nil {
		return "string"
	}
	return dt.Name
}

// decodeScalar converts a scalar token to the Go value of dt.
func decodeScalar(dt *schema.DataType, tok token.Token) (any, error) {
	text := tok.Text
	textual := tok.Kind == token.String || tok.Kind == token.Number
	switch kindOf(dt) {
	case schema.KindString:
		switch tok.Kind {
		case token.String, token.Number:
			return text, nil
		case token.Bool:
			return strconv.FormatBool(tok.Bool), nil
		}
	case schema.KindInt:
		if textual {
			if i, err := strconv.ParseInt(text, 10, 64); err == nil {
				return i, nil
			}
			if f, err := strconv.ParseFloat(text, 64); err == nil && f == math.Trunc(f) &&
				f >= math.MinInt64 && f <= math.MaxInt64 {
				return int64(f), nil
			}
		}
	case schema.KindFloat:
		if textual {
			if f, err := strconv.ParseFloat(text, 64); err == nil {
				return f, nil
			}
		}
	case schema.KindBool:
		switch tok.Kind {
		case token.Bool:
			return tok.Bool, nil
		case token.String:
			if b, err := strconv.ParseBool(text); err == nil {
				return b, nil
			}
		}
	case schema.KindDate:
		if tok.Kind == token.String {
			if t, err := time.Parse(dt.DateLayout(), text); err == nil {
				return t, nil
			}
			if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
				return t, nil
			}
		}
	case schema.KindEnum:
		if tok.Kind == token.String && (len(dt.Literals) == 0 || dt.HasLiteral(text)) {
			return text, nil
		}
	case schema.KindBytes:
		if tok.Kind == token.String {
			if b, err := base64.StdEncoding.DecodeString(text); err == nil {
				return b, nil
			}
		}
	case schema.KindAny:
		switch tok.Kind {
		case token.String:
			return text, nil
		case token.Number:
			return strconv.ParseFloat(text, 64)
		case token.Bool:
			return tok.Bool, nil
		case token.Null:
			return nil, nil
		}
	}
	return nil, fmt.Errorf("cannot convert %s to %s", tok, dataTypeName(dt))
}

// decodeAny reads any JSON value into maps, slices and scalars.
func decodeAny(s token.Stream) (any, error) {
	tok, err := next(s)
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case token.BeginObject:
		m := make(map[string]any)
		for {
			ft, err := next(s)
			if err != nil {
				return nil, err
			}
			if ft.Kind == token.EndObject {
				return m, nil
			}
			if ft.Kind != token.Field {
				return nil, unexpected(ft, "field")
			}
			if m[ft.Text], err = decodeAny(s); err != nil {
				return nil, err
			}
		}
	case token.BeginArray:
		out := []any{}
		for {
			done, err := endOf(s, token.EndArray)
			if err != nil {
				return nil, err
			}
			if done {
				return out, nil
			}
			v, err := decodeAny(s)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	case token.String, token.Number, token.Bool, token.Null:
		return decodeScalar(&schema.DataType{Name: "any", Kind: schema.KindAny}, tok)
	}
	return nil, unexpected(tok, "a value")
}

// rawJSON captures one value as compact JSON text.
func rawJSON(s token.Stream) (string, error) {
	var buf token.Buffer
	if err := token.Copy(s, &buf); err != nil {
		return "", err
	}
	var out bytes.Buffer
	w := token.NewWriter(&out, "")
	for _, tok := range buf.Tokens() {
		w.Token(tok)
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return out.String(), nil
}

// encodeScalar writes v, formatted for dt where the representation
// depends on it.
func encodeScalar(w *token.Writer, dt *schema.DataType, v any) {
	switch v := v.(type) {
	case nil:
		w.Null()
	case string:
		w.String(v)
	case bool:
		w.Bool(v)
	case int:
		w.Int(int64(v))
	case int8:
		w.Int(int64(v))
	case int16:
		w.Int(int64(v))
	case int32:
		w.Int(int64(v))
	case int64:
		w.Int(v)
	case uint:
		w.Number(strconv.FormatUint(uint64(v), 10))
	case uint8:
		w.Int(int64(v))
	case uint16:
		w.Int(int64(v))
	case uint32:
		w.Int(int64(v))
	case uint64:
		w.Number(strconv.FormatUint(v, 10))
	case float32:
		w.Float(float64(v))
	case float64:
		if kindOf(dt) == schema.KindInt && v == math.Trunc(v) {
			w.Int(int64(v))
			return
		}
		w.Float(v)
	case json.Number:
		w.Number(v.String())
	case time.Time:
		w.String(v.Format(dateLayout(dt)))
	case []byte:
		w.String(base64.StdEncoding.EncodeToString(v))
	case map[string]any, []any:
		encodeAny(w, v)
	case fmt.Stringer:
		w.String(v.String())
	default:
		w.String(fmt.Sprint(v))
	}
}

// encodeAny writes a value produced by decodeAny or an operation.
// Object keys are sorted so output is deterministic.
func encodeAny(w *token.Writer, v any) {
	switch v := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		w.BeginObject()
		for _, k := range keys {
			w.Field(k)
			encodeAny(w, v[k])
		}
		w.EndObject()
	case []any:
		w.BeginArray()
		for _, e := range v {
			encodeAny(w, e)
		}
		w.EndArray()
	default:
		encodeScalar(w, nil, v)
	}
}

func dateLayout(dt *schema.DataType) string {
	if dt == nil || dt.Kind != schema.KindDate {
		return schema.DefaultDateLayout
	}
	return dt.DateLayout()
}

// decodeKey converts a JSON object key to a map key of type dt. The empty
// string is the null key for non-string key types.
func decodeKey(dt *schema.DataType, text string) (any, error) {
	switch kindOf(dt) {
	case schema.KindString, schema.KindEnum, schema.KindAny:
		if dt != nil && dt.Kind == schema.KindEnum && text != "" && len(dt.Literals) > 0 && !dt.HasLiteral(text) {
			return nil, fmt.Errorf("%q is not a %s literal", text, dt.Name)
		}
		return text, nil
	}
	if text == "" {
		return nil, nil
	}
	if kindOf(dt) == schema.KindBytes {
		// Byte slices cannot key a map; the key keeps its base64 form.
		if _, err := base64.StdEncoding.DecodeString(text); err != nil {
			return nil, fmt.Errorf("%q is not base64", text)
		}
		return text, nil
	}
	return decodeScalar(dt, token.Token{Kind: token.String, Text: text})
}

// formatKey renders a map key as a JSON field name. The null key is "".
func formatKey(dt *schema.DataType, k any) string {
	switch k := k.(type) {
	case nil:
		return ""
	case string:
		return k
	case time.Time:
		return k.Format(dateLayout(dt))
	case []byte:
		return base64.StdEncoding.EncodeToString(k)
	case float64:
		return strconv.FormatFloat(k, 'g', -1, 64)
	}
	return fmt.Sprint(k)
}
