package schema

import (
	"fmt"
	"slices"
	"strings"
)

// DataKind is the scalar representation of a data type.
type DataKind uint8

const (
	KindString DataKind = iota
	KindInt
	KindFloat
	KindBool
	KindDate
	KindEnum
	KindBytes
	KindAny
)

var dataKindNames = [...]string{"string", "int", "float", "bool", "date", "enum", "bytes", "any"}

func (k DataKind) String() string {
	if int(k) < len(dataKindNames) {
		return dataKindNames[k]
	}
	return fmt.Sprintf("datakind(%d)", k)
}

// ParseDataKind parses a data kind name.
func ParseDataKind(s string) (DataKind, error) {
	for i, n := range dataKindNames {
		if strings.EqualFold(n, s) {
			return DataKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown data kind %q", s)
}

// DefaultDateLayout is the layout used by date types that do not declare one.
const DefaultDateLayout = "2006-01-02T15:04:05"

// DataType describes how scalar values are represented.
type DataType struct {
	Name     string
	Kind     DataKind
	Literals []string // enum literals
	Layout   string   // date layout
}

// HasLiteral reports whether s is one of the enum's literals.
func (d *DataType) HasLiteral(s string) bool {
	return slices.Contains(d.Literals, s)
}

// DateLayout returns Layout or DefaultDateLayout.
func (d *DataType) DateLayout() string {
	if d.Layout != "" {
		return d.Layout
	}
	return DefaultDateLayout
}

// builtins are available in every registry.
var builtins = map[string]*DataType{
	"string":  {Name: "string", Kind: KindString},
	"int":     {Name: "int", Kind: KindInt},
	"long":    {Name: "long", Kind: KindInt},
	"short":   {Name: "short", Kind: KindInt},
	"float":   {Name: "float", Kind: KindFloat},
	"double":  {Name: "double", Kind: KindFloat},
	"boolean": {Name: "boolean", Kind: KindBool},
	"bool":    {Name: "bool", Kind: KindBool},
	"date":    {Name: "date", Kind: KindDate},
	"bytes":   {Name: "bytes", Kind: KindBytes},
	"any":     {Name: "any", Kind: KindAny},
}

// Builtin returns the built-in data type called name, or nil.
func Builtin(name string) *DataType {
	return builtins[name]
}

// String is the fallback data type for attributes whose type is unknown.
var String = builtins["string"]
