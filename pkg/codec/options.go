package codec

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/identity"
	"github.com/matzehuels/graphjson/pkg/uri"
)

// Default field names.
const (
	DefaultRefField  = "$ref"
	DefaultTypeField = "eClass"
	DefaultIDField   = "@id"
)

// Field names used by the key/value form of mixed entries.
const (
	mixedKeyField   = "featureName"
	mixedValueField = "value"
)

// TypeFormat selects how type tags are written.
type TypeFormat uint8

const (
	// TypeName writes the bare type name, e.g. "User".
	TypeName TypeFormat = iota
	// TypeQualified writes package.Name, e.g. "social.User".
	TypeQualified
	// TypeURI writes nsURI#//Name, e.g. "http://example.org/social#//User".
	TypeURI
)

// ParseTypeFormat parses "name", "qualified" or "uri".
func ParseTypeFormat(s string) (TypeFormat, error) {
	switch strings.ToLower(s) {
	case "", "name":
		return TypeName, nil
	case "qualified":
		return TypeQualified, nil
	case "uri":
		return TypeURI, nil
	}
	return 0, fmt.Errorf("unknown type format %q", s)
}

func (f TypeFormat) String() string {
	switch f {
	case TypeQualified:
		return "qualified"
	case TypeURI:
		return "uri"
	}
	return "name"
}

// Options configures a Codec. Start from DefaultOptions; the zero value
// disables type tags.
type Options struct {
	RefField  string // reference tag field, "$ref"
	TypeField string // type tag field, "eClass"
	IDField   string // identity field, "@id"

	// UseID enables the identity property. Nodes without an id get one
	// from IDStrategy on encode.
	UseID      bool
	IDStrategy identity.Strategy

	// SerializeTypes writes type tags. MinimizeTypes omits them on
	// contained nodes whose type equals the slot type; roots always
	// carry one.
	SerializeTypes bool
	MinimizeTypes  bool
	TypeFormat     TypeFormat

	// SerializeDefaults writes feature defaults for unset attributes.
	SerializeDefaults bool

	// MixedKeyValue writes mixed entries as {"featureName": m, "value": v}
	// instead of {"m": v}. Both forms are accepted on decode.
	MixedKeyValue bool

	// StrictUnknownFields records a diagnostic for every unknown field.
	// Unknown fields are always skipped.
	StrictUnknownFields bool

	// RootType names the type used for root objects without a type tag.
	RootType string

	// Indent enables pretty printing.
	Indent string

	// URIHandler resolves reference identifiers. Defaults to uri.Base.
	URIHandler uri.Handler

	// Invoker evaluates exposed operations on encode. Without one,
	// operations are not written.
	Invoker OperationInvoker

	Logger *log.Logger
}

// DefaultOptions returns the standard configuration.
func DefaultOptions() Options {
	return Options{
		RefField:       DefaultRefField,
		TypeField:      DefaultTypeField,
		IDField:        DefaultIDField,
		SerializeTypes: true,
		MinimizeTypes:  true,
		URIHandler:     uri.Base{},
	}
}

// Validate checks the synthetic field names.
func (o Options) Validate() error {
	id := ""
	if o.UseID {
		id = o.IDField
	}
	if err := errors.ValidateFieldNames(o.RefField, o.TypeField, id); err != nil {
		return err
	}
	if o.RefField == "" || o.TypeField == "" {
		return errors.New(errors.ErrCodeConfiguration, "reference and type fields are required")
	}
	if o.UseID && o.IDField == "" {
		return errors.New(errors.ErrCodeConfiguration, "identity field is required when ids are enabled")
	}
	return nil
}
