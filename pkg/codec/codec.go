package codec

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/schema"
)

const tracerName = "github.com/matzehuels/graphjson/pkg/codec"

// OperationInvoker evaluates a parameterless operation on a node.
// A nil result omits the field.
type OperationInvoker interface {
	Invoke(op *schema.Operation, n *graph.Node) (any, error)
}

// InvokerFunc adapts a function to OperationInvoker.
type InvokerFunc func(op *schema.Operation, n *graph.Node) (any, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(op *schema.Operation, n *graph.Node) (any, error) { return f(op, n) }

// ExternalResolver loads nodes that live in other documents. It returns
// (nil, nil) when the target does not exist.
type ExternalResolver interface {
	ResolveExternal(uri string, hint *schema.Type) (*graph.Node, error)
}

// Codec translates between JSON and typed graphs for one schema.
// A Codec is safe for concurrent use; each Decode or Encode call keeps
// its own state.
type Codec struct {
	schema   schema.Provider
	opts     Options
	rootType *schema.Type
	log      *log.Logger
	tracer   trace.Tracer

	sets       sync.Map // *schema.Type -> *PropertySet
	defaultSet *PropertySet
	typeFields []string // per-type tag fields other than opts.TypeField
}

// typeLister is implemented by providers that can enumerate their types.
type typeLister interface {
	Types() []*schema.Type
}

// New creates a codec for the given schema.
func New(provider schema.Provider, opts Options) (*Codec, error) {
	if provider == nil {
		return nil, errors.New(errors.ErrCodeConfiguration, "codec: schema provider is required")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.URIHandler == nil {
		opts.URIHandler = DefaultOptions().URIHandler
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	c := &Codec{
		schema: provider,
		opts:   opts,
		log:    logger,
		tracer: otel.Tracer(tracerName),
	}
	if opts.RootType != "" {
		c.rootType = provider.Type(opts.RootType)
		if c.rootType == nil {
			return nil, errors.New(errors.ErrCodeConfiguration, "codec: unknown root type %q", opts.RootType)
		}
	}
	c.defaultSet = c.buildSet(nil)
	if tl, ok := provider.(typeLister); ok {
		seen := map[string]bool{opts.TypeField: true}
		for _, t := range tl.Types() {
			if t.TypeField != "" && !seen[t.TypeField] {
				seen[t.TypeField] = true
				c.typeFields = append(c.typeFields, t.TypeField)
			}
		}
	}
	return c, nil
}

// Options returns the codec's options.
func (c *Codec) Options() Options { return c.opts }

// Schema returns the codec's schema provider.
func (c *Codec) Schema() schema.Provider { return c.schema }

// PropertySet returns the cached property set for t, building it on first
// use. A nil t yields the default set, which knows only the synthetic tags.
func (c *Codec) PropertySet(t *schema.Type) *PropertySet {
	if t == nil {
		return c.defaultSet
	}
	if s, ok := c.sets.Load(t); ok {
		return s.(*PropertySet)
	}
	s, _ := c.sets.LoadOrStore(t, c.buildSet(t))
	return s.(*PropertySet)
}

// typeTag renders t in the configured format.
func (c *Codec) typeTag(t *schema.Type) string {
	switch c.opts.TypeFormat {
	case TypeQualified:
		return t.QualifiedName()
	case TypeURI:
		return t.URI()
	}
	return t.Name
}

func (c *Codec) newID(n *graph.Node) string {
	if c.opts.IDStrategy == nil {
		return ""
	}
	return c.opts.IDStrategy.NewID(n)
}
