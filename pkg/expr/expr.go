// Package expr evaluates schema operations written as CEL expressions.
//
// An operation's expression sees the node it is invoked on as the
// variable self: a map from feature names to values. Contained nodes are
// nested maps, references appear as maps of their attributes, and proxies
// as their URI string.
//
//	- {name: greeting, expr: "'Hello ' + self.name", expose: true}
//
// An [Evaluator] satisfies codec.OperationInvoker.
package expr

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"

	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/schema"
)

// SelfVar is the name the evaluated node is bound to.
const SelfVar = "self"

// maxDepth bounds how far containment is expanded into self.
const maxDepth = 8

// Evaluator compiles and runs operation expressions. Programs are cached
// per expression; an Evaluator is safe for concurrent use.
type Evaluator struct {
	env      *cel.Env
	programs sync.Map // expression -> cel.Program
}

// New creates an Evaluator. Extra options are appended to the default
// environment.
func New(options ...cel.EnvOption) (*Evaluator, error) {
	declarations := []cel.EnvOption{
		ext.Strings(),
		ext.Lists(),
		cel.OptionalTypes(),
		cel.Variable(SelfVar, cel.MapType(cel.StringType, cel.DynType)),
	}
	env, err := cel.NewEnv(append(declarations, options...)...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "cel environment")
	}
	return &Evaluator{env: env}, nil
}

// Compile checks expr and caches the resulting program.
func (e *Evaluator) Compile(expr string) (cel.Program, error) {
	if p, ok := e.programs.Load(expr); ok {
		return p.(cel.Program), nil
	}
	ast, iss := e.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, iss.Err(), "compile %q", expr)
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "program %q", expr)
	}
	p, _ := e.programs.LoadOrStore(expr, prg)
	return p.(cel.Program), nil
}

// Validate compiles the expression of every parameterless operation in
// the given types and returns the first failure.
func (e *Evaluator) Validate(ts []*schema.Type) error {
	for _, t := range ts {
		for _, op := range t.Operations {
			if op.Expression == "" || len(op.Params) > 0 {
				continue
			}
			if _, err := e.Compile(op.Expression); err != nil {
				return fmt.Errorf("%s.%s: %w", t, op.Name, err)
			}
		}
	}
	return nil
}

// Invoke evaluates op against n. Operations without an expression yield
// nil, which the codec leaves out of the output.
func (e *Evaluator) Invoke(op *schema.Operation, n *graph.Node) (any, error) {
	if op.Expression == "" {
		return nil, nil
	}
	if len(op.Params) > 0 {
		return nil, errors.New(errors.ErrCodeOperationFailed, "operation %s takes parameters", op.Name)
	}
	prg, err := e.Compile(op.Expression)
	if err != nil {
		return nil, err
	}
	out, _, err := prg.Eval(map[string]any{SelfVar: NodeMap(n)})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeOperationFailed, err, "evaluate %s", op.Name)
	}
	return Native(out)
}

// NodeMap converts n into the map bound to self.
func NodeMap(n *graph.Node) map[string]any {
	return nodeMap(n, 0)
}

func nodeMap(n *graph.Node, depth int) map[string]any {
	m := map[string]any{}
	if n == nil || n.Type() == nil {
		return m
	}
	for _, f := range n.Type().AllFeatures() {
		if f.Group() != nil {
			continue
		}
		v := n.Get(f.Name)
		if v == nil {
			continue
		}
		if cv := value(f, v, depth); cv != nil {
			m[f.Name] = cv
		}
	}
	return m
}

func value(f *schema.Feature, v any, depth int) any {
	switch v := v.(type) {
	case *graph.Node:
		return nodeValue(f.IsContainment(), v, depth)
	case []*graph.Node:
		out := make([]any, 0, len(v))
		for _, c := range v {
			out = append(out, nodeValue(f.IsContainment(), c, depth))
		}
		return out
	case *graph.Map:
		out := make(map[string]any, v.Len())
		for _, k := range v.Keys() {
			e, _ := v.Get(k)
			key := ""
			if k != nil {
				key = fmt.Sprint(k)
			}
			if c, ok := e.(*graph.Node); ok {
				out[key] = nodeValue(f.ValueKindOf() == schema.Containment, c, depth)
			} else if e != nil {
				out[key] = e
			}
		}
		return out
	case []graph.Entry:
		out := make([]any, 0, len(v))
		for _, e := range v {
			ev := e.Value
			if c, ok := ev.(*graph.Node); ok {
				ev = nodeValue(e.Feature.IsContainment(), c, depth)
			}
			out = append(out, map[string]any{e.Feature.Name: ev})
		}
		return out
	}
	return v
}

// nodeValue expands contained nodes fully and referenced nodes one level,
// so cycles through references terminate.
func nodeValue(contained bool, n *graph.Node, depth int) any {
	switch {
	case n == nil:
		return nil
	case n.IsProxy():
		return n.ProxyURI()
	case depth >= maxDepth:
		return map[string]any{}
	case contained:
		return nodeMap(n, depth+1)
	}
	return attributes(n)
}

func attributes(n *graph.Node) map[string]any {
	m := map[string]any{}
	for _, f := range n.Type().AllFeatures() {
		if f.Kind != schema.Attribute {
			continue
		}
		if v := n.Get(f.Name); v != nil {
			m[f.Name] = v
		}
	}
	return m
}

// Native converts a CEL value into plain Go values: bool, int64, uint64,
// float64, string, []byte, []any, map[string]any or nil.
func Native(v ref.Val) (any, error) {
	switch v.Type() {
	case types.NullType:
		return nil, nil
	case types.BoolType, types.IntType, types.UintType, types.DoubleType,
		types.StringType, types.BytesType:
		return v.Value(), nil
	case types.TimestampType:
		return v.Value(), nil
	case types.DurationType:
		return fmt.Sprint(v.Value()), nil
	case types.OptionalType:
		opt := v.(*types.Optional)
		if !opt.HasValue() {
			return nil, nil
		}
		return Native(opt.GetValue())
	case types.ListType:
		lister, ok := v.(traits.Lister)
		if !ok {
			break
		}
		out := []any{}
		for it := lister.Iterator(); it.HasNext() == types.True; {
			e, err := Native(it.Next())
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil
	case types.MapType:
		mapper, ok := v.(traits.Mapper)
		if !ok {
			break
		}
		out := map[string]any{}
		for it := mapper.Iterator(); it.HasNext() == types.True; {
			k := it.Next()
			ks, ok := k.Value().(string)
			if !ok {
				return nil, errors.New(errors.ErrCodeOperationFailed, "map key must be a string, got %s", k.Type().TypeName())
			}
			e, err := Native(mapper.Get(k))
			if err != nil {
				return nil, err
			}
			out[ks] = e
		}
		return out, nil
	}
	return nil, errors.New(errors.ErrCodeOperationFailed, "unsupported result type %s", v.Type().TypeName())
}
