package expr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/graphjson/pkg/codec"
	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/schema"
)

var _ codec.OperationInvoker = (*Evaluator)(nil)

const testSchema = `
package: shop
types:
  - name: Address
    features:
      - {name: city, type: string}
  - name: Customer
    features:
      - {name: name, type: string}
      - {name: age, type: int}
      - {name: tags, type: string, many: true}
      - {name: address, kind: containment, type: Address}
      - {name: referrer, kind: reference, type: Customer}
      - {name: scores, kind: map, key: string, value: attribute, type: int}
    operations:
      - {name: greeting, expr: "'Hello ' + self.name", expose: true}
      - {name: adult, expr: "self.age >= 18", expose: true}
      - {name: city, expr: "self.address.city", expose: true}
      - {name: referredBy, expr: "has(self.referrer) ? self.referrer.name : null", expose: true}
      - {name: tagCount, expr: "size(self.tags)", expose: true}
      - {name: total, expr: "self.scores.a + self.scores.b", expose: true}
      - {name: summary, expr: "{'name': self.name, 'tags': self.tags}", expose: true}
      - {name: bad, expr: "self.missing + 1", expose: true}
      - {name: scaled, expr: "self.age * factor", params: [factor]}
`

func loadSchema(t *testing.T) *schema.Registry {
	t.Helper()
	pkg, err := schema.ParseYAML([]byte(testSchema))
	require.NoError(t, err)
	reg := schema.NewRegistry()
	require.NoError(t, reg.Register(pkg))
	return reg
}

func operation(t *testing.T, typ *schema.Type, name string) *schema.Operation {
	t.Helper()
	for _, op := range typ.AllOperations() {
		if op.Name == name {
			return op
		}
	}
	t.Fatalf("no operation %q", name)
	return nil
}

func customer(t *testing.T, reg *schema.Registry) *graph.Node {
	t.Helper()
	n := graph.MustNew(reg.Type("Customer"))
	require.NoError(t, n.Set("name", "Ann"))
	require.NoError(t, n.Set("age", int64(30)))
	require.NoError(t, n.Add("tags", "vip"))
	require.NoError(t, n.Add("tags", "early"))
	addr := graph.MustNew(reg.Type("Address"))
	require.NoError(t, addr.Set("city", "Oslo"))
	require.NoError(t, n.Set("address", addr))
	require.NoError(t, n.PutMap("scores", "a", int64(2)))
	require.NoError(t, n.PutMap("scores", "b", int64(5)))
	return n
}

func TestInvoke(t *testing.T) {
	reg := loadSchema(t)
	typ := reg.Type("Customer")
	ev, err := New()
	require.NoError(t, err)

	ann := customer(t, reg)
	bob := graph.MustNew(typ)
	require.NoError(t, bob.Set("name", "Bob"))
	require.NoError(t, ann.Set("referrer", bob))

	tests := []struct {
		op   string
		want any
	}{
		{"greeting", "Hello Ann"},
		{"adult", true},
		{"city", "Oslo"},
		{"referredBy", "Bob"},
		{"tagCount", int64(2)},
		{"total", int64(7)},
		{"summary", map[string]any{"name": "Ann", "tags": []any{"vip", "early"}}},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got, err := ev.Invoke(operation(t, typ, tt.op), ann)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("null result", func(t *testing.T) {
		got, err := ev.Invoke(operation(t, typ, "referredBy"), bob)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("evaluation error", func(t *testing.T) {
		_, err := ev.Invoke(operation(t, typ, "bad"), ann)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeOperationFailed))
	})

	t.Run("parameters", func(t *testing.T) {
		_, err := ev.Invoke(operation(t, typ, "scaled"), ann)
		assert.True(t, errors.Is(err, errors.ErrCodeOperationFailed))
	})

	t.Run("no expression", func(t *testing.T) {
		got, err := ev.Invoke(&schema.Operation{Name: "noop"}, ann)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestCompile(t *testing.T) {
	ev, err := New()
	require.NoError(t, err)

	p1, err := ev.Compile("self.name")
	require.NoError(t, err)
	p2, err := ev.Compile("self.name")
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	_, err = ev.Compile("self.name +")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
}

func TestValidate(t *testing.T) {
	reg := loadSchema(t)
	ev, err := New()
	require.NoError(t, err)
	require.NoError(t, ev.Validate(reg.Types()))

	broken := &schema.Type{Name: "X", Operations: []*schema.Operation{{Name: "f", Expression: "1 +"}}}
	err = ev.Validate([]*schema.Type{broken})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "X.f")
}

func TestNodeMap(t *testing.T) {
	reg := loadSchema(t)
	ann := customer(t, reg)
	proxy := graph.NewProxy(reg.Type("Customer"), "file:///other.json#/")
	require.NoError(t, ann.Set("referrer", proxy))

	m := NodeMap(ann)
	assert.Equal(t, "Ann", m["name"])
	assert.Equal(t, map[string]any{"city": "Oslo"}, m["address"])
	assert.Equal(t, "file:///other.json#/", m["referrer"])
	assert.Equal(t, map[string]any{"a": int64(2), "b": int64(5)}, m["scores"])
}

func TestWithCodec(t *testing.T) {
	reg := loadSchema(t)
	ev, err := New()
	require.NoError(t, err)

	opts := codec.DefaultOptions()
	opts.Invoker = ev
	c, err := codec.New(reg, opts)
	require.NoError(t, err)

	ctx := context.Background()
	doc, err := c.Unmarshal(ctx, []byte(`{"eClass":"Customer","name":"Ann","age":12}`), "file:///a.json", nil)
	require.NoError(t, err)
	out, err := c.Marshal(ctx, doc)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `"greeting":"Hello Ann"`)
	assert.Contains(t, s, `"adult":false`)
	assert.NotContains(t, s, `"scaled"`)
	assert.Contains(t, s, `"bad":null`)
}
