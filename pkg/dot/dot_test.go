package dot

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/graphjson/pkg/codec"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/schema"
)

const testSchema = `
package: org
types:
  - name: Team
    features:
      - {name: name, type: string}
      - {name: members, kind: containment, type: Member, many: true}
      - {name: lead, kind: reference, type: Member}
  - name: Member
    features:
      - {name: name, type: string}
      - {name: mentor, kind: reference, type: Member}
`

const teamJSON = `{
  "eClass": "Team",
  "name": "core",
  "members": [
    {"name": "Ann"},
    {"name": "Bob", "mentor": {"$ref": "//@members.0"}}
  ],
  "lead": {"$ref": "//@members.0"}
}`

func decode(t *testing.T, data string) *graph.Document {
	t.Helper()
	pkg, err := schema.ParseYAML([]byte(testSchema))
	require.NoError(t, err)
	reg := schema.NewRegistry()
	require.NoError(t, reg.Register(pkg))
	c, err := codec.New(reg, codec.DefaultOptions())
	require.NoError(t, err)
	doc, err := c.Unmarshal(context.Background(), []byte(data), "file:///team.json", nil)
	require.NoError(t, err)
	require.Empty(t, doc.Diagnostics())
	return doc
}

func TestToDOT(t *testing.T) {
	doc := decode(t, teamJSON)
	src := ToDOT(doc, Options{})

	assert.True(t, strings.HasPrefix(src, "digraph G {"))
	assert.Contains(t, src, `n0 [label="Team"];`)
	assert.Contains(t, src, `n1 [label="Member"];`)
	assert.Contains(t, src, `n0 -> n1 [label="members"];`)
	assert.Contains(t, src, `n0 -> n2 [label="members"];`)
	assert.Contains(t, src, `n0 -> n1 [label="lead", style=dashed];`)
	assert.Contains(t, src, `n2 -> n1 [label="mentor", style=dashed];`)
}

func TestToDOTDetailed(t *testing.T) {
	doc := decode(t, teamJSON)
	src := ToDOT(doc, Options{Detailed: true, NoReferences: true})

	assert.Contains(t, src, `label="Team\nname: core"`)
	assert.Contains(t, src, `label="Member\nname: Bob"`)
	assert.NotContains(t, src, "dashed")
}

func TestToDOTExternal(t *testing.T) {
	doc := decode(t, `{
  "eClass": "Team",
  "members": [
    {"name": "Ann", "mentor": {"eClass": "Member", "$ref": "other.json#/"}},
    {"name": "Bob", "mentor": {"eClass": "Member", "$ref": "other.json#/"}}
  ]
}`)
	src := ToDOT(doc, Options{})

	assert.Equal(t, 1, strings.Count(src, `x0 [label="file:///other.json#/"`))
	assert.Contains(t, src, `n1 -> x0 [label="mentor", style=dashed];`)
	assert.Contains(t, src, `n2 -> x0 [label="mentor", style=dashed];`)
}

func TestRenderSVG(t *testing.T) {
	doc := decode(t, teamJSON)
	svg, err := RenderSVG(ToDOT(doc, Options{}))
	require.NoError(t, err)
	assert.Contains(t, string(svg), `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)

	_, err = RenderSVG("digraph {")
	assert.Error(t, err)
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" viewBox="0.00 0.00 120.50 80.00"><g/></svg>`)
	out := string(normalizeViewBox(in))
	assert.Equal(t, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 120.50 80.00" width="120" height="80"><g/></svg>`, out)

	plain := []byte(`<svg><g/></svg>`)
	assert.Equal(t, plain, normalizeViewBox(plain))
}
