package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
package: people
types:
  - name: Person
    features:
      - {name: name, type: string}
      - {name: friends, kind: reference, type: Person, many: true}
      - {name: pets, kind: containment, type: Pet, many: true}
  - name: Pet
    features:
      - {name: name, type: string}
`

// fixture writes the schema and two documents that reference each other
// into a temp dir and returns its path.
func fixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"people.yaml": testSchema,
		"a.json":      `{"name":"Ann","eClass":"Person","pets":[{"name":"Rex"}],"friends":[{"eClass":"Person","$ref":"b.json#/"}]}`,
		"b.json":      `{"eClass":"Person","name":"Bob","friends":[{"eClass":"Person","$ref":"a.json#/"}]}`,
	}
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(data), 0o644))
	}
	return dir
}

// run executes the CLI with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, log.InfoLevel)
	c.SetOutput(&out)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"inspect", "convert", "dot", "serve", "store", "cache", "completion"} {
		assert.Contains(t, names, want)
	}
	for _, flag := range []string{"verbose", "config", "schema"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestConvert(t *testing.T) {
	dir := fixture(t)
	schema := filepath.Join(dir, "people.yaml")

	out, err := run(t, "--schema", schema, "convert", filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"eClass":"Person","name":"Ann","friends":[{"eClass":"Person","$ref":"b.json#/"}],"pets":[{"name":"Rex"}]}`+"\n", out)

	out, err = run(t, "--schema", schema, "convert", "--type-format", "qualified", "--no-types", filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.NotContains(t, out, `{"eClass":"people.Person","name"`)

	target := filepath.Join(dir, "out.json")
	out, err = run(t, "--schema", schema, "convert", "--indent", "  ", "-o", target, filepath.Join(dir, "b.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "Converted")
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"eClass\": \"Person\""), string(data))

	_, err = run(t, "--schema", schema, "convert", "--type-format", "short", filepath.Join(dir, "a.json"))
	assert.Error(t, err)
}

func TestConvertWithoutSchema(t *testing.T) {
	dir := fixture(t)
	_, err := run(t, "convert", filepath.Join(dir, "a.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema files")
}

func TestInspect(t *testing.T) {
	dir := fixture(t)
	schema := filepath.Join(dir, "people.yaml")

	out, err := run(t, "--schema", schema, "inspect", filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "2 nodes")
	assert.Contains(t, out, "1 proxies")
	assert.Contains(t, out, "inspect --load-refs --resolve")

	out, err = run(t, "--schema", schema, "inspect", "--load-refs", "--resolve", filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 documents")
	assert.NotContains(t, out, "1 proxies")

	_, err = run(t, "--schema", schema, "inspect", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestDot(t *testing.T) {
	dir := fixture(t)
	schema := filepath.Join(dir, "people.yaml")

	out, err := run(t, "--schema", schema, "dot", "--detailed", filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "digraph G {"))
	assert.Contains(t, out, `label="Person\nname: Ann"`)
	assert.Contains(t, out, `n0 -> n1 [label="pets"];`)

	target := filepath.Join(dir, "a.dot")
	_, err = run(t, "--schema", schema, "dot", "-o", target, filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "digraph G {")

	_, err = run(t, "--schema", schema, "dot", "-o", filepath.Join(dir, "a.bmp"), filepath.Join(dir, "a.json"))
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestStoreAndCache(t *testing.T) {
	dir := fixture(t)
	cacheRoot := filepath.Join(dir, "cache")
	cfgPath := filepath.Join(dir, "graphjson.toml")
	cfg := "[schema]\nfiles = [\"" + filepath.ToSlash(filepath.Join(dir, "people.yaml")) + "\"]\n\n" +
		"[store]\nbackend = \"file\"\ndir = \"" + filepath.ToSlash(cacheRoot) + "\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	out, err := run(t, "-c", cfgPath, "store", "put", "people/bob", filepath.Join(dir, "b.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "Stored people/bob")

	out, err = run(t, "-c", cfgPath, "store", "get", "people/bob")
	require.NoError(t, err)
	assert.Contains(t, out, `"name":"Bob"`)

	out, err = run(t, "-c", cfgPath, "cache", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(cacheRoot)+"\n", out)

	_, err = run(t, "-c", cfgPath, "store", "delete", "people/bob")
	require.NoError(t, err)
	_, err = run(t, "-c", cfgPath, "store", "get", "people/bob")
	assert.ErrorContains(t, err, "not found")

	_, err = run(t, "-c", cfgPath, "store", "put", "people/ann", filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	out, err = run(t, "-c", cfgPath, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 1 cached entries")
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := cacheDir(nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", appName), dir)

	t.Setenv("XDG_CACHE_HOME", "")
	dir, err = cacheDir(nil)
	require.NoError(t, err)
	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".cache", appName), dir)
}

func TestDocumentURI(t *testing.T) {
	u, err := documentURI("https://example.org/a.json")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/a.json", u)

	u, err = documentURI("a.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file:///"), u)
	assert.True(t, strings.HasSuffix(u, "/a.json"), u)
}
