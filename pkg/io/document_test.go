package io

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/graphjson/pkg/codec"
	"github.com/matzehuels/graphjson/pkg/schema"
)

const testSchema = `
package: todo
types:
  - name: List
    features:
      - {name: title, type: string}
      - {name: items, kind: containment, type: Item, many: true}
  - name: Item
    features:
      - {name: text, type: string}
      - {name: next, kind: reference, type: Item}
`

func newCodec(t *testing.T) *codec.Codec {
	t.Helper()
	pkg, err := schema.ParseYAML([]byte(testSchema))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	reg := schema.NewRegistry()
	if err := reg.Register(pkg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	c, err := codec.New(reg, codec.DefaultOptions())
	if err != nil {
		t.Fatalf("codec.New: %v", err)
	}
	return c
}

const listJSON = `{"eClass":"List","title":"chores","items":[{"text":"dishes","next":{"eClass":"Item","$ref":"//@items.1"}},{"text":"laundry"}]}`

func TestReadWriteDocument(t *testing.T) {
	c := newCodec(t)
	ctx := context.Background()

	doc, err := ReadDocument(ctx, strings.NewReader(listJSON), c, "file:///tmp/list.json", nil)
	if err != nil {
		t.Fatalf("ReadDocument: %v", err)
	}
	if len(doc.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", doc.Diagnostics())
	}
	items := doc.Roots()[0].Refs("items")
	if len(items) != 2 || items[0].Ref("next") != items[1] {
		t.Fatalf("reference not resolved: %v", items)
	}

	var buf bytes.Buffer
	if err := WriteDocument(ctx, &buf, c, doc); err != nil {
		t.Fatalf("WriteDocument: %v", err)
	}
	if got := buf.String(); got != listJSON+"\n" {
		t.Errorf("WriteDocument =\n%s\nwant\n%s", got, listJSON)
	}
}

func TestReadDocumentMalformed(t *testing.T) {
	c := newCodec(t)
	_, err := ReadDocument(context.Background(), strings.NewReader(`{"eClass":`), c, "file:///bad.json", nil)
	if err == nil || !strings.Contains(err.Error(), "file:///bad.json") {
		t.Errorf("error = %v, want decode error naming the document", err)
	}
}

func TestImportExportDocument(t *testing.T) {
	c := newCodec(t)
	ctx := context.Background()
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.json")
	if err := os.WriteFile(in, []byte(listJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := ImportDocument(ctx, in, c, nil)
	if err != nil {
		t.Fatalf("ImportDocument: %v", err)
	}
	if !strings.HasPrefix(doc.URI, "file:///") || !strings.HasSuffix(doc.URI, "/in.json") {
		t.Errorf("URI = %q", doc.URI)
	}

	if err := ExportDocument(ctx, doc, c, out); err != nil {
		t.Fatalf("ExportDocument: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != listJSON+"\n" {
		t.Errorf("exported %s", data)
	}

	if _, err := ImportDocument(ctx, filepath.Join(dir, "missing.json"), c, nil); err == nil {
		t.Error("ImportDocument of a missing file should fail")
	}
}
