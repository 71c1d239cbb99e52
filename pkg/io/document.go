package io

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/graphjson/pkg/codec"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/uri"
)

// ReadDocument decodes a JSON document from r into a new document named
// u. ReadDocument does not close r.
func ReadDocument(ctx context.Context, r io.Reader, c *codec.Codec, u string, ext codec.ExternalResolver) (*graph.Document, error) {
	doc := graph.NewDocument(u)
	if err := c.Decode(ctx, r, doc, ext); err != nil {
		return nil, fmt.Errorf("decode %s: %w", u, err)
	}
	return doc, nil
}

// ImportDocument reads the JSON file at path. The document's URI is the
// file's absolute file: URI.
func ImportDocument(ctx context.Context, path string, c *codec.Codec, ext codec.ExternalResolver) (*graph.Document, error) {
	u, err := uri.FromPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(ctx, f, c, u, ext)
}

// WriteDocument encodes doc as JSON and writes it to w, followed by a
// newline.
func WriteDocument(ctx context.Context, w io.Writer, c *codec.Codec, doc *graph.Document) error {
	if err := c.Encode(ctx, w, doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ExportDocument writes doc to a JSON file at path, replacing it.
func ExportDocument(ctx context.Context, doc *graph.Document, c *codec.Codec, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteDocument(ctx, f, c, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
