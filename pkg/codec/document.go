package codec

import (
	"bytes"
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/observability"
	"github.com/matzehuels/graphjson/pkg/token"
)

// Decode reads a JSON document from r and adds its roots to doc.
//
// The top level is a single object or an array of objects. References are
// resolved after the whole input has been read; those pointing into other
// documents go to ext, which may be nil. Recoverable problems are recorded
// as diagnostics on doc; the returned error is reserved for malformed
// input and failures of collaborators.
func (c *Codec) Decode(ctx context.Context, r io.Reader, doc *graph.Document, ext ExternalResolver) error {
	return c.DecodeStream(ctx, token.NewReader(r), doc, ext)
}

// DecodeStream is Decode over an existing token stream.
func (c *Codec) DecodeStream(ctx context.Context, s token.Stream, doc *graph.Document, ext ExternalResolver) (err error) {
	ctx, span := c.tracer.Start(ctx, "codec.Decode", trace.WithAttributes(attribute.String("document.uri", doc.URI)))
	defer span.End()

	hooks := observability.Codec()
	hooks.OnDecodeStart(ctx, doc.URI)
	start := time.Now()
	diags := len(doc.Diagnostics())
	defer func() {
		added := len(doc.Diagnostics()) - diags
		hooks.OnDecodeComplete(ctx, doc.URI, doc.Len(), added, time.Since(start), err)
		span.SetAttributes(attribute.Int("document.diagnostics", added))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	st := &decodeState{ctx: ctx, c: c, doc: doc, ledger: c.NewLedger()}
	if err = st.roots(s); err != nil {
		c.log.Debug("decode failed", "uri", doc.URI, "err", err)
		return err
	}

	stats := st.ledger.ResolveAll(doc, ext)
	hooks.OnResolve(ctx, doc.URI, stats.Resolved, stats.Unresolved)
	span.SetAttributes(
		attribute.Int("references.resolved", stats.Resolved),
		attribute.Int("references.unresolved", stats.Unresolved),
	)
	c.log.Debug("decoded document", "uri", doc.URI, "roots", len(doc.Roots()),
		"resolved", stats.Resolved, "unresolved", stats.Unresolved, "proxies", stats.Proxies)
	return nil
}

func (st *decodeState) roots(s token.Stream) error {
	tok, err := peek(s)
	if err != nil {
		return err
	}
	switch tok.Kind {
	case token.EOF:
		return nil
	case token.BeginObject:
		if err := st.root(s); err != nil {
			return err
		}
	case token.BeginArray:
		if _, err := next(s); err != nil {
			return err
		}
		for {
			done, err := endOf(s, token.EndArray)
			if err != nil {
				return err
			}
			if done {
				break
			}
			tok, err := peek(s)
			if err != nil {
				return err
			}
			switch tok.Kind {
			case token.Null:
				if _, err := next(s); err != nil {
					return err
				}
			case token.BeginObject:
				if err := st.root(s); err != nil {
					return err
				}
			default:
				return unexpected(tok, "object")
			}
		}
	default:
		return unexpected(tok, "object or array")
	}

	if tok, err = peek(s); err != nil {
		return err
	}
	if tok.Kind != token.EOF {
		return unexpected(tok, "end of input")
	}
	return nil
}

func (st *decodeState) root(s token.Stream) error {
	n, err := st.readObject(s, st.c.rootType, false)
	if err != nil {
		return err
	}
	if n != nil {
		st.doc.AddRoot(n)
	}
	return nil
}

// Encode writes doc as JSON: a single root as an object, any other number
// of roots as an array.
func (c *Codec) Encode(ctx context.Context, w io.Writer, doc *graph.Document) (err error) {
	ctx, span := c.tracer.Start(ctx, "codec.Encode", trace.WithAttributes(attribute.String("document.uri", doc.URI)))
	defer span.End()

	hooks := observability.Codec()
	hooks.OnEncodeStart(ctx, doc.URI)
	start := time.Now()
	st := &encodeState{ctx: ctx, c: c, doc: doc, w: token.NewWriter(w, c.opts.Indent)}
	defer func() {
		hooks.OnEncodeComplete(ctx, doc.URI, st.nodes, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	roots := doc.Roots()
	if len(roots) == 1 {
		err = st.writeObject(roots[0], nil)
	} else {
		st.w.BeginArray()
		for _, r := range roots {
			if err = st.writeObject(r, nil); err != nil {
				break
			}
		}
		st.w.EndArray()
	}
	if err == nil {
		err = st.w.Flush()
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", doc.URI)
	}
	return nil
}

// Unmarshal decodes data into a new document with the given URI.
func (c *Codec) Unmarshal(ctx context.Context, data []byte, uri string, ext ExternalResolver) (*graph.Document, error) {
	doc := graph.NewDocument(uri)
	if err := c.Decode(ctx, bytes.NewReader(data), doc, ext); err != nil {
		return nil, err
	}
	return doc, nil
}

// Marshal encodes doc to a byte slice.
func (c *Codec) Marshal(ctx context.Context, doc *graph.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(ctx, &buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
