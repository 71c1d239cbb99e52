// Package io reads and writes graph documents as files.
//
// # Overview
//
// The codec package works on streams; this package adds the file-level
// conveniences the CLI needs. Documents read from a path get an absolute
// file: URI, so relative references inside them resolve against the
// file's directory:
//
//	doc, err := io.ImportDocument(ctx, "data/users.json", c, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// doc.URI == "file:///abs/path/data/users.json"
//
// # Import
//
// Use [ImportDocument] to read a document from a file path, or
// [ReadDocument] to read from any io.Reader. Both return the document
// together with its diagnostics; the error is reserved for malformed
// input and I/O failures. References into other files go to the given
// codec.ExternalResolver, which may be nil (they stay proxies) or a
// resource.Set.
//
// # Export
//
// Use [ExportDocument] to write a document to a file, or [WriteDocument]
// to write to any io.Writer. Output follows the codec's options,
// including indentation.
//
// # Concurrency
//
// All functions are safe to call concurrently as long as no two calls
// share a document.
package io
