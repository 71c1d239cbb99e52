// Package codec maps typed graphs to JSON and back, driven by a schema.
//
// # Overview
//
// A [Codec] is built once per schema and options. For every type it
// caches a [PropertySet]: the ordered fields an instance is written as.
//
//	c, err := codec.New(registry, codec.DefaultOptions())
//	doc := graph.NewDocument("file:///data/users.json")
//	err = c.Decode(ctx, r, doc, nil)
//	...
//	err = c.Encode(ctx, w, doc)
//
// # Wire format
//
// Objects carry a type tag ("eClass" by default) unless the type equals
// the declared slot type. The tag may appear anywhere in the object;
// fields read before it are buffered and replayed once the type is
// known. References are written as
//
//	{"eClass": "User", "$ref": "//@friends.0"}
//
// where the identifier is a node id, a containment path within the same
// document, or a URI relative to the document for nodes stored elsewhere.
//
// # References
//
// References are collected in a [Ledger] while decoding and resolved
// after the whole document has been read, so forward references work.
// References into other documents go to an [ExternalResolver]; see the
// resource package for one that loads and caches documents.
//
// # Diagnostics
//
// Recoverable problems such as unknown fields, bad values and unresolved
// references are recorded on the document (graph.Document.Diagnostics)
// and decoding continues. Decode returns an error only for malformed
// input or when a collaborator fails.
package codec
