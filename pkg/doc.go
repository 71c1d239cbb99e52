// Package pkg provides the libraries behind graphjson.
//
// # Overview
//
// graphjson maps typed object graphs to JSON and back. A YAML schema
// declares types with attributes, references, containments, maps and
// mixed sequences; the codec decodes JSON into graph nodes, resolves
// references within and across documents, and encodes graphs back into a
// normalized form.
//
// The typical data flow:
//
//	schema YAML
//	     ↓
//	[schema] registry (linked types and features)
//	     ↓
//	[codec] decode (late type tags, reference ledger)
//	     ↓
//	[graph] documents ←→ [resource] sets (cross-document proxies)
//	     ↓
//	[codec] encode → JSON, [dot] → Graphviz
//
// # Quick Start
//
//	reg, _ := schema.LoadFiles("social.yaml")
//	c, _ := codec.New(reg, codec.DefaultOptions())
//	doc, _ := c.Unmarshal(ctx, data, "file:///data/users.json", nil)
//	out, _ := c.Marshal(ctx, doc)
//
// # Main Packages
//
// ## Model
//
// [schema] - Types, features, data types and operations, loaded from YAML
// and linked across packages by a [schema.Registry].
//
// [graph] - Nodes, ordered maps, mixed entries and documents with
// containment paths and an id index.
//
// ## Codec
//
// [token] - Pull tokenizer and writer over encoding/json with token replay.
//
// [codec] - Schema-driven JSON codec: property sets per type, late type
// tags, reference ledger, collection, map and mixed adapters.
//
// [uri] - URI resolution and deresolution for cross-document references.
//
// [identity] - Id strategies (UUID, sequential) for identity output.
//
// [expr] - CEL evaluation of schema operations.
//
// ## Storage and Loading
//
// [store] - Document stores keyed by URI: local files, TTL file cache,
// memory, HTTP, Redis, Badger and MongoDB, plus scheme routing.
//
// [resource] - Sets of documents that reference each other, loaded
// through a store with lazy or eager proxy resolution.
//
// [io] - Reading and writing documents from streams and files.
//
// ## Serving and Tooling
//
// [config] - TOML configuration for the codec, store and server.
//
// [server] - HTTP API for normalizing and storing documents.
//
// [dot] - Graphviz node-link diagrams of documents.
//
// [observability] - Hook interfaces for metrics; [observability/prom]
// implements them with Prometheus.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	GRAPHJSON_MONGO_URI=mongodb://localhost go test ./pkg/store/...
package pkg
