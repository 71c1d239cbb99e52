// Package schema describes the node types a document may contain.
//
// A [Type] declares supertypes, structural [Feature]s and derived
// [Operation]s. Types live in a [Package] and are linked by a [Registry],
// which implements [Provider], the read-only oracle the codec consults.
//
// Feature kinds:
//   - [Attribute]: scalar values described by a [DataType]
//   - [Reference]: non-owning edges; cycles are allowed
//   - [Containment]: owning edges; every node has at most one owner
//   - [Map]: ordered key/value entries with attribute, reference or containment values
//   - [Mixed]: an ordered sequence of entries tagged with a member feature
//
// Schemas are usually written in YAML and loaded with [LoadFiles]:
//
//	reg, err := schema.LoadFiles("social.yaml")
//	user := reg.Type("User")
package schema
