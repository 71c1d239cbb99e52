// Package graph provides the in-memory typed object graph.
//
// A [Node] is an instance of a [schema.Type]. Its features hold scalars,
// lists, ordered maps ([Map]) or mixed sequences ([Entry]). Containment
// features form trees: every node has at most one container, attaching a
// node elsewhere detaches it first, and attaching an ancestor fails with
// [ErrContainmentCycle]. Reference features are plain pointers, so
// reference cycles are allowed.
//
// A [Document] holds ordered root nodes, an id index and the diagnostics
// recorded while decoding. Nodes without ids are addressed by containment
// paths:
//
//	/              the only root
//	/1             the second of several roots
//	//@friends.0   first node of the root's friends containment
//	/@body.2/value node in entry 2 of the root's mixed feature body
//
// Proxy nodes ([NewProxy]) stand in for nodes that are not loaded yet and
// are swapped in place with [Node.ReplaceValue].
package graph
