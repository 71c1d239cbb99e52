// Package identity provides strategies that assign ids to nodes.
//
// A document stores ids in its own index (graph.Document.SetID); a
// Strategy only decides what a fresh id looks like. The codec asks the
// strategy for an id when identity output is enabled and a node has none.
package identity

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/matzehuels/graphjson/pkg/graph"
)

// Strategy generates ids for nodes.
type Strategy interface {
	NewID(n *graph.Node) string
}

// Func adapts a function to Strategy.
type Func func(n *graph.Node) string

// NewID calls f.
func (f Func) NewID(n *graph.Node) string { return f(n) }

// UUID assigns random version 4 UUIDs.
type UUID struct{}

// NewID returns a new random UUID string.
func (UUID) NewID(*graph.Node) string { return uuid.NewString() }

// Sequential assigns Prefix followed by an increasing counter.
// Safe for concurrent use.
type Sequential struct {
	Prefix string
	next   atomic.Int64
}

// NewID returns the next id in sequence, starting at 1.
func (s *Sequential) NewID(*graph.Node) string {
	return s.Prefix + strconv.FormatInt(s.next.Add(1), 10)
}

// None never assigns ids.
type None struct{}

// NewID returns "".
func (None) NewID(*graph.Node) string { return "" }

// Parse returns the strategy named by name: "uuid", "sequential" or ""/"none".
func Parse(name string) (Strategy, bool) {
	switch name {
	case "", "none":
		return None{}, true
	case "uuid":
		return UUID{}, true
	case "sequential":
		return &Sequential{Prefix: "n"}, true
	}
	return nil, false
}

var (
	_ Strategy = UUID{}
	_ Strategy = (*Sequential)(nil)
	_ Strategy = None{}
	_ Strategy = Func(nil)
)
