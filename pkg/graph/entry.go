package graph

import "github.com/matzehuels/graphjson/pkg/schema"

// Entry is one element of a mixed feature: a member feature and its value.
// The value is a scalar for attribute members and a *Node otherwise.
type Entry struct {
	Feature *schema.Feature
	Value   any
}
