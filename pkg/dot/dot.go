package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/schema"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds attribute values to node labels.
	Detailed bool
	// NoReferences omits reference edges.
	NoReferences bool
}

// ToDOT converts doc to Graphviz DOT source.
func ToDOT(doc *graph.Document, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	ids := make(map[*graph.Node]string)
	var nodes []*graph.Node
	for n := range doc.Nodes() {
		ids[n] = "n" + strconv.Itoa(len(nodes))
		nodes = append(nodes, n)
	}
	for _, n := range nodes {
		fmt.Fprintf(&buf, "  %s [label=%q];\n", ids[n], label(doc, n, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, n := range nodes {
		for _, c := range n.Children() {
			if id, ok := ids[c]; ok {
				fmt.Fprintf(&buf, "  %s -> %s [label=%q];\n", ids[n], id, c.ContainingFeature().Name)
			}
		}
	}
	if opts.NoReferences {
		buf.WriteString("}\n")
		return buf.String()
	}

	external := make(map[string]string)
	for _, n := range nodes {
		for _, e := range references(n) {
			to, ok := ids[e.target]
			if !ok {
				key := externalLabel(e.target)
				if to, ok = external[key]; !ok {
					to = "x" + strconv.Itoa(len(external))
					external[key] = to
					fmt.Fprintf(&buf, "  %s [label=%q, shape=ellipse, style=\"filled,dashed\", fillcolor=lightgrey];\n", to, key)
				}
			}
			fmt.Fprintf(&buf, "  %s -> %s [label=%q, style=dashed];\n", ids[n], to, e.feature)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func label(doc *graph.Document, n *graph.Node, detailed bool) string {
	head := "?"
	if n.Type() != nil {
		head = n.Type().Name
	}
	if id := doc.ID(n); id != "" {
		head += " " + id
	}
	if !detailed || n.Type() == nil {
		return head
	}

	parts := []string{head}
	for _, f := range n.Type().AllFeatures() {
		if f.Kind != schema.Attribute || f.Group() != nil {
			continue
		}
		v := n.Get(f.Name)
		if v == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", f.Name, v))
	}
	return strings.Join(parts, "\n")
}

func externalLabel(n *graph.Node) string {
	if n.IsProxy() {
		return n.ProxyURI()
	}
	if d := n.Document(); d != nil {
		return d.URI + "#" + d.Fragment(n)
	}
	return n.String()
}

type edge struct {
	feature string
	target  *graph.Node
}

// references lists the non-containment node values of n in feature order.
func references(n *graph.Node) []edge {
	if n.Type() == nil {
		return nil
	}
	var out []edge
	add := func(f string, t *graph.Node) {
		if t != nil {
			out = append(out, edge{f, t})
		}
	}
	for _, f := range n.Type().AllFeatures() {
		if f.Group() != nil {
			continue
		}
		switch v := n.Get(f.Name).(type) {
		case *graph.Node:
			if !f.IsContainment() {
				add(f.Name, v)
			}
		case []*graph.Node:
			if !f.IsContainment() {
				for _, t := range v {
					add(f.Name, t)
				}
			}
		case *graph.Map:
			if f.ValueKindOf() == schema.Reference {
				for _, k := range v.Keys() {
					t, _ := v.Get(k)
					if t, ok := t.(*graph.Node); ok {
						add(fmt.Sprintf("%s[%v]", f.Name, k), t)
					}
				}
			}
		case []graph.Entry:
			for _, e := range v {
				if t, ok := e.Value.(*graph.Node); ok && !e.Feature.IsContainment() {
					add(e.Feature.Name, t)
				}
			}
		}
	}
	return out
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag to a zero-origin viewBox
// with matching width and height.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
