// Package dot renders typed graphs as Graphviz node-link diagrams.
//
// # Usage
//
// Convert a document to DOT, then render to SVG:
//
//	src := dot.ToDOT(doc, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(src)
//
// Containment edges are solid and point from container to child.
// Reference edges are dashed. Targets outside the document, including
// unresolved proxies, are drawn once as grey ellipses labelled with
// their URI.
//
// For PDF or PNG output, use [RenderPDF] or [RenderPNG], which convert
// the SVG with librsvg (rsvg-convert).
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package dot
