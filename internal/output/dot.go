// # internal/output/dot.go
package output

import (
	"fmt"
	"strings"

	"scriptls/internal/engine/graph"
	"scriptls/internal/engine/location"
)

type DOTGenerator struct {
	graph *graph.Graph
	label Labeler
}

func NewDOTGenerator(g *graph.Graph, label Labeler) *DOTGenerator {
	return &DOTGenerator{graph: g, label: labelerOrDefault(label)}
}

func (d *DOTGenerator) Generate(cycles [][]string) (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=rounded, fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n")
	buf.WriteString("  overlap=false;\n\n")

	cyclic := cycleIndex(cycles)
	nodes := d.graph.Nodes()

	for _, uri := range nodes {
		name := d.label(uri)
		label := fmt.Sprintf("%s\\n(%d deps)", name, len(d.graph.Dependencies(uri)))
		if _, ok := cyclic[uri]; ok {
			fmt.Fprintf(&buf, "  %q [label=\"%s\", fillcolor=\"mistyrose\", color=\"red\", style=\"rounded,filled\", penwidth=2.0];\n", name, label)
			continue
		}
		fmt.Fprintf(&buf, "  %q [label=\"%s\", color=\"darkslategrey\"];\n", name, label)
	}
	buf.WriteString("\n")

	for _, uri := range nodes {
		for _, edge := range d.graph.Dependencies(uri) {
			from, to := d.label(edge.From), d.label(edge.To)
			switch {
			case inCycle(cyclic, edge):
				fmt.Fprintf(&buf, "  %q -> %q [color=\"red\", penwidth=3.0, label=\"CYCLE\"];\n", from, to)
			case edge.Location.Kind == location.KindNativeImport:
				fmt.Fprintf(&buf, "  %q -> %q [color=\"grey\", style=dashed, label=%q];\n", from, to, edgeLabel(edge.Location))
			case edge.Location.Kind == location.KindImport:
				fmt.Fprintf(&buf, "  %q -> %q [color=\"steelblue\", label=%q];\n", from, to, edgeLabel(edge.Location))
			default:
				fmt.Fprintf(&buf, "  %q -> %q [color=\"forestgreen\", penwidth=1.8];\n", from, to)
			}
		}
	}

	buf.WriteString("\n  subgraph cluster_legend {\n")
	buf.WriteString("    label=\"Legend\";\n")
	buf.WriteString("    style=dashed;\n")
	buf.WriteString("    legend_include [label=\"#include\", shape=plaintext, fontcolor=\"forestgreen\"];\n")
	buf.WriteString("    legend_import [label=\"#import\", shape=plaintext, fontcolor=\"steelblue\"];\n")
	buf.WriteString("    legend_native [label=\"import_code\", shape=plaintext, fontcolor=\"grey\"];\n")
	buf.WriteString("    legend_cycle [label=\"Circular dependency\", fillcolor=\"mistyrose\", color=\"red\", style=\"rounded,filled\"];\n")
	buf.WriteString("  }\n")

	buf.WriteString("}\n")
	return buf.String(), nil
}
