package output

import (
	"fmt"
	"strings"

	"scriptls/internal/engine/graph"
	"scriptls/internal/engine/location"
)

type MermaidGenerator struct {
	graph *graph.Graph
	label Labeler
}

func NewMermaidGenerator(g *graph.Graph, label Labeler) *MermaidGenerator {
	return &MermaidGenerator{graph: g, label: labelerOrDefault(label)}
}

// Generate renders the graph as a Mermaid flowchart. Documents and edges
// inside a cycle get the cycle style.
func (m *MermaidGenerator) Generate(cycles [][]string) (string, error) {
	var b strings.Builder
	b.WriteString("flowchart LR\n")
	b.WriteString("  classDef cycle fill:#ffe4e1,stroke:#d00,stroke-width:2px;\n")

	cyclic := cycleIndex(cycles)
	nodes := m.graph.Nodes()
	ids := make(map[string]string, len(nodes))
	for i, uri := range nodes {
		ids[uri] = fmt.Sprintf("n%d", i)
		fmt.Fprintf(&b, "  %s[\"%s\"]\n", ids[uri], mermaidEscape(m.label(uri)))
	}

	var cycleLinks, nativeLinks []int
	link := 0
	for _, uri := range nodes {
		for _, edge := range m.graph.Dependencies(uri) {
			arrow := "-->"
			if edge.Location.Kind == location.KindNativeImport {
				arrow = "-.->"
				nativeLinks = append(nativeLinks, link)
			}
			fmt.Fprintf(&b, "  %s %s|%s| %s\n", ids[edge.From], arrow, mermaidEscape(edgeLabel(edge.Location)), ids[edge.To])
			if inCycle(cyclic, edge) {
				cycleLinks = append(cycleLinks, link)
			}
			link++
		}
	}

	var cycleNodes []string
	for _, uri := range nodes {
		if _, ok := cyclic[uri]; ok {
			cycleNodes = append(cycleNodes, ids[uri])
		}
	}
	if len(cycleNodes) > 0 {
		fmt.Fprintf(&b, "  class %s cycle\n", strings.Join(cycleNodes, ","))
	}
	if len(nativeLinks) > 0 {
		fmt.Fprintf(&b, "  linkStyle %s stroke:#888\n", joinInts(nativeLinks))
	}
	if len(cycleLinks) > 0 {
		fmt.Fprintf(&b, "  linkStyle %s stroke:#d00,stroke-width:3px\n", joinInts(cycleLinks))
	}
	return b.String(), nil
}

func mermaidEscape(s string) string {
	return strings.NewReplacer("\"", "#quot;", "|", "#124;").Replace(s)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
