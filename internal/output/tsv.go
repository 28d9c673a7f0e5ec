// # internal/output/tsv.go
package output

import (
	"fmt"
	"strings"

	"scriptls/internal/engine/graph"
)

type TSVGenerator struct {
	graph *graph.Graph
	label Labeler
}

func NewTSVGenerator(g *graph.Graph, label Labeler) *TSVGenerator {
	return &TSVGenerator{graph: g, label: labelerOrDefault(label)}
}

// Generate lists one edge per row together with its encoded location.
func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("From\tTo\tKind\tNamespace\tLocation\n")
	for _, uri := range t.graph.Nodes() {
		for _, edge := range t.graph.Dependencies(uri) {
			fmt.Fprintf(&buf, "%s\t%s\t%s\t%s\t%s\n",
				t.label(edge.From),
				t.label(edge.To),
				edge.Location.Kind,
				edge.Location.Namespace(),
				edge.Location.Raw(),
			)
		}
	}
	return buf.String(), nil
}
