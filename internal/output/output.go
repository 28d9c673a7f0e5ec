// # internal/output/output.go
package output

import (
	"scriptls/internal/engine/graph"
	"scriptls/internal/engine/location"
)

// Labeler renders a document URI for display.
type Labeler func(uri string) string

func identity(uri string) string { return uri }

func labelerOrDefault(l Labeler) Labeler {
	if l == nil {
		return identity
	}
	return l
}

// cycleIndex maps every document of a cycle to the index of its cycle.
func cycleIndex(cycles [][]string) map[string]int {
	index := make(map[string]int)
	for i, cycle := range cycles {
		for _, uri := range cycle {
			index[uri] = i
		}
	}
	return index
}

// inCycle reports whether both ends of edge belong to the same cycle.
func inCycle(index map[string]int, edge graph.Edge) bool {
	from, ok := index[edge.From]
	if !ok {
		return false
	}
	to, ok := index[edge.To]
	return ok && from == to
}

func edgeLabel(loc location.Location) string {
	if ns := loc.Namespace(); ns != "" && loc.Kind == location.KindImport {
		return string(loc.Kind) + " as " + ns
	}
	return string(loc.Kind)
}
