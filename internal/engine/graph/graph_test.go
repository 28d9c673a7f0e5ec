package graph

import (
	"testing"

	"scriptls/internal/engine/location"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func include(uri string) location.Location {
	return location.Location{Kind: location.KindInclude, URI: uri}
}

func importAs(uri, ns string) location.Location {
	return location.Location{Kind: location.KindImport, URI: uri, Args: []string{ns}}
}

func TestGraph_AddEdgeDeduplicatesByLocation(t *testing.T) {
	g := New()
	g.AddEdge("a", include("b"))
	g.AddEdge("a", include("b"))
	g.AddEdge("a", importAs("b", "lib"))
	g.AddEdge("a", include("c"))

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 3, g.EdgeCount())

	deps := g.Dependencies("a")
	require.Len(t, deps, 3)
	assert.Equal(t, "b", deps[0].To)
	assert.Equal(t, location.KindImport, deps[1].Location.Kind)
	assert.Equal(t, "c", deps[2].To)
	assert.Equal(t, []string{"a", "b", "c"}, g.Nodes())
}

func TestGraph_RemoveNode(t *testing.T) {
	g := New()
	g.AddEdge("a", include("b"))
	g.AddEdge("b", include("c"))
	g.AddEdge("a", include("c"))

	g.RemoveNode("c")
	assert.False(t, g.HasNode("c"))
	assert.Equal(t, 1, g.EdgeCount())
	assert.Empty(t, g.Dependencies("b"))
	assert.Empty(t, g.Dependents("c"))

	g.AddEdge("a", include("c"))
	assert.Len(t, g.Dependencies("a"), 2, "a removed edge can be added again")
}

func TestGraph_OrderPlacesDependenciesFirst(t *testing.T) {
	g := New()
	g.AddEdge("main", include("util"))
	g.AddEdge("main", include("lib"))
	g.AddEdge("lib", include("util"))
	g.AddNode("standalone")

	order := g.Order()
	require.Len(t, order, 4)

	pos := make(map[string]int, len(order))
	for i, uri := range order {
		pos[uri] = i
	}
	assert.Less(t, pos["util"], pos["lib"])
	assert.Less(t, pos["lib"], pos["main"])
	assert.Equal(t, []string{"util", "lib", "main", "standalone"}, order)
}

func TestGraph_OrderTerminatesOnCycles(t *testing.T) {
	g := New()
	g.AddEdge("a", include("b"))
	g.AddEdge("b", include("c"))
	g.AddEdge("c", include("a"))

	assert.Equal(t, []string{"c", "b", "a"}, g.Order())
}

func TestGraph_OrderDeepChain(t *testing.T) {
	g := chain(5000)
	assert.Len(t, g.Order(), 5000)
}
