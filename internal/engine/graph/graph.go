// # internal/engine/graph/graph.go
package graph

import (
	"sort"
	"sync"

	"scriptls/internal/engine/location"
)

// Edge is a dependency of one document on another.
type Edge struct {
	From     string
	To       string
	Location location.Location
}

// Graph is the flat dependency graph of a workspace, keyed by document URI.
// Edges of a node keep the order in which they were added.
type Graph struct {
	mu sync.RWMutex

	nodes      map[string]struct{}
	imports    map[string][]*Edge                   // from -> edges
	edgeIndex  map[string]map[location.Raw]struct{} // from -> encoded locations
	importedBy map[string]map[string]struct{}       // to -> from
}

func New() *Graph {
	return &Graph{
		nodes:      make(map[string]struct{}),
		imports:    make(map[string][]*Edge),
		edgeIndex:  make(map[string]map[location.Raw]struct{}),
		importedBy: make(map[string]map[string]struct{}),
	}
}

func (g *Graph) AddNode(uri string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[uri] = struct{}{}
}

// AddEdge records that from depends on loc.URI. Both ends become nodes; a
// location already recorded for from is ignored.
func (g *Graph) AddEdge(from string, loc location.Location) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes[from] = struct{}{}
	g.nodes[loc.URI] = struct{}{}

	raw := loc.Raw()
	if g.edgeIndex[from] == nil {
		g.edgeIndex[from] = make(map[location.Raw]struct{})
	}
	if _, exists := g.edgeIndex[from][raw]; exists {
		return
	}
	g.edgeIndex[from][raw] = struct{}{}
	g.imports[from] = append(g.imports[from], &Edge{From: from, To: loc.URI, Location: loc})

	if g.importedBy[loc.URI] == nil {
		g.importedBy[loc.URI] = make(map[string]struct{})
	}
	g.importedBy[loc.URI][from] = struct{}{}
}

// RemoveNode drops uri and every edge touching it.
func (g *Graph) RemoveNode(uri string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, edge := range g.imports[uri] {
		delete(g.importedBy[edge.To], uri)
	}
	delete(g.imports, uri)
	delete(g.edgeIndex, uri)

	for from := range g.importedBy[uri] {
		kept := g.imports[from][:0]
		for _, edge := range g.imports[from] {
			if edge.To == uri {
				delete(g.edgeIndex[from], edge.Location.Raw())
				continue
			}
			kept = append(kept, edge)
		}
		g.imports[from] = kept
	}
	delete(g.importedBy, uri)
	delete(g.nodes, uri)
}

func (g *Graph) HasNode(uri string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[uri]
	return ok
}

// Nodes returns every node in sorted order.
func (g *Graph) Nodes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sortedNodesLocked()
}

func (g *Graph) sortedNodesLocked() []string {
	out := make([]string, 0, len(g.nodes))
	for uri := range g.nodes {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

// Dependencies returns the outgoing edges of uri in insertion order.
func (g *Graph) Dependencies(uri string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Edge, 0, len(g.imports[uri]))
	for _, edge := range g.imports[uri] {
		out = append(out, *edge)
	}
	return out
}

func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	count := 0
	for _, edges := range g.imports {
		count += len(edges)
	}
	return count
}

// Order returns every node so that each node comes after the nodes it
// depends on. Edges closing a cycle are ignored. Roots are visited in sorted
// order, so the result is deterministic.
func (g *Graph) Order() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	type frame struct {
		node string
		next int
	}

	visited := make(map[string]bool, len(g.nodes))
	out := make([]string, 0, len(g.nodes))

	for _, root := range g.sortedNodesLocked() {
		if visited[root] {
			continue
		}
		visited[root] = true
		stack := []frame{{node: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := g.imports[top.node]
			if top.next < len(edges) {
				to := edges[top.next].To
				top.next++
				if !visited[to] {
					visited[to] = true
					stack = append(stack, frame{node: to})
				}
				continue
			}
			out = append(out, top.node)
			stack = stack[:len(stack)-1]
		}
	}
	return out
}

func (g *Graph) adjacencyLocked() map[string][]string {
	adjacency := make(map[string][]string, len(g.imports))
	for from, edges := range g.imports {
		seen := make(map[string]bool, len(edges))
		for _, edge := range edges {
			if seen[edge.To] {
				continue
			}
			seen[edge.To] = true
			adjacency[from] = append(adjacency[from], edge.To)
		}
	}
	return adjacency
}

func stronglyConnectedComponents(nodes []string, adjacency map[string][]string) (map[string]int, [][]string) {
	index := 0
	stack := make([]string, 0, len(nodes))
	onStack := make(map[string]bool, len(nodes))
	indexByNode := make(map[string]int, len(nodes))
	lowLink := make(map[string]int, len(nodes))
	componentOf := make(map[string]int, len(nodes))
	components := make([][]string, 0)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indexByNode[v] = index
		lowLink[v] = index
		index++

		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adjacency[v] {
			if _, seen := indexByNode[w]; !seen {
				strongConnect(w)
				if lowLink[w] < lowLink[v] {
					lowLink[v] = lowLink[w]
				}
			} else if onStack[w] && indexByNode[w] < lowLink[v] {
				lowLink[v] = indexByNode[w]
			}
		}

		if lowLink[v] != indexByNode[v] {
			return
		}

		component := make([]string, 0)
		for {
			last := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[last] = false
			component = append(component, last)
			if last == v {
				break
			}
		}
		sort.Strings(component)
		compID := len(components)
		components = append(components, component)
		for _, n := range component {
			componentOf[n] = compID
		}
	}

	for _, node := range nodes {
		if _, seen := indexByNode[node]; !seen {
			strongConnect(node)
		}
	}

	return componentOf, components
}
