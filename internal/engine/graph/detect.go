// # internal/engine/graph/detect.go
package graph

import "sort"

// DetectCycles returns every group of mutually dependent documents, each
// sorted, including documents that depend on themselves.
func (g *Graph) DetectCycles() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	adjacency := g.adjacencyLocked()
	_, components := stronglyConnectedComponents(g.sortedNodesLocked(), adjacency)

	var cycles [][]string
	for _, component := range components {
		if len(component) > 1 {
			cycles = append(cycles, component)
			continue
		}
		node := component[0]
		for _, to := range adjacency[node] {
			if to == node {
				cycles = append(cycles, component)
				break
			}
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i][0] < cycles[j][0]
	})
	return cycles
}

// FindImportChain returns the shortest dependency path from one document to
// another.
func (g *Graph) FindImportChain(from, to string) ([]string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[from]; !ok {
		return nil, false
	}
	if _, ok := g.nodes[to]; !ok {
		return nil, false
	}
	if from == to {
		return []string{from}, true
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, edge := range g.imports[curr] {
			next := edge.To
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr

			if next == to {
				path := []string{to}
				for node := to; node != from; {
					p := prev[node]
					path = append(path, p)
					node = p
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, true
			}

			queue = append(queue, next)
		}
	}

	return nil, false
}

// Dependents returns every document that depends on uri directly or
// transitively, sorted. uri itself is only included when it is part of a
// cycle.
func (g *Graph) Dependents(uri string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[string]bool)
	queue := []string{uri}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for importer := range g.importedBy[curr] {
			if seen[importer] {
				continue
			}
			seen[importer] = true
			queue = append(queue, importer)
		}
	}

	out := make([]string, 0, len(seen))
	for dep := range seen {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out
}
