// # internal/engine/merger/workspace.go
package merger

import (
	"context"

	"scriptls/internal/core/ports"
	"scriptls/internal/engine/document"
	"scriptls/internal/engine/graph"
	"scriptls/internal/engine/location"
	"scriptls/internal/engine/typeinfo"
	"scriptls/internal/shared/observability"

	"golang.org/x/sync/errgroup"
)

// workspaceState is every loaded workspace document and the dependency
// graph between them.
type workspaceState struct {
	documents map[string]*document.ActiveDocument
	graph     *graph.Graph
}

// WorkspaceGraph loads every workspace document, follows dependencies that
// lie outside the workspace filters and returns the resulting graph.
func (m *Merger) WorkspaceGraph(ctx context.Context) (*graph.Graph, error) {
	state, err := m.loadWorkspace(ctx, nil)
	if err != nil {
		return nil, err
	}
	return state.graph, nil
}

func (m *Merger) loadWorkspace(ctx context.Context, trigger *document.ActiveDocument) (*workspaceState, error) {
	files, err := m.documents.FileSystem().GetWorkspaceRelatedFiles(ctx)
	if err != nil {
		return nil, err
	}

	state := &workspaceState{
		documents: make(map[string]*document.ActiveDocument, len(files)),
		graph:     graph.New(),
	}

	queue := append([]string(nil), files...)
	if trigger != nil {
		state.documents[trigger.URI] = trigger
		for _, dep := range trigger.Dependencies(ctx) {
			queue = append(queue, dep.URI)
		}
	}

	attempted := make(map[string]bool)
	for len(queue) > 0 {
		var batch []string
		for _, uri := range queue {
			if _, ok := state.documents[uri]; ok || attempted[uri] {
				continue
			}
			attempted[uri] = true
			batch = append(batch, uri)
		}
		loaded := make([]*document.ActiveDocument, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(m.opts.MaxParallel)
		for i, uri := range batch {
			i, uri := i, uri
			g.Go(func() error {
				doc := m.documents.Open(gctx, uri)
				if doc != nil {
					doc.Dependencies(gctx)
				}
				loaded[i] = doc
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		queue = nil
		for _, doc := range loaded {
			if doc != nil {
				state.documents[doc.URI] = doc
			}
		}
		for _, doc := range loaded {
			if doc == nil {
				continue
			}
			for _, dep := range doc.Dependencies(ctx) {
				if _, ok := state.documents[dep.URI]; !ok && !attempted[dep.URI] {
					queue = append(queue, dep.URI)
				}
			}
		}
	}

	for uri, doc := range state.documents {
		state.graph.AddNode(uri)
		for _, dep := range doc.Dependencies(ctx) {
			if _, ok := state.documents[dep.URI]; ok {
				state.graph.AddEdge(uri, dep)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	observability.GraphNodes.Set(float64(state.graph.NodeCount()))
	observability.GraphEdges.Set(float64(state.graph.EdgeCount()))
	return state, nil
}

func (m *Merger) buildWorkspace(ctx context.Context, strategy Strategy, doc ports.TextDocument) (*typeinfo.Table, error) {
	active := m.documents.GetLatest(ctx, doc, m.opts.LatestTimeout)
	if active == nil {
		return nil, nil
	}
	if _, ok := m.types.Get(doc.URI); !ok {
		return nil, nil
	}

	state, err := m.loadWorkspace(ctx, active)
	if err != nil {
		return nil, err
	}

	revisions := make(map[string]revision, len(state.documents))
	for uri, d := range state.documents {
		revisions[uri] = revisionOf(d)
	}
	keys := workspaceKeys(strategy, revisions)
	key := keys[doc.URI]

	if table, ok := m.lookup(strategy, doc.URI, key); ok {
		return table, nil
	}

	return m.once(ctx, key, func(ctx context.Context) (*typeinfo.Table, error) {
		if table, ok := m.cache.Get(key); ok {
			m.register(doc.URI, key)
			return table, nil
		}

		merged := make(map[string]*typeinfo.Table, len(state.documents))
		for _, uri := range state.graph.Order() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			own, ok := m.types.Get(uri)
			if !ok {
				continue
			}

			edges := state.graph.Dependencies(uri)
			deps := make([]location.Location, len(edges))
			tables := make([]*typeinfo.Table, len(edges))
			for i, edge := range edges {
				deps[i] = edge.Location
				tables[i] = merged[edge.To]
			}

			table := combine(own, deps, tables)
			merged[uri] = table
			m.store(uri, keys[uri], table)
		}

		m.logger.Debug("merged workspace type tables", "uri", doc.URI, "strategy", strategy, "documents", len(merged))
		return merged[doc.URI], nil
	})
}
