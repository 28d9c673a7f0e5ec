// # internal/engine/merger/dependency.go
package merger

import (
	"context"
	"sync"

	"scriptls/internal/core/ports"
	"scriptls/internal/engine/document"
	"scriptls/internal/engine/location"
	"scriptls/internal/engine/typeinfo"

	"golang.org/x/sync/errgroup"
)

// resolved memoizes the merged table of every document completed during one
// build, so a document shared by several branches is merged once.
type resolved struct {
	mu     sync.Mutex
	tables map[string]*typeinfo.Table
}

func (r *resolved) get(uri string) (*typeinfo.Table, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[uri]
	return t, ok
}

func (r *resolved) set(uri string, t *typeinfo.Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[uri] = t
}

func (m *Merger) buildDependency(ctx context.Context, strategy Strategy, doc ports.TextDocument) (*typeinfo.Table, error) {
	active := m.documents.GetLatest(ctx, doc, m.opts.LatestTimeout)
	if active == nil {
		return nil, nil
	}
	if _, ok := m.types.Get(doc.URI); !ok {
		return nil, nil
	}

	root := active.ImportsGraph(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := treeKey(strategy, root)
	if table, ok := m.lookup(strategy, doc.URI, key); ok {
		return table, nil
	}

	return m.once(ctx, key, func(ctx context.Context) (*typeinfo.Table, error) {
		if table, ok := m.cache.Get(key); ok {
			m.register(doc.URI, key)
			return table, nil
		}

		refs := &resolved{tables: make(map[string]*typeinfo.Table)}
		table, err := m.resolveNode(ctx, root, nil, refs)
		if err != nil {
			return nil, err
		}
		if table == nil {
			return nil, nil
		}

		m.store(doc.URI, key, table)
		m.logger.Debug("merged type table", "uri", doc.URI, "strategy", strategy, "key", key, "documents", root.Size())
		return table, nil
	})
}

// resolveNode merges the table of node with its resolved children. path
// holds the URIs from the root down to node's parent; a node found on it
// closes a cycle and contributes nothing.
func (m *Merger) resolveNode(ctx context.Context, node *document.ImportNode, path []string, refs *resolved) (*typeinfo.Table, error) {
	uri := node.URI()
	for _, p := range path {
		if p == uri {
			return nil, nil
		}
	}
	if table, ok := refs.get(uri); ok {
		return table, nil
	}

	own, ok := m.types.Get(uri)
	if !ok {
		return nil, nil
	}

	childPath := make([]string, len(path)+1)
	copy(childPath, path)
	childPath[len(path)] = uri

	deps := make([]location.Location, len(node.Children))
	tables := make([]*typeinfo.Table, len(node.Children))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.MaxParallel)
	for i, child := range node.Children {
		i, child := i, child
		deps[i] = child.Location
		g.Go(func() error {
			t, err := m.resolveNode(gctx, child, childPath, refs)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	table := combine(own, deps, tables)
	refs.set(uri, table)
	return table, nil
}
