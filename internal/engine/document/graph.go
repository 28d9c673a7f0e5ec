// # internal/engine/document/graph.go
package document

import (
	"context"

	"scriptls/internal/engine/location"
)

// ImportNode is one node of a document's import tree. A dependency that is
// already on the path from the root appears as a leaf, which keeps the tree
// finite for cyclic imports.
type ImportNode struct {
	Location location.Location
	Document *ActiveDocument
	Children []*ImportNode
}

// URI returns the URI of the document behind the node.
func (n *ImportNode) URI() string {
	return n.Location.URI
}

// Walk visits the tree depth first, parents before children.
func (n *ImportNode) Walk(fn func(node *ImportNode, depth int)) {
	n.walk(fn, 0)
}

func (n *ImportNode) walk(fn func(node *ImportNode, depth int), depth int) {
	fn(n, depth)
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// Size returns the number of nodes in the tree.
func (n *ImportNode) Size() int {
	count := 0
	n.Walk(func(*ImportNode, int) { count++ })
	return count
}

// ImportsGraph builds the dependency tree rooted at d. Dependencies that
// cannot be read produce no node.
func (d *ActiveDocument) ImportsGraph(ctx context.Context) *ImportNode {
	root := &ImportNode{
		Location: location.Location{Kind: location.KindRoot, URI: d.URI},
		Document: d,
	}

	b := &treeBuilder{
		manager: d.manager,
		docs:    map[string]*ActiveDocument{d.URI: d},
		path:    map[string]struct{}{d.URI: {}},
	}
	b.expand(ctx, root)
	return root
}

type treeBuilder struct {
	manager *Manager
	docs    map[string]*ActiveDocument
	path    map[string]struct{}
}

func (b *treeBuilder) open(ctx context.Context, uri string) *ActiveDocument {
	if doc, ok := b.docs[uri]; ok {
		return doc
	}
	doc := b.manager.Open(ctx, uri)
	b.docs[uri] = doc
	return doc
}

func (b *treeBuilder) expand(ctx context.Context, node *ImportNode) {
	for _, dep := range node.Document.Dependencies(ctx) {
		if ctx.Err() != nil {
			return
		}

		doc := b.open(ctx, dep.URI)
		if doc == nil {
			continue
		}

		child := &ImportNode{Location: dep, Document: doc}
		node.Children = append(node.Children, child)

		if _, onPath := b.path[dep.URI]; onPath {
			continue
		}
		b.path[dep.URI] = struct{}{}
		b.expand(ctx, child)
		delete(b.path, dep.URI)
	}
}

// Imports returns every document reachable from d through its
// dependencies, each once, in discovery order. d itself is excluded.
func (d *ActiveDocument) Imports(ctx context.Context) []*ActiveDocument {
	seen := map[string]struct{}{d.URI: {}}
	queue := []*ActiveDocument{d}
	var out []*ActiveDocument

	for len(queue) > 0 {
		if ctx.Err() != nil {
			break
		}
		current := queue[0]
		queue = queue[1:]

		for _, dep := range current.Dependencies(ctx) {
			if _, ok := seen[dep.URI]; ok {
				continue
			}
			seen[dep.URI] = struct{}{}

			doc := d.manager.Open(ctx, dep.URI)
			if doc == nil {
				continue
			}
			out = append(out, doc)
			queue = append(queue, doc)
		}
	}
	return out
}
