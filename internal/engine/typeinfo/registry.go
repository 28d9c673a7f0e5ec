// # internal/engine/typeinfo/registry.go
package typeinfo

import (
	"strings"
	"sync"

	"scriptls/internal/engine/syntax"
)

// Registry indexes one symbol table per document URI.
type Registry struct {
	mu     sync.RWMutex
	tables map[string]*Table
}

func NewRegistry() *Registry {
	return &Registry{tables: make(map[string]*Table)}
}

// Analyze builds the table for chunk and replaces any table previously
// registered for uri.
func (r *Registry) Analyze(uri string, chunk *syntax.Chunk) {
	table := Analyze(uri, chunk)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[uri] = table
}

func (r *Registry) Get(uri string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[uri]
	return t, ok
}

func (r *Registry) Forget(uri string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tables, uri)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tables)
}

// Analyze builds a fresh table from chunk without registering it.
func Analyze(uri string, chunk *syntax.Chunk) *Table {
	b := &tableBuilder{table: NewTable(uri), uri: uri}
	syntax.Walk(chunk, b)

	if !b.table.Has("params") {
		b.table.Set(&Entity{Name: "params", Kind: KindList, Source: uri})
	}
	return b.table
}

type tableBuilder struct {
	table *Table
	uri   string
}

func (b *tableBuilder) VisitAssignment(n *syntax.Assignment) {
	switch {
	case n.Target == ExportsSlot:
		b.replaceExports(n.Value)
	case strings.HasPrefix(n.Target, ExportsSlot+"."):
		path := strings.Split(n.Target[len(ExportsSlot)+1:], ".")
		b.assignPath(b.exports().Members, path, n)
	default:
		b.assignPath(b.table, strings.Split(n.Target, "."), n)
	}
}

func (b *tableBuilder) VisitImport(*syntax.Import)             {}
func (b *tableBuilder) VisitInclude(*syntax.Include)           {}
func (b *tableBuilder) VisitNativeImport(*syntax.NativeImport) {}
func (b *tableBuilder) VisitExpression(*syntax.Expression)     {}

func (b *tableBuilder) exports() *Entity {
	if e, ok := b.table.Lookup(ExportsSlot); ok {
		return e
	}
	e := &Entity{Name: ExportsSlot, Kind: KindMap, Source: b.uri, Members: NewTable(b.uri)}
	b.table.Set(e)
	return e
}

// replaceExports installs the value assigned to module.exports as a whole.
// A referenced map shares its members with the exports slot, so later
// assignments to either are seen by both.
func (b *tableBuilder) replaceExports(v syntax.Value) {
	e := b.exports()
	switch v.Kind {
	case syntax.ValueMap:
		e.Members = NewTable(b.uri)
	case syntax.ValueReference:
		ref, ok := b.resolve(v.Ref)
		if !ok {
			return
		}
		if ref.Members != nil {
			e.Members = ref.Members
		} else {
			e.Members = NewTable(b.uri)
		}
		if ref.Kind == KindFunction {
			e.Params = ref.Params
		}
	}
}

// resolve looks up a dotted reference such as "a.b" in the table.
func (b *tableBuilder) resolve(ref string) (*Entity, bool) {
	path := strings.Split(ref, ".")
	e, ok := b.table.Lookup(path[0])
	for _, name := range path[1:] {
		if !ok || e.Members == nil {
			return nil, false
		}
		e, ok = e.Members.Lookup(name)
	}
	return e, ok
}

// assignPath walks map members along path and defines the last segment.
// Paths through unknown or non-map owners are ignored.
func (b *tableBuilder) assignPath(scope *Table, path []string, n *syntax.Assignment) {
	for len(path) > 1 {
		owner, ok := scope.Lookup(path[0])
		if !ok || owner.Members == nil {
			return
		}
		scope = owner.Members
		path = path[1:]
	}

	e := &Entity{
		Name:   path[0],
		Source: b.uri,
		Range:  n.Loc,
	}
	b.describe(e, n.Value)
	scope.Set(e)
}

func (b *tableBuilder) describe(e *Entity, v syntax.Value) {
	switch v.Kind {
	case syntax.ValueNull:
		e.Kind = KindNull
	case syntax.ValueNumber:
		e.Kind = KindNumber
	case syntax.ValueString:
		e.Kind = KindString
	case syntax.ValueList:
		e.Kind = KindList
	case syntax.ValueMap:
		e.Kind = KindMap
		e.Members = NewTable(b.uri)
	case syntax.ValueFunction:
		e.Kind = KindFunction
		e.Params = v.Params
	case syntax.ValueReference:
		e.Kind = KindAny
		if ref, ok := b.resolve(v.Ref); ok {
			e.Kind = ref.Kind
			e.Members = ref.Members
			e.Params = ref.Params
		}
	default:
		e.Kind = KindAny
	}
}
