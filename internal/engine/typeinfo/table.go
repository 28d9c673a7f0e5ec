// # internal/engine/typeinfo/table.go
package typeinfo

import (
	"sort"

	"scriptls/internal/engine/syntax"
)

// ExportsSlot is the reserved entry holding a document's exported members.
const ExportsSlot = "module.exports"

type Kind string

const (
	KindAny       Kind = "any"
	KindNull      Kind = "null"
	KindNumber    Kind = "number"
	KindString    Kind = "string"
	KindList      Kind = "list"
	KindMap       Kind = "map"
	KindFunction  Kind = "function"
	KindNamespace Kind = "namespace"
)

// Entity is one named symbol. Entities are not modified once their table has
// been published.
type Entity struct {
	Name    string
	Kind    Kind
	Source  string // URI of the defining document
	Range   syntax.Range
	Params  []string
	Members *Table // KindMap and KindNamespace
}

// Table is a per-document symbol table. Merge and WithNamespace return new
// tables and never modify their operands, so published tables can be shared
// between cached merge results.
type Table struct {
	uri     string
	symbols map[string]*Entity
}

func NewTable(uri string) *Table {
	return &Table{uri: uri, symbols: make(map[string]*Entity)}
}

func (t *Table) URI() string {
	return t.uri
}

func (t *Table) Len() int {
	return len(t.symbols)
}

func (t *Table) Lookup(name string) (*Entity, bool) {
	e, ok := t.symbols[name]
	return e, ok
}

func (t *Table) Has(name string) bool {
	_, ok := t.symbols[name]
	return ok
}

// Names returns the symbol names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.symbols))
	for name := range t.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set stores an entity. Only used while a table is being built.
func (t *Table) Set(e *Entity) {
	t.symbols[e.Name] = e
}

func (t *Table) Clone() *Table {
	out := &Table{uri: t.uri, symbols: make(map[string]*Entity, len(t.symbols))}
	for name, e := range t.symbols {
		out.symbols[name] = e
	}
	return out
}

// Exports returns the members installed under ExportsSlot, or an empty table.
func (t *Table) Exports() *Table {
	if e, ok := t.symbols[ExportsSlot]; ok && e.Members != nil {
		return e.Members
	}
	return NewTable(t.uri)
}

// Merge combines t with others. Symbols already present win over symbols of
// later operands; the export slots are merged member by member under the
// same rule. nil operands are skipped.
func (t *Table) Merge(others ...*Table) *Table {
	out := t.Clone()
	for _, other := range others {
		if other == nil {
			continue
		}
		for name, e := range other.symbols {
			current, exists := out.symbols[name]
			switch {
			case !exists:
				out.symbols[name] = e
			case name == ExportsSlot:
				merged := *current
				merged.Members = current.membersOrEmpty(out.uri).Merge(e.Members)
				out.symbols[name] = &merged
			}
		}
	}
	return out
}

// WithNamespace returns a copy of t with members installed as a namespace
// entity called name.
func (t *Table) WithNamespace(name string, members *Table) *Table {
	out := t.Clone()
	if members == nil {
		members = NewTable("")
	}
	out.symbols[name] = &Entity{
		Name:    name,
		Kind:    KindNamespace,
		Source:  members.uri,
		Members: members,
	}
	return out
}

func (e *Entity) membersOrEmpty(uri string) *Table {
	if e.Members == nil {
		return NewTable(uri)
	}
	return e.Members
}
