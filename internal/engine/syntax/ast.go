// # internal/engine/syntax/ast.go
package syntax

import "fmt"

// Position is a 1-based line/character pair.
type Position struct {
	Line      int
	Character int
}

type Range struct {
	Start Position
	End   Position
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line, r.Start.Character, r.End.Line, r.End.Character)
}

// Node is one top-level statement. The set of variants is closed; consumers
// dispatch through Visitor instead of type switches.
type Node interface {
	Range() Range
	Accept(v Visitor)
}

// Visitor receives each statement variant.
type Visitor interface {
	VisitAssignment(*Assignment)
	VisitImport(*Import)
	VisitInclude(*Include)
	VisitNativeImport(*NativeImport)
	VisitExpression(*Expression)
}

// ValueKind is the coarse shape of an assigned value as seen by the parser.
type ValueKind int

const (
	ValueUnknown ValueKind = iota
	ValueNull
	ValueNumber
	ValueString
	ValueList
	ValueMap
	ValueFunction
	ValueReference
)

func (k ValueKind) String() string {
	switch k {
	case ValueNull:
		return "null"
	case ValueNumber:
		return "number"
	case ValueString:
		return "string"
	case ValueList:
		return "list"
	case ValueMap:
		return "map"
	case ValueFunction:
		return "function"
	case ValueReference:
		return "reference"
	default:
		return "unknown"
	}
}

type Value struct {
	Kind   ValueKind
	Text   string
	Ref    string   // ValueReference: referenced identifier path
	Params []string // ValueFunction
}

// Assignment binds Value to Target. Target may be a dotted path such as
// module.exports.helper.
type Assignment struct {
	Target string
	Value  Value
	Loc    Range
}

// Import is `#import name from "path"`; Name is empty for `#import "path"`.
type Import struct {
	Name string
	Path string
	Loc  Range
}

// Include is `#include "path"`.
type Include struct {
	Path string
	Loc  Range
}

// NativeImport is `import_code("path")`.
type NativeImport struct {
	Directory string
	Loc       Range
}

// Expression is any other statement kept opaque (calls, control flow).
type Expression struct {
	Text string
	Loc  Range
}

func (n *Assignment) Range() Range   { return n.Loc }
func (n *Import) Range() Range       { return n.Loc }
func (n *Include) Range() Range      { return n.Loc }
func (n *NativeImport) Range() Range { return n.Loc }
func (n *Expression) Range() Range   { return n.Loc }

func (n *Assignment) Accept(v Visitor)   { v.VisitAssignment(n) }
func (n *Import) Accept(v Visitor)       { v.VisitImport(n) }
func (n *Include) Accept(v Visitor)      { v.VisitInclude(n) }
func (n *NativeImport) Accept(v Visitor) { v.VisitNativeImport(n) }
func (n *Expression) Accept(v Visitor)   { v.VisitExpression(n) }

// Chunk is the root of a parsed document. The reference lists mirror the
// corresponding statements in Body.
type Chunk struct {
	Body          []Node
	Imports       []*Import
	Includes      []*Include
	NativeImports []*NativeImport
	Start         Position
	End           Position
}

func (c *Chunk) Range() Range {
	return Range{Start: c.Start, End: c.End}
}

// Walk dispatches every statement of the chunk to v in source order.
func Walk(c *Chunk, v Visitor) {
	if c == nil {
		return
	}
	for _, node := range c.Body {
		node.Accept(v)
	}
}
