package graph

import (
	"fmt"
	"testing"

	"scriptls/internal/engine/location"
)

func chain(n int) *Graph {
	g := New()
	for i := 0; i < n; i++ {
		g.AddEdge(fmt.Sprintf("file:///ws/f%d.src", i), location.Location{
			Kind: location.KindInclude,
			URI:  fmt.Sprintf("file:///ws/f%d.src", (i+1)%n),
		})
	}
	return g
}

func BenchmarkAddEdge(b *testing.B) {
	g := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.AddEdge(fmt.Sprintf("file:///ws/f%d.src", i%100), location.Location{
			Kind: location.KindInclude,
			URI:  fmt.Sprintf("file:///ws/f%d.src", (i+1)%100),
		})
	}
}

func BenchmarkDetectCycles(b *testing.B) {
	g := chain(500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = g.DetectCycles()
	}
}

func BenchmarkOrder(b *testing.B) {
	g := chain(500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = g.Order()
	}
}
