package typemap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/xbridge/internal/ir"
)

func TestBuiltinConformances(t *testing.T) {
	m := newMapper(t)

	assert.True(t, m.Conforms(ir.Named("Int"), "Comparable"))
	assert.True(t, m.Conforms(ir.Named("Double"), "FloatingPoint"))
	assert.True(t, m.Conforms(ir.Named("String"), "Comparable"))
	assert.False(t, m.Conforms(ir.Named("Bool"), "Comparable"))
	assert.True(t, m.Conforms(ir.MustParseTypeRef("UnsafePointer<Int>"), "Hashable"))
	assert.False(t, m.Conforms(ir.MustParseTypeRef("UnsafePointer<Int>"), "Comparable"))
	assert.True(t, m.Conforms(ir.MustParseTypeRef("Int?"), "Equatable"))
	assert.False(t, m.Conforms(ir.MustParseTypeRef("Int?"), "Comparable"))
	assert.False(t, m.Conforms(ir.MustParseTypeRef("(Int) -> Int"), "Equatable"))
}

func TestDeclaredAndImplicitConformances(t *testing.T) {
	m := newMapper(t)
	m.Register(AggregateInfo{Source: "Airport", Kind: ir.KindEnum})
	m.Register(AggregateInfo{Source: "Shape", Kind: ir.KindEnum, Payload: true})
	m.Register(AggregateInfo{Source: "Point", Kind: ir.KindStruct})
	m.AddEdges([]ir.ConformanceEdge{{Type: "Point", Protocol: "Equatable"}})

	assert.True(t, m.Conforms(ir.Named("Airport"), "Hashable"))
	assert.False(t, m.Conforms(ir.Named("Shape"), "Equatable"))
	assert.True(t, m.Conforms(ir.Named("Point"), "Equatable"))
	assert.False(t, m.Conforms(ir.Named("Point"), "Comparable"))

	assert.Equal(t, []string{"Equatable", "Hashable"}, m.ConformancesOf("Airport"))

	edges := m.Edges()
	assert.Equal(t, []ir.ConformanceEdge{
		{Type: "Airport", Protocol: "Equatable"},
		{Type: "Airport", Protocol: "Hashable"},
		{Type: "Point", Protocol: "Equatable"},
	}, edges)
}
