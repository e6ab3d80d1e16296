package typemap

import (
	"sort"

	"github.com/roach88/xbridge/internal/ir"
)

// AddConformance records that a source type satisfies a protocol.
func (m *Mapper) AddConformance(typeName, protocol string) {
	set, ok := m.conformances[typeName]
	if !ok {
		set = make(map[string]bool)
		m.conformances[typeName] = set
	}
	set[protocol] = true
}

// AddEdges records every edge of a conformance list.
func (m *Mapper) AddEdges(edges []ir.ConformanceEdge) {
	for _, e := range edges {
		m.AddConformance(e.Type, e.Protocol)
	}
}

// Conforms reports whether a source type satisfies a protocol. Pointers are
// Equatable and Hashable; optionals are when their wrapped type is.
func (m *Mapper) Conforms(t ir.TypeRef, protocol string) bool {
	switch t.Kind {
	case ir.TypeNamed:
		if len(t.Elems) > 0 {
			return false
		}
		return m.conformances[t.Name][protocol]
	case ir.TypePointer:
		return protocol == "Equatable" || protocol == "Hashable"
	case ir.TypeOptional:
		if protocol != "Equatable" && protocol != "Hashable" {
			return false
		}
		return t.Elem != nil && m.Conforms(*t.Elem, protocol)
	default:
		return false
	}
}

// ConformancesOf returns the protocols a named type satisfies, sorted.
func (m *Mapper) ConformancesOf(typeName string) []string {
	set := m.conformances[typeName]
	out := make([]string, 0, len(set))
	for proto := range set {
		out = append(out, proto)
	}
	sort.Strings(out)
	return out
}

// Edges returns every recorded conformance of a registered aggregate,
// sorted by type then protocol. Primitive and String conformances are builtin
// to the support runtime and omitted.
func (m *Mapper) Edges() []ir.ConformanceEdge {
	var out []ir.ConformanceEdge
	for typeName, set := range m.conformances {
		if _, prim := m.primitives[typeName]; prim {
			continue
		}
		if _, agg := m.aggregates[typeName]; !agg {
			continue
		}
		for proto := range set {
			out = append(out, ir.ConformanceEdge{Type: typeName, Protocol: proto})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Protocol < out[j].Protocol
	})
	return out
}
