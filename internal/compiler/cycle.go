package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/xbridge/internal/ir"
)

// CycleWarning reports value types that contain each other inline.
//
// A fixed-layout cycle has no finite size and every type on it will be
// dropped by generation. Resilient types break the cycle since they are
// held behind an opaque pointer.
type CycleWarning struct {
	Path    []string `json:"path"` // cycle path: ["A", "B", "A"]
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// AnalyzeCycles finds containment cycles among a module's aggregates.
//
// Edges run from a fixed-layout aggregate to every aggregate it stores by
// value: stored instance properties, enum payloads and their optionals.
// Pointers do not contain their pointee. Each strongly connected component
// of size > 1, and each self-loop, is one warning. Output is sorted by the
// first type in the path.
func AnalyzeCycles(mod *ir.ModuleInterface) []CycleWarning {
	if mod == nil {
		return []CycleWarning{}
	}
	graph := buildContainmentGraph(mod)

	var warnings []CycleWarning
	for _, scc := range tarjanSCC(graph) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	if warnings == nil {
		return []CycleWarning{}
	}
	return warnings
}

// containmentGraph maps a type name to the types it stores inline.
type containmentGraph map[string][]string

func buildContainmentGraph(mod *ir.ModuleInterface) containmentGraph {
	graph := make(containmentGraph)
	aggregates := make(map[string]bool)
	for _, d := range mod.Decls {
		if d.IsAggregate() {
			aggregates[d.Name] = true
		}
	}

	for _, d := range mod.Decls {
		if !d.IsAggregate() {
			continue
		}
		if graph[d.Name] == nil {
			graph[d.Name] = []string{}
		}
		if d.Resilient {
			continue
		}
		var stored []ir.TypeRef
		for _, p := range d.StoredProperties() {
			if !p.Static && p.Result != nil {
				stored = append(stored, *p.Result)
			}
		}
		for _, c := range d.Cases {
			if c.Payload != nil {
				stored = append(stored, *c.Payload)
			}
		}
		for _, t := range stored {
			if name, ok := inlineAggregate(t); ok && aggregates[name] && !slices.Contains(graph[d.Name], name) {
				graph[d.Name] = append(graph[d.Name], name)
			}
		}
	}
	return graph
}

// inlineAggregate returns the named type stored by value in t, looking
// through optionals.
func inlineAggregate(t ir.TypeRef) (string, bool) {
	for t.Kind == ir.TypeOptional && t.Elem != nil {
		t = *t.Elem
	}
	if t.Kind != ir.TypeNamed || len(t.Elems) > 0 {
		return "", false
	}
	return t.Name, true
}

func hasSelfLoop(node string, graph containmentGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in name order so results are reproducible.
func tarjanSCC(graph containmentGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	slices.Sort(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func cycleSCCToWarning(scc []string, graph containmentGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("%s stores itself by value", name),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("value types contain each other: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks the SCC from its smallest member until it
// returns to the start.
func reconstructCyclePath(scc []string, graph containmentGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}
	members := make(map[string]bool, len(scc))
	for _, node := range scc {
		members[node] = true
	}

	start := slices.Min(scc)
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	if path[len(path)-1] != start {
		path = append(path, start)
	}
	return path
}
