package bridge

import (
	"slices"
	"sort"

	"github.com/roach88/xbridge/internal/ir"
)

// applyRenames returns a copy of mod with rename directives applied, keyed by
// selector: "name(label:)" for top-level declarations, "Type.member" and
// "Type.init(label:)" for members. Keys that match nothing are returned
// sorted.
func applyRenames(mod *ir.ModuleInterface, renames map[string]string) (*ir.ModuleInterface, []string) {
	used := make(map[string]bool, len(renames))
	lookup := func(selector string) (string, bool) {
		name, ok := renames[selector]
		if ok {
			used[selector] = true
		}
		return name, ok
	}

	out := &ir.ModuleInterface{
		Name:         mod.Name,
		Decls:        make([]ir.Decl, len(mod.Decls)),
		Conformances: slices.Clone(mod.Conformances),
	}
	for i, d := range mod.Decls {
		d.Members = slices.Clone(d.Members)
		d.Initializers = slices.Clone(d.Initializers)
		if name, ok := lookup(d.Selector()); ok {
			d.Rename = name
		}
		for j := range d.Members {
			if name, ok := lookup(ir.MemberSelector(d.Name, d.Members[j].Selector())); ok {
				d.Members[j].Rename = name
			}
		}
		for j := range d.Initializers {
			if name, ok := lookup(ir.MemberSelector(d.Name, d.Initializers[j].Selector())); ok {
				d.Initializers[j].Rename = name
			}
		}
		out.Decls[i] = d
	}

	var unused []string
	for selector := range renames {
		if !used[selector] {
			unused = append(unused, selector)
		}
	}
	sort.Strings(unused)
	return out, unused
}
