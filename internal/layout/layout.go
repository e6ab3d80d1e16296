// Package layout computes storage size and alignment of fixed-layout
// aggregates so the emitted header can embed them by value.
//
// Resilient aggregates are never embedded: they occupy one pointer-sized
// handle wherever they appear.
package layout

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/typemap"
)

// Layout is the size and alignment of a type in bytes.
type Layout struct {
	Size  int
	Align int
}

// Calculator computes layouts for the aggregates of one module. Results are
// memoized; a calculator is not safe for concurrent use.
type Calculator struct {
	mapper   *typemap.Mapper
	decls    map[string]ir.Decl
	memo     map[string]Layout
	visiting map[string]bool
}

// NewCalculator creates a calculator over the module's aggregate declarations.
func NewCalculator(m *typemap.Mapper, decls []ir.Decl) *Calculator {
	c := &Calculator{
		mapper:   m,
		decls:    make(map[string]ir.Decl),
		memo:     make(map[string]Layout),
		visiting: make(map[string]bool),
	}
	for _, d := range decls {
		if d.IsAggregate() {
			c.decls[d.Name] = d
		}
	}
	return c
}

func (c *Calculator) pointer() Layout {
	n := c.mapper.PointerWidth() / 8
	return Layout{Size: n, Align: n}
}

// Type computes the in-storage layout of a field type.
func (c *Calculator) Type(t ir.TypeRef) (Layout, error) {
	target, err := c.mapper.Resolve(t)
	if err != nil {
		return Layout{}, err
	}

	switch target.Category {
	case typemap.CategoryPrimitive:
		p := target.Primitive
		if p.Pointer {
			return c.pointer(), nil
		}
		n := p.Width(c.mapper.PointerWidth()) / 8
		return Layout{Size: n, Align: n}, nil
	case typemap.CategoryPointer:
		return c.pointer(), nil
	case typemap.CategoryOptional:
		inner, err := c.Type(*t.Elem)
		if err != nil {
			return Layout{}, err
		}
		return Layout{Size: alignTo(inner.Size+1, inner.Align), Align: inner.Align}, nil
	case typemap.CategoryAggregate:
		if t.Name == "String" {
			p := c.pointer()
			return Layout{Size: 2 * p.Size, Align: p.Align}, nil
		}
		info, _ := c.mapper.Aggregate(t.Name)
		if info.Resilient {
			return c.pointer(), nil
		}
		return c.Aggregate(t.Name)
	case typemap.CategoryVoid:
		return Layout{Size: 0, Align: 1}, nil
	default:
		return Layout{}, &typemap.UnrepresentableError{Type: t.String(), Reason: "no fixed layout for " + target.Category.String() + " types"}
	}
}

// Aggregate computes the layout of a registered struct or enum by value.
func (c *Calculator) Aggregate(name string) (Layout, error) {
	if l, ok := c.memo[name]; ok {
		return l, nil
	}
	d, ok := c.decls[name]
	if !ok {
		return Layout{}, fmt.Errorf("layout: unknown aggregate %q", name)
	}
	if c.visiting[name] {
		return Layout{}, &typemap.UnrepresentableError{Type: name, Reason: "recursive value type without indirection"}
	}
	c.visiting[name] = true
	defer delete(c.visiting, name)

	var l Layout
	var err error
	if d.Kind == ir.KindEnum {
		l, err = c.enum(d)
	} else {
		l, err = c.structure(d)
	}
	if err != nil {
		return Layout{}, err
	}
	if _, err := safecast.Conv[uint32](l.Size); err != nil {
		return Layout{}, fmt.Errorf("layout: %s: size %d: %w", name, l.Size, err)
	}
	c.memo[name] = l
	return l, nil
}

func (c *Calculator) structure(d ir.Decl) (Layout, error) {
	offset, align := 0, 1
	for _, field := range d.StoredProperties() {
		if field.Result == nil {
			return Layout{}, fmt.Errorf("layout: %s.%s: stored property without type", d.Name, field.Name)
		}
		fl, err := c.Type(*field.Result)
		if err != nil {
			return Layout{}, fmt.Errorf("layout: %s.%s: %w", d.Name, field.Name, err)
		}
		offset = alignTo(offset, fl.Align) + fl.Size
		align = max(align, fl.Align)
	}
	// empty structs still occupy one byte in the target language
	if offset == 0 {
		return Layout{Size: 1, Align: 1}, nil
	}
	return Layout{Size: alignTo(offset, align), Align: align}, nil
}

func (c *Calculator) enum(d ir.Decl) (Layout, error) {
	tag := tagSize(len(d.Cases))
	payload, align := 0, tag
	for _, cs := range d.Cases {
		if cs.Payload == nil {
			continue
		}
		pl, err := c.Type(*cs.Payload)
		if err != nil {
			return Layout{}, fmt.Errorf("layout: %s.%s: %w", d.Name, cs.Name, err)
		}
		payload = max(payload, pl.Size)
		align = max(align, pl.Align)
	}
	return Layout{Size: alignTo(payload+tag, align), Align: align}, nil
}

func tagSize(cases int) int {
	switch {
	case cases <= 1<<8:
		return 1
	case cases <= 1<<16:
		return 2
	default:
		return 4
	}
}

func alignTo(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
