package bridgert

import (
	"fmt"
	"strings"

	"github.com/roach88/xbridge/internal/aggregate"
	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/signature"
	"github.com/roach88/xbridge/internal/typemap"
)

// Runtime executes operations of one generated interface.
//
// Go values of bridged types: primitives use the typemap value domain
// (int64, uint64, float32, float64, bool, uintptr), String is string,
// aggregates are *Value and an absent optional is nil.
type Runtime struct {
	out         *bridge.Output
	mapper      *typemap.Mapper
	allocations int
}

// New creates a runtime over a generation result.
func New(out *bridge.Output) *Runtime {
	return &Runtime{out: out, mapper: out.Mapper}
}

// Value is one instance of a generated type. A resilient value owns its
// heap cell exclusively; no two values share one.
type Value struct {
	typ  *aggregate.Type
	cell *cell
}

type cell struct {
	fields  map[string]any // struct stored properties
	tag     string         // active enum case
	payload any
}

// Type returns the source name of the value's type.
func (v *Value) Type() string {
	return v.typ.Source
}

// Allocations returns how many resilient heap cells have been allocated.
func (r *Runtime) Allocations() int {
	return r.allocations
}

func (r *Runtime) lookup(name string) (*aggregate.Type, error) {
	t, ok := r.out.Type(name)
	if !ok {
		return nil, fmt.Errorf("type %s is not part of the generated interface", name)
	}
	return t, nil
}

func (r *Runtime) alloc(t *aggregate.Type, c *cell) *Value {
	if t.Resilient {
		r.allocations++
	}
	return &Value{typ: t, cell: c}
}

// Default runs the default constructor.
func (r *Runtime) Default(typeName string) (*Value, error) {
	t, err := r.lookup(typeName)
	if err != nil {
		return nil, err
	}
	if !t.DefaultConstructible {
		return nil, fmt.Errorf("%s: default constructor is deleted", t.Name)
	}
	for _, f := range t.Factories {
		if len(f.Params) > 0 && allDefaulted(f.Params) {
			return r.initWith(t, f.Params, nil)
		}
	}
	return r.Construct(typeName, nil)
}

// Construct performs memberwise initialization of a struct. Stored
// properties not in fields take their declared default.
func (r *Runtime) Construct(typeName string, fields map[string]any) (*Value, error) {
	t, err := r.lookup(typeName)
	if err != nil {
		return nil, err
	}
	if t.Kind != ir.KindStruct {
		return nil, fmt.Errorf("%s: enums are constructed from a case", t.Name)
	}
	for name := range fields {
		if p, ok := t.Property(name); !ok || !p.Stored {
			return nil, fmt.Errorf("%s: no stored property %q", t.Name, name)
		}
	}

	c := &cell{fields: make(map[string]any)}
	for _, p := range t.Properties {
		if !p.Stored {
			continue
		}
		v, given := fields[p.Source]
		if !given {
			if p.Default == nil {
				return nil, fmt.Errorf("%s: missing value for %s", t.Name, p.Source)
			}
			if v, err = r.Literal(p.Type, *p.Default); err != nil {
				return nil, fmt.Errorf("%s.%s: default: %w", t.Name, p.Source, err)
			}
		}
		if v, err = r.accept(p.Type, v); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", t.Name, p.Source, err)
		}
		c.fields[p.Source] = v
	}
	return r.alloc(t, c), nil
}

// Init calls a factory by its source selector, e.g. "init(x:y:)". Factories
// from a raw value return an absent optional when no case matches; all
// others are present.
func (r *Runtime) Init(typeName, selector string, args ...any) (Optional[*Value], error) {
	t, err := r.lookup(typeName)
	if err != nil {
		return None[*Value](), err
	}
	want := ir.MemberSelector(t.Source, selector)
	for _, f := range t.Factories {
		if f.Selector != want {
			continue
		}
		if t.RawSource != nil && selector == "init(rawValue:)" {
			if len(args) != 1 {
				return None[*Value](), fmt.Errorf("%s: want 1 argument, got %d", want, len(args))
			}
			return r.FromRawValue(typeName, args[0])
		}
		v, err := r.initWith(t, f.Params, args)
		if err != nil {
			return None[*Value](), fmt.Errorf("%s: %w", want, err)
		}
		return Some(v), nil
	}
	return None[*Value](), fmt.Errorf("%s: no such factory", want)
}

func (r *Runtime) initWith(t *aggregate.Type, params []signature.Param, args []any) (*Value, error) {
	if len(args) > len(params) {
		return nil, fmt.Errorf("want at most %d arguments, got %d", len(params), len(args))
	}
	fields := make(map[string]any, len(params))
	for i, param := range params {
		src := param.Source
		if prop, ok := t.Property(src.Name); !ok || !prop.Stored {
			return nil, fmt.Errorf("parameter %s does not name a stored property", src.Name)
		}
		if i < len(args) {
			fields[src.Name] = args[i]
			continue
		}
		if param.Default == "" {
			return nil, fmt.Errorf("missing argument %s", src.Name)
		}
		v, err := r.Literal(src.Type, *src.Default)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: default: %w", src.Name, err)
		}
		fields[src.Name] = v
	}
	return r.Construct(t.Source, fields)
}

func allDefaulted(params []signature.Param) bool {
	for _, p := range params {
		if p.Default == "" {
			return false
		}
	}
	return true
}

// Get calls a property getter. Values of aggregate type are returned as
// fresh copies.
func (r *Runtime) Get(v *Value, prop string) (any, error) {
	p, err := r.property(v, prop)
	if err != nil {
		return nil, err
	}
	if v.typ.RawSource != nil && prop == "rawValue" {
		return r.RawValue(v)
	}
	if !p.Stored {
		return nil, fmt.Errorf("%s.%s is computed; its getter body is not modelled", v.typ.Source, prop)
	}
	return r.copyAny(v.cell.fields[prop]), nil
}

// Set calls a property setter.
func (r *Runtime) Set(v *Value, prop string, x any) error {
	p, err := r.property(v, prop)
	if err != nil {
		return err
	}
	if p.Setter == nil {
		return fmt.Errorf("%s.%s is get-only", v.typ.Source, prop)
	}
	if !p.Stored {
		return fmt.Errorf("%s.%s is computed; its setter body is not modelled", v.typ.Source, prop)
	}
	val, err := r.accept(p.Type, x)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", v.typ.Source, prop, err)
	}
	v.cell.fields[prop] = val
	return nil
}

// Modify runs a mutation scope: fn receives a reference to the property
// that is valid only until fn returns.
func (r *Runtime) Modify(v *Value, prop string, fn func(ref *Ref)) error {
	p, err := r.property(v, prop)
	if err != nil {
		return err
	}
	if p.Modify == nil {
		return fmt.Errorf("%s.%s has no mutation scope", v.typ.Source, prop)
	}
	if !p.Stored {
		return fmt.Errorf("%s.%s is computed; its accessors are not modelled", v.typ.Source, prop)
	}
	ref := &Ref{r: r, cell: v.cell, name: prop, typ: p.Type, live: true}
	defer func() { ref.live = false }()
	fn(ref)
	return nil
}

func (r *Runtime) property(v *Value, prop string) (*aggregate.Property, error) {
	p, ok := v.typ.Property(prop)
	if !ok {
		return nil, fmt.Errorf("%s has no property %q", v.typ.Source, prop)
	}
	return p, nil
}

// Ref is the mutable reference handed to a mutation scope. Using it after
// the scope ended is fatal.
type Ref struct {
	r    *Runtime
	cell *cell
	name string
	typ  ir.TypeRef
	live bool
}

// Get reads through the reference.
func (ref *Ref) Get() any {
	ref.check()
	return ref.cell.fields[ref.name]
}

// Set writes through the reference.
func (ref *Ref) Set(x any) error {
	ref.check()
	val, err := ref.r.accept(ref.typ, x)
	if err != nil {
		return fmt.Errorf("%s: %w", ref.name, err)
	}
	ref.cell.fields[ref.name] = val
	return nil
}

func (ref *Ref) check() {
	if !ref.live {
		fatal(ir.ErrEscapedReference, "reference to %s used after its mutation scope ended", ref.name)
	}
}

// Copy returns an independent deep copy. Resilient values get a fresh cell.
func (r *Runtime) Copy(v *Value) *Value {
	c := &cell{tag: v.cell.tag, payload: r.copyAny(v.cell.payload)}
	if v.cell.fields != nil {
		c.fields = make(map[string]any, len(v.cell.fields))
		for k, x := range v.cell.fields {
			c.fields[k] = r.copyAny(x)
		}
	}
	return r.alloc(v.typ, c)
}

func (r *Runtime) copyAny(x any) any {
	if v, ok := x.(*Value); ok && v != nil {
		return r.Copy(v)
	}
	return x
}

// Equal compares two values structurally.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.typ.Source != b.typ.Source || a.cell.tag != b.cell.tag || !EqualValues(a.cell.payload, b.cell.payload) {
		return false
	}
	if len(a.cell.fields) != len(b.cell.fields) {
		return false
	}
	for k, x := range a.cell.fields {
		y, ok := b.cell.fields[k]
		if !ok || !EqualValues(x, y) {
			return false
		}
	}
	return true
}

// EqualValues compares two runtime values of any bridged type.
func EqualValues(x, y any) bool {
	xv, xok := x.(*Value)
	yv, yok := y.(*Value)
	if xok || yok {
		return xok && yok && Equal(xv, yv)
	}
	return x == y
}

// accept checks x against a source type and returns the value to store.
func (r *Runtime) accept(t ir.TypeRef, x any) (any, error) {
	switch t.Kind {
	case ir.TypeOptional:
		if x == nil || t.Elem == nil {
			return nil, nil
		}
		return r.accept(*t.Elem, x)
	case ir.TypePointer:
		if _, ok := x.(uintptr); !ok {
			return nil, fmt.Errorf("expected uintptr for %s, got %T", t, x)
		}
		return x, nil
	case ir.TypeNamed:
		if t.Name == "String" {
			if _, ok := x.(string); !ok {
				return nil, fmt.Errorf("expected string for String, got %T", x)
			}
			return x, nil
		}
		if _, ok := r.mapper.Primitive(t.Name); ok {
			if _, err := r.mapper.EncodeBits(t.Name, x); err != nil {
				return nil, err
			}
			return x, nil
		}
		v, ok := x.(*Value)
		if !ok || v == nil || v.typ.Source != t.Name {
			return nil, fmt.Errorf("expected %s value, got %T", t, x)
		}
		return r.Copy(v), nil
	}
	return nil, fmt.Errorf("type %s has no runtime representation", t)
}

// Literal evaluates a source literal of type t. ".name" selects an enum case.
func (r *Runtime) Literal(t ir.TypeRef, lit string) (any, error) {
	lit = strings.TrimSpace(lit)
	base := t
	if base.Kind == ir.TypeOptional && base.Elem != nil && lit != "nil" {
		base = *base.Elem
	}
	if name, ok := strings.CutPrefix(lit, "."); ok && base.Kind == ir.TypeNamed {
		v, err := r.Case(base.Name, name)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return r.mapper.ParseLiteral(t, lit)
}
