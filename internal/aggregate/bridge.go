package aggregate

import (
	"fmt"
	"slices"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/layout"
	"github.com/roach88/xbridge/internal/signature"
	"github.com/roach88/xbridge/internal/typemap"
)

// Bridge builds target types for registered aggregates.
type Bridge struct {
	mapper *typemap.Mapper
	sig    *signature.Translator
	layout *layout.Calculator
}

// New creates a Bridge. The calculator must cover the same aggregates the
// mapper has registered.
func New(m *typemap.Mapper, calc *layout.Calculator) *Bridge {
	return &Bridge{mapper: m, sig: signature.New(m), layout: calc}
}

// Build dispatches on the declaration kind.
//
// An UnrepresentableError means the whole type must be dropped; members that
// fail on their own are recorded in Type.Dropped instead. An
// AmbiguousOverloadError is never recovered here.
func (b *Bridge) Build(d ir.Decl) (*Type, error) {
	switch d.Kind {
	case ir.KindStruct:
		return b.Struct(d)
	case ir.KindEnum:
		return b.Enum(d)
	default:
		return nil, fmt.Errorf("build %s: not an aggregate: %s", d.Name, d.Kind)
	}
}

// Struct builds the proxy type of a struct.
func (b *Bridge) Struct(d ir.Decl) (*Type, error) {
	if d.Kind != ir.KindStruct {
		return nil, fmt.Errorf("build %s: expected struct, got %s", d.Name, d.Kind)
	}
	t, info, err := b.newType(d)
	if err != nil {
		return nil, err
	}
	set := signature.NewOverloadSet(info.Target)

	if err := b.factories(t, info, d, set); err != nil {
		return nil, err
	}
	if err := b.members(t, info, d, set); err != nil {
		return nil, err
	}

	t.DefaultConstructible = len(d.Initializers) == 0 && allStoredDefaulted(d)
	for _, f := range t.Factories {
		if allParamsDefaulted(f) {
			t.DefaultConstructible = true
		}
	}
	return t, nil
}

func (b *Bridge) newType(d ir.Decl) (*Type, typemap.AggregateInfo, error) {
	info, ok := b.mapper.Aggregate(d.Name)
	if !ok {
		return nil, info, fmt.Errorf("build %s: aggregate is not registered", d.Name)
	}
	if len(d.Generics) > 0 {
		return nil, info, &typemap.UnrepresentableError{Type: d.Name, Reason: "generic types are not supported"}
	}
	t := &Type{
		Source:    d.Name,
		Name:      info.Target,
		Kind:      d.Kind,
		Doc:       d.Doc,
		Resilient: d.Resilient,
	}
	if !d.Resilient {
		l, err := b.layout.Aggregate(d.Name)
		if err != nil {
			return nil, info, err
		}
		t.Layout = l
	}
	return t, info, nil
}

func (b *Bridge) factories(t *Type, info typemap.AggregateInfo, d ir.Decl, set *signature.OverloadSet) error {
	for _, in := range d.Initializers {
		c, err := b.sig.Initializer(info, in)
		if typemap.IsUnrepresentable(err) {
			t.Dropped = append(t.Dropped, Drop{Selector: ir.MemberSelector(d.Name, in.Selector()), Err: err})
			continue
		}
		if err != nil {
			return err
		}
		if err := set.Add(c); err != nil {
			return err
		}
		t.Factories = append(t.Factories, c)
	}
	return nil
}

func (b *Bridge) members(t *Type, info typemap.AggregateInfo, d ir.Decl, set *signature.OverloadSet) error {
	for _, m := range d.Members {
		selector := ir.MemberSelector(d.Name, m.Selector())

		var err error
		switch m.Kind {
		case ir.KindProperty:
			var p Property
			if p, err = b.property(info.Source, m); err == nil {
				err = addAll(set, p.Getter, p.Setter, p.Modify)
				t.Properties = append(t.Properties, p)
			}
			if err != nil && m.Stored && !d.Resilient {
				// the fixed layout already depends on this field
				return err
			}
		case ir.KindSubscript:
			var s Subscript
			if s, err = b.subscript(d.Name, m); err == nil {
				err = addAll(set, s.Getter, s.Setter, s.Modify)
				t.Subscripts = append(t.Subscripts, s)
			}
		case ir.KindFunction:
			var c *signature.Callable
			if c, err = b.sig.Method(d.Name, m); err == nil {
				err = set.Add(c)
				t.Methods = append(t.Methods, c)
			}
		default:
			err = &typemap.UnrepresentableError{Type: ir.MemberSelector(d.Name, m.Name), Reason: "nested types are not supported"}
		}

		switch {
		case err == nil:
		case typemap.IsUnrepresentable(err):
			t.Dropped = append(t.Dropped, Drop{Selector: selector, Err: err})
		default:
			return err
		}
	}
	return nil
}

func addAll(set *signature.OverloadSet, callables ...*signature.Callable) error {
	for _, c := range callables {
		if c == nil {
			continue
		}
		if err := set.Add(c); err != nil {
			return err
		}
	}
	return nil
}

// Global builds free accessor functions for a top-level property.
func (b *Bridge) Global(d ir.Decl) (Property, error) {
	if d.Kind != ir.KindProperty {
		return Property{}, fmt.Errorf("build %s: expected property, got %s", d.Name, d.Kind)
	}
	return b.property("", d)
}

func (b *Bridge) property(owner string, p ir.Decl) (Property, error) {
	selector := p.Name
	if owner != "" {
		selector = ir.MemberSelector(owner, p.Name)
	}
	if p.Result == nil {
		return Property{}, fmt.Errorf("%s: property without type", selector)
	}
	target, err := b.mapper.Resolve(*p.Result)
	if err != nil {
		return Property{}, fmt.Errorf("%s: %w", selector, err)
	}
	if target.Category == typemap.CategoryVoid {
		return Property{}, &typemap.UnrepresentableError{Type: selector, Reason: "void property"}
	}

	base := plainName(p.TargetName())
	predicate := !p.Mutable && target.Primitive != nil && target.Primitive.Bool && readsAsPredicate(base)
	prop := Property{
		Source:  p.Name,
		Type:    *p.Result,
		Stored:  p.Stored,
		Static:  p.Static,
		Default: p.Default,
		Getter: &signature.Callable{
			Name:     getterName(base, predicate),
			Selector: selector,
			Result:   target.Spelling,
			Static:   p.Static,
			Const:    owner != "" && !p.Static,
			Doc:      p.Doc,
		},
	}
	if !p.Mutable {
		return prop, nil
	}
	prop.Setter = &signature.Callable{
		Name:     setterName(base),
		Selector: selector,
		Params:   []signature.Param{{Name: "newValue", Type: signature.ParamType(target)}},
		Result:   "void",
		Static:   p.Static,
	}
	if !p.Static {
		prop.Modify = modifyScope(modifyName(base), selector, target.Spelling, nil)
	}
	return prop, nil
}

func (b *Bridge) subscript(owner string, d ir.Decl) (Subscript, error) {
	getter, err := b.sig.Subscript(owner, d)
	if err != nil {
		return Subscript{}, err
	}
	s := Subscript{Source: d, Getter: getter}
	if !d.Mutable || d.Static {
		return s, nil
	}

	elem, err := b.mapper.Resolve(*d.Result)
	if err != nil {
		return Subscript{}, err
	}
	base := "element"
	if d.Rename != "" {
		base = plainName(d.Rename)
	}
	s.Setter = &signature.Callable{
		Name:     setterName(base),
		Selector: getter.Selector,
		Params:   append(slices.Clone(getter.Params), signature.Param{Name: "newValue", Type: signature.ParamType(elem)}),
		Result:   "void",
	}
	s.Modify = modifyScope(modifyName(base), getter.Selector, elem.Spelling, getter.Params)
	return s, nil
}

// modifyScope builds a mutation-scope operation: the callback receives a
// mutable reference that is valid only for the duration of the call.
func modifyScope(name, selector, elem string, index []signature.Param) *signature.Callable {
	params := append(slices.Clone(index), signature.Param{Name: "callback", Type: "Callback &&"})
	return &signature.Callable{
		Name:     name,
		Selector: selector,
		Params:   params,
		Result:   "void",
		Template: []string{"typename Callback"},
		Requires: []string{"std::is_invocable_v<Callback &, " + elem + " &>"},
	}
}

func allStoredDefaulted(d ir.Decl) bool {
	for _, p := range d.StoredProperties() {
		if p.Default == nil || ir.IsCallSiteLiteral(*p.Default) {
			return false
		}
	}
	return true
}

func allParamsDefaulted(c *signature.Callable) bool {
	for _, p := range c.Params {
		if p.Default == "" {
			return false
		}
	}
	return true
}
