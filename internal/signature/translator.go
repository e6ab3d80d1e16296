package signature

import (
	"fmt"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/typemap"
)

// Translator converts source function, method and initializer signatures
// into target callables.
type Translator struct {
	mapper *typemap.Mapper
}

// New creates a Translator over a type mapper.
func New(m *typemap.Mapper) *Translator {
	return &Translator{mapper: m}
}

// Function translates a top-level function declaration.
func (t *Translator) Function(d ir.Decl) (*Callable, error) {
	if d.Kind != ir.KindFunction {
		return nil, fmt.Errorf("translate %s: expected function, got %s", d.Name, d.Kind)
	}
	m := t.mapper.WithGenerics(d.Generics)

	params, notes, err := translateParams(m, d.Params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Selector(), err)
	}
	result, err := m.ResolveResult(d.Result)
	if err != nil {
		return nil, fmt.Errorf("%s: result: %w", d.Selector(), err)
	}

	return &Callable{
		Name:     SafeIdent(d.TargetName()),
		Selector: d.Selector(),
		Params:   params,
		Result:   result.Spelling,
		Static:   d.Static,
		Generics: d.Generics,
		Notes:    notes,
		Doc:      d.Doc,
	}, nil
}

// Method translates a member function of an aggregate. Non-mutating
// instance methods become const member functions.
func (t *Translator) Method(owner string, d ir.Decl) (*Callable, error) {
	c, err := t.Function(d)
	if err != nil {
		return nil, err
	}
	c.Selector = ir.MemberSelector(owner, c.Selector)
	c.Const = !d.Static && !d.Mutable
	return c, nil
}

// Subscript translates a subscript declaration into its getter. A single
// index becomes operator[]; other arities need a rename, defaulting to "at".
func (t *Translator) Subscript(owner string, d ir.Decl) (*Callable, error) {
	if d.Kind != ir.KindSubscript {
		return nil, fmt.Errorf("translate %s: expected subscript, got %s", d.Name, d.Kind)
	}
	selector := ir.MemberSelector(owner, d.Selector())
	if d.Result == nil {
		return nil, fmt.Errorf("%s: subscript without element type", selector)
	}
	params, notes, err := translateParams(t.mapper, d.Params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}
	elem, err := t.mapper.Resolve(*d.Result)
	if err != nil {
		return nil, fmt.Errorf("%s: element: %w", selector, err)
	}

	name := "at"
	switch {
	case d.Rename != "":
		name = SafeIdent(d.Rename)
	case len(params) == 1:
		name = "operator[]"
	}
	return &Callable{
		Name:     name,
		Selector: selector,
		Params:   params,
		Result:   elem.Spelling,
		Static:   d.Static,
		Const:    !d.Static,
		Notes:    notes,
		Doc:      d.Doc,
	}, nil
}

// Initializer translates a source initializer into a static factory named
// "init" (or its rename) returning the owner, or an optional of the owner
// for failable initializers.
func (t *Translator) Initializer(owner typemap.AggregateInfo, in ir.Initializer) (*Callable, error) {
	selector := ir.MemberSelector(owner.Source, in.Selector())
	params, notes, err := translateParams(t.mapper, in.Params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", selector, err)
	}
	name := "init"
	if in.Rename != "" {
		name = SafeIdent(in.Rename)
	}
	result := owner.Target
	if in.Failable {
		result = "xbridge::Optional<" + owner.Target + ">"
	}
	return &Callable{
		Name:     name,
		Selector: selector,
		Params:   params,
		Result:   result,
		Static:   true,
		Notes:    notes,
	}, nil
}

// translateParams maps parameters in order. Defaults survive only as a
// trailing run, as the target language requires; call-site literals never
// survive and must be supplied by the caller.
func translateParams(m *typemap.Mapper, src []ir.Param) ([]Param, []string, error) {
	params := make([]Param, 0, len(src))
	var notes []string

	for i, p := range src {
		target, err := m.Resolve(p.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("parameter %d (%s): %w", i, p.Name, err)
		}
		if target.Category == typemap.CategoryVoid {
			return nil, nil, &typemap.UnrepresentableError{Type: p.Type.String(), Reason: "void parameter"}
		}

		out := Param{
			Name:     paramName(p, i),
			InOut:    p.InOut,
			Variadic: p.Variadic,
			Source:   p,
		}
		switch {
		case p.Variadic:
			out.Type = "std::initializer_list<" + target.Spelling + ">"
		case p.InOut:
			out.Type = target.Spelling + " &"
		default:
			out.Type = ParamType(target)
		}
		out.Identity = m.Identity(out.Type)

		if p.Default != nil {
			if ir.IsCallSiteLiteral(*p.Default) {
				notes = append(notes, fmt.Sprintf("%s: default %s is call-site specific and must be passed explicitly", out.Name, *p.Default))
			} else {
				out.Default = targetDefault(target, *p.Default)
			}
		}
		params = append(params, out)
	}

	// a default followed by a required parameter cannot be expressed
	required := false
	for i := len(params) - 1; i >= 0; i-- {
		if params[i].Default == "" {
			required = true
			continue
		}
		if required {
			notes = append(notes, fmt.Sprintf("%s: default %s dropped because a later parameter is required", params[i].Name, params[i].Default))
			params[i].Default = ""
		}
	}
	return params, notes, nil
}

// ParamType returns how a value of the target type is passed: trivial
// types by value, everything else by const reference.
func ParamType(target typemap.Target) string {
	if target.Trivial {
		return target.Spelling
	}
	return "const " + target.Spelling + " &"
}

func paramName(p ir.Param, i int) string {
	switch {
	case p.Name != "" && p.Name != "_":
		return SafeIdent(p.Name)
	case p.Label != "" && p.Label != "_":
		return SafeIdent(p.Label)
	default:
		return fmt.Sprintf("arg%d", i)
	}
}

// targetDefault renders a source default literal for the target. Literals
// are copied verbatim except nil, which has no literal spelling of its own.
func targetDefault(target typemap.Target, lit string) string {
	if lit != "nil" {
		return lit
	}
	if target.Category == typemap.CategoryPointer || target.Category == typemap.CategoryPrimitive {
		return "nullptr"
	}
	return target.Spelling + "()"
}
