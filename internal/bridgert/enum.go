package bridgert

import (
	"fmt"
	"strings"

	"github.com/roach88/xbridge/internal/aggregate"
	"github.com/roach88/xbridge/internal/ir"
)

// Case returns a value of an enum case: the singleton for a payload-free
// case, or the result of the case factory for a payload case.
func (r *Runtime) Case(typeName, caseName string, payload ...any) (*Value, error) {
	t, err := r.lookup(typeName)
	if err != nil {
		return nil, err
	}
	c, ok := t.Case(caseName)
	if !ok {
		return nil, fmt.Errorf("%s has no case %q", t.Source, caseName)
	}
	if c.Payload == nil {
		if len(payload) > 0 {
			return nil, fmt.Errorf("%s.%s has no associated value", t.Source, caseName)
		}
		return r.alloc(t, &cell{tag: c.Source}), nil
	}
	if len(payload) != 1 {
		return nil, fmt.Errorf("%s.%s takes exactly one associated value, got %d", t.Source, caseName, len(payload))
	}
	val, err := r.accept(*c.Payload, payload[0])
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", t.Source, caseName, err)
	}
	return r.alloc(t, &cell{tag: c.Source, payload: val}), nil
}

// IsCase is the isX predicate.
func (r *Runtime) IsCase(v *Value, caseName string) bool {
	return v.typ.Kind == ir.KindEnum && v.cell.tag == caseName
}

// ActiveCase returns the source name of the active case.
func (r *Runtime) ActiveCase(v *Value) string {
	return v.cell.tag
}

// CaseValue is the getXValue accessor. Reading the value of a case that is
// not active is fatal.
func (r *Runtime) CaseValue(v *Value, caseName string) any {
	c, ok := v.typ.Case(caseName)
	if !ok || c.Payload == nil {
		fatal(ir.ErrInactiveCase, "%s.%s has no associated value", v.typ.Source, caseName)
	}
	if v.cell.tag != caseName {
		fatal(ir.ErrInactiveCase, "%s.%s is not the active case (%s is)", v.typ.Source, caseName, v.cell.tag)
	}
	return r.copyAny(v.cell.payload)
}

// FromRawValue is the factory from a raw value. It returns an absent
// optional when no case has the raw value.
func (r *Runtime) FromRawValue(typeName string, raw any) (Optional[*Value], error) {
	t, err := r.lookup(typeName)
	if err != nil {
		return None[*Value](), err
	}
	if t.RawSource == nil {
		return None[*Value](), fmt.Errorf("%s has no raw values", t.Source)
	}
	raw, err = r.accept(*t.RawSource, raw)
	if err != nil {
		return None[*Value](), fmt.Errorf("%s: raw value: %w", t.Source, err)
	}
	values, err := r.rawValues(t)
	if err != nil {
		return None[*Value](), err
	}
	for i, rv := range values {
		if rv == raw {
			return Some(r.alloc(t, &cell{tag: t.Cases[i].Source})), nil
		}
	}
	return None[*Value](), nil
}

// RawValue is the raw accessor.
func (r *Runtime) RawValue(v *Value) (any, error) {
	if v.typ.RawSource == nil {
		return nil, fmt.Errorf("%s has no raw values", v.typ.Source)
	}
	values, err := r.rawValues(v.typ)
	if err != nil {
		return nil, err
	}
	for i, c := range v.typ.Cases {
		if c.Source == v.cell.tag {
			return values[i], nil
		}
	}
	return nil, fmt.Errorf("%s: no active case", v.typ.Source)
}

// rawValues evaluates every case's raw value. Without an explicit literal a
// String case uses its own name and an integer case follows its
// predecessor, starting at zero.
func (r *Runtime) rawValues(t *aggregate.Type) ([]any, error) {
	prim, isPrim := r.mapper.Primitive(t.RawSource.Name)
	integer := isPrim && prim.IsInteger()

	values := make([]any, len(t.Cases))
	var prev any
	for i, c := range t.Cases {
		var v any
		switch {
		case c.RawValue != nil:
			var err error
			if v, err = r.mapper.ParseLiteral(*t.RawSource, *c.RawValue); err != nil {
				return nil, fmt.Errorf("%s.%s: raw value: %w", t.Source, c.Source, err)
			}
		case t.RawSource.Name == "String":
			v = strings.Trim(c.Source, "`")
		case integer:
			v = successor(prev, prim.Signed)
		default:
			return nil, fmt.Errorf("%s.%s: raw value must be explicit for %s", t.Source, c.Source, t.RawSource)
		}
		values[i] = v
		prev = v
	}
	return values, nil
}

func successor(prev any, signed bool) any {
	switch p := prev.(type) {
	case int64:
		return p + 1
	case uint64:
		return p + 1
	}
	if signed {
		return int64(0)
	}
	return uint64(0)
}
