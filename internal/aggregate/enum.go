package aggregate

import (
	"fmt"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/signature"
)

// Enum builds the proxy type of an enumeration. Payload-free cases become
// singleton constants. Payload cases form a discriminated union with a
// factory, an isX predicate and a getXValue accessor each. A payload or raw
// type that cannot be mapped drops the whole enum.
func (b *Bridge) Enum(d ir.Decl) (*Type, error) {
	if d.Kind != ir.KindEnum {
		return nil, fmt.Errorf("build %s: expected enum, got %s", d.Name, d.Kind)
	}
	if len(d.Cases) == 0 {
		return nil, fmt.Errorf("build %s: enum without cases", d.Name)
	}
	t, info, err := b.newType(d)
	if err != nil {
		return nil, err
	}
	set := signature.NewOverloadSet(info.Target)

	for _, cs := range d.Cases {
		name := plainName(cs.Name)
		c := Case{
			Source:    cs.Name,
			Name:      signature.SafeIdent(name),
			Predicate: "is" + signature.Capitalize(name),
			RawValue:  cs.RawValue,
		}
		selector := ir.MemberSelector(d.Name, cs.Name)
		if cs.Payload == nil {
			if err := set.AddField(c.Name, selector); err != nil {
				return nil, err
			}
		} else {
			target, err := b.mapper.Resolve(*cs.Payload)
			if err != nil {
				return nil, fmt.Errorf("%s: payload: %w", selector, err)
			}
			c.Payload = cs.Payload
			c.PayloadType = target.Spelling
			c.Accessor = "get" + signature.Capitalize(name) + "Value"
			c.Factory = &signature.Callable{
				Name:     c.Name,
				Selector: selector,
				Params:   []signature.Param{{Name: "value", Type: signature.ParamType(target)}},
				Result:   info.Target,
				Static:   true,
			}
			accessor := &signature.Callable{Name: c.Accessor, Selector: selector, Result: target.Spelling, Const: true}
			if err := addAll(set, c.Factory, accessor); err != nil {
				return nil, err
			}
		}
		predicate := &signature.Callable{Name: c.Predicate, Selector: selector, Result: "bool", Const: true}
		if err := set.Add(predicate); err != nil {
			return nil, err
		}
		t.Cases = append(t.Cases, c)
	}

	if d.RawType != nil {
		if err := b.rawValue(t, d, set); err != nil {
			return nil, err
		}
	}
	if err := b.factories(t, info, d, set); err != nil {
		return nil, err
	}
	if err := b.members(t, info, d, set); err != nil {
		return nil, err
	}
	return t, nil
}

// rawValue adds the raw accessor and the optional-returning factory from a
// raw value.
func (b *Bridge) rawValue(t *Type, d ir.Decl, set *signature.OverloadSet) error {
	raw, err := b.mapper.Resolve(*d.RawType)
	if err != nil {
		return fmt.Errorf("%s: raw type: %w", d.Name, err)
	}
	t.RawType = raw.Spelling
	t.RawSource = d.RawType

	factory := &signature.Callable{
		Name:     "init",
		Selector: ir.MemberSelector(d.Name, "init(rawValue:)"),
		Params:   []signature.Param{{Name: "rawValue", Type: signature.ParamType(raw)}},
		Result:   "xbridge::Optional<" + t.Name + ">",
		Static:   true,
	}
	getter := &signature.Callable{
		Name:     "getRawValue",
		Selector: ir.MemberSelector(d.Name, "rawValue"),
		Result:   raw.Spelling,
		Const:    true,
	}
	if err := addAll(set, factory, getter); err != nil {
		return err
	}
	t.Factories = append(t.Factories, factory)
	t.Properties = append(t.Properties, Property{Source: "rawValue", Type: *d.RawType, Getter: getter})
	return nil
}
