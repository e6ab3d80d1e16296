// Package generic lowers generic requirements into compile-time constraint
// checks on the emitted templates.
//
// Constraints are checked where a template is instantiated, not where it is
// declared: a generic body is never type-checked against its requirements on
// the target side.
package generic

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/signature"
	"github.com/roach88/xbridge/internal/typemap"
)

// Support runtime names referenced by the emitted constraints.
const (
	UsableTrait     = "xbridge::isUsableInGenericContext"
	ConformsTrait   = "xbridge::conformsTo"
	ProtocolNesting = "xbridge::protocol::"
)

// ConstraintError reports a generic instantiation that would be rejected.
type ConstraintError struct {
	Callable string // selector of the generic declaration
	Param    string
	Type     string
	Protocol string // empty when the argument has no target mapping
	Reason   string
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: %s: %s = %s: %s", ir.ErrConstraintUnsatisfied, e.Callable, e.Param, e.Type, e.Reason)
}

// Code returns the bridge error code.
func (e *ConstraintError) Code() ir.ErrorCode {
	return ir.ErrConstraintUnsatisfied
}

// IsConstraintUnsatisfied returns true if err is a ConstraintError.
func IsConstraintUnsatisfied(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce)
}

// Emitter turns generic parameters into template heads and requires-clauses.
type Emitter struct {
	mapper *typemap.Mapper
}

// New creates an Emitter over the mapper's conformance table.
func New(m *typemap.Mapper) *Emitter {
	return &Emitter{mapper: m}
}

// Constrain fills the template head and requires-clause of a generic
// callable. Every type parameter must be usable in a generic context and
// conform to each of its requirements.
func (e *Emitter) Constrain(c *signature.Callable) {
	if len(c.Generics) == 0 {
		return
	}
	c.Template = c.Template[:0]
	c.Requires = c.Requires[:0]
	for _, g := range c.Generics {
		c.Template = append(c.Template, "typename "+g.Name)
		clauses := []string{UsableTrait + "<" + g.Name + ">"}
		for _, proto := range g.Requirements {
			clauses = append(clauses, ConformsTrait+"<"+g.Name+", "+ProtocolNesting+proto+">")
		}
		c.Requires = append(c.Requires, strings.Join(clauses, " && "))
	}
}

// Instantiation is an accepted set of type arguments for a generic callable.
type Instantiation struct {
	Callable *signature.Callable
	Args     []Arg
}

// Arg binds one type parameter.
type Arg struct {
	Param  string
	Source ir.TypeRef
	Target string
}

// Spelling renders the instantiation as the target would name it.
func (in *Instantiation) Spelling() string {
	args := make([]string, len(in.Args))
	for i, a := range in.Args {
		args[i] = a.Target
	}
	return in.Callable.Name + "<" + strings.Join(args, ", ") + ">"
}

// Instantiate checks type arguments against a generic callable's
// requirements the way the emitted requires-clause would.
func (e *Emitter) Instantiate(c *signature.Callable, args ...ir.TypeRef) (*Instantiation, error) {
	if len(args) != len(c.Generics) {
		return nil, fmt.Errorf("instantiate %s: want %d type arguments, got %d", c.Selector, len(c.Generics), len(args))
	}

	in := &Instantiation{Callable: c}
	for i, g := range c.Generics {
		arg := args[i]
		target, err := e.mapper.Resolve(arg)
		if err != nil {
			return nil, &ConstraintError{Callable: c.Selector, Param: g.Name, Type: arg.String(), Reason: "not usable in a generic context: " + err.Error()}
		}
		if target.Category == typemap.CategoryVoid || target.Category == typemap.CategoryGeneric {
			return nil, &ConstraintError{Callable: c.Selector, Param: g.Name, Type: arg.String(), Reason: "not usable in a generic context"}
		}
		for _, proto := range g.Requirements {
			if !e.mapper.Conforms(arg, proto) {
				return nil, &ConstraintError{Callable: c.Selector, Param: g.Name, Type: arg.String(), Protocol: proto, Reason: "does not conform to " + proto}
			}
		}
		in.Args = append(in.Args, Arg{Param: g.Name, Source: arg, Target: target.Spelling})
	}
	return in, nil
}

// Protocols returns every protocol named by a generic requirement of the
// callables, sorted and deduplicated.
func Protocols(callables []*signature.Callable) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range callables {
		for _, g := range c.Generics {
			for _, proto := range g.Requirements {
				if !seen[proto] {
					seen[proto] = true
					out = append(out, proto)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}
