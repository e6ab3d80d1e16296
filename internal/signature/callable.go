package signature

import (
	"strings"

	"github.com/roach88/xbridge/internal/ir"
)

// Param is one translated parameter.
type Param struct {
	Name     string // target parameter name
	Type     string // full target spelling including reference or sequence form
	Identity string // Type with integer typedefs reduced to signedness and width
	Default  string // target default argument, empty when none
	InOut    bool
	Variadic bool
	Source   ir.Param
}

// Callable is a target callable declaration.
type Callable struct {
	Name     string // target-visible name
	Selector string // source selector, used for diagnostics and renames
	Params   []Param
	Result   string
	Static   bool
	Const    bool // member function that does not mutate the receiver

	// Generics are the source generic parameters; Template and Requires
	// are filled from them by the generic constraint emitter.
	Generics []ir.GenericParam
	Template []string
	Requires []string

	// Notes are emitted as comments next to the declaration.
	Notes []string
	Doc   string
}

// Signature returns the overload key: name and parameter types.
func (c *Callable) Signature() string {
	types := make([]string, len(c.Params))
	for i, p := range c.Params {
		types[i] = p.Type
	}
	return c.Name + "(" + strings.Join(types, ", ") + ")"
}

// OverloadKey returns the signature the target compiler sees: typedefs
// naming the same integer type are one parameter type.
func (c *Callable) OverloadKey() string {
	types := make([]string, len(c.Params))
	for i, p := range c.Params {
		types[i] = p.Type
		if p.Identity != "" {
			types[i] = p.Identity
		}
	}
	return c.Name + "(" + strings.Join(types, ", ") + ")"
}

// IsGeneric reports whether the callable is a template.
func (c *Callable) IsGeneric() bool {
	return len(c.Template) > 0
}
