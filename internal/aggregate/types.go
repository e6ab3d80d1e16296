// Package aggregate generates accessor-based proxy types for source structs
// and enums.
//
// Every generated type hides its storage. Fixed-layout types embed an
// aligned byte buffer sized by the layout package; resilient types hold a
// single owning pointer to a heap cell, and every value-returning operation
// allocates a fresh cell.
package aggregate

import (
	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/layout"
	"github.com/roach88/xbridge/internal/signature"
)

// Type is the target type generated for one source struct or enum.
type Type struct {
	Source    string
	Name      string
	Kind      ir.DeclKind
	Doc       string
	Resilient bool
	Layout    layout.Layout // zero for resilient types

	// DefaultConstructible is false when the default constructor is deleted.
	DefaultConstructible bool

	Factories  []*signature.Callable
	Properties []Property
	Subscripts []Subscript
	Methods    []*signature.Callable

	Cases     []Case
	RawType   string      // target spelling of the raw value type
	RawSource *ir.TypeRef // nil when the enum has no raw values

	// Dropped members did not survive translation; the type itself did.
	Dropped []Drop
}

// Property is the accessor group of one stored or computed property.
type Property struct {
	Source  string
	Type    ir.TypeRef
	Stored  bool
	Static  bool
	Default *string // stored property default, source literal

	Getter *signature.Callable
	Setter *signature.Callable // nil when get-only
	Modify *signature.Callable // nil when get-only or static
}

// Subscript is the accessor group of one subscript.
type Subscript struct {
	Source ir.Decl
	Getter *signature.Callable
	Setter *signature.Callable
	Modify *signature.Callable
}

// Case is one enum case. Cases without a payload become singleton
// constants; payload cases get a factory and a value accessor.
type Case struct {
	Source      string
	Name        string // constant or factory name
	Predicate   string // isX
	Payload     *ir.TypeRef
	PayloadType string // target spelling, empty without payload
	Accessor    string // getXValue, empty without payload
	RawValue    *string
	Factory     *signature.Callable
}

// Drop records a member left out of a generated type.
type Drop struct {
	Selector string
	Err      error
}

// Property returns the named property group.
func (t *Type) Property(source string) (*Property, bool) {
	for i := range t.Properties {
		if t.Properties[i].Source == source {
			return &t.Properties[i], true
		}
	}
	return nil, false
}

// Case returns the named case.
func (t *Type) Case(source string) (*Case, bool) {
	for i := range t.Cases {
		if t.Cases[i].Source == source {
			return &t.Cases[i], true
		}
	}
	return nil, false
}

// HasPayloads reports whether any case carries an associated value.
func (t *Type) HasPayloads() bool {
	for _, c := range t.Cases {
		if c.Payload != nil {
			return true
		}
	}
	return false
}
