package ir

import (
	"strings"
)

// DeclKind tags the Declaration variant.
type DeclKind string

const (
	KindFunction  DeclKind = "function"
	KindStruct    DeclKind = "struct"
	KindEnum      DeclKind = "enum"
	KindProperty  DeclKind = "property"
	KindSubscript DeclKind = "subscript"
)

// ValidDeclKinds defines allowed declaration kinds.
var ValidDeclKinds = map[DeclKind]bool{
	KindFunction:  true,
	KindStruct:    true,
	KindEnum:      true,
	KindProperty:  true,
	KindSubscript: true,
}

// ModuleInterface is the ordered sequence of declarations a source module
// exports. It is immutable once produced.
type ModuleInterface struct {
	Name         string            `json:"name" yaml:"name"`
	Decls        []Decl            `json:"decls" yaml:"decls"`
	Conformances []ConformanceEdge `json:"conformances,omitempty" yaml:"conformances,omitempty"`
}

// Decl is a tagged variant over function, struct, enum, property and
// subscript declarations. Fields that do not apply to a kind stay zero.
type Decl struct {
	Kind   DeclKind `json:"kind" yaml:"kind"`
	Name   string   `json:"name" yaml:"name"`
	Rename string   `json:"rename,omitempty" yaml:"rename,omitempty"` // target-visible name directive
	Doc    string   `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Callable shape (function, subscript).
	Params   []Param        `json:"params,omitempty" yaml:"params,omitempty"`
	Result   *TypeRef       `json:"result,omitempty" yaml:"result,omitempty"` // return type, or property/subscript value type
	Generics []GenericParam `json:"generics,omitempty" yaml:"generics,omitempty"`

	// Mutable is a settable property/subscript or a mutating method.
	Mutable bool `json:"mutable,omitempty" yaml:"mutable,omitempty"`
	Static  bool `json:"static,omitempty" yaml:"static,omitempty"`

	// Stored property data.
	Stored  bool    `json:"stored,omitempty" yaml:"stored,omitempty"`
	Default *string `json:"default,omitempty" yaml:"default,omitempty"`

	// Aggregate data (struct, enum).
	Resilient    bool          `json:"resilient,omitempty" yaml:"resilient,omitempty"`
	Members      []Decl        `json:"members,omitempty" yaml:"members,omitempty"`
	Initializers []Initializer `json:"initializers,omitempty" yaml:"initializers,omitempty"`
	Cases        []EnumCase    `json:"cases,omitempty" yaml:"cases,omitempty"`
	RawType      *TypeRef      `json:"raw_type,omitempty" yaml:"raw_type,omitempty"`
}

// Param is a labeled parameter.
type Param struct {
	Label    string  `json:"label,omitempty" yaml:"label,omitempty"` // "_" or empty: unlabeled
	Name     string  `json:"name" yaml:"name"`
	Type     TypeRef `json:"type" yaml:"type"`
	Default  *string `json:"default,omitempty" yaml:"default,omitempty"` // source literal
	InOut    bool    `json:"inout,omitempty" yaml:"inout,omitempty"`
	Variadic bool    `json:"variadic,omitempty" yaml:"variadic,omitempty"`
}

// Initializer is a source initializer of a struct or enum.
type Initializer struct {
	Params   []Param `json:"params,omitempty" yaml:"params,omitempty"`
	Rename   string  `json:"rename,omitempty" yaml:"rename,omitempty"`
	Failable bool    `json:"failable,omitempty" yaml:"failable,omitempty"` // init? returns an optional
}

// EnumCase is one case of an enumeration.
type EnumCase struct {
	Name     string   `json:"name" yaml:"name"`
	Payload  *TypeRef `json:"payload,omitempty" yaml:"payload,omitempty"`     // associated value
	RawValue *string  `json:"raw_value,omitempty" yaml:"raw_value,omitempty"` // literal, for raw-valued enums
}

// GenericParam is a generic type parameter with its protocol requirements.
type GenericParam struct {
	Name         string   `json:"name" yaml:"name"`
	Requirements []string `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

// ConformanceEdge asserts Type satisfies Protocol. Used only for constraint
// checks; it never implies ownership.
type ConformanceEdge struct {
	Type     string `json:"type" yaml:"type"`
	Protocol string `json:"protocol" yaml:"protocol"`
}

// callSiteLiterals are default-argument literals whose value depends on the
// caller's location. They cannot be reproduced across the boundary.
var callSiteLiterals = map[string]bool{
	"#file":      true,
	"#fileID":    true,
	"#filePath":  true,
	"#line":      true,
	"#column":    true,
	"#function":  true,
	"#dsohandle": true,
}

// IsCallSiteLiteral reports whether a default literal is call-site specific.
func IsCallSiteLiteral(lit string) bool {
	return callSiteLiterals[strings.TrimSpace(lit)]
}

// IsAggregate reports whether the declaration is a struct or enum.
func (d Decl) IsAggregate() bool {
	return d.Kind == KindStruct || d.Kind == KindEnum
}

// TargetName returns the rename directive when present, else the source name.
func (d Decl) TargetName() string {
	if d.Rename != "" {
		return d.Rename
	}
	return d.Name
}

// HasPayloadCases reports whether any enum case carries an associated value.
func (d Decl) HasPayloadCases() bool {
	for _, c := range d.Cases {
		if c.Payload != nil {
			return true
		}
	}
	return false
}

// StoredProperties returns the stored property members in declaration order.
func (d Decl) StoredProperties() []Decl {
	var props []Decl
	for _, m := range d.Members {
		if m.Kind == KindProperty && m.Stored {
			props = append(props, m)
		}
	}
	return props
}

// Selector returns the rename key of a declaration: "name" for properties
// and types, "name(label:label:)" for callables.
func (d Decl) Selector() string {
	switch d.Kind {
	case KindFunction, KindSubscript:
		name := d.Name
		if d.Kind == KindSubscript {
			name = "subscript"
		}
		return name + labelList(d.Params)
	default:
		return d.Name
	}
}

// Selector returns the rename key of an initializer: "init(label:)".
func (in Initializer) Selector() string {
	return "init" + labelList(in.Params)
}

// MemberSelector qualifies a member selector with its parent type name.
func MemberSelector(parent, member string) string {
	return parent + "." + member
}

func labelList(params []Param) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range params {
		b.WriteString(p.ExternalLabel())
		b.WriteByte(':')
	}
	b.WriteByte(')')
	return b.String()
}

// ExternalLabel returns the argument label, "_" when unlabeled.
func (p Param) ExternalLabel() string {
	if p.Label == "" {
		return "_"
	}
	return p.Label
}

// Lookup finds a top-level declaration by name.
func (m *ModuleInterface) Lookup(name string) (*Decl, bool) {
	for i := range m.Decls {
		if m.Decls[i].Name == name {
			return &m.Decls[i], true
		}
	}
	return nil, false
}
