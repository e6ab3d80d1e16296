package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/xbridge/internal/ir"
)

func strPtr(s string) *string { return &s }

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func validModule() *ir.ModuleInterface {
	return &ir.ModuleInterface{
		Name: "Travel",
		Decls: []ir.Decl{
			{
				Kind: ir.KindEnum, Name: "Airport", RawType: ir.Ref(ir.Named("String")),
				Cases: []ir.EnumCase{{Name: "LAX"}, {Name: "HTX", RawValue: strPtr(`"IAH"`)}},
			},
			{
				Kind: ir.KindStruct, Name: "Ticket",
				Members: []ir.Decl{
					{Kind: ir.KindProperty, Name: "seat", Result: ir.Ref(ir.Named("Int")), Stored: true},
					{Kind: ir.KindSubscript, Params: []ir.Param{{Name: "i", Type: ir.Named("Int")}}, Result: ir.Ref(ir.Named("Int"))},
				},
			},
			{
				Kind: ir.KindFunction, Name: "maximum",
				Generics: []ir.GenericParam{{Name: "T", Requirements: []string{"Comparable"}}},
				Params:   []ir.Param{{Name: "a", Type: ir.Named("T")}, {Name: "b", Type: ir.Named("T")}},
				Result:   ir.Ref(ir.Named("T")),
			},
		},
		Conformances: []ir.ConformanceEdge{{Type: "Ticket", Protocol: "Equatable"}},
	}
}

func TestValidateValidModule(t *testing.T) {
	errs := Validate(validModule())
	assert.Empty(t, errs, "valid module should have no errors")
}

func TestValidateNilModule(t *testing.T) {
	errs := Validate(nil)
	assert.Equal(t, []string{ErrModuleNameEmpty}, codes(errs))
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ir.ModuleInterface)
		want   []string
	}{
		{
			name:   "empty module name",
			mutate: func(m *ir.ModuleInterface) { m.Name = "  " },
			want:   []string{ErrModuleNameEmpty},
		},
		{
			name: "invalid kind",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls = append(m.Decls, ir.Decl{Kind: "class", Name: "Widget"})
			},
			want: []string{ErrInvalidKind},
		},
		{
			name: "duplicate function selector",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls = append(m.Decls, m.Decls[2])
			},
			want: []string{ErrDuplicateName},
		},
		{
			name: "overloads with distinct labels are allowed",
			mutate: func(m *ir.ModuleInterface) {
				d := m.Decls[2]
				d.Params = []ir.Param{{Label: "of", Name: "a", Type: ir.Named("T")}}
				m.Decls = append(m.Decls, d)
			},
			want: []string{},
		},
		{
			name: "property without type",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls = append(m.Decls, ir.Decl{Kind: ir.KindProperty, Name: "x"})
			},
			want: []string{ErrMissingType},
		},
		{
			name: "enum without cases",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls[0].Cases = nil
			},
			want: []string{ErrEnumNoCases},
		},
		{
			name: "raw type on payload enum",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls[0].Cases = append(m.Decls[0].Cases, ir.EnumCase{Name: "other", Payload: ir.Ref(ir.Named("String"))})
			},
			want: []string{ErrInvalidRawValue},
		},
		{
			name: "raw value without raw type",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls[0].RawType = nil
			},
			want: []string{ErrInvalidRawValue},
		},
		{
			name: "two variadics",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls[2].Params[0].Variadic = true
				m.Decls[2].Params[1].Variadic = true
			},
			want: []string{ErrMultipleVariadic},
		},
		{
			name: "default on inout",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls[2].Params[0].InOut = true
				m.Decls[2].Params[0].Default = strPtr("0")
			},
			want: []string{ErrDefaultOnInOut},
		},
		{
			name: "top-level subscript",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls = append(m.Decls, ir.Decl{Kind: ir.KindSubscript, Result: ir.Ref(ir.Named("Int"))})
			},
			want: []string{ErrTopLevelSubscript},
		},
		{
			name: "duplicate case",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls[0].Cases = append(m.Decls[0].Cases, ir.EnumCase{Name: "LAX"})
			},
			want: []string{ErrDuplicateCase},
		},
		{
			name: "empty case name",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls[0].Cases = append(m.Decls[0].Cases, ir.EnumCase{})
			},
			want: []string{ErrEmptyName},
		},
		{
			name: "generic shadows outer generic",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls[1].Generics = []ir.GenericParam{{Name: "T"}}
				m.Decls[1].Members = append(m.Decls[1].Members, ir.Decl{
					Kind: ir.KindFunction, Name: "f", Generics: []ir.GenericParam{{Name: "T"}},
				})
			},
			want: []string{ErrInvalidGeneric},
		},
		{
			name: "unknown conformer",
			mutate: func(m *ir.ModuleInterface) {
				m.Conformances = append(m.Conformances, ir.ConformanceEdge{Type: "Int", Protocol: "Equatable"})
			},
			want: []string{ErrUnknownConformer},
		},
		{
			name: "stored property on enum",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls[0].Members = []ir.Decl{{Kind: ir.KindProperty, Name: "code", Result: ir.Ref(ir.Named("Int")), Stored: true}}
			},
			want: []string{ErrStoredOnEnum},
		},
		{
			name: "duplicate member",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls[1].Members = append(m.Decls[1].Members, m.Decls[1].Members[0])
			},
			want: []string{ErrDuplicateName},
		},
		{
			name: "nested type member",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls[1].Members = append(m.Decls[1].Members, ir.Decl{Kind: ir.KindStruct, Name: "Inner"})
			},
			want: []string{ErrInvalidKind},
		},
		{
			name: "recursive value type",
			mutate: func(m *ir.ModuleInterface) {
				m.Decls[1].Members = append(m.Decls[1].Members, ir.Decl{
					Kind: ir.KindProperty, Name: "next", Result: ir.Ref(ir.Optional(ir.Named("Ticket"))), Stored: true,
				})
			},
			want: []string{ErrRecursiveValue},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := validModule()
			tt.mutate(mod)
			assert.Equal(t, tt.want, codes(Validate(mod)))
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	mod := &ir.ModuleInterface{
		Decls: []ir.Decl{
			{Kind: ir.KindEnum, Name: "Empty"},
			{Kind: ir.KindProperty, Name: "x"},
		},
	}

	errs := Validate(mod)
	assert.Equal(t, []string{ErrModuleNameEmpty, ErrEnumNoCases, ErrMissingType}, codes(errs))
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "Airport", Message: "enum must declare at least one case", Code: ErrEnumNoCases}
	assert.Equal(t, "[E105] Airport: enum must declare at least one case", err.Error())

	err.Line = 12
	assert.Equal(t, "[E105] line 12: Airport: enum must declare at least one case", err.Error())
}
