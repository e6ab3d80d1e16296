package generic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/signature"
	"github.com/roach88/xbridge/internal/typemap"
)

func setup(t *testing.T) (*typemap.Mapper, *Emitter, *signature.Callable) {
	t.Helper()
	m, err := typemap.New(typemap.Options{})
	require.NoError(t, err)
	m.Register(typemap.AggregateInfo{Source: "Point", Kind: ir.KindStruct})
	m.Register(typemap.AggregateInfo{Source: "Version", Kind: ir.KindStruct})
	m.AddEdges([]ir.ConformanceEdge{{Type: "Version", Protocol: "Comparable"}})

	c, err := signature.New(m).Function(ir.Decl{
		Kind:     ir.KindFunction,
		Name:     "maximum",
		Generics: []ir.GenericParam{{Name: "T", Requirements: []string{"Comparable"}}},
		Params: []ir.Param{
			{Name: "a", Type: ir.Named("T")},
			{Name: "b", Type: ir.Named("T")},
		},
		Result: ir.Ref(ir.Named("T")),
	})
	require.NoError(t, err)
	return m, New(m), c
}

func TestConstrainBuildsTemplateHead(t *testing.T) {
	_, e, c := setup(t)

	e.Constrain(c)

	assert.True(t, c.IsGeneric())
	assert.Equal(t, []string{"typename T"}, c.Template)
	assert.Equal(t, []string{
		"xbridge::isUsableInGenericContext<T> && xbridge::conformsTo<T, xbridge::protocol::Comparable>",
	}, c.Requires)

	// constraining twice does not duplicate clauses
	e.Constrain(c)
	assert.Len(t, c.Requires, 1)
}

func TestConstrainIgnoresNonGeneric(t *testing.T) {
	_, e, _ := setup(t)
	c := &signature.Callable{Name: "f"}
	e.Constrain(c)
	assert.False(t, c.IsGeneric())
}

func TestInstantiate(t *testing.T) {
	_, e, c := setup(t)
	e.Constrain(c)

	tests := []struct {
		arg     string
		want    string
		wantErr string
	}{
		{arg: "Int", want: "maximum<std::ptrdiff_t>"},
		{arg: "Double", want: "maximum<double>"},
		{arg: "String", want: "maximum<xbridge::String>"},
		{arg: "Version", want: "maximum<Version>"},
		{arg: "Point", wantErr: "does not conform to Comparable"},
		{arg: "Bool", wantErr: "does not conform to Comparable"},
		{arg: "Int?", wantErr: "does not conform to Comparable"},
		{arg: "(Int) -> Int", wantErr: "not usable in a generic context"},
		{arg: "Void", wantErr: "not usable in a generic context"},
		{arg: "Unknown", wantErr: "not usable in a generic context"},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			in, err := e.Instantiate(c, ir.MustParseTypeRef(tt.arg))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, IsConstraintUnsatisfied(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Contains(t, err.Error(), "maximum(_:_:)")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, in.Spelling())
		})
	}
}

func TestInstantiateEquatableOptional(t *testing.T) {
	m, e, _ := setup(t)
	c, err := signature.New(m).Function(ir.Decl{
		Kind:     ir.KindFunction,
		Name:     "same",
		Generics: []ir.GenericParam{{Name: "T", Requirements: []string{"Equatable", "Hashable"}}},
		Params:   []ir.Param{{Name: "a", Type: ir.Named("T")}},
		Result:   ir.Ref(ir.Named("Bool")),
	})
	require.NoError(t, err)

	_, err = e.Instantiate(c, ir.MustParseTypeRef("Int?"))
	assert.NoError(t, err)

	_, err = e.Instantiate(c, ir.MustParseTypeRef("Point?"))
	assert.True(t, IsConstraintUnsatisfied(err))
}

func TestInstantiateArity(t *testing.T) {
	_, e, c := setup(t)
	_, err := e.Instantiate(c)
	require.Error(t, err)
	assert.False(t, IsConstraintUnsatisfied(err))
}

func TestProtocols(t *testing.T) {
	cs := []*signature.Callable{
		{Generics: []ir.GenericParam{{Name: "T", Requirements: []string{"Hashable", "Comparable"}}}},
		{Generics: []ir.GenericParam{{Name: "U", Requirements: []string{"Comparable"}}}},
		{},
	}
	assert.Equal(t, []string{"Comparable", "Hashable"}, Protocols(cs))
}
