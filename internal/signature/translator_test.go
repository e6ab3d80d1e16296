package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/typemap"
)

func strPtr(s string) *string { return &s }

func param(label, name, typ string) ir.Param {
	return ir.Param{Label: label, Name: name, Type: ir.MustParseTypeRef(typ)}
}

func newTranslator(t *testing.T) *Translator {
	t.Helper()
	m, err := typemap.New(typemap.Options{PointerWidth: 64})
	require.NoError(t, err)
	m.Register(typemap.AggregateInfo{Source: "Point", Kind: ir.KindStruct})
	return New(m)
}

func TestFunctionPreservesParameterOrder(t *testing.T) {
	tr := newTranslator(t)

	c, err := tr.Function(ir.Decl{
		Kind: ir.KindFunction,
		Name: "move",
		Params: []ir.Param{
			param("_", "p", "Point"),
			param("by", "dx", "Int"),
			param("and", "dy", "Double"),
		},
		Result: ir.Ref(ir.Named("Point")),
	})
	require.NoError(t, err)

	assert.Equal(t, "move", c.Name)
	assert.Equal(t, "move(_:by:and:)", c.Selector)
	assert.Equal(t, "Point", c.Result)
	require.Len(t, c.Params, 3)
	assert.Equal(t, "p", c.Params[0].Name)
	assert.Equal(t, "const Point &", c.Params[0].Type)
	assert.Equal(t, "dx", c.Params[1].Name)
	assert.Equal(t, "std::ptrdiff_t", c.Params[1].Type)
	assert.Equal(t, "double", c.Params[2].Type)
	assert.Equal(t, "move(const Point &, std::ptrdiff_t, double)", c.Signature())
}

func TestFunctionInOutAndVariadic(t *testing.T) {
	tr := newTranslator(t)

	inout := param("_", "value", "Int")
	inout.InOut = true
	variadic := param("_", "values", "Int")
	variadic.Variadic = true

	c, err := tr.Function(ir.Decl{Kind: ir.KindFunction, Name: "accumulate", Params: []ir.Param{inout, variadic}})
	require.NoError(t, err)

	assert.Equal(t, "std::ptrdiff_t &", c.Params[0].Type)
	assert.True(t, c.Params[0].InOut)
	assert.Equal(t, "std::initializer_list<std::ptrdiff_t>", c.Params[1].Type)
	assert.Equal(t, "void", c.Result)
}

func TestFunctionDefaults(t *testing.T) {
	tr := newTranslator(t)

	count := param("count", "count", "Int")
	count.Default = strPtr("1")
	name := param("name", "name", "String")
	name.Default = strPtr(`"none"`)
	ptr := param("buffer", "buffer", "UnsafeRawPointer?")
	ptr.Default = strPtr("nil")

	c, err := tr.Function(ir.Decl{Kind: ir.KindFunction, Name: "f", Params: []ir.Param{count, name, ptr}})
	require.NoError(t, err)

	assert.Equal(t, "1", c.Params[0].Default)
	assert.Equal(t, `"none"`, c.Params[1].Default)
	assert.Equal(t, "nullptr", c.Params[2].Default)
	assert.Empty(t, c.Notes)
}

func TestFunctionCallSiteDefaultMustBeSupplied(t *testing.T) {
	tr := newTranslator(t)

	file := param("file", "file", "String")
	file.Default = strPtr("#file")
	line := param("line", "line", "Int")
	line.Default = strPtr("#line")

	c, err := tr.Function(ir.Decl{Kind: ir.KindFunction, Name: "log", Params: []ir.Param{param("_", "msg", "String"), file, line}})
	require.NoError(t, err)

	assert.Empty(t, c.Params[1].Default)
	assert.Empty(t, c.Params[2].Default)
	require.Len(t, c.Notes, 2)
	assert.Contains(t, c.Notes[0], "#file")
	assert.Contains(t, c.Notes[1], "#line")
}

func TestFunctionDropsDefaultBeforeRequiredParameter(t *testing.T) {
	tr := newTranslator(t)

	first := param("a", "a", "Int")
	first.Default = strPtr("0")
	second := param("file", "file", "String")
	second.Default = strPtr("#fileID")

	c, err := tr.Function(ir.Decl{Kind: ir.KindFunction, Name: "f", Params: []ir.Param{first, second}})
	require.NoError(t, err)

	assert.Empty(t, c.Params[0].Default)
	require.Len(t, c.Notes, 2)
	assert.Contains(t, c.Notes[1], "dropped")
}

func TestFunctionRenameAndKeywords(t *testing.T) {
	tr := newTranslator(t)

	c, err := tr.Function(ir.Decl{
		Kind:   ir.KindFunction,
		Name:   "delete",
		Params: []ir.Param{param("_", "class", "Int"), param("_", "_", "Int")},
	})
	require.NoError(t, err)
	assert.Equal(t, "delete_", c.Name)
	assert.Equal(t, "class_", c.Params[0].Name)
	assert.Equal(t, "arg1", c.Params[1].Name)

	c, err = tr.Function(ir.Decl{Kind: ir.KindFunction, Name: "delete", Rename: "remove"})
	require.NoError(t, err)
	assert.Equal(t, "remove", c.Name)
}

func TestFunctionUnrepresentable(t *testing.T) {
	tr := newTranslator(t)

	_, err := tr.Function(ir.Decl{Kind: ir.KindFunction, Name: "apply", Params: []ir.Param{param("_", "f", "(Int) -> Int")}})
	require.Error(t, err)
	assert.True(t, typemap.IsUnrepresentable(err))
	assert.Contains(t, err.Error(), "apply(_:)")

	_, err = tr.Function(ir.Decl{Kind: ir.KindFunction, Name: "pair", Result: ir.Ref(ir.MustParseTypeRef("(Int, Int)"))})
	assert.True(t, typemap.IsUnrepresentable(err))

	_, err = tr.Function(ir.Decl{Kind: ir.KindStruct, Name: "NotAFunction"})
	assert.Error(t, err)
}

func TestMethodConstness(t *testing.T) {
	tr := newTranslator(t)

	c, err := tr.Method("Point", ir.Decl{Kind: ir.KindFunction, Name: "length", Result: ir.Ref(ir.Named("Double"))})
	require.NoError(t, err)
	assert.True(t, c.Const)
	assert.Equal(t, "Point.length()", c.Selector)

	c, err = tr.Method("Point", ir.Decl{Kind: ir.KindFunction, Name: "scale", Mutable: true, Params: []ir.Param{param("by", "f", "Double")}})
	require.NoError(t, err)
	assert.False(t, c.Const)

	c, err = tr.Method("Point", ir.Decl{Kind: ir.KindFunction, Name: "origin", Static: true, Result: ir.Ref(ir.Named("Point"))})
	require.NoError(t, err)
	assert.True(t, c.Static)
	assert.False(t, c.Const)
}

func TestInitializerFactories(t *testing.T) {
	tr := newTranslator(t)
	owner := typemap.AggregateInfo{Source: "Point", Target: "Point", Kind: ir.KindStruct}

	c, err := tr.Initializer(owner, ir.Initializer{Params: []ir.Param{param("x", "x", "Double"), param("y", "y", "Double")}})
	require.NoError(t, err)
	assert.Equal(t, "init", c.Name)
	assert.True(t, c.Static)
	assert.Equal(t, "Point", c.Result)
	assert.Equal(t, "Point.init(x:y:)", c.Selector)

	c, err = tr.Initializer(owner, ir.Initializer{Failable: true, Rename: "parse", Params: []ir.Param{param("_", "s", "String")}})
	require.NoError(t, err)
	assert.Equal(t, "parse", c.Name)
	assert.Equal(t, "xbridge::Optional<Point>", c.Result)
}

func TestSubscriptGetter(t *testing.T) {
	tr := newTranslator(t)

	c, err := tr.Subscript("Grid", ir.Decl{
		Kind:    ir.KindSubscript,
		Params:  []ir.Param{param("_", "index", "Int")},
		Result:  ir.Ref(ir.Named("Double")),
		Mutable: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "operator[]", c.Name)
	assert.Equal(t, "Grid.subscript(_:)", c.Selector)
	assert.Equal(t, "double", c.Result)
	assert.True(t, c.Const)

	c, err = tr.Subscript("Grid", ir.Decl{
		Kind:   ir.KindSubscript,
		Params: []ir.Param{param("_", "row", "Int"), param("_", "column", "Int")},
		Result: ir.Ref(ir.Named("Double")),
	})
	require.NoError(t, err)
	assert.Equal(t, "at", c.Name)
	assert.Equal(t, "at(std::ptrdiff_t, std::ptrdiff_t)", c.Signature())
}

func TestGenericFunctionCarriesParameters(t *testing.T) {
	tr := newTranslator(t)

	c, err := tr.Function(ir.Decl{
		Kind:     ir.KindFunction,
		Name:     "maximum",
		Generics: []ir.GenericParam{{Name: "T", Requirements: []string{"Comparable"}}},
		Params:   []ir.Param{param("_", "a", "T"), param("_", "b", "T")},
		Result:   ir.Ref(ir.Named("T")),
	})
	require.NoError(t, err)
	assert.Equal(t, "const T &", c.Params[0].Type)
	assert.Equal(t, "T", c.Result)
	require.Len(t, c.Generics, 1)
	assert.False(t, c.IsGeneric(), "template is filled by the constraint emitter")
}
