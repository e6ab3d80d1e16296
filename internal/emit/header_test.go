package emit

import (
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/signature"
)

func strPtr(s string) *string { return &s }

func ref(s string) *ir.TypeRef { return ir.Ref(ir.MustParseTypeRef(s)) }

func geometry() *ir.ModuleInterface {
	coord := func(name string) ir.Decl {
		return ir.Decl{Kind: ir.KindProperty, Name: name, Result: ref("Double"), Stored: true, Mutable: true}
	}
	return &ir.ModuleInterface{
		Name: "Geometry",
		Decls: []ir.Decl{
			{
				Kind:    ir.KindStruct,
				Name:    "Point",
				Doc:     "A point in the plane.",
				Members: []ir.Decl{coord("x"), coord("y")},
				Initializers: []ir.Initializer{{Params: []ir.Param{
					{Label: "x", Name: "x", Type: ir.Named("Double")},
					{Label: "y", Name: "y", Type: ir.Named("Double")},
				}}},
			},
			{
				Kind:    ir.KindEnum,
				Name:    "Airport",
				RawType: ref("String"),
				Cases: []ir.EnumCase{
					{Name: "LAX", RawValue: strPtr(`"LAX"`)},
					{Name: "SFO", RawValue: strPtr(`"SFO"`)},
				},
			},
			{
				Kind:     ir.KindFunction,
				Name:     "maximum",
				Generics: []ir.GenericParam{{Name: "T", Requirements: []string{"Comparable"}}},
				Params:   []ir.Param{{Name: "a", Type: ir.Named("T")}, {Name: "b", Type: ir.Named("T")}},
				Result:   ref("T"),
			},
			{
				Kind:   ir.KindFunction,
				Name:   "apply",
				Params: []ir.Param{{Name: "f", Type: ir.MustParseTypeRef("(Int) -> Int")}},
			},
		},
	}
}

func TestHeaderGolden(t *testing.T) {
	out, err := bridge.Generate(context.Background(), geometry(), bridge.Options{})
	require.NoError(t, err)
	out.InterfaceHash = "test"

	header, err := Render(out)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "geometry", header)
}

func TestHeaderIsDeterministic(t *testing.T) {
	first, err := bridge.Generate(context.Background(), geometry(), bridge.Options{})
	require.NoError(t, err)
	second, err := bridge.Generate(context.Background(), geometry(), bridge.Options{})
	require.NoError(t, err)

	a, err := Render(first)
	require.NoError(t, err)
	b, err := Render(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, ir.HeaderHash(a), ir.HeaderHash(b))
}

func TestHeaderResilientAndPayloadTypes(t *testing.T) {
	mod := &ir.ModuleInterface{
		Name: "Shapes",
		Decls: []ir.Decl{
			{
				Kind:      ir.KindStruct,
				Name:      "Canvas",
				Resilient: true,
				Members: []ir.Decl{
					{Kind: ir.KindProperty, Name: "isEmpty", Result: ref("Bool")},
					{Kind: ir.KindSubscript, Params: []ir.Param{{Name: "i", Type: ir.Named("Int")}}, Result: ref("Shape"), Mutable: true},
				},
			},
			{
				Kind: ir.KindEnum,
				Name: "Shape",
				Cases: []ir.EnumCase{
					{Name: "circle", Payload: ref("Double")},
					{Name: "none"},
				},
			},
			{Kind: ir.KindProperty, Name: "scratch", Result: ref("UnsafeMutableRawPointer?")},
		},
	}
	out, err := bridge.Generate(context.Background(), mod, bridge.Options{Namespace: "shapes"})
	require.NoError(t, err)

	header, err := Render(out)
	require.NoError(t, err)
	text := string(header)

	for _, want := range []string{
		"namespace shapes {",
		"  void *_opaque;",
		"  bool isEmpty() const;",
		"  Shape operator[](std::ptrdiff_t i) const;",
		"  void setElement(std::ptrdiff_t i, const Shape &newValue);",
		"    requires std::is_invocable_v<Callback &, Shape &>",
		"  void modifyElement(std::ptrdiff_t i, Callback &&callback);",
		"  static Shape circle(double value);",
		"  static const Shape none;",
		"  bool isCircle() const;",
		"  double getCircleValue() const;",
		"  alignas(8) unsigned char _storage[16];",
		"void *getScratch();",
		"template <> inline constexpr bool isUsableInGenericContext<shapes::Canvas> = true;",
	} {
		assert.Contains(t, text, want)
	}
	assert.NotContains(t, text, "namespace xbridge::protocol")
	assert.True(t, strings.HasSuffix(text, "} // namespace xbridge\n"))
}

func TestDeclarator(t *testing.T) {
	assert.Equal(t, "const Point &p", declarator(signature.Param{Name: "p", Type: "const Point &"}))
	assert.Equal(t, "std::ptrdiff_t n = 1", declarator(signature.Param{Name: "n", Type: "std::ptrdiff_t", Default: "1"}))
	assert.Equal(t, "const void *buf = nullptr", declarator(signature.Param{Name: "buf", Type: "const void *", Default: "nullptr"}))
}

func TestHeaderNilOutput(t *testing.T) {
	_, err := Render(nil)
	assert.Error(t, err)
}
