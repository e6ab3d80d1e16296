package bridge

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/signature"
)

func strPtr(s string) *string { return &s }

func ref(s string) *ir.TypeRef { return ir.Ref(ir.MustParseTypeRef(s)) }

func travelModule() *ir.ModuleInterface {
	return &ir.ModuleInterface{
		Name: "Travel",
		Decls: []ir.Decl{
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
				Kind: ir.KindStruct,
				Name: "Handler",
				Members: []ir.Decl{
					{Kind: ir.KindProperty, Name: "callback", Result: ref("(Int) -> Void"), Stored: true},
				},
			},
			{
				Kind: ir.KindStruct,
				Name: "Route",
				Members: []ir.Decl{
					{Kind: ir.KindProperty, Name: "from", Result: ref("Airport"), Stored: true, Mutable: true},
					{Kind: ir.KindProperty, Name: "to", Result: ref("Airport"), Stored: true, Mutable: true},
					{Kind: ir.KindProperty, Name: "onArrival", Result: ref("Handler"), Stored: true},
				},
			},
			{
				Kind:      ir.KindStruct,
				Name:      "Itinerary",
				Resilient: true,
				Members: []ir.Decl{
					{Kind: ir.KindProperty, Name: "legs", Result: ref("Int"), Stored: true, Mutable: true, Default: strPtr("0")},
					{Kind: ir.KindProperty, Name: "lastRoute", Result: ref("Route?")},
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
				Name:   "book",
				Params: []ir.Param{{Label: "from", Name: "origin", Type: ir.Named("Airport")}},
				Result: ref("Itinerary"),
			},
			{Kind: ir.KindProperty, Name: "defaultAirport", Result: ref("Airport"), Mutable: true},
			{Kind: ir.KindSubscript, Params: []ir.Param{{Name: "i", Type: ir.Named("Int")}}, Result: ref("Int")},
		},
	}
}

func TestGenerateTravel(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	out, err := Generate(context.Background(), travelModule(), Options{Logger: logger})
	require.NoError(t, err)

	assert.Equal(t, "Travel", out.Namespace)
	assert.Equal(t, 64, out.PointerWidth)
	assert.Len(t, out.InterfaceHash, 64)

	var names []string
	for _, typ := range out.Types {
		names = append(names, typ.Name)
	}
	assert.Equal(t, []string{"Airport", "Itinerary"}, names, "Handler and Route are dropped")

	require.Len(t, out.Diagnostics, 4)
	assert.Equal(t, "Handler", out.Diagnostics[0].Selector)
	assert.Equal(t, ir.ErrUnrepresentableType, out.Diagnostics[0].Code)
	assert.Equal(t, "Route", out.Diagnostics[1].Selector)
	assert.Equal(t, "Itinerary.lastRoute", out.Diagnostics[2].Selector)
	assert.Equal(t, "subscript(_:)", out.Diagnostics[3].Selector)
	assert.Equal(t, ir.ErrInvalidDecl, out.Diagnostics[3].Code)

	itinerary, ok := out.Type("Itinerary")
	require.True(t, ok)
	require.Len(t, itinerary.Properties, 1, "lastRoute mentions a dropped type")
	assert.True(t, itinerary.DefaultConstructible)
	assert.Len(t, itinerary.Dropped, 1)

	maximum, ok := out.Function("maximum(_:_:)")
	require.True(t, ok)
	assert.Equal(t, []string{"typename T"}, maximum.Template)

	book, ok := out.Function("book(from:)")
	require.True(t, ok)
	assert.Equal(t, "Itinerary", book.Result)
	assert.Equal(t, "const Airport &", book.Params[0].Type)

	require.Len(t, out.Globals, 1)
	assert.Equal(t, "getDefaultAirport", out.Globals[0].Getter.Name)

	assert.Equal(t, []string{"Comparable", "Equatable", "Hashable"}, out.Protocols)
	assert.Equal(t, []ir.ConformanceEdge{
		{Type: "Airport", Protocol: "Equatable"},
		{Type: "Airport", Protocol: "Hashable"},
	}, out.Conformances)

	assert.Contains(t, logs.String(), "declaration dropped")
	assert.Contains(t, logs.String(), "decl=Handler")
}

func TestGenerateFailsOnAmbiguousOverload(t *testing.T) {
	mod := &ir.ModuleInterface{
		Name: "Geo",
		Decls: []ir.Decl{
			{Kind: ir.KindFunction, Name: "distance", Params: []ir.Param{{Label: "from", Name: "a", Type: ir.Named("Double")}}},
			{Kind: ir.KindFunction, Name: "distance", Params: []ir.Param{{Label: "to", Name: "b", Type: ir.Named("Double")}}},
		},
	}

	_, err := Generate(context.Background(), mod, Options{})
	require.Error(t, err)
	assert.True(t, signature.IsAmbiguousOverload(err))

	out, err := Generate(context.Background(), mod, Options{Renames: map[string]string{
		"distance(to:)": "distanceTo",
		"missing()":     "unused",
	}})
	require.NoError(t, err)
	require.Len(t, out.Functions, 2)
	assert.Equal(t, "distanceTo", out.Functions[1].Name)
	assert.Equal(t, []string{"missing()"}, out.UnusedRenames)
}

func TestGenerateFailsOnSameWidthIntegerOverloads(t *testing.T) {
	mod := &ir.ModuleInterface{
		Name: "Counters",
		Decls: []ir.Decl{
			{Kind: ir.KindFunction, Name: "bump", Params: []ir.Param{{Label: "_", Name: "n", Type: ir.Named("Int")}}},
			{Kind: ir.KindFunction, Name: "bump", Params: []ir.Param{{Label: "_", Name: "n", Type: ir.Named("Int32")}}},
		},
	}

	_, err := Generate(context.Background(), mod, Options{PointerWidth: 64})
	require.NoError(t, err, "Int and Int32 differ at 64 bits")

	_, err = Generate(context.Background(), mod, Options{PointerWidth: 32})
	require.Error(t, err)
	code, ok := ir.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ir.ErrAmbiguousOverload, code)
}

func TestGenerateRenamesMembersWithoutMutatingInput(t *testing.T) {
	mod := travelModule()
	out, err := Generate(context.Background(), mod, Options{
		Namespace: "travel",
		Renames: map[string]string{
			"Airport":        "AirportCode",
			"Itinerary.legs": "legCount",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "travel", out.Namespace)
	airport, ok := out.Type("Airport")
	require.True(t, ok)
	assert.Equal(t, "AirportCode", airport.Name)
	assert.Equal(t, "xbridge::Optional<AirportCode>", airport.Factories[0].Result)

	itinerary, _ := out.Type("Itinerary")
	assert.Equal(t, "getLegCount", itinerary.Properties[0].Getter.Name)

	assert.Empty(t, mod.Decls[0].Rename)
	assert.Empty(t, mod.Decls[3].Members[0].Rename)
}

func TestGenerateExtraConformances(t *testing.T) {
	out, err := Generate(context.Background(), travelModule(), Options{
		Conformances: []ir.ConformanceEdge{{Type: "Itinerary", Protocol: "Comparable"}},
	})
	require.NoError(t, err)
	assert.Contains(t, out.Conformances, ir.ConformanceEdge{Type: "Itinerary", Protocol: "Comparable"})
}

func TestGenerateRejectsBadInput(t *testing.T) {
	_, err := Generate(context.Background(), &ir.ModuleInterface{}, Options{})
	assert.Error(t, err)

	_, err = Generate(context.Background(), travelModule(), Options{PointerWidth: 16})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Generate(ctx, travelModule(), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
