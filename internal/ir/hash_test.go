package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModule() *ModuleInterface {
	return &ModuleInterface{
		Name: "Airports",
		Decls: []Decl{
			{Kind: KindEnum, Name: "Airport", RawType: Ref(Named("String")), Cases: []EnumCase{
				{Name: "lax", RawValue: strPtr(`"LAX"`)},
				{Name: "sfo", RawValue: strPtr(`"SFO"`)},
			}},
			{Kind: KindFunction, Name: "distance", Result: Ref(Named("Double"))},
		},
	}
}

func TestInterfaceHashDeterministic(t *testing.T) {
	h1, err := InterfaceHash(sampleModule())
	require.NoError(t, err)
	h2, err := InterfaceHash(sampleModule())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestInterfaceHashSensitiveToDeclOrder(t *testing.T) {
	a := sampleModule()
	b := sampleModule()
	b.Decls[0], b.Decls[1] = b.Decls[1], b.Decls[0]

	assert.NotEqual(t, MustInterfaceHash(a), MustInterfaceHash(b))
}

func TestHashDomainsSeparated(t *testing.T) {
	data := []byte(`{}`)
	assert.NotEqual(t, hashWithDomain(DomainInterface, data), hashWithDomain(DomainOptions, data))
	assert.Equal(t, HeaderHash(data), HeaderHash(data))
}
