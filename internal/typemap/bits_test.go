package typemap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitRoundTripPreservesPattern(t *testing.T) {
	m := newMapper(t)

	samples := map[string][]any{
		"Bool":          {true, false},
		"Int":           {int64(0), int64(-1), int64(math.MinInt64), int64(math.MaxInt64)},
		"Int8":          {int64(-128), int64(127), int64(-1)},
		"Int16":         {int64(math.MinInt16), int64(math.MaxInt16)},
		"Int32":         {int64(math.MinInt32), int64(-7), int64(math.MaxInt32)},
		"Int64":         {int64(math.MinInt64), int64(42)},
		"UInt":          {uint64(0), uint64(math.MaxUint64)},
		"UInt8":         {uint64(0), uint64(255)},
		"UInt16":        {uint64(math.MaxUint16)},
		"UInt32":        {uint64(math.MaxUint32)},
		"UInt64":        {uint64(math.MaxUint64)},
		"Float":         {float32(1.5), float32(-0.0), float32(math.Inf(-1)), float32(math.SmallestNonzeroFloat32)},
		"Double":        {1.5, math.Inf(1), math.MaxFloat64, math.SmallestNonzeroFloat64},
		"OpaquePointer": {uintptr(0), uintptr(0xdeadbeef)},
	}

	for source, values := range samples {
		for _, v := range values {
			bits, err := m.EncodeBits(source, v)
			require.NoError(t, err, "%s %v", source, v)

			back, err := m.DecodeBits(source, bits)
			require.NoError(t, err, "%s %#x", source, bits)
			assert.Equal(t, v, back, "%s", source)

			again, err := m.EncodeBits(source, back)
			require.NoError(t, err)
			assert.Equal(t, bits, again, "%s bit pattern changed", source)
		}
	}
}

func TestBitRoundTripNaNPayload(t *testing.T) {
	m := newMapper(t)
	pattern := uint64(0x7ff8_0000_0000_0123)

	v, err := m.DecodeBits("Double", pattern)
	require.NoError(t, err)
	back, err := m.EncodeBits("Double", v)
	require.NoError(t, err)
	assert.Equal(t, pattern, back)
}

func TestEncodeBitsRejectsOutOfRange(t *testing.T) {
	m := newMapper(t)

	_, err := m.EncodeBits("Int8", int64(128))
	assert.Error(t, err)
	_, err = m.EncodeBits("UInt16", uint64(70000))
	assert.Error(t, err)
	_, err = m.EncodeBits("Int", "nope")
	assert.Error(t, err)
	_, err = m.EncodeBits("String", "x")
	assert.Error(t, err)
}

func TestDecodeBitsRejectsWideOrInvalidPatterns(t *testing.T) {
	m := newMapper(t)

	_, err := m.DecodeBits("UInt8", 0x100)
	assert.Error(t, err)
	_, err = m.DecodeBits("Bool", 2)
	assert.Error(t, err)
}

func TestPlatformSizedIntegersFollowPointerWidth(t *testing.T) {
	m, err := New(Options{PointerWidth: 32})
	require.NoError(t, err)

	_, err = m.EncodeBits("Int", int64(math.MaxInt32)+1)
	assert.Error(t, err)

	bits, err := m.EncodeBits("Int", int64(-1))
	require.NoError(t, err)
	assert.Equal(t, uint64(0xffffffff), bits)

	back, err := m.DecodeBits("Int", bits)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), back)
}
