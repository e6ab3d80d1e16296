package typemap

import (
	"fmt"
	"math"

	"fortio.org/safecast"
)

// EncodeBits returns the bit pattern of v in the target representation of a
// primitive. Go values: signed integers as int64, unsigned as uint64, Float
// as float32, Double as float64, Bool as bool, pointers as uintptr. Values
// outside the primitive's exact width are rejected.
func (m *Mapper) EncodeBits(source string, v any) (uint64, error) {
	p, ok := m.primitives[source]
	if !ok {
		return 0, fmt.Errorf("%q is not a primitive type", source)
	}
	width := p.Width(m.pointerBits)

	switch {
	case p.Bool:
		b, ok := v.(bool)
		if !ok {
			return 0, fmt.Errorf("%s: expected bool, got %T", source, v)
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case p.Float:
		switch width {
		case 32:
			f, ok := v.(float32)
			if !ok {
				return 0, fmt.Errorf("%s: expected float32, got %T", source, v)
			}
			return uint64(math.Float32bits(f)), nil
		default:
			f, ok := v.(float64)
			if !ok {
				return 0, fmt.Errorf("%s: expected float64, got %T", source, v)
			}
			return math.Float64bits(f), nil
		}
	case p.Pointer:
		ptr, ok := v.(uintptr)
		if !ok {
			return 0, fmt.Errorf("%s: expected uintptr, got %T", source, v)
		}
		if width == 32 {
			narrow, err := safecast.Conv[uint32](ptr)
			if err != nil {
				return 0, fmt.Errorf("%s: %w", source, err)
			}
			return uint64(narrow), nil
		}
		return uint64(ptr), nil
	case p.Signed:
		i, ok := v.(int64)
		if !ok {
			return 0, fmt.Errorf("%s: expected int64, got %T", source, v)
		}
		return encodeSigned(source, i, width)
	default:
		u, ok := v.(uint64)
		if !ok {
			return 0, fmt.Errorf("%s: expected uint64, got %T", source, v)
		}
		return encodeUnsigned(source, u, width)
	}
}

func encodeSigned(source string, i int64, width int) (uint64, error) {
	var err error
	var bits uint64
	switch width {
	case 8:
		var n int8
		n, err = safecast.Conv[int8](i)
		bits = uint64(uint8(n))
	case 16:
		var n int16
		n, err = safecast.Conv[int16](i)
		bits = uint64(uint16(n))
	case 32:
		var n int32
		n, err = safecast.Conv[int32](i)
		bits = uint64(uint32(n))
	default:
		bits = uint64(i)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", source, err)
	}
	return bits, nil
}

func encodeUnsigned(source string, u uint64, width int) (uint64, error) {
	var err error
	switch width {
	case 8:
		_, err = safecast.Conv[uint8](u)
	case 16:
		_, err = safecast.Conv[uint16](u)
	case 32:
		_, err = safecast.Conv[uint32](u)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", source, err)
	}
	return u, nil
}

// DecodeBits is the inverse of EncodeBits. Bits set above the primitive's
// width are rejected so that every accepted pattern round-trips exactly.
func (m *Mapper) DecodeBits(source string, bits uint64) (any, error) {
	p, ok := m.primitives[source]
	if !ok {
		return nil, fmt.Errorf("%q is not a primitive type", source)
	}
	width := p.Width(m.pointerBits)
	if width < 64 && bits>>uint(width) != 0 {
		return nil, fmt.Errorf("%s: bit pattern %#x exceeds %d bits", source, bits, width)
	}

	switch {
	case p.Bool:
		if bits > 1 {
			return nil, fmt.Errorf("%s: invalid bool pattern %#x", source, bits)
		}
		return bits == 1, nil
	case p.Float:
		if width == 32 {
			return math.Float32frombits(uint32(bits)), nil
		}
		return math.Float64frombits(bits), nil
	case p.Pointer:
		return uintptr(bits), nil
	case p.Signed:
		switch width {
		case 8:
			return int64(int8(uint8(bits))), nil
		case 16:
			return int64(int16(uint16(bits))), nil
		case 32:
			return int64(int32(uint32(bits))), nil
		default:
			return int64(bits), nil
		}
	default:
		return bits, nil
	}
}
