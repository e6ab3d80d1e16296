package typemap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/xbridge/internal/ir"
)

// ParseLiteral converts a source literal to the Go value domain used by
// EncodeBits. Strings must be double-quoted. The literal "nil" of an
// optional yields a nil value.
func (m *Mapper) ParseLiteral(t ir.TypeRef, lit string) (any, error) {
	lit = strings.TrimSpace(lit)

	switch t.Kind {
	case ir.TypeOptional:
		if lit == "nil" {
			return nil, nil
		}
		if t.Elem == nil {
			return nil, fmt.Errorf("literal %s: optional without wrapped type", lit)
		}
		return m.ParseLiteral(*t.Elem, lit)
	case ir.TypeNamed:
	default:
		return nil, fmt.Errorf("literal %s: unsupported literal type %s", lit, t)
	}

	if t.Name == "String" {
		if !strings.HasPrefix(lit, `"`) {
			return nil, fmt.Errorf("literal %s: String literals must be double-quoted", lit)
		}
		s, err := strconv.Unquote(lit)
		if err != nil {
			return nil, fmt.Errorf("literal %s: %w", lit, err)
		}
		return s, nil
	}

	p, ok := m.primitives[t.Name]
	if !ok {
		return nil, fmt.Errorf("literal %s: unsupported literal type %s", lit, t)
	}
	width := p.Width(m.pointerBits)

	switch {
	case p.Bool:
		switch lit {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("literal %s: expected true or false", lit)
	case p.Float:
		f, err := strconv.ParseFloat(lit, width)
		if err != nil {
			return nil, fmt.Errorf("literal %s: %w", lit, err)
		}
		if width == 32 {
			return float32(f), nil
		}
		return f, nil
	case p.Pointer:
		if lit == "nil" {
			return uintptr(0), nil
		}
		return nil, fmt.Errorf("literal %s: only nil is a pointer literal", lit)
	case p.Signed:
		i, err := strconv.ParseInt(lit, 0, width)
		if err != nil {
			return nil, fmt.Errorf("literal %s: %w", lit, err)
		}
		return i, nil
	default:
		u, err := strconv.ParseUint(lit, 0, width)
		if err != nil {
			return nil, fmt.Errorf("literal %s: %w", lit, err)
		}
		return u, nil
	}
}
