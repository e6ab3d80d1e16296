package ir

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/vmihailenco/msgpack/v5"
)

// TypeKind categorizes a TypeRef.
type TypeKind string

const (
	TypeNamed       TypeKind = "named"       // primitive, aggregate or generic parameter
	TypeOptional    TypeKind = "optional"    // T?
	TypePointer     TypeKind = "pointer"     // UnsafePointer<T>, UnsafeMutablePointer<T>
	TypeArray       TypeKind = "array"       // [T]
	TypeDictionary  TypeKind = "dictionary"  // [K: V]
	TypeTuple       TypeKind = "tuple"       // (A, B)
	TypeFunction    TypeKind = "function"    // (A) -> B
	TypeExistential TypeKind = "existential" // any P
)

// Pointer type constructor names.
const (
	PointerConst   = "UnsafePointer"
	PointerMutable = "UnsafeMutablePointer"
)

// TypeRef references a source type. It serializes as its source spelling.
type TypeRef struct {
	Kind  TypeKind
	Name  string    // named: type name; pointer: constructor; existential: protocol
	Elem  *TypeRef  // optional/pointer/array element, dictionary value, function result
	Elems []TypeRef // tuple elements, function params, named generic args, dictionary key
}

// Named returns a reference to a named type.
func Named(name string) TypeRef {
	return TypeRef{Kind: TypeNamed, Name: name}
}

// Optional wraps t in an optional.
func Optional(t TypeRef) TypeRef {
	return TypeRef{Kind: TypeOptional, Elem: &t}
}

// Pointer returns a typed pointer to t.
func Pointer(t TypeRef, mutable bool) TypeRef {
	name := PointerConst
	if mutable {
		name = PointerMutable
	}
	return TypeRef{Kind: TypePointer, Name: name, Elem: &t}
}

// Ref returns a pointer to a copy of t, for optional TypeRef fields.
func Ref(t TypeRef) *TypeRef {
	return &t
}

// IsVoid reports whether the reference names the empty type.
func (t TypeRef) IsVoid() bool {
	return (t.Kind == TypeNamed && t.Name == "Void") || (t.Kind == TypeTuple && len(t.Elems) == 0)
}

// Mutable reports whether a pointer type allows mutation of its pointee.
func (t TypeRef) Mutable() bool {
	return t.Kind == TypePointer && t.Name == PointerMutable
}

// String returns the source spelling.
func (t TypeRef) String() string {
	switch t.Kind {
	case TypeOptional:
		return t.elem().String() + "?"
	case TypePointer:
		return t.Name + "<" + t.elem().String() + ">"
	case TypeArray:
		return "[" + t.elem().String() + "]"
	case TypeDictionary:
		key := TypeRef{}
		if len(t.Elems) > 0 {
			key = t.Elems[0]
		}
		return "[" + key.String() + ": " + t.elem().String() + "]"
	case TypeTuple:
		return "(" + joinTypes(t.Elems) + ")"
	case TypeFunction:
		return "(" + joinTypes(t.Elems) + ") -> " + t.elem().String()
	case TypeExistential:
		return "any " + t.Name
	default:
		if len(t.Elems) > 0 {
			return t.Name + "<" + joinTypes(t.Elems) + ">"
		}
		return t.Name
	}
}

func (t TypeRef) elem() TypeRef {
	if t.Elem == nil {
		return Named("Void")
	}
	return *t.Elem
}

func joinTypes(ts []TypeRef) string {
	parts := make([]string, len(ts))
	for i, e := range ts {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// MarshalText implements encoding.TextMarshaler (JSON, YAML).
func (t TypeRef) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler (JSON, YAML).
func (t *TypeRef) UnmarshalText(text []byte) error {
	parsed, err := ParseTypeRef(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (t TypeRef) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeString(t.String())
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (t *TypeRef) DecodeMsgpack(dec *msgpack.Decoder) error {
	s, err := dec.DecodeString()
	if err != nil {
		return err
	}
	return t.UnmarshalText([]byte(s))
}

// ParseTypeRef parses a source type spelling.
//
// Grammar:
//
//	type    = primary { "?" }
//	primary = "any" ident
//	        | "(" [ type { "," type } ] ")" [ "->" type ]
//	        | "[" type [ ":" type ] "]"
//	        | ident { "." ident } [ "<" type { "," type } ">" ]
func ParseTypeRef(s string) (TypeRef, error) {
	p := &typeParser{src: s}
	t, err := p.parseType()
	if err != nil {
		return TypeRef{}, fmt.Errorf("parse type %q: %w", s, err)
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return TypeRef{}, fmt.Errorf("parse type %q: unexpected %q at offset %d", s, p.src[p.pos:], p.pos)
	}
	return t, nil
}

// MustParseTypeRef is like ParseTypeRef but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseTypeRef(s string) TypeRef {
	t, err := ParseTypeRef(s)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) consume(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *typeParser) expect(tok string) error {
	if !p.consume(tok) {
		if p.pos >= len(p.src) {
			return fmt.Errorf("expected %q at end of input", tok)
		}
		return fmt.Errorf("expected %q at offset %d", tok, p.pos)
	}
	return nil
}

func (p *typeParser) parseType() (TypeRef, error) {
	t, err := p.parsePrimary()
	if err != nil {
		return TypeRef{}, err
	}
	for p.peek() == '?' {
		p.pos++
		t = Optional(t)
	}
	return t, nil
}

func (p *typeParser) parsePrimary() (TypeRef, error) {
	switch p.peek() {
	case 0:
		return TypeRef{}, fmt.Errorf("unexpected end of input")
	case '(':
		p.pos++
		elems, err := p.parseList(")")
		if err != nil {
			return TypeRef{}, err
		}
		if p.consume("->") {
			result, err := p.parseType()
			if err != nil {
				return TypeRef{}, err
			}
			return TypeRef{Kind: TypeFunction, Elems: elems, Elem: &result}, nil
		}
		if len(elems) == 1 {
			return elems[0], nil
		}
		return TypeRef{Kind: TypeTuple, Elems: elems}, nil
	case '[':
		p.pos++
		elem, err := p.parseType()
		if err != nil {
			return TypeRef{}, err
		}
		if p.consume(":") {
			value, err := p.parseType()
			if err != nil {
				return TypeRef{}, err
			}
			if err := p.expect("]"); err != nil {
				return TypeRef{}, err
			}
			return TypeRef{Kind: TypeDictionary, Elems: []TypeRef{elem}, Elem: &value}, nil
		}
		if err := p.expect("]"); err != nil {
			return TypeRef{}, err
		}
		return TypeRef{Kind: TypeArray, Elem: &elem}, nil
	}

	name := p.parseQualifiedIdent()
	if name == "" {
		return TypeRef{}, fmt.Errorf("expected type name at offset %d", p.pos)
	}
	if next := p.peek(); name == "any" && (next == '_' || unicode.IsLetter(rune(next))) {
		proto := p.parseQualifiedIdent()
		if proto == "" {
			return TypeRef{}, fmt.Errorf("expected protocol name after \"any\"")
		}
		return TypeRef{Kind: TypeExistential, Name: proto}, nil
	}
	if p.peek() != '<' {
		return Named(name), nil
	}
	p.pos++
	args, err := p.parseList(">")
	if err != nil {
		return TypeRef{}, err
	}
	switch {
	case (name == PointerConst || name == PointerMutable) && len(args) == 1:
		return TypeRef{Kind: TypePointer, Name: name, Elem: &args[0]}, nil
	case name == "Optional" && len(args) == 1:
		return Optional(args[0]), nil
	case name == "Array" && len(args) == 1:
		return TypeRef{Kind: TypeArray, Elem: &args[0]}, nil
	}
	return TypeRef{Kind: TypeNamed, Name: name, Elems: args}, nil
}

// parseList parses a comma-separated type list up to and including close.
func (p *typeParser) parseList(close string) ([]TypeRef, error) {
	var elems []TypeRef
	if p.consume(close) {
		return elems, nil
	}
	for {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		elems = append(elems, t)
		if p.consume(",") {
			continue
		}
		if err := p.expect(close); err != nil {
			return nil, err
		}
		return elems, nil
	}
}

func (p *typeParser) parseQualifiedIdent() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if r == '_' || r == '.' || unicode.IsLetter(r) || (p.pos > start && unicode.IsDigit(r)) {
			p.pos++
			continue
		}
		break
	}
	return strings.Trim(p.src[start:p.pos], ".")
}
