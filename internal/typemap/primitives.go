package typemap

// Primitive describes one fixed row of the primitive type table.
type Primitive struct {
	Source string // source spelling, e.g. "Int"
	Target string // target spelling, e.g. "std::ptrdiff_t"

	// Bits is the exact bit width; 0 means pointer width.
	Bits int

	Signed  bool
	Float   bool
	Bool    bool
	Pointer bool // raw/opaque pointer
	Const   bool // pointer to const
}

// primitiveTable is the fixed primitive mapping. Widths are exact; the
// platform-sized rows follow the target pointer width.
var primitiveTable = []Primitive{
	{Source: "Bool", Target: "bool", Bits: 8, Bool: true},
	{Source: "Int", Target: "std::ptrdiff_t", Signed: true},
	{Source: "UInt", Target: "std::size_t"},
	{Source: "Int8", Target: "std::int8_t", Bits: 8, Signed: true},
	{Source: "Int16", Target: "std::int16_t", Bits: 16, Signed: true},
	{Source: "Int32", Target: "std::int32_t", Bits: 32, Signed: true},
	{Source: "Int64", Target: "std::int64_t", Bits: 64, Signed: true},
	{Source: "UInt8", Target: "std::uint8_t", Bits: 8},
	{Source: "UInt16", Target: "std::uint16_t", Bits: 16},
	{Source: "UInt32", Target: "std::uint32_t", Bits: 32},
	{Source: "UInt64", Target: "std::uint64_t", Bits: 64},
	{Source: "Float", Target: "float", Bits: 32, Float: true},
	{Source: "Float32", Target: "float", Bits: 32, Float: true},
	{Source: "Double", Target: "double", Bits: 64, Float: true},
	{Source: "Float64", Target: "double", Bits: 64, Float: true},
	{Source: "OpaquePointer", Target: "void *", Pointer: true},
	{Source: "UnsafeRawPointer", Target: "const void *", Pointer: true, Const: true},
	{Source: "UnsafeMutableRawPointer", Target: "void *", Pointer: true},
}

// Primitives returns the primitive table in its fixed order.
func Primitives() []Primitive {
	out := make([]Primitive, len(primitiveTable))
	copy(out, primitiveTable)
	return out
}

// IsInteger reports whether the primitive is an integer type.
func (p Primitive) IsInteger() bool {
	return !p.Float && !p.Bool && !p.Pointer
}

// Width returns the bit width given the target pointer width.
func (p Primitive) Width(pointerBits int) int {
	if p.Bits == 0 {
		return pointerBits
	}
	return p.Bits
}

// builtinConformances lists the protocols each primitive category satisfies.
func (p Primitive) builtinConformances() []string {
	switch {
	case p.Bool:
		return []string{"Equatable", "Hashable"}
	case p.Pointer:
		return []string{"Equatable", "Hashable"}
	case p.Float:
		return []string{"Equatable", "Hashable", "Comparable", "Numeric", "FloatingPoint"}
	case p.Signed:
		return []string{"Equatable", "Hashable", "Comparable", "Numeric", "BinaryInteger", "SignedInteger"}
	default:
		return []string{"Equatable", "Hashable", "Comparable", "Numeric", "BinaryInteger", "UnsignedInteger"}
	}
}
