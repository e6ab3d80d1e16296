package typemap

import (
	"fmt"
	"strings"

	"github.com/roach88/xbridge/internal/ir"
)

// Category classifies a resolved target type.
type Category int

const (
	CategoryVoid Category = iota
	CategoryPrimitive
	CategoryPointer
	CategoryOptional
	CategoryAggregate
	CategoryGeneric
)

func (c Category) String() string {
	switch c {
	case CategoryVoid:
		return "void"
	case CategoryPrimitive:
		return "primitive"
	case CategoryPointer:
		return "pointer"
	case CategoryOptional:
		return "optional"
	case CategoryAggregate:
		return "aggregate"
	case CategoryGeneric:
		return "generic"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Target is the target-language representation of a source type.
type Target struct {
	Spelling string
	Category Category

	// Trivial targets are passed by value; others by const reference.
	Trivial bool

	// Primitive is set for CategoryPrimitive.
	Primitive *Primitive
}

// AggregateInfo registers a struct or enum the mapper may refer to.
type AggregateInfo struct {
	Source    string // source name
	Target    string // target-visible name after renames
	Kind      ir.DeclKind
	Resilient bool
	Payload   bool // enum with associated values
}

// Options configures a Mapper.
type Options struct {
	// PointerWidth is the target pointer width in bits (32 or 64).
	PointerWidth int
}

// Mapper translates source TypeRefs to target representations. It is a pure
// function of its tables; registering aggregates and conformances happens
// before resolution begins.
type Mapper struct {
	pointerBits  int
	primitives   map[string]Primitive
	aggregates   map[string]AggregateInfo
	generics     map[string]bool
	conformances map[string]map[string]bool

	// identities rewrites integer typedef spellings to signedness and width.
	identities *strings.Replacer
}

// New creates a Mapper for the given options.
func New(opts Options) (*Mapper, error) {
	bits := opts.PointerWidth
	if bits == 0 {
		bits = 64
	}
	if bits != 32 && bits != 64 {
		return nil, fmt.Errorf("unsupported pointer width %d: must be 32 or 64", bits)
	}

	m := &Mapper{
		pointerBits:  bits,
		primitives:   make(map[string]Primitive, len(primitiveTable)),
		aggregates:   make(map[string]AggregateInfo),
		generics:     make(map[string]bool),
		conformances: make(map[string]map[string]bool),
	}
	for _, p := range primitiveTable {
		m.primitives[p.Source] = p
		for _, proto := range p.builtinConformances() {
			m.AddConformance(p.Source, proto)
		}
	}
	for _, proto := range []string{"Equatable", "Hashable", "Comparable"} {
		m.AddConformance("String", proto)
	}
	m.identities = integerIdentities(bits)
	return m, nil
}

// Identity returns a target spelling with every integer typedef replaced by
// its signedness and width, so spellings that name the same target type
// compare equal. At 64 bits std::ptrdiff_t and std::int64_t both become
// "int:s64".
func (m *Mapper) Identity(spelling string) string {
	return m.identities.Replace(spelling)
}

func integerIdentities(pointerBits int) *strings.Replacer {
	var pairs []string
	for _, p := range primitiveTable {
		if !p.IsInteger() {
			continue
		}
		sign := "u"
		if p.Signed {
			sign = "s"
		}
		pairs = append(pairs, p.Target, fmt.Sprintf("int:%s%d", sign, p.Width(pointerBits)))
	}
	return strings.NewReplacer(pairs...)
}

// PointerWidth returns the target pointer width in bits.
func (m *Mapper) PointerWidth() int {
	return m.pointerBits
}

// Register adds an aggregate to the table. Enumerations without associated
// values implicitly conform to Equatable and Hashable.
func (m *Mapper) Register(info AggregateInfo) {
	if info.Target == "" {
		info.Target = info.Source
	}
	m.aggregates[info.Source] = info
	if info.Kind == ir.KindEnum && !info.Payload {
		m.AddConformance(info.Source, "Equatable")
		m.AddConformance(info.Source, "Hashable")
	}
}

// Unregister removes an aggregate, making references to it unrepresentable.
func (m *Mapper) Unregister(source string) {
	delete(m.aggregates, source)
}

// Aggregate returns registered aggregate info.
func (m *Mapper) Aggregate(source string) (AggregateInfo, bool) {
	info, ok := m.aggregates[source]
	return info, ok
}

// Primitive returns the primitive row for a source name.
func (m *Mapper) Primitive(source string) (Primitive, bool) {
	p, ok := m.primitives[source]
	return p, ok
}

// WithGenerics returns a child mapper in which the named generic parameters
// resolve to themselves. The parent is not modified.
func (m *Mapper) WithGenerics(params []ir.GenericParam) *Mapper {
	if len(params) == 0 {
		return m
	}
	child := *m
	child.generics = make(map[string]bool, len(m.generics)+len(params))
	for k := range m.generics {
		child.generics[k] = true
	}
	for _, p := range params {
		child.generics[p.Name] = true
	}
	return &child
}

// Resolve maps a source TypeRef to its target representation, or fails with
// an UnrepresentableError.
func (m *Mapper) Resolve(t ir.TypeRef) (Target, error) {
	switch t.Kind {
	case ir.TypeNamed:
		return m.resolveNamed(t)
	case ir.TypePointer:
		return m.resolvePointer(t)
	case ir.TypeOptional:
		return m.resolveOptional(t)
	case ir.TypeTuple:
		if t.IsVoid() {
			return Target{Spelling: "void", Category: CategoryVoid, Trivial: true}, nil
		}
		return Target{}, unrepresentable(t, "tuples are not supported")
	case ir.TypeFunction:
		return Target{}, unrepresentable(t, "closures are not supported")
	case ir.TypeExistential:
		return Target{}, unrepresentable(t, "existentials are not supported")
	case ir.TypeArray, ir.TypeDictionary:
		return Target{}, unrepresentable(t, "collection types are not supported")
	default:
		return Target{}, unrepresentable(t, "unknown type kind %q", t.Kind)
	}
}

// ResolveResult maps an optional result type; nil means void.
func (m *Mapper) ResolveResult(t *ir.TypeRef) (Target, error) {
	if t == nil {
		return Target{Spelling: "void", Category: CategoryVoid, Trivial: true}, nil
	}
	return m.Resolve(*t)
}

func (m *Mapper) resolveNamed(t ir.TypeRef) (Target, error) {
	if len(t.Elems) > 0 {
		return Target{}, unrepresentable(t, "generic type instantiations are not supported")
	}
	if t.IsVoid() {
		return Target{Spelling: "void", Category: CategoryVoid, Trivial: true}, nil
	}
	if m.generics[t.Name] {
		return Target{Spelling: t.Name, Category: CategoryGeneric}, nil
	}
	if p, ok := m.primitives[t.Name]; ok {
		p := p
		return Target{Spelling: p.Target, Category: CategoryPrimitive, Trivial: true, Primitive: &p}, nil
	}
	if t.Name == "String" {
		return Target{Spelling: "xbridge::String", Category: CategoryAggregate}, nil
	}
	if info, ok := m.aggregates[t.Name]; ok {
		return Target{Spelling: info.Target, Category: CategoryAggregate}, nil
	}
	return Target{}, unrepresentable(t, "no mapping for type %q", t.Name)
}

func (m *Mapper) resolvePointer(t ir.TypeRef) (Target, error) {
	if t.Elem == nil {
		return Target{}, unrepresentable(t, "pointer without pointee")
	}
	pointee, err := m.Resolve(*t.Elem)
	if err != nil {
		return Target{}, unrepresentable(t, "pointee: %v", err)
	}
	if pointee.Category == CategoryPointer || (pointee.Primitive != nil && pointee.Primitive.Pointer) {
		if !t.Mutable() {
			return Target{Spelling: pointee.Spelling + " const *", Category: CategoryPointer, Trivial: true}, nil
		}
		return Target{Spelling: pointee.Spelling + " *", Category: CategoryPointer, Trivial: true}, nil
	}
	if !t.Mutable() {
		return Target{Spelling: "const " + pointee.Spelling + " *", Category: CategoryPointer, Trivial: true}, nil
	}
	return Target{Spelling: pointee.Spelling + " *", Category: CategoryPointer, Trivial: true}, nil
}

func (m *Mapper) resolveOptional(t ir.TypeRef) (Target, error) {
	if t.Elem == nil {
		return Target{}, unrepresentable(t, "optional without wrapped type")
	}
	wrapped, err := m.Resolve(*t.Elem)
	if err != nil {
		return Target{}, unrepresentable(t, "wrapped: %v", err)
	}
	switch {
	case wrapped.Category == CategoryVoid:
		return Target{}, unrepresentable(t, "optional void")
	case wrapped.Category == CategoryPointer,
		wrapped.Primitive != nil && wrapped.Primitive.Pointer:
		// optional pointers become nullable pointers
		return Target{Spelling: wrapped.Spelling, Category: CategoryPointer, Trivial: true}, nil
	case wrapped.Category == CategoryOptional:
		return Target{}, unrepresentable(t, "nested optionals are not supported")
	}
	return Target{Spelling: "xbridge::Optional<" + wrapped.Spelling + ">", Category: CategoryOptional}, nil
}
