package compiler

import (
	"fmt"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/xbridge/internal/ir"
)

// CompileModules compiles every module under the root's "module" field.
//
//	module: Travel: {
//		type: Airport: { kind: "enum", raw_type: "String", case: [{name: "LAX"}] }
//		function: [{name: "book", params: [{label: "from", name: "origin", type: "Airport"}]}]
//	}
func CompileModules(root cue.Value) ([]*ir.ModuleInterface, error) {
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	modsVal := root.LookupPath(cue.ParsePath("module"))
	if !modsVal.Exists() {
		return nil, nil
	}
	iter, err := modsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var mods []*ir.ModuleInterface
	for iter.Next() {
		mod, err := CompileModule(iter.Value())
		if err != nil {
			return nil, err
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

// CompileModule parses a CUE value into a ModuleInterface. The value is the
// module struct itself; its label is the module name.
//
// Declarations come out in a fixed order: types as written, then global
// properties, then functions.
func CompileModule(v cue.Value) (*ir.ModuleInterface, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	mod := &ir.ModuleInterface{}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		mod.Name = labels[len(labels)-1].String()
	}
	if name, ok, err := optString(v, "name"); err != nil {
		return nil, err
	} else if ok {
		mod.Name = name
	}
	if mod.Name == "" {
		return nil, &CompileError{Field: "module", Message: "module name is required", Pos: v.Pos()}
	}

	types, err := fields(v, "type")
	if err != nil {
		return nil, err
	}
	for _, f := range types {
		d, err := parseType(f.name, f.value)
		if err != nil {
			return nil, err
		}
		mod.Decls = append(mod.Decls, d)
	}

	vars, err := fields(v, "global")
	if err != nil {
		return nil, err
	}
	for _, f := range vars {
		d, err := parseProperty(f.name, f.value)
		if err != nil {
			return nil, err
		}
		mod.Decls = append(mod.Decls, d)
	}

	funcs, err := list(v, "function")
	if err != nil {
		return nil, err
	}
	for _, fv := range funcs {
		d, err := parseFunction(fv)
		if err != nil {
			return nil, err
		}
		mod.Decls = append(mod.Decls, d)
	}

	edges, err := list(v, "conformances")
	if err != nil {
		return nil, err
	}
	for _, ev := range edges {
		var e ir.ConformanceEdge
		if e.Type, err = reqString(ev, "type"); err != nil {
			return nil, err
		}
		if e.Protocol, err = reqString(ev, "protocol"); err != nil {
			return nil, err
		}
		mod.Conformances = append(mod.Conformances, e)
	}

	return mod, nil
}

func parseType(name string, v cue.Value) (ir.Decl, error) {
	d := ir.Decl{Name: name}
	kind, err := reqString(v, "kind")
	if err != nil {
		return d, err
	}
	d.Kind = ir.DeclKind(kind)
	if d.Kind != ir.KindStruct && d.Kind != ir.KindEnum {
		return d, &CompileError{
			Field:   "type." + name + ".kind",
			Message: fmt.Sprintf("kind must be \"struct\" or \"enum\", got %q", kind),
			Pos:     v.Pos(),
		}
	}
	if err := parseCommon(&d, v); err != nil {
		return d, err
	}
	if d.Resilient, err = optBool(v, "resilient"); err != nil {
		return d, err
	}
	if d.RawType, err = optType(v, "raw_type"); err != nil {
		return d, err
	}
	if d.Generics, err = parseGenerics(v); err != nil {
		return d, err
	}

	props, err := fields(v, "property")
	if err != nil {
		return d, err
	}
	for _, f := range props {
		p, err := parseProperty(f.name, f.value)
		if err != nil {
			return d, err
		}
		d.Members = append(d.Members, p)
	}

	inits, err := list(v, "init")
	if err != nil {
		return d, err
	}
	for _, iv := range inits {
		var in ir.Initializer
		if in.Rename, _, err = optString(iv, "rename"); err != nil {
			return d, err
		}
		if in.Failable, err = optBool(iv, "failable"); err != nil {
			return d, err
		}
		if in.Params, err = parseParams(iv); err != nil {
			return d, err
		}
		d.Initializers = append(d.Initializers, in)
	}

	subs, err := list(v, "subscript")
	if err != nil {
		return d, err
	}
	for _, sv := range subs {
		s := ir.Decl{Kind: ir.KindSubscript}
		if err := parseCommon(&s, sv); err != nil {
			return d, err
		}
		if s.Params, err = parseParams(sv); err != nil {
			return d, err
		}
		if s.Result, err = optType(sv, "type"); err != nil {
			return d, err
		}
		if s.Mutable, err = optBool(sv, "mutable"); err != nil {
			return d, err
		}
		d.Members = append(d.Members, s)
	}

	methods, err := list(v, "method")
	if err != nil {
		return d, err
	}
	for _, mv := range methods {
		m, err := parseFunction(mv)
		if err != nil {
			return d, err
		}
		d.Members = append(d.Members, m)
	}

	cases, err := list(v, "case")
	if err != nil {
		return d, err
	}
	for _, cv := range cases {
		var c ir.EnumCase
		if c.Name, err = reqString(cv, "name"); err != nil {
			return d, err
		}
		if c.Payload, err = optType(cv, "payload"); err != nil {
			return d, err
		}
		rawVal := cv.LookupPath(cue.ParsePath("raw_value"))
		if rawVal.Exists() {
			raw := ir.Named("Int")
			if d.RawType != nil {
				raw = *d.RawType
			}
			lit, err := literal(rawVal, raw)
			if err != nil {
				return d, err
			}
			c.RawValue = &lit
		}
		d.Cases = append(d.Cases, c)
	}
	return d, nil
}

func parseProperty(name string, v cue.Value) (ir.Decl, error) {
	d := ir.Decl{Kind: ir.KindProperty, Name: name}
	if err := parseCommon(&d, v); err != nil {
		return d, err
	}
	t, err := reqType(v, "type")
	if err != nil {
		return d, err
	}
	d.Result = &t
	if d.Stored, err = optBool(v, "stored"); err != nil {
		return d, err
	}
	if d.Mutable, err = optBool(v, "mutable"); err != nil {
		return d, err
	}
	if d.Static, err = optBool(v, "static"); err != nil {
		return d, err
	}
	defVal := v.LookupPath(cue.ParsePath("default"))
	if defVal.Exists() {
		lit, err := literal(defVal, t)
		if err != nil {
			return d, err
		}
		d.Default = &lit
	}
	return d, nil
}

func parseFunction(v cue.Value) (ir.Decl, error) {
	d := ir.Decl{Kind: ir.KindFunction}
	var err error
	if d.Name, err = reqString(v, "name"); err != nil {
		return d, err
	}
	if err := parseCommon(&d, v); err != nil {
		return d, err
	}
	if d.Params, err = parseParams(v); err != nil {
		return d, err
	}
	if d.Result, err = optType(v, "result"); err != nil {
		return d, err
	}
	if d.Generics, err = parseGenerics(v); err != nil {
		return d, err
	}
	if d.Mutable, err = optBool(v, "mutating"); err != nil {
		return d, err
	}
	if d.Static, err = optBool(v, "static"); err != nil {
		return d, err
	}
	return d, nil
}

func parseCommon(d *ir.Decl, v cue.Value) error {
	var err error
	if d.Rename, _, err = optString(v, "rename"); err != nil {
		return err
	}
	d.Doc, _, err = optString(v, "doc")
	return err
}

func parseParams(v cue.Value) ([]ir.Param, error) {
	vals, err := list(v, "params")
	if err != nil {
		return nil, err
	}
	var params []ir.Param
	for _, pv := range vals {
		var p ir.Param
		if p.Name, err = reqString(pv, "name"); err != nil {
			return nil, err
		}
		if p.Label, _, err = optString(pv, "label"); err != nil {
			return nil, err
		}
		if p.Type, err = reqType(pv, "type"); err != nil {
			return nil, err
		}
		if p.InOut, err = optBool(pv, "inout"); err != nil {
			return nil, err
		}
		if p.Variadic, err = optBool(pv, "variadic"); err != nil {
			return nil, err
		}
		defVal := pv.LookupPath(cue.ParsePath("default"))
		if defVal.Exists() {
			lit, err := literal(defVal, p.Type)
			if err != nil {
				return nil, err
			}
			p.Default = &lit
		}
		params = append(params, p)
	}
	return params, nil
}

func parseGenerics(v cue.Value) ([]ir.GenericParam, error) {
	vals, err := list(v, "generics")
	if err != nil {
		return nil, err
	}
	var out []ir.GenericParam
	for _, gv := range vals {
		var g ir.GenericParam
		if g.Name, err = reqString(gv, "name"); err != nil {
			return nil, err
		}
		reqs, err := list(gv, "requirements")
		if err != nil {
			return nil, err
		}
		for _, rv := range reqs {
			s, err := rv.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			g.Requirements = append(g.Requirements, s)
		}
		out = append(out, g)
	}
	return out, nil
}

// literal renders a CUE value as a source literal of type t. Numbers and
// booleans are formatted. Strings are taken verbatim, except that a String
// typed value is quoted unless it is nil, a case reference (".name") or a
// call-site literal.
func literal(v cue.Value, t ir.TypeRef) (string, error) {
	switch v.IncompleteKind() {
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return "", formatCUEError(err)
		}
		return strconv.FormatBool(b), nil
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return "", formatCUEError(err)
		}
		return strconv.FormatInt(i, 10), nil
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return "", formatCUEError(err)
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return "", formatCUEError(err)
		}
		base := t
		if base.Kind == ir.TypeOptional && base.Elem != nil {
			base = *base.Elem
		}
		if base.Kind == ir.TypeNamed && base.Name == "String" && s != "nil" && !ir.IsCallSiteLiteral(s) && (s == "" || s[0] != '.') {
			return strconv.Quote(s), nil
		}
		return s, nil
	default:
		return "", &CompileError{
			Field:   "literal",
			Message: fmt.Sprintf("unsupported literal kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

type field struct {
	name  string
	value cue.Value
}

// fields returns the fields of an optional struct, in declaration order.
func fields(v cue.Value, path string) ([]field, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return nil, nil
	}
	iter, err := sv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []field
	for iter.Next() {
		out = append(out, field{name: iter.Selector().Unquoted(), value: iter.Value()})
	}
	return out, nil
}

// list returns the elements of an optional list.
func list(v cue.Value, path string) ([]cue.Value, error) {
	lv := v.LookupPath(cue.ParsePath(path))
	if !lv.Exists() {
		return nil, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []cue.Value
	for iter.Next() {
		out = append(out, iter.Value())
	}
	return out, nil
}

func reqString(v cue.Value, path string) (string, error) {
	s, ok, err := optString(v, path)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &CompileError{Field: path, Message: path + " is required", Pos: v.Pos()}
	}
	return s, nil
}

func optString(v cue.Value, path string) (string, bool, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return "", false, nil
	}
	s, err := sv.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

func optBool(v cue.Value, path string) (bool, error) {
	bv := v.LookupPath(cue.ParsePath(path))
	if !bv.Exists() {
		return false, nil
	}
	b, err := bv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

func reqType(v cue.Value, path string) (ir.TypeRef, error) {
	t, err := optType(v, path)
	if err != nil {
		return ir.TypeRef{}, err
	}
	if t == nil {
		return ir.TypeRef{}, &CompileError{Field: path, Message: path + " is required", Pos: v.Pos()}
	}
	return *t, nil
}

func optType(v cue.Value, path string) (*ir.TypeRef, error) {
	s, ok, err := optString(v, path)
	if err != nil || !ok {
		return nil, err
	}
	t, err := ir.ParseTypeRef(s)
	if err != nil {
		return nil, &CompileError{
			Field:   path,
			Message: err.Error(),
			Pos:     v.LookupPath(cue.ParsePath(path)).Pos(),
		}
	}
	return &t, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
