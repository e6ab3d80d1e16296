package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/xbridge/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Module errors (E101-E104)
	ErrModuleNameEmpty = "E101" // module name is required
	ErrInvalidKind     = "E102" // unknown declaration kind
	ErrDuplicateName   = "E103" // duplicate declaration name or selector
	ErrMissingType     = "E104" // property, subscript or parameter without a type

	// Aggregate errors (E105-E110)
	ErrEnumNoCases       = "E105" // enum declares no cases
	ErrInvalidRawValue   = "E106" // raw value without raw type, or on a payload enum
	ErrMultipleVariadic  = "E107" // more than one variadic parameter
	ErrDefaultOnInOut    = "E108" // in-out parameter with a default
	ErrTopLevelSubscript = "E109" // subscript outside a type
	ErrDuplicateCase     = "E110" // duplicate enum case

	// Naming errors (E111-E115)
	ErrEmptyName        = "E111" // declaration, case or generic without a name
	ErrInvalidGeneric   = "E112" // generic parameter shadows a type or repeats
	ErrUnknownConformer = "E113" // conformance edge names no aggregate of the module
	ErrStoredOnEnum     = "E114" // stored instance property on an enum
	ErrRecursiveValue   = "E115" // fixed-layout types contain each other
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a module interface for structural problems.
// Returns all errors found (does not fail-fast).
//
// Validation rejects interfaces no source compiler would have produced.
// Representability is not checked here: unsupported types are a normal
// outcome of generation, reported as diagnostics.
func Validate(mod *ir.ModuleInterface) []ValidationError {
	var errs []ValidationError
	if mod == nil {
		return []ValidationError{{Field: "module", Message: "module is nil", Code: ErrModuleNameEmpty}}
	}

	if strings.TrimSpace(mod.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "module name is required and must be non-empty",
			Code:    ErrModuleNameEmpty,
		})
	}

	aggregates := make(map[string]bool)
	selectors := make(map[string]bool)
	for i, d := range mod.Decls {
		field := fmt.Sprintf("decls[%d]", i)
		if d.Name != "" {
			field = d.Name
		}

		if !ir.ValidDeclKinds[d.Kind] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("invalid kind %q", d.Kind),
				Code:    ErrInvalidKind,
			})
			continue
		}
		if d.Kind == ir.KindSubscript {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "subscripts are only valid as type members",
				Code:    ErrTopLevelSubscript,
			})
		}
		if d.IsAggregate() {
			aggregates[d.Name] = true
		}

		key := d.Selector()
		if d.Name != "" && selectors[key] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate declaration %q", key),
				Code:    ErrDuplicateName,
			})
		}
		selectors[key] = true

		errs = append(errs, validateDecl(field, d, nil)...)
	}

	for i, e := range mod.Conformances {
		if !aggregates[e.Type] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("conformances[%d]", i),
				Message: fmt.Sprintf("%s is not a type of module %s", e.Type, mod.Name),
				Code:    ErrUnknownConformer,
			})
		}
	}

	for _, w := range AnalyzeCycles(mod) {
		errs = append(errs, ValidationError{
			Field:   w.Path[0],
			Message: w.Message,
			Code:    ErrRecursiveValue,
		})
	}

	return errs
}

// validateDecl checks one declaration. generics holds the generic
// parameters in scope from an enclosing declaration.
func validateDecl(field string, d ir.Decl, generics map[string]bool) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(d.Name) == "" && d.Kind != ir.KindSubscript {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: "name is required",
			Code:    ErrEmptyName,
		})
	}

	scope, gErrs := validateGenerics(field, d.Generics, generics)
	errs = append(errs, gErrs...)

	switch d.Kind {
	case ir.KindProperty, ir.KindSubscript:
		if d.Result == nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s requires a type", d.Kind),
				Code:    ErrMissingType,
			})
		}
	}
	if d.Kind == ir.KindFunction || d.Kind == ir.KindSubscript {
		errs = append(errs, validateParams(field, d.Params)...)
	}

	if !d.IsAggregate() {
		return errs
	}

	for i, in := range d.Initializers {
		errs = append(errs, validateParams(fmt.Sprintf("%s.init[%d]", field, i), in.Params)...)
	}

	members := make(map[string]bool)
	for i, m := range d.Members {
		mField := fmt.Sprintf("%s.members[%d]", field, i)
		if m.Name != "" {
			mField = field + "." + m.Name
		}
		if !ir.ValidDeclKinds[m.Kind] || m.IsAggregate() {
			errs = append(errs, ValidationError{
				Field:   mField,
				Message: fmt.Sprintf("invalid member kind %q", m.Kind),
				Code:    ErrInvalidKind,
			})
			continue
		}
		key := m.Selector()
		if members[key] {
			errs = append(errs, ValidationError{
				Field:   mField,
				Message: fmt.Sprintf("duplicate member %q", key),
				Code:    ErrDuplicateName,
			})
		}
		members[key] = true

		if d.Kind == ir.KindEnum && m.Kind == ir.KindProperty && m.Stored && !m.Static {
			errs = append(errs, ValidationError{
				Field:   mField,
				Message: "enums cannot have stored instance properties",
				Code:    ErrStoredOnEnum,
			})
		}
		errs = append(errs, validateDecl(mField, m, scope)...)
	}

	if d.Kind == ir.KindEnum {
		errs = append(errs, validateCases(field, d)...)
	}
	return errs
}

func validateCases(field string, d ir.Decl) []ValidationError {
	var errs []ValidationError
	if len(d.Cases) == 0 {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: "enum must declare at least one case",
			Code:    ErrEnumNoCases,
		})
	}
	if d.RawType != nil && d.HasPayloadCases() {
		errs = append(errs, ValidationError{
			Field:   field + ".raw_type",
			Message: "enums with associated values cannot have raw values",
			Code:    ErrInvalidRawValue,
		})
	}

	seen := make(map[string]bool)
	for i, c := range d.Cases {
		cField := fmt.Sprintf("%s.cases[%d]", field, i)
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, ValidationError{
				Field:   cField,
				Message: "case name is required",
				Code:    ErrEmptyName,
			})
			continue
		}
		cField = field + "." + c.Name
		if seen[c.Name] {
			errs = append(errs, ValidationError{
				Field:   cField,
				Message: fmt.Sprintf("duplicate case %q", c.Name),
				Code:    ErrDuplicateCase,
			})
		}
		seen[c.Name] = true
		if c.RawValue != nil && d.RawType == nil {
			errs = append(errs, ValidationError{
				Field:   cField,
				Message: "raw value requires a raw type",
				Code:    ErrInvalidRawValue,
			})
		}
	}
	return errs
}

func validateParams(field string, params []ir.Param) []ValidationError {
	var errs []ValidationError
	variadic := 0
	for i, p := range params {
		pField := fmt.Sprintf("%s.params[%d]", field, i)
		if p.Type.Kind == "" {
			errs = append(errs, ValidationError{
				Field:   pField,
				Message: "parameter requires a type",
				Code:    ErrMissingType,
			})
		}
		if p.Variadic {
			variadic++
			if variadic == 2 {
				errs = append(errs, ValidationError{
					Field:   pField,
					Message: "at most one parameter may be variadic",
					Code:    ErrMultipleVariadic,
				})
			}
		}
		if p.InOut && p.Default != nil {
			errs = append(errs, ValidationError{
				Field:   pField,
				Message: "in-out parameters cannot have default values",
				Code:    ErrDefaultOnInOut,
			})
		}
	}
	return errs
}

// validateGenerics checks a generic parameter list and returns the scope
// including it.
func validateGenerics(field string, params []ir.GenericParam, outer map[string]bool) (map[string]bool, []ValidationError) {
	if len(params) == 0 {
		return outer, nil
	}
	var errs []ValidationError
	scope := make(map[string]bool, len(outer)+len(params))
	for k := range outer {
		scope[k] = true
	}
	for i, g := range params {
		gField := fmt.Sprintf("%s.generics[%d]", field, i)
		switch {
		case strings.TrimSpace(g.Name) == "":
			errs = append(errs, ValidationError{
				Field:   gField,
				Message: "generic parameter name is required",
				Code:    ErrEmptyName,
			})
			continue
		case scope[g.Name]:
			errs = append(errs, ValidationError{
				Field:   gField,
				Message: fmt.Sprintf("generic parameter %q is already in scope", g.Name),
				Code:    ErrInvalidGeneric,
			})
		}
		for _, r := range g.Requirements {
			if strings.TrimSpace(r) == "" {
				errs = append(errs, ValidationError{
					Field:   gField,
					Message: "empty protocol requirement",
					Code:    ErrInvalidGeneric,
				})
			}
		}
		scope[g.Name] = true
	}
	return scope, errs
}
