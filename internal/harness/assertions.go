package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/generic"
	"github.com/roach88/xbridge/internal/ir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

func check(r *Result, a Assertion) error {
	if a.Type == AssertFails {
		return assertFails(r, a)
	}
	if r.output == nil {
		// generation failed; reported once by Run
		return nil
	}

	switch a.Type {
	case AssertExports:
		return assertExports(r.output, a)
	case AssertDropped:
		return assertDropped(r.Diagnostics, a)
	case AssertDiagnosticCount:
		if len(r.Diagnostics) != a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d diagnostics", a.Count),
				Actual:   fmt.Sprintf("%d (%s)", len(r.Diagnostics), selectors(r.Diagnostics)),
			}
		}
	case AssertHeaderContains:
		if !bytes.Contains(r.Header, []byte(a.Text)) {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("header containing %q", a.Text), Actual: "not found"}
		}
	case AssertInstantiate:
		return assertInstantiate(r.output, a)
	case AssertRuntime:
		return assertRuntime(r.output, a)
	}
	return nil
}

func assertFails(r *Result, a Assertion) error {
	if r.GenerateErr == nil {
		return &AssertionError{Type: a.Type, Expected: "generation to fail with " + a.Code, Actual: "success"}
	}
	code, _ := ir.CodeOf(r.GenerateErr)
	if string(code) != a.Code {
		return &AssertionError{Type: a.Type, Expected: a.Code, Actual: fmt.Sprintf("%v", r.GenerateErr)}
	}
	return nil
}

// assertExports checks each selector against emitted types, their
// members, globals and free functions. Member selectors are qualified:
// "Type.member".
func assertExports(out *bridge.Output, a Assertion) error {
	exported := exportedSelectors(out)
	var missing []string
	for _, s := range a.Selectors {
		if !exported[s] {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return &AssertionError{
			Type:     a.Type,
			Expected: "exports " + strings.Join(a.Selectors, ", "),
			Actual:   "missing " + strings.Join(missing, ", "),
		}
	}
	return nil
}

func exportedSelectors(out *bridge.Output) map[string]bool {
	exported := make(map[string]bool)
	for _, t := range out.Types {
		exported[t.Source] = true
		for _, f := range t.Factories {
			exported[f.Selector] = true
		}
		for _, p := range t.Properties {
			exported[ir.MemberSelector(t.Source, p.Source)] = true
		}
		for _, s := range t.Subscripts {
			exported[ir.MemberSelector(t.Source, s.Source.Selector())] = true
		}
		for _, m := range t.Methods {
			exported[m.Selector] = true
		}
		for _, c := range t.Cases {
			exported[ir.MemberSelector(t.Source, c.Source)] = true
		}
	}
	for _, g := range out.Globals {
		exported[g.Source] = true
	}
	for _, f := range out.Functions {
		exported[f.Selector] = true
	}
	return exported
}

func assertDropped(diags []bridge.Diagnostic, a Assertion) error {
	for _, d := range diags {
		if d.Selector == a.Selector && (a.Code == "" || string(d.Code) == a.Code) {
			return nil
		}
	}
	expected := a.Selector
	if a.Code != "" {
		expected += " (" + a.Code + ")"
	}
	return &AssertionError{Type: a.Type, Expected: "dropped " + expected, Actual: selectors(diags)}
}

func assertInstantiate(out *bridge.Output, a Assertion) error {
	fn, ok := out.Function(a.Function)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: "function " + a.Function, Actual: "not exported"}
	}
	args := make([]ir.TypeRef, len(a.Types))
	for i, s := range a.Types {
		t, err := ir.ParseTypeRef(s)
		if err != nil {
			return &AssertionError{Type: a.Type, Expected: "valid type argument", Actual: err.Error()}
		}
		args[i] = t
	}

	_, err := generic.New(out.Mapper).Instantiate(fn, args...)
	switch {
	case a.Code == "" && err != nil:
		return &AssertionError{Type: a.Type, Expected: "instantiation accepted", Actual: err.Error()}
	case a.Code != "" && err == nil:
		return &AssertionError{Type: a.Type, Expected: "instantiation rejected with " + a.Code, Actual: "accepted"}
	case a.Code != "":
		if code, _ := ir.CodeOf(err); string(code) != a.Code {
			return &AssertionError{Type: a.Type, Expected: a.Code, Actual: err.Error()}
		}
	}
	return nil
}

func selectors(diags []bridge.Diagnostic) string {
	if len(diags) == 0 {
		return "no diagnostics"
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = fmt.Sprintf("%s (%s)", d.Selector, d.Code)
	}
	return strings.Join(parts, ", ")
}
