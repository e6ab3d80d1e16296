package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/xbridge/internal/aggregate"
	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/bridgert"
	"github.com/roach88/xbridge/internal/ir"
)

// Runtime scenarios, run against the runtime model of the generated
// interface.
const (
	ScenarioRawValue = "raw_value" // Target from Value is Case, or absent when Case is empty
	ScenarioEnumCase = "enum_case" // Target.Case(Value) has exactly one true predicate and returns Value
	ScenarioCopy     = "copy"      // setting Property to Value on a copy leaves the original unchanged
	ScenarioDefaults = "defaults"  // the default constructor yields every declared default
)

var scenarios = []string{ScenarioRawValue, ScenarioEnumCase, ScenarioCopy, ScenarioDefaults}

// assertRuntime runs one scenario. Fatal runtime errors fail the assertion.
func assertRuntime(out *bridge.Output, a Assertion) (err error) {
	t, ok := out.Type(a.Target)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: "type " + a.Target, Actual: "not exported"}
	}
	rt := bridgert.New(out)
	s := &scenario{a: a, t: t, rt: rt}

	if fe := bridgert.Trap(func() { err = s.run() }); fe != nil {
		return s.fail("no fatal error", fe.Error())
	}
	return err
}

type scenario struct {
	a  Assertion
	t  *aggregate.Type
	rt *bridgert.Runtime
}

func (s *scenario) fail(expected, actual string) error {
	return &AssertionError{Type: s.a.Type + " " + s.a.Scenario, Expected: expected, Actual: actual}
}

func (s *scenario) run() error {
	switch s.a.Scenario {
	case ScenarioRawValue:
		return s.rawValue()
	case ScenarioEnumCase:
		return s.enumCase()
	case ScenarioCopy:
		return s.copy()
	case ScenarioDefaults:
		return s.defaults()
	}
	return s.fail("known scenario", s.a.Scenario)
}

func (s *scenario) rawValue() error {
	if s.t.RawSource == nil {
		return s.fail(s.t.Source+" with raw values", "none")
	}
	raw, err := s.literal(*s.t.RawSource, s.a.Value)
	if err != nil {
		return s.fail("valid raw value", err.Error())
	}
	got, err := s.rt.FromRawValue(s.t.Source, raw)
	if err != nil {
		return s.fail("raw value lookup", err.Error())
	}
	switch {
	case s.a.Case == "" && got.IsSome():
		return s.fail("absent", s.rt.ActiveCase(got.Get()))
	case s.a.Case == "":
		return nil
	case !got.IsSome():
		return s.fail(s.a.Case, "absent")
	}
	want, err := s.rt.Case(s.t.Source, s.a.Case)
	if err != nil {
		return s.fail("case "+s.a.Case, err.Error())
	}
	if !bridgert.Equal(got.Get(), want) {
		return s.fail(s.a.Case, s.rt.ActiveCase(got.Get()))
	}
	return nil
}

func (s *scenario) enumCase() error {
	c, ok := s.t.Case(s.a.Case)
	if !ok {
		return s.fail("case "+s.a.Case, "not exported")
	}
	var payload []any
	if c.Payload != nil {
		v, err := s.literal(*c.Payload, s.a.Value)
		if err != nil {
			return s.fail("valid associated value", err.Error())
		}
		payload = append(payload, v)
	}
	v, err := s.rt.Case(s.t.Source, c.Source, payload...)
	if err != nil {
		return s.fail("case value", err.Error())
	}

	var active []string
	for _, other := range s.t.Cases {
		if s.rt.IsCase(v, other.Source) {
			active = append(active, other.Predicate)
		}
	}
	if len(active) != 1 || active[0] != c.Predicate {
		return s.fail("only "+c.Predicate, fmt.Sprintf("%v", active))
	}
	if c.Payload != nil {
		if got := s.rt.CaseValue(v, c.Source); !bridgert.EqualValues(got, payload[0]) {
			return s.fail(fmt.Sprintf("%s() == %v", c.Accessor, payload[0]), fmt.Sprintf("%v", got))
		}
	}
	return nil
}

func (s *scenario) copy() error {
	p, ok := s.t.Property(s.a.Property)
	if !ok || !p.Stored {
		return s.fail("stored property "+s.a.Property, "not exported")
	}
	x, err := s.literal(p.Type, s.a.Value)
	if err != nil {
		return s.fail("valid value", err.Error())
	}
	orig, err := s.rt.Default(s.t.Source)
	if err != nil {
		return s.fail("default value", err.Error())
	}
	before, err := s.rt.Get(orig, p.Source)
	if err != nil {
		return s.fail("readable property", err.Error())
	}
	if bridgert.EqualValues(before, x) {
		return s.fail("a value other than the default", fmt.Sprintf("%v", x))
	}

	cp := s.rt.Copy(orig)
	if !bridgert.Equal(orig, cp) {
		return s.fail("copy equal to original", "different")
	}
	if err := s.rt.Set(cp, p.Source, x); err != nil {
		return s.fail("settable property", err.Error())
	}
	after, _ := s.rt.Get(orig, p.Source)
	if !bridgert.EqualValues(before, after) {
		return s.fail(fmt.Sprintf("original %s == %v", p.Source, before), fmt.Sprintf("%v", after))
	}
	if got, _ := s.rt.Get(cp, p.Source); !bridgert.EqualValues(got, x) {
		return s.fail(fmt.Sprintf("copy %s == %v", p.Source, x), fmt.Sprintf("%v", got))
	}
	return nil
}

func (s *scenario) defaults() error {
	v, err := s.rt.Default(s.t.Source)
	if err != nil {
		return s.fail("default value", err.Error())
	}
	for _, p := range s.t.Properties {
		if !p.Stored || p.Default == nil {
			continue
		}
		want, err := s.rt.Literal(p.Type, *p.Default)
		if err != nil {
			return s.fail("valid default for "+p.Source, err.Error())
		}
		got, err := s.rt.Get(v, p.Source)
		if err != nil {
			return s.fail("readable "+p.Source, err.Error())
		}
		if !bridgert.EqualValues(got, want) {
			return s.fail(fmt.Sprintf("%s == %s", p.Source, *p.Default), fmt.Sprintf("%v", got))
		}
	}
	return nil
}

// literal evaluates a case file literal. String values may be written
// without quotes.
func (s *scenario) literal(t ir.TypeRef, lit string) (any, error) {
	base := t
	if base.Kind == ir.TypeOptional && base.Elem != nil {
		base = *base.Elem
	}
	if base.Kind == ir.TypeNamed && base.Name == "String" && lit != "nil" && !strings.HasPrefix(lit, `"`) {
		lit = fmt.Sprintf("%q", lit)
	}
	return s.rt.Literal(t, lit)
}
