package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xbridge/internal/ir"
)

func loadCase(t *testing.T, name string) *Case {
	t.Helper()
	c, err := LoadCase(filepath.Join("testdata", "cases", name+".yaml"))
	require.NoError(t, err)
	return c
}

func TestGeometryGolden(t *testing.T) {
	result, err := RunWithGolden(t, loadCase(t, "geometry"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestCasesPass(t *testing.T) {
	for _, name := range []string{"geometry", "travel-overload", "travel-renamed", "runtime"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(context.Background(), loadCase(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestFailedGenerationFailsOtherAssertions(t *testing.T) {
	c := loadCase(t, "travel-overload")
	c.Assertions = []Assertion{{Type: AssertHeaderContains, Text: "book"}}

	result, err := Run(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "generation failed")
	assert.Nil(t, result.Header)
}

func TestAssertionFailuresAreReported(t *testing.T) {
	c := loadCase(t, "geometry")
	c.Assertions = []Assertion{
		{Type: AssertExports, Selectors: []string{"Point", "apply(_:)"}},
		{Type: AssertDropped, Selector: "maximum(_:_:)"},
		{Type: AssertDiagnosticCount, Count: 0},
		{Type: AssertHeaderContains, Text: "class Circle"},
		{Type: AssertFails, Code: string(ir.ErrAmbiguousOverload)},
		{Type: AssertInstantiate, Function: "maximum(_:_:)", Types: []string{"Bool"}},
		{Type: AssertInstantiate, Function: "maximum(_:_:)", Types: []string{"Int"}, Code: string(ir.ErrConstraintUnsatisfied)},
		{Type: AssertInstantiate, Function: "missing()"},
	}

	result, err := Run(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 8)
	assert.Contains(t, result.Errors[0], "missing apply(_:)")
	assert.Contains(t, result.Errors[1], "apply(_:) (UnrepresentableType)")
	assert.Contains(t, result.Errors[2], "1 (apply(_:) (UnrepresentableType))")
	assert.Contains(t, result.Errors[3], `"class Circle"`)
	assert.Contains(t, result.Errors[4], "success")
	assert.Contains(t, result.Errors[5], "instantiation accepted")
	assert.Contains(t, result.Errors[6], "accepted")
	assert.Contains(t, result.Errors[7], "not exported")
}

func TestRunSelectsModule(t *testing.T) {
	dir := t.TempDir()
	iface := filepath.Join(dir, "two.cue")
	require.NoError(t, os.WriteFile(iface, []byte(`package two

module: A: { global: a: { type: "Int" } }
module: B: { global: b: { type: "Int" } }
`), 0o644))

	c := &Case{Name: "two", Interface: iface, Assertions: []Assertion{{Type: AssertExports, Selectors: []string{"b"}}}}
	_, err := Run(context.Background(), c)
	require.Error(t, err, "several modules need an explicit selection")

	c.Module = "B"
	result, err := Run(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	c.Module = "C"
	_, err = Run(context.Background(), c)
	require.Error(t, err)
}

func TestRuntimeScenarioFailuresAreReported(t *testing.T) {
	c := loadCase(t, "runtime")
	c.Assertions = []Assertion{
		{Type: AssertRuntime, Scenario: ScenarioRawValue, Target: "Airport", Value: "HTX", Case: "LAX"},
		{Type: AssertRuntime, Scenario: ScenarioRawValue, Target: "Airport", Value: "SFO"},
		{Type: AssertRuntime, Scenario: ScenarioEnumCase, Target: "Shape", Case: "triangle"},
		{Type: AssertRuntime, Scenario: ScenarioCopy, Target: "Settings", Property: "retries", Value: "3"},
		{Type: AssertRuntime, Scenario: ScenarioDefaults, Target: "Airport"},
		{Type: AssertRuntime, Scenario: ScenarioDefaults, Target: "Missing"},
	}

	result, err := Run(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Contains(t, result.Errors[0], "expected LAX, got absent")
	assert.Contains(t, result.Errors[1], "expected absent, got SFO")
	assert.Contains(t, result.Errors[2], "case triangle")
	assert.Contains(t, result.Errors[3], "a value other than the default")
	assert.Contains(t, result.Errors[4], "default constructor is deleted")
	assert.Contains(t, result.Errors[5], "type Missing")
}
