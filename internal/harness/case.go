package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/xbridge/internal/config"
)

// Case defines a conformance case.
type Case struct {
	// Name uniquely identifies this case; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this case validates.
	Description string `yaml:"description"`

	// Interface is the module interface file. Relative paths are resolved
	// against the case file's directory.
	Interface string `yaml:"interface"`

	// Module selects a module when the interface file defines several.
	Module string `yaml:"module,omitempty"`

	// Options are the generation options for this case.
	Options CaseOptions `yaml:"options,omitempty"`

	// Assertions validate the generation outcome.
	// Supported types: exports, dropped, diagnostic_count, header_contains,
	// fails, instantiate, runtime.
	Assertions []Assertion `yaml:"assertions"`
}

// CaseOptions mirror the project configuration keys that affect output.
type CaseOptions struct {
	Namespace    string               `yaml:"namespace,omitempty"`
	PointerWidth int                  `yaml:"pointer_width,omitempty"`
	Renames      map[string]string    `yaml:"renames,omitempty"`
	Conformances []config.Conformance `yaml:"conformances,omitempty"`
}

// Assertion validates one aspect of a generation outcome.
type Assertion struct {
	// Type specifies the assertion type:
	// - "exports": every selector is emitted
	// - "dropped": a diagnostic names the selector (and code, if given)
	// - "diagnostic_count": exactly Count diagnostics
	// - "header_contains": the header contains Text
	// - "fails": generation fails with Code
	// - "instantiate": Function accepts Types, or fails with Code
	// - "runtime": Scenario holds for Target in the runtime model
	Type string `yaml:"type"`

	// Selectors are the expected exports (used by exports).
	Selectors []string `yaml:"selectors,omitempty"`

	// Selector names a dropped declaration (used by dropped).
	Selector string `yaml:"selector,omitempty"`

	// Code is an error code (used by dropped, fails, instantiate).
	Code string `yaml:"code,omitempty"`

	// Count is the expected number of diagnostics (used by diagnostic_count).
	Count int `yaml:"count,omitempty"`

	// Text is the expected header fragment (used by header_contains).
	Text string `yaml:"text,omitempty"`

	// Function is a free function selector (used by instantiate).
	Function string `yaml:"function,omitempty"`

	// Types are the type arguments, in source spelling (used by instantiate).
	Types []string `yaml:"types,omitempty"`

	// Scenario is raw_value, enum_case, copy or defaults (used by runtime).
	Scenario string `yaml:"scenario,omitempty"`

	// Target is the source type the scenario runs on (used by runtime).
	Target string `yaml:"target,omitempty"`

	// Case is an enum case name (used by raw_value and enum_case).
	Case string `yaml:"case,omitempty"`

	// Property is a stored property name (used by copy).
	Property string `yaml:"property,omitempty"`

	// Value is a source literal: a raw value, associated value or new
	// property value. String values need no quotes.
	Value string `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertExports         = "exports"
	AssertDropped         = "dropped"
	AssertDiagnosticCount = "diagnostic_count"
	AssertHeaderContains  = "header_contains"
	AssertFails           = "fails"
	AssertInstantiate     = "instantiate"
	AssertRuntime         = "runtime"
)

// LoadCase reads and parses a case YAML file, resolving the interface path
// relative to the case file. Unknown fields (typos) and missing required
// fields are errors.
func LoadCase(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}

	var c Case
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if c.Interface != "" && !filepath.IsAbs(c.Interface) {
		c.Interface = filepath.Join(filepath.Dir(path), c.Interface)
	}

	if err := validateCase(&c); err != nil {
		return nil, fmt.Errorf("invalid case: %w", err)
	}
	return &c, nil
}

// validateCase checks that required fields are present and valid.
func validateCase(c *Case) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Description == "" {
		return fmt.Errorf("description is required")
	}
	if c.Interface == "" {
		return fmt.Errorf("interface is required")
	}
	if _, err := os.Stat(c.Interface); os.IsNotExist(err) {
		return fmt.Errorf("interface file not found: %s", c.Interface)
	}
	if len(c.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range c.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertExports:
		if len(a.Selectors) == 0 {
			return fmt.Errorf("assertions[%d]: selectors list is required for exports", index)
		}
	case AssertDropped:
		if a.Selector == "" {
			return fmt.Errorf("assertions[%d]: selector is required for dropped", index)
		}
	case AssertDiagnosticCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for diagnostic_count", index)
		}
	case AssertHeaderContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for header_contains", index)
		}
	case AssertFails:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for fails", index)
		}
	case AssertInstantiate:
		if a.Function == "" {
			return fmt.Errorf("assertions[%d]: function is required for instantiate", index)
		}
	case AssertRuntime:
		return validateScenario(index, a)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validateScenario(index int, a *Assertion) error {
	if a.Target == "" {
		return fmt.Errorf("assertions[%d]: target is required for runtime", index)
	}
	switch a.Scenario {
	case ScenarioRawValue:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for raw_value", index)
		}
	case ScenarioEnumCase:
		if a.Case == "" {
			return fmt.Errorf("assertions[%d]: case is required for enum_case", index)
		}
	case ScenarioCopy:
		if a.Property == "" || a.Value == "" {
			return fmt.Errorf("assertions[%d]: property and value are required for copy", index)
		}
	case ScenarioDefaults:
	default:
		return fmt.Errorf("assertions[%d]: scenario must be one of %v, got %q", index, scenarios, a.Scenario)
	}
	return nil
}
