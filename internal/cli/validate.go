package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/xbridge/internal/compiler"
)

// ErrCodeCompile is reported for CUE input that does not compile.
const ErrCodeCompile = "E100"

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                       `json:"valid"`
	Modules []string                   `json:"modules,omitempty"`
	Errors  []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <input>",
		Short: "Check module interfaces without generating",
		Long: `Check module interfaces for structural errors without generating headers.

Reports duplicate names, enums without cases, misplaced raw values,
parameter-list errors, unknown conformers and value types that contain
each other.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	mods, err := loadInterfaces([]string{input})
	if err != nil {
		if line := compileErrorLine(err); line > 0 {
			return outputValidationErrors(formatter, []compiler.ValidationError{{
				Field:   "cue",
				Message: err.Error(),
				Code:    ErrCodeCompile,
				Line:    line,
			}})
		}
		return commandError(formatter, ErrCodeInput, "failed to read interfaces", err)
	}

	result := ValidationResult{Valid: true}
	for _, mod := range mods {
		formatter.VerboseLog("Validating module: %s (%d declarations)", mod.Name, len(mod.Decls))
		result.Modules = append(result.Modules, mod.Name)
		result.Errors = append(result.Errors, compiler.Validate(mod)...)
	}
	if len(result.Errors) > 0 {
		return outputValidationErrors(formatter, result.Errors)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	formatter.Pass("%d module(s) valid", len(mods))
	return nil
}

// outputValidationErrors outputs validation errors; they fail the command
// with exit code 1.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	msg := fmt.Sprintf("validation failed with %d error(s)", len(errs))
	if formatter.JSON() {
		_ = formatter.Failure(errs[0].Code, errs[0].Message, ValidationResult{Valid: false, Errors: errs})
		return NewExitError(ExitFailure, msg)
	}

	formatter.Fail("Validation failed")
	formatter.Textf("")
	for _, e := range errs {
		if e.Line > 0 {
			formatter.Textf("line %d", e.Line)
		}
		formatter.Textf("  %s: %s: %s\n", e.Code, e.Field, e.Message)
	}
	return NewExitError(ExitFailure, msg)
}
