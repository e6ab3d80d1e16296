package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/generic"
	"github.com/roach88/xbridge/internal/ir"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Module string
}

// CheckResult is the outcome of an instantiation check.
type CheckResult struct {
	Function  string `json:"function"`
	Accepted  bool   `json:"accepted"`
	Spelling  string `json:"spelling,omitempty"` // target instantiation when accepted
	Code      string `json:"code,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Signature string `json:"signature"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <input> <function> <type>...",
		Short: "Check type arguments against a generic function's constraints",
		Long: `Check whether a generic function accepts the given type arguments.

The function is named by its selector, e.g. "maximum(_:_:)". Type
arguments are source spellings, one per generic parameter. Conformances
come from the module and the project configuration, exactly as the
generated requires-clause sees them.

Exit codes:
  0 - Accepted
  1 - Rejected (ConstraintUnsatisfied)
  2 - Command error

Example:
  xbridge check geometry.cue 'maximum(_:_:)' Int`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], args[1], args[2:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Module, "module", "", "module to use when the input defines several")

	return cmd
}

func runCheck(opts *CheckOptions, input, selector string, typeArgs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
	}
	mod, err := loadModule(input, opts.Module)
	if err != nil {
		return commandError(formatter, ErrCodeInput, "failed to read interface", err)
	}

	args := make([]ir.TypeRef, len(typeArgs))
	for i, s := range typeArgs {
		if args[i], err = ir.ParseTypeRef(s); err != nil {
			return commandError(formatter, ErrCodeInput, "invalid type argument", err)
		}
	}

	out, err := bridge.Generate(cmdContext(cmd), mod, bridge.Options{
		PointerWidth: cfg.PointerWidth,
		Renames:      cfg.Renames,
		Conformances: cfg.Edges(),
	})
	if err != nil {
		return commandError(formatter, ErrCodeGenerate, "generation failed", err)
	}
	fn, ok := out.Function(selector)
	if !ok {
		return commandError(formatter, ErrCodeInput, fmt.Sprintf("no exported function %s in %s", selector, mod.Name), nil)
	}
	if len(fn.Generics) == 0 {
		return commandError(formatter, ErrCodeInput, fmt.Sprintf("%s is not generic", selector), nil)
	}

	result := CheckResult{Function: selector, Signature: fn.Signature()}
	inst, err := generic.New(out.Mapper).Instantiate(fn, args...)
	if err != nil {
		if !generic.IsConstraintUnsatisfied(err) {
			return commandError(formatter, ErrCodeInput, "invalid instantiation", err)
		}
		result.Code = string(ir.ErrConstraintUnsatisfied)
		result.Reason = err.Error()
		_ = formatter.Failure(result.Code, result.Reason, result)
		return NewExitError(ExitFailure, result.Reason)
	}

	result.Accepted = true
	result.Spelling = inst.Spelling()
	if formatter.JSON() {
		return formatter.Success(result)
	}
	formatter.Pass("%s", result.Spelling)
	formatter.VerboseLog("%s", result.Signature)
	return nil
}
