package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/xbridge/internal/ifacefile"
	"github.com/roach88/xbridge/internal/ir"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
	Module string
	To     string // encoding for stdout
}

// ExportResult describes an exported interface.
type ExportResult struct {
	Module        string `json:"module"`
	Output        string `json:"output"`
	Format        string `json:"format"`
	InterfaceHash string `json:"interface_hash"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <input>",
		Short: "Convert a module interface between formats",
		Long: `Convert a module interface to JSON, YAML or the binary .xbi format.

The output format follows the -o extension. Without -o the interface is
written to stdout in the --to encoding. The interface hash is the same in
every format.

Examples:
  xbridge export geometry.cue -o geometry.xbi
  xbridge export travel.cue --module Travel --to yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (.json, .yaml, .yml or .xbi)")
	cmd.Flags().StringVar(&opts.Module, "module", "", "module to export when the input defines several")
	cmd.Flags().StringVar(&opts.To, "to", "json", "stdout encoding (json|yaml)")

	return cmd
}

func runExport(opts *ExportOptions, input string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	mod, err := loadModule(input, opts.Module)
	if err != nil {
		return commandError(formatter, ErrCodeInput, "failed to read interface", err)
	}
	hash, err := ir.InterfaceHash(mod)
	if err != nil {
		return commandError(formatter, ErrCodeInput, "failed to hash interface", err)
	}

	if opts.Output == "" {
		format := ifacefile.Format(opts.To)
		if format != ifacefile.FormatJSON && format != ifacefile.FormatYAML {
			return commandError(formatter, ErrCodeInput, fmt.Sprintf("invalid --to %q: must be json or yaml", opts.To), nil)
		}
		var buf bytes.Buffer
		if err := ifacefile.Encode(&buf, format, mod); err != nil {
			return commandError(formatter, ErrCodeInput, "failed to encode interface", err)
		}
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}

	format, err := ifacefile.FormatOf(opts.Output)
	if err != nil || format == ifacefile.FormatCUE {
		return commandError(formatter, ErrCodeInput, "unsupported output format", fmt.Errorf("%s: use .json, .yaml, .yml or .xbi", opts.Output))
	}
	if err := ifacefile.Write(opts.Output, mod); err != nil {
		return commandError(formatter, ErrCodeInput, "failed to write interface", err)
	}

	result := ExportResult{Module: mod.Name, Output: opts.Output, Format: string(format), InterfaceHash: hash}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	formatter.Pass("%s → %s (%s)", mod.Name, opts.Output, format)
	formatter.VerboseLog("interface hash %s", hash)
	return nil
}
