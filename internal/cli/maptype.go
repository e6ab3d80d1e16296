package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/layout"
	"github.com/roach88/xbridge/internal/typemap"
)

// MapTypeOptions holds flags for the map-type command.
type MapTypeOptions struct {
	*RootOptions
	Input        string
	Module       string
	PointerWidth int
}

// TypeMapping describes how one source type crosses the boundary.
type TypeMapping struct {
	Source       string   `json:"source"`
	Target       string   `json:"target,omitempty"`
	Category     string   `json:"category,omitempty"`
	Trivial      bool     `json:"trivial"`
	Size         int      `json:"size,omitempty"`
	Align        int      `json:"align,omitempty"`
	Conformances []string `json:"conformances,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// NewMapTypeCommand creates the map-type command.
func NewMapTypeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MapTypeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "map-type <type>",
		Short: "Show the target representation of a source type",
		Long: `Show the target spelling, storage layout and conformances of a source type.

Without --input only primitives, String, pointers and optionals of those
resolve. With --input the module's aggregates resolve too, as the
generator would emit them.

Examples:
  xbridge map-type 'UnsafeMutablePointer<Int32>'
  xbridge map-type 'Point?' --input geometry.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMapType(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "module interface providing aggregates")
	cmd.Flags().StringVar(&opts.Module, "module", "", "module to use when the input defines several")
	cmd.Flags().IntVar(&opts.PointerWidth, "pointer-width", 64, "target pointer width in bits (32|64)")

	return cmd
}

func runMapType(opts *MapTypeOptions, spelling string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	t, err := ir.ParseTypeRef(spelling)
	if err != nil {
		return commandError(formatter, ErrCodeInput, "invalid type", err)
	}

	mapper, decls, err := mapperFor(cmdContext(cmd), opts)
	if err != nil {
		return commandError(formatter, ErrCodeInput, "failed to build type table", err)
	}

	mapping := describeType(mapper, decls, t)
	if mapping.Error != "" {
		_ = formatter.Failure(string(ir.ErrUnrepresentableType), mapping.Error, mapping)
		return NewExitError(ExitFailure, mapping.Error)
	}

	if formatter.JSON() {
		return formatter.Success(mapping)
	}
	formatter.Pass("%s → %s", mapping.Source, mapping.Target)
	formatter.Textf("  category:     %s", mapping.Category)
	formatter.Textf("  passed by:    %s", passing(mapping.Trivial))
	if mapping.Size > 0 {
		formatter.Textf("  layout:       size %d, align %d", mapping.Size, mapping.Align)
	}
	if len(mapping.Conformances) > 0 {
		formatter.Textf("  conformances: %v", mapping.Conformances)
	}
	return nil
}

// mapperFor returns a bare type table, or the final table of a generation
// pass over --input.
func mapperFor(ctx context.Context, opts *MapTypeOptions) (*typemap.Mapper, []ir.Decl, error) {
	if opts.Input == "" {
		m, err := typemap.New(typemap.Options{PointerWidth: opts.PointerWidth})
		return m, nil, err
	}
	mod, err := loadModule(opts.Input, opts.Module)
	if err != nil {
		return nil, nil, err
	}
	out, err := bridge.Generate(ctx, mod, bridge.Options{PointerWidth: opts.PointerWidth})
	if err != nil {
		return nil, nil, err
	}
	return out.Mapper, mod.Decls, nil
}

func describeType(m *typemap.Mapper, decls []ir.Decl, t ir.TypeRef) TypeMapping {
	mapping := TypeMapping{Source: t.String()}
	target, err := m.Resolve(t)
	if err != nil {
		mapping.Error = err.Error()
		return mapping
	}
	mapping.Target = target.Spelling
	mapping.Category = target.Category.String()
	mapping.Trivial = target.Trivial

	if target.Category != typemap.CategoryVoid {
		if l, err := layout.NewCalculator(m, decls).Type(t); err == nil {
			mapping.Size, mapping.Align = l.Size, l.Align
		}
	}
	if t.Kind == ir.TypeNamed {
		mapping.Conformances = m.ConformancesOf(t.Name)
	}
	return mapping
}

func passing(trivial bool) string {
	if trivial {
		return "value"
	}
	return "const reference"
}
