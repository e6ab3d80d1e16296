package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/config"
	"github.com/roach88/xbridge/internal/emit"
	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Namespace    string
	Output       string
	PointerWidth int
	Database     string
	Force        bool // regenerate even when history says nothing changed
	NoHistory    bool
	Strict       bool // dropped declarations fail the command

	// IDGenerator overrides run IDs (for testing). Nil uses UUIDv7.
	IDGenerator store.IDGenerator
}

// ModuleResult is the outcome for one module.
type ModuleResult struct {
	Module        string              `json:"module"`
	Output        string              `json:"output,omitempty"` // header path, empty for stdout
	Header        string              `json:"header,omitempty"` // header text when written to stdout
	Skipped       bool                `json:"skipped,omitempty"`
	RunID         string              `json:"run_id,omitempty"`
	InterfaceHash string              `json:"interface_hash"`
	HeaderHash    string              `json:"header_hash,omitempty"`
	Diagnostics   []bridge.Diagnostic `json:"diagnostics"`
	UnusedRenames []string            `json:"unused_renames,omitempty"`
	Error         string              `json:"error,omitempty"`
	Code          string              `json:"code,omitempty"`
}

// GenerateResult is the outcome of a generate invocation.
type GenerateResult struct {
	Modules []ModuleResult `json:"modules"`
}

// generationOptions are the settings that change the emitted header. Their
// canonical hash is half of the history key.
type generationOptions struct {
	Namespace    string               `json:"namespace,omitempty"`
	PointerWidth int                  `json:"pointer_width"`
	Renames      map[string]string    `json:"renames,omitempty"`
	Conformances []ir.ConformanceEdge `json:"conformances,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <input>...",
		Short: "Generate C++ headers from module interfaces",
		Long: `Generate one C++ header per module interface.

Inputs are CUE files or directories, or JSON, YAML and .xbi interface
files. Modules are translated concurrently. Declarations that cannot cross
the boundary are left out and reported; overloads that would collide in
the header fail the module.

Every run is recorded in the history database. A module whose interface,
options and header are unchanged since its last run is skipped.

Exit codes:
  0 - Headers generated
  1 - A module failed (or, with --strict, dropped declarations)
  2 - Command error (unreadable input, invalid config, database errors)

Examples:
  xbridge generate ./interfaces/geometry.cue -o include
  xbridge generate geometry.json travel.xbi --namespace bindings
  xbridge generate ./interfaces --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "header directory (default: stdout)")
	cmd.Flags().StringVar(&opts.Namespace, "namespace", "", "target namespace (default: module name)")
	cmd.Flags().IntVar(&opts.PointerWidth, "pointer-width", 64, "target pointer width in bits (32|64)")
	cmd.Flags().StringVar(&opts.Database, "db", config.DefaultDB, "history database path")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "regenerate unchanged modules")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "do not read or record history")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when declarations are dropped")

	return cmd
}

// applyFlags lets explicitly set flags win over the configuration.
func (o *GenerateOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("namespace") {
		cfg.Namespace = o.Namespace
	}
	if flags.Changed("output") {
		cfg.Output = o.Output
	}
	if flags.Changed("pointer-width") {
		cfg.PointerWidth = o.PointerWidth
	}
	if flags.Changed("db") {
		cfg.DB = o.Database
	}
	return cfg.Validate()
}

func runGenerate(opts *GenerateOptions, inputs []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
	}
	if err := opts.applyFlags(cmd, &cfg); err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
	}

	mods, err := loadInterfaces(inputs)
	if err != nil {
		return commandError(formatter, ErrCodeInput, "failed to read interfaces", err)
	}

	var st *store.Store
	if !opts.NoHistory {
		var storeOpts []store.Option
		if opts.IDGenerator != nil {
			storeOpts = append(storeOpts, store.WithIDGenerator(opts.IDGenerator))
		}
		st, err = store.Open(cfg.DB, storeOpts...)
		if err != nil {
			return commandError(formatter, ErrCodeStore, "failed to open history database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
	}

	g := &generator{cfg: cfg, store: st, force: opts.Force, logger: logger}
	results := make([]ModuleResult, len(mods))
	headers := make([][]byte, len(mods))

	eg, ctx := errgroup.WithContext(cmdContext(cmd))
	for i, mod := range mods {
		eg.Go(func() error {
			res, header, err := g.module(ctx, mod)
			results[i], headers[i] = res, header
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		code := ErrCodeGenerate
		var he *historyError
		if errors.As(err, &he) {
			code = ErrCodeStore
		}
		return commandError(formatter, code, "generation aborted", err)
	}

	return outputGenerate(opts, formatter, cmd, cfg, GenerateResult{Modules: results}, headers)
}

// historyError marks failures of the history database, as opposed to
// rendering or writing headers.
type historyError struct {
	err error
}

func (e *historyError) Error() string { return e.err.Error() }
func (e *historyError) Unwrap() error { return e.err }

type generator struct {
	cfg    config.Config
	store  *store.Store
	force  bool
	logger *slog.Logger
}

// module runs one generation pass. A failed pass is reported in the result;
// only output and history errors abort the command.
func (g *generator) module(ctx context.Context, mod *ir.ModuleInterface) (ModuleResult, []byte, error) {
	logger := g.logger.With("module", mod.Name)
	res := ModuleResult{Module: mod.Name, Diagnostics: []bridge.Diagnostic{}}

	genOpts := generationOptions{
		Namespace:    g.cfg.Namespace,
		PointerWidth: g.cfg.PointerWidth,
		Renames:      g.cfg.Renames,
		Conformances: g.cfg.Edges(),
	}
	interfaceHash, err := ir.InterfaceHash(mod)
	if err != nil {
		return res, nil, err
	}
	optionsHash, err := ir.OptionsHash(genOpts)
	if err != nil {
		return res, nil, err
	}
	res.InterfaceHash = interfaceHash

	path := ""
	if g.cfg.Output != "" {
		path = filepath.Join(g.cfg.Output, mod.Name+".h")
		res.Output = path
	}

	if skip, last, err := g.unchanged(ctx, mod.Name, path, interfaceHash, optionsHash); err != nil {
		return res, nil, &historyError{fmt.Errorf("%s: %w", mod.Name, err)}
	} else if skip {
		logger.Info("unchanged since last run", "run", last.ID)
		res.Skipped = true
		res.RunID = last.ID
		res.HeaderHash = last.HeaderHash
		if diags, err := g.store.Diagnostics(ctx, last.ID); err == nil {
			res.Diagnostics = append(res.Diagnostics, diags...)
		}
		return res, nil, nil
	}

	out, err := bridge.Generate(ctx, mod, bridge.Options{
		Namespace:    g.cfg.Namespace,
		PointerWidth: g.cfg.PointerWidth,
		Renames:      g.cfg.Renames,
		Conformances: g.cfg.Edges(),
		Logger:       logger,
	})
	if err != nil {
		res.Error = err.Error()
		if code, ok := ir.CodeOf(err); ok {
			res.Code = string(code)
		}
		return res, nil, nil
	}
	res.Diagnostics = append(res.Diagnostics, out.Diagnostics...)
	res.UnusedRenames = out.UnusedRenames

	header, err := emit.Render(out)
	if err != nil {
		return res, nil, fmt.Errorf("%s: render: %w", mod.Name, err)
	}
	res.HeaderHash = ir.HeaderHash(header)

	if path != "" {
		if err := os.MkdirAll(g.cfg.Output, 0o755); err != nil {
			return res, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(path, header, 0o644); err != nil {
			return res, nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	if g.store != nil {
		run, err := g.store.RecordRun(ctx, store.Run{
			Module:        mod.Name,
			InterfaceHash: interfaceHash,
			OptionsHash:   optionsHash,
			HeaderHash:    res.HeaderHash,
			Output:        path,
		}, genOpts, out.Diagnostics)
		if err != nil {
			return res, nil, &historyError{fmt.Errorf("%s: %w", mod.Name, err)}
		}
		res.RunID = run.ID
	}
	return res, header, nil
}

// unchanged reports whether the last recorded run already produced the
// header at path. Headers written to stdout are always regenerated.
func (g *generator) unchanged(ctx context.Context, module, path, interfaceHash, optionsHash string) (bool, store.Run, error) {
	if g.store == nil || g.force || path == "" {
		return false, store.Run{}, nil
	}
	last, ok, err := g.store.LatestRun(ctx, module)
	if err != nil || !ok || !last.Unchanged(interfaceHash, optionsHash) || last.Output != path {
		return false, last, err
	}
	onDisk, err := os.ReadFile(path)
	if err != nil {
		return false, last, nil
	}
	return ir.HeaderHash(onDisk) == last.HeaderHash, last, nil
}

func outputGenerate(opts *GenerateOptions, formatter *OutputFormatter, cmd *cobra.Command, cfg config.Config, result GenerateResult, headers [][]byte) error {
	failed, dropped := 0, 0
	for _, m := range result.Modules {
		if m.Error != "" {
			failed++
		}
		dropped += len(m.Diagnostics)
	}

	if formatter.JSON() {
		for i := range result.Modules {
			if cfg.Output == "" && headers[i] != nil {
				result.Modules[i].Header = string(headers[i])
			}
		}
		if failed > 0 {
			_ = formatter.Failure(ErrCodeGenerate, fmt.Sprintf("%d module(s) failed", failed), result)
		} else {
			if err := formatter.Success(result); err != nil {
				return err
			}
		}
	} else {
		// headers on stdout keep the report on stderr
		report := formatter
		if cfg.Output == "" {
			report = &OutputFormatter{Format: formatter.Format, Writer: cmd.ErrOrStderr(), Verbose: formatter.Verbose}
			var buf bytes.Buffer
			for _, h := range headers {
				buf.Write(h)
			}
			if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
				return err
			}
		}
		printGenerateText(report, result)
	}

	switch {
	case failed > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d module(s) failed", failed))
	case opts.Strict && dropped > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d declaration(s) dropped", dropped))
	}
	return nil
}

func printGenerateText(f *OutputFormatter, result GenerateResult) {
	for _, m := range result.Modules {
		target := m.Output
		if target == "" {
			target = "stdout"
		}
		switch {
		case m.Error != "":
			f.Fail("%s: %s", m.Module, m.Error)
			continue
		case m.Skipped:
			f.Pass("%s unchanged (%s)", m.Module, target)
		default:
			f.Pass("%s → %s", m.Module, target)
		}
		for _, d := range m.Diagnostics {
			f.Warn("  %s dropped [%s]: %s", d.Selector, d.Code, d.Message)
		}
	}
	for _, r := range unusedEverywhere(result.Modules) {
		f.Warn("rename %s matches no declaration", r)
	}
}

// unusedEverywhere returns the renames no generated module used. Renames
// are project-wide, so one module not using a rename is expected.
func unusedEverywhere(mods []ModuleResult) []string {
	generated := 0
	count := make(map[string]int)
	var order []string
	for _, m := range mods {
		if m.Error != "" || m.Skipped {
			continue
		}
		generated++
		for _, r := range m.UnusedRenames {
			if count[r] == 0 {
				order = append(order, r)
			}
			count[r]++
		}
	}
	var out []string
	for _, r := range order {
		if count[r] == generated {
			out = append(out, r)
		}
	}
	return out
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
