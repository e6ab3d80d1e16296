package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/emit"
	"github.com/roach88/xbridge/internal/ifacefile"
	"github.com/roach88/xbridge/internal/ir"
)

// Result is the outcome of a case execution.
type Result struct {
	// Pass indicates overall success: every assertion held.
	Pass bool `json:"pass"`

	// Errors contains assertion failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Header is the emitted header; nil when generation failed.
	Header []byte `json:"-"`

	// Diagnostics are the declarations the pass left out.
	Diagnostics []bridge.Diagnostic `json:"diagnostics"`

	// GenerateErr is the generation failure, if any.
	GenerateErr error `json:"-"`

	output *bridge.Output
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Errors:      []string{},
		Diagnostics: []bridge.Diagnostic{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger passed to the generation pass.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Run executes a case and returns the result.
//
// An error is returned only when the case cannot be executed (unreadable
// interface, unknown module). A generation failure is an outcome, checked
// by the "fails" assertion; any other assertion fails with it.
func Run(ctx context.Context, c *Case, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	mod, err := selectModule(c)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	out, genErr := bridge.Generate(ctx, mod, bridge.Options{
		Namespace:    c.Options.Namespace,
		PointerWidth: c.Options.PointerWidth,
		Renames:      c.Options.Renames,
		Conformances: edges(c.Options),
		Logger:       cfg.logger.With("case", c.Name),
	})
	if genErr != nil {
		result.GenerateErr = genErr
	} else {
		header, err := emit.Render(out)
		if err != nil {
			return nil, fmt.Errorf("case %s: render: %w", c.Name, err)
		}
		result.Header = header
		result.Diagnostics = append(result.Diagnostics, out.Diagnostics...)
		result.output = out
	}

	expectFailure := false
	for _, a := range c.Assertions {
		if a.Type == AssertFails {
			expectFailure = true
		}
		if err := check(result, a); err != nil {
			result.AddError(err.Error())
		}
	}
	if genErr != nil && !expectFailure {
		result.AddError(fmt.Sprintf("generation failed: %v", genErr))
	}
	return result, nil
}

func selectModule(c *Case) (*ir.ModuleInterface, error) {
	mods, err := ifacefile.Read(c.Interface)
	if err != nil {
		return nil, fmt.Errorf("case %s: %w", c.Name, err)
	}
	if c.Module == "" {
		if len(mods) != 1 {
			return nil, fmt.Errorf("case %s: %s defines %d modules; set module", c.Name, c.Interface, len(mods))
		}
		return mods[0], nil
	}
	for _, m := range mods {
		if m.Name == c.Module {
			return m, nil
		}
	}
	return nil, fmt.Errorf("case %s: module %q not found in %s", c.Name, c.Module, c.Interface)
}

func edges(opts CaseOptions) []ir.ConformanceEdge {
	out := make([]ir.ConformanceEdge, len(opts.Conformances))
	for i, e := range opts.Conformances {
		out[i] = ir.ConformanceEdge{Type: e.Type, Protocol: e.Protocol}
	}
	return out
}
