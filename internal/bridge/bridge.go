package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"

	"github.com/roach88/xbridge/internal/aggregate"
	"github.com/roach88/xbridge/internal/generic"
	"github.com/roach88/xbridge/internal/ir"
	"github.com/roach88/xbridge/internal/layout"
	"github.com/roach88/xbridge/internal/signature"
	"github.com/roach88/xbridge/internal/typemap"
)

// Options configures a generation pass.
type Options struct {
	// Namespace overrides the emitted namespace; defaults to the module name.
	Namespace string

	// PointerWidth is the target pointer width in bits; defaults to 64.
	PointerWidth int

	// Renames maps declaration selectors to target names.
	Renames map[string]string

	// Conformances are added to the module's own conformance edges.
	Conformances []ir.ConformanceEdge

	Logger *slog.Logger
}

// Diagnostic reports a declaration left out of the output.
type Diagnostic struct {
	Code     ir.ErrorCode `json:"code"`
	Selector string       `json:"selector"`
	Message  string       `json:"message"`
}

// Output is the translated module, ready to be rendered.
type Output struct {
	Module        string
	Namespace     string
	PointerWidth  int
	InterfaceHash string

	Types     []*aggregate.Type
	Globals   []aggregate.Property
	Functions []*signature.Callable

	// Protocols are the protocol tags the header refers to.
	Protocols    []string
	Conformances []ir.ConformanceEdge

	Diagnostics   []Diagnostic
	UnusedRenames []string

	// Mapper holds the final type table: dropped aggregates are unregistered.
	Mapper *typemap.Mapper
}

// Type returns the generated type for a source aggregate name.
func (o *Output) Type(source string) (*aggregate.Type, bool) {
	for _, t := range o.Types {
		if t.Source == source {
			return t, true
		}
	}
	return nil, false
}

// Function returns a translated free function by source selector.
func (o *Output) Function(selector string) (*signature.Callable, bool) {
	for _, c := range o.Functions {
		if c.Selector == selector {
			return c, true
		}
	}
	return nil, false
}

// Generate translates a module interface.
func Generate(ctx context.Context, mod *ir.ModuleInterface, opts Options) (*Output, error) {
	if mod == nil || mod.Name == "" {
		return nil, errors.New("generate: module interface has no name")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("module", mod.Name)

	hash, err := ir.InterfaceHash(mod)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", mod.Name, err)
	}
	m, err := typemap.New(typemap.Options{PointerWidth: opts.PointerWidth})
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", mod.Name, err)
	}

	renamed, unused := applyRenames(mod, opts.Renames)
	for _, selector := range unused {
		logger.Warn("rename matches no declaration", "selector", selector)
	}

	ns := opts.Namespace
	if ns == "" {
		ns = mod.Name
	}
	g := &pass{
		logger: logger,
		mapper: m,
		out: &Output{
			Module:        mod.Name,
			Namespace:     ns,
			PointerWidth:  m.PointerWidth(),
			InterfaceHash: hash,
			UnusedRenames: unused,
			Mapper:        m,
		},
	}
	logger.Info("generation started", "decls", len(renamed.Decls), "namespace", ns)

	var aggregates []ir.Decl
	for _, d := range renamed.Decls {
		if d.IsAggregate() {
			m.Register(typemap.AggregateInfo{
				Source:    d.Name,
				Target:    d.TargetName(),
				Kind:      d.Kind,
				Resilient: d.Resilient,
				Payload:   d.HasPayloadCases(),
			})
			aggregates = append(aggregates, d)
		}
	}
	m.AddEdges(renamed.Conformances)
	m.AddEdges(opts.Conformances)

	if err := g.types(ctx, aggregates); err != nil {
		return nil, err
	}
	if err := g.freeDecls(ctx, renamed.Decls); err != nil {
		return nil, err
	}
	g.finish()

	logger.Info("generation finished",
		"types", len(g.out.Types),
		"functions", len(g.out.Functions),
		"dropped", len(g.out.Diagnostics))
	return g.out, nil
}

type pass struct {
	logger *slog.Logger
	mapper *typemap.Mapper
	out    *Output
}

// types builds every aggregate. Dropping one type can make others that
// mention it unrepresentable, so building restarts until no type drops.
func (g *pass) types(ctx context.Context, decls []ir.Decl) error {
	remaining := decls
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		b := aggregate.New(g.mapper, layout.NewCalculator(g.mapper, remaining))

		var built []*aggregate.Type
		dropped := -1
		for i, d := range remaining {
			t, err := b.Build(d)
			if typemap.IsUnrepresentable(err) {
				g.drop(d.Name, err)
				g.mapper.Unregister(d.Name)
				dropped = i
				break
			}
			if err != nil {
				return fmt.Errorf("generate %s: %w", g.out.Module, err)
			}
			built = append(built, t)
		}
		if dropped < 0 {
			g.out.Types = built
			break
		}
		remaining = append(remaining[:dropped:dropped], remaining[dropped+1:]...)
	}

	emitter := generic.New(g.mapper)
	for _, t := range g.out.Types {
		for _, drop := range t.Dropped {
			g.drop(drop.Selector, drop.Err)
		}
		for _, c := range t.Methods {
			emitter.Constrain(c)
		}
	}
	return nil
}

// freeDecls translates top-level functions and properties in declaration
// order. All of them share the namespace overload set.
func (g *pass) freeDecls(ctx context.Context, decls []ir.Decl) error {
	tr := signature.New(g.mapper)
	emitter := generic.New(g.mapper)
	b := aggregate.New(g.mapper, layout.NewCalculator(g.mapper, nil))
	set := signature.NewOverloadSet(g.out.Namespace)

	for _, d := range decls {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch d.Kind {
		case ir.KindStruct, ir.KindEnum:
			continue
		case ir.KindFunction:
			c, err := tr.Function(d)
			if typemap.IsUnrepresentable(err) {
				g.drop(d.Selector(), err)
				continue
			}
			if err != nil {
				return fmt.Errorf("generate %s: %w", g.out.Module, err)
			}
			emitter.Constrain(c)
			if err := set.Add(c); err != nil {
				return fmt.Errorf("generate %s: %w", g.out.Module, err)
			}
			g.out.Functions = append(g.out.Functions, c)
		case ir.KindProperty:
			p, err := b.Global(d)
			if typemap.IsUnrepresentable(err) {
				g.drop(d.Selector(), err)
				continue
			}
			if err != nil {
				return fmt.Errorf("generate %s: %w", g.out.Module, err)
			}
			for _, c := range []*signature.Callable{p.Getter, p.Setter, p.Modify} {
				if c == nil {
					continue
				}
				if err := set.Add(c); err != nil {
					return fmt.Errorf("generate %s: %w", g.out.Module, err)
				}
			}
			g.out.Globals = append(g.out.Globals, p)
		default:
			g.diagnose(ir.ErrInvalidDecl, d.Selector(), fmt.Sprintf("%s declarations are only supported as type members", d.Kind))
		}
	}
	return nil
}

// finish collects the protocol tags and conformance specializations.
func (g *pass) finish() {
	callables := slices.Clone(g.out.Functions)
	for _, t := range g.out.Types {
		callables = append(callables, t.Methods...)
	}
	protocols := make(map[string]bool)
	for _, p := range generic.Protocols(callables) {
		protocols[p] = true
	}
	g.out.Conformances = g.mapper.Edges()
	for _, e := range g.out.Conformances {
		protocols[e.Protocol] = true
	}
	for p := range protocols {
		g.out.Protocols = append(g.out.Protocols, p)
	}
	sort.Strings(g.out.Protocols)
}

func (g *pass) drop(selector string, err error) {
	g.diagnose(codeOf(err), selector, err.Error())
}

func (g *pass) diagnose(code ir.ErrorCode, selector, message string) {
	g.logger.Warn("declaration dropped", "decl", selector, "code", code, "reason", message)
	g.out.Diagnostics = append(g.out.Diagnostics, Diagnostic{Code: code, Selector: selector, Message: message})
}

func codeOf(err error) ir.ErrorCode {
	if code, ok := ir.CodeOf(err); ok {
		return code
	}
	return ir.ErrInvalidDecl
}
