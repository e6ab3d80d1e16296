package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database    string
	Limit       int
	Diagnostics bool
}

// HistoryEntry is one listed run.
type HistoryEntry struct {
	store.Run
	Dropped []bridge.Diagnostic `json:"dropped,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [module]",
		Short: "List recorded generation runs",
		Long: `List generation runs recorded in the history database, newest first.

Each run records the interface, options and header hashes, the generator
version and the declarations the pass dropped.

Examples:
  xbridge history
  xbridge history Geometry --limit 5 --diagnostics`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			module := ""
			if len(args) == 1 {
				module = args[0]
			}
			return runHistory(opts, module, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "history database path (default: from config)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of runs (0 for all)")
	cmd.Flags().BoolVarP(&opts.Diagnostics, "diagnostics", "d", false, "show dropped declarations")

	return cmd
}

func runHistory(opts *HistoryOptions, module string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmdContext(cmd)

	path := opts.Database
	if path == "" {
		cfg, err := loadConfig(opts.RootOptions)
		if err != nil {
			return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
		}
		path = cfg.DB
	}
	// reading history never creates a database
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return commandError(formatter, ErrCodeStore, fmt.Sprintf("database not found: %s", path), nil)
	}

	st, err := store.Open(path)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to open history database", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, module, opts.Limit)
	if err != nil {
		return commandError(formatter, ErrCodeStore, "failed to list runs", err)
	}

	entries := make([]HistoryEntry, len(runs))
	for i, r := range runs {
		entries[i].Run = r
		if opts.Diagnostics && r.Diagnostics > 0 {
			if entries[i].Dropped, err = st.Diagnostics(ctx, r.ID); err != nil {
				return commandError(formatter, ErrCodeStore, "failed to read diagnostics", err)
			}
		}
	}

	if formatter.JSON() {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		formatter.Textf("No runs recorded.")
		return nil
	}
	for _, e := range entries {
		out := e.Output
		if out == "" {
			out = "stdout"
		}
		formatter.Textf("%s  %-16s %s  header %s  %d dropped  (v%s)",
			e.ID, e.Module, out, short(e.HeaderHash), e.Run.Diagnostics, e.GeneratorVersion)
		for _, d := range e.Dropped {
			formatter.Textf("    %s [%s]: %s", d.Selector, d.Code, d.Message)
		}
	}
	return nil
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
