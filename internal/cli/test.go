package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/xbridge/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // case filter (glob pattern)
}

// CaseResult holds the result of a single case execution.
type CaseResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Cases  []CaseResult `json:"cases"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Total  int          `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <cases-dir>",
		Short: "Run conformance cases",
		Long: `Run conformance cases against the generator.

Each case file names a module interface, generation options and
assertions about exports, dropped declarations and the header. When
golden/<case>.golden exists next to the case, the header must match it
byte for byte.

Exit codes:
  0 - All cases passed
  1 - One or more cases failed
  2 - Command error (invalid paths, etc.)

Examples:
  xbridge test ./cases
  xbridge test ./cases --filter "travel-*"
  xbridge test ./cases --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter cases by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, casesDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(casesDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("cases directory not found: %s", casesDir))
	}
	files, err := findCaseFiles(casesDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find cases", err)
	}

	result := TestResult{Cases: make([]CaseResult, 0, len(files)), Total: len(files)}
	if len(files) == 0 {
		if formatter.JSON() {
			return formatter.Success(result)
		}
		formatter.Textf("No cases found.")
		return nil
	}

	for _, file := range files {
		cr := runCase(opts, formatter, file, cmd)
		result.Cases = append(result.Cases, cr)
		if cr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	msg := fmt.Sprintf("%d case(s) failed", result.Failed)
	if formatter.JSON() {
		if result.Failed > 0 {
			_ = formatter.Failure("E_TEST_FAILED", msg, result)
			return NewExitError(ExitFailure, msg)
		}
		return formatter.Success(result)
	}

	formatter.Textf("")
	formatter.Textf("Test Summary: %d passed, %d failed, %d total", result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, msg)
	}
	formatter.Pass("All cases passed")
	return nil
}

// findCaseFiles finds YAML case files under dir, skipping golden
// directories.
func findCaseFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// runCase executes one case, then checks or updates its golden header.
func runCase(opts *TestOptions, f *OutputFormatter, file string, cmd *cobra.Command) CaseResult {
	fail := func(name string, errs ...string) CaseResult {
		f.Fail("%s", name)
		for _, e := range errs {
			f.Textf("  %s", e)
		}
		return CaseResult{Name: name, Errors: errs}
	}

	c, err := harness.LoadCase(file)
	if err != nil {
		return fail(filepath.Base(file), fmt.Sprintf("load error: %v", err))
	}
	var runOpts []harness.Option
	if opts.Verbose {
		runOpts = append(runOpts, harness.WithLogger(newLogger(opts.RootOptions, f.GetErrWriter())))
	}
	result, err := harness.Run(cmdContext(cmd), c, runOpts...)
	if err != nil {
		return fail(c.Name, fmt.Sprintf("execution error: %v", err))
	}
	if !result.Pass {
		return fail(c.Name, result.Errors...)
	}
	if result.Header == nil {
		// expected failure; nothing to compare
		f.Pass("%s", c.Name)
		return CaseResult{Name: c.Name, Pass: true}
	}

	golden := harness.GoldenPath(file)
	if opts.Update {
		if err := harness.UpdateGolden(golden, result.Header); err != nil {
			return fail(c.Name, fmt.Sprintf("golden update error: %v", err))
		}
		f.Pass("%s (golden updated)", c.Name)
		return CaseResult{Name: c.Name, Pass: true}
	}

	match, ok, err := harness.CompareGolden(golden, result.Header)
	switch {
	case err != nil:
		return fail(c.Name, fmt.Sprintf("golden comparison error: %v", err))
	case ok && !match:
		return fail(c.Name, "header does not match golden file (run with --update to regenerate)")
	}
	f.Pass("%s", c.Name)
	return CaseResult{Name: c.Name, Pass: true}
}
