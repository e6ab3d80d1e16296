package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a case and compares its header against
// testdata/golden/{case.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, c *Case) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), c)
	if err != nil {
		return nil, err
	}
	if result.Header == nil {
		return result, fmt.Errorf("case %s: no header: %v", c.Name, result.GenerateErr)
	}
	AssertGolden(t, c.Name, result.Header)
	return result, nil
}

// AssertGolden compares a header against testdata/golden/{name}.golden.
func AssertGolden(t *testing.T, name string, header []byte) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, header)
}

// GoldenPath returns the golden header path for a case file:
// golden/{base}.golden next to the case.
func GoldenPath(caseFile string) string {
	dir := filepath.Dir(caseFile)
	base := filepath.Base(caseFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// CompareGolden reports whether header matches the golden file. ok is
// false with a nil error when the file does not exist.
func CompareGolden(path string, header []byte) (match, ok bool, err error) {
	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to read golden file: %w", err)
	}
	return bytes.Equal(want, header), true, nil
}

// UpdateGolden writes header as the golden file, creating its directory.
func UpdateGolden(path string, header []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, header, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}
