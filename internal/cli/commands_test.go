package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xbridge/internal/ifacefile"
)

func TestValidateValidInterface(t *testing.T) {
	input := writeFixture(t, "shapes.cue", shapesCUE)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), input)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 1 module(s) valid")
}

func TestValidateReportsErrors(t *testing.T) {
	input := writeFixture(t, "broken.cue", invalidCUE)

	out, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), input)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E105")

	out, _, err = execute(NewValidateCommand(&RootOptions{Format: "json"}), input)
	require.Error(t, err)
	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.NotEmpty(t, resp.Data.Errors)
	assert.Equal(t, "E105", resp.Error.Code)
}

func TestValidateMissingInput(t *testing.T) {
	_, _, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/m.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExportRoundTrip(t *testing.T) {
	input := writeFixture(t, "shapes.cue", shapesCUE)
	dir := t.TempDir()

	for _, name := range []string{"shapes.xbi", "shapes.json", "shapes.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			out, _, err := execute(NewExportCommand(&RootOptions{Format: "text"}), input, "-o", path)
			require.NoError(t, err)
			assert.Contains(t, out, "Shapes → "+path)

			mods, err := ifacefile.Read(path)
			require.NoError(t, err)
			require.Len(t, mods, 1)
			assert.Equal(t, "Shapes", mods[0].Name)
			assert.Len(t, mods[0].Decls, 3)
		})
	}
}

func TestExportHashIsFormatIndependent(t *testing.T) {
	input := writeFixture(t, "shapes.cue", shapesCUE)
	xbi := filepath.Join(t.TempDir(), "shapes.xbi")

	out, _, err := execute(NewExportCommand(&RootOptions{Format: "json"}), input, "-o", xbi)
	require.NoError(t, err)
	var fromCUE struct {
		Data ExportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &fromCUE))
	assert.Equal(t, "xbi", fromCUE.Data.Format)

	yml := filepath.Join(t.TempDir(), "shapes.yml")
	out, _, err = execute(NewExportCommand(&RootOptions{Format: "json"}), xbi, "-o", yml)
	require.NoError(t, err)
	var fromXBI struct {
		Data ExportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &fromXBI))
	assert.Equal(t, fromCUE.Data.InterfaceHash, fromXBI.Data.InterfaceHash)
}

func TestExportToStdout(t *testing.T) {
	input := writeFixture(t, "shapes.cue", shapesCUE)

	out, _, err := execute(NewExportCommand(&RootOptions{Format: "text"}), input, "--to", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: Shapes")

	_, _, err = execute(NewExportCommand(&RootOptions{Format: "text"}), input, "--to", "xbi")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = execute(NewExportCommand(&RootOptions{Format: "text"}), input, "-o", filepath.Join(t.TempDir(), "x.cue"))
	require.Error(t, err)
}

func TestMapTypePrimitive(t *testing.T) {
	out, _, err := execute(NewMapTypeCommand(&RootOptions{Format: "text"}), "UnsafeMutablePointer<Int32>")
	require.NoError(t, err)
	assert.Contains(t, out, "UnsafeMutablePointer<Int32> → std::int32_t *")
	assert.Contains(t, out, "size 8, align 8")

	out, _, err = execute(NewMapTypeCommand(&RootOptions{Format: "text"}), "Int", "--pointer-width", "32")
	require.NoError(t, err)
	assert.Contains(t, out, "Int → std::ptrdiff_t")
	assert.Contains(t, out, "size 4, align 4")
	assert.Contains(t, out, "Comparable")
}

func TestMapTypeWithModule(t *testing.T) {
	input := writeFixture(t, "shapes.cue", shapesCUE)

	out, _, err := execute(NewMapTypeCommand(&RootOptions{Format: "json"}), "Point?", "--input", input)
	require.NoError(t, err)
	var resp struct {
		Data TypeMapping `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "xbridge::Optional<Point>", resp.Data.Target)
	assert.Equal(t, "optional", resp.Data.Category)
	assert.Equal(t, 24, resp.Data.Size)
	assert.Equal(t, 8, resp.Data.Align)
}

func TestMapTypeUnrepresentable(t *testing.T) {
	out, _, err := execute(NewMapTypeCommand(&RootOptions{Format: "text"}), "(Int) -> Int")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "closures are not supported")

	_, _, err = execute(NewMapTypeCommand(&RootOptions{Format: "text"}), "Point")
	require.Error(t, err, "aggregates need --input")

	_, _, err = execute(NewMapTypeCommand(&RootOptions{Format: "text"}), "Array<")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCheckInstantiation(t *testing.T) {
	input := writeFixture(t, "shapes.cue", shapesCUE)

	out, _, err := execute(NewCheckCommand(&RootOptions{Format: "text"}), input, "maximum(_:_:)", "Double")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ maximum<double>")

	out, _, err = execute(NewCheckCommand(&RootOptions{Format: "text"}), input, "maximum(_:_:)", "Point")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Comparable")
}

func TestCheckUsesConfiguredConformances(t *testing.T) {
	input := writeFixture(t, "shapes.cue", shapesCUE)
	cfgPath := writeFixture(t, "xbridge.toml", "[[conformances]]\ntype = \"Point\"\nprotocol = \"Comparable\"\n")

	out, _, err := execute(NewCheckCommand(&RootOptions{Format: "json", Config: cfgPath}), input, "maximum(_:_:)", "Point")
	require.NoError(t, err)
	var resp struct {
		Data CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Accepted)
	assert.Equal(t, "maximum<Point>", resp.Data.Spelling)
}

func TestCheckCommandErrors(t *testing.T) {
	input := writeFixture(t, "shapes.cue", shapesCUE)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown function", []string{input, "minimum(_:_:)", "Int"}},
		{"dropped function", []string{input, "apply(_:)", "Int"}},
		{"arity", []string{input, "maximum(_:_:)", "Int", "Int"}},
		{"bad type", []string{input, "maximum(_:_:)", "[Int"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(NewCheckCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestHistory(t *testing.T) {
	input := writeFixture(t, "shapes.cue", shapesCUE)
	dir := t.TempDir()
	db := filepath.Join(dir, "history.db")

	_, _, err := generate("text", input, "-o", dir, "--db", db)
	require.NoError(t, err)

	out, _, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "Shapes", "--db", db, "-d")
	require.NoError(t, err)
	assert.Contains(t, out, "Shapes")
	assert.Contains(t, out, "1 dropped")
	assert.Contains(t, out, "apply(_:) [UnrepresentableType]")

	out, _, err = execute(NewHistoryCommand(&RootOptions{Format: "json"}), "--db", db)
	require.NoError(t, err)
	var resp struct {
		Data []HistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Shapes", resp.Data[0].Module)
	assert.Empty(t, resp.Data[0].Dropped)

	out, _, err = execute(NewHistoryCommand(&RootOptions{Format: "text"}), "Other", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")
}

func TestHistoryMissingDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "none.db")
	_, _, err := execute(NewHistoryCommand(&RootOptions{Format: "text"}), "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.NoFileExists(t, db)
}
