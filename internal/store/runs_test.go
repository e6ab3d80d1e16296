package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/ir"
)

func openTestStore(t *testing.T, ids ...string) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), WithIDGenerator(NewFixedGenerator(ids...)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndReadRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "run-1", "run-2", "run-3")

	diags := []bridge.Diagnostic{
		{Code: ir.ErrUnrepresentableType, Selector: "Handler", Message: "closures are not supported"},
		{Code: ir.ErrInvalidDecl, Selector: "subscript(_:)", Message: "subscript declarations are only supported as type members"},
	}
	first, err := s.RecordRun(ctx, Run{Module: "Travel", InterfaceHash: "i1", OptionsHash: "o1", HeaderHash: "h1"}, map[string]any{"namespace": "travel"}, diags)
	require.NoError(t, err)
	assert.Equal(t, "run-1", first.ID)
	assert.Equal(t, ir.GeneratorVersion, first.GeneratorVersion)
	assert.Equal(t, 2, first.Diagnostics)

	_, err = s.RecordRun(ctx, Run{Module: "Geometry", InterfaceHash: "g1", OptionsHash: "o1", HeaderHash: "h2"}, nil, nil)
	require.NoError(t, err)
	second, err := s.RecordRun(ctx, Run{Module: "Travel", InterfaceHash: "i2", OptionsHash: "o1", HeaderHash: "h3", Output: "travel.h"}, nil, nil)
	require.NoError(t, err)
	assert.Greater(t, second.Seq, first.Seq)

	latest, ok, err := s.LatestRun(ctx, "Travel")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, latest)

	runs, err := s.ListRuns(ctx, "Travel", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, []string{"run-3", "run-1"}, []string{runs[0].ID, runs[1].ID})

	all, err := s.ListRuns(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := s.Diagnostics(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, diags, got)
}

func TestLatestRunUnknownModule(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.LatestRun(context.Background(), "Nothing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEmptyResultsAreNotNil(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	runs, err := s.ListRuns(ctx, "Nothing", 10)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)

	diags, err := s.Diagnostics(ctx, "missing")
	require.NoError(t, err)
	assert.NotNil(t, diags)
	assert.Empty(t, diags)
}

func TestRecordRunRequiresModule(t *testing.T) {
	s := openTestStore(t)
	_, err := s.RecordRun(context.Background(), Run{}, nil, nil)
	require.Error(t, err)
}

func TestRecordRunDuplicateIDRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "same", "same")

	_, err := s.RecordRun(ctx, Run{Module: "Travel"}, nil, nil)
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, Run{Module: "Travel"}, nil, []bridge.Diagnostic{{Code: ir.ErrInvalidDecl, Selector: "x"}})
	require.Error(t, err)

	runs, err := s.ListRuns(ctx, "Travel", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	assert.Equal(t, 0, runs[0].Diagnostics)
}

func TestRunUnchanged(t *testing.T) {
	run := Run{InterfaceHash: "i", OptionsHash: "o", GeneratorVersion: ir.GeneratorVersion}
	assert.True(t, run.Unchanged("i", "o"))
	assert.False(t, run.Unchanged("i2", "o"))
	assert.False(t, run.Unchanged("i", "o2"))

	run.GeneratorVersion = "0.0.0"
	assert.False(t, run.Unchanged("i", "o"), "a new generator version always regenerates")
}
