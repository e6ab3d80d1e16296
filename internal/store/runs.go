package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/xbridge/internal/bridge"
	"github.com/roach88/xbridge/internal/ir"
)

// Run is one recorded generation pass.
type Run struct {
	Seq              int64  `json:"seq"`
	ID               string `json:"id"`
	Module           string `json:"module"`
	InterfaceHash    string `json:"interface_hash"`
	OptionsHash      string `json:"options_hash"`
	HeaderHash       string `json:"header_hash"`
	Output           string `json:"output,omitempty"` // header path, empty for stdout
	GeneratorVersion string `json:"generator_version"`
	Diagnostics      int    `json:"diagnostics"`
}

// Unchanged reports whether a pass over the given interface and options
// would reproduce this run.
func (r Run) Unchanged(interfaceHash, optionsHash string) bool {
	return r.InterfaceHash == interfaceHash &&
		r.OptionsHash == optionsHash &&
		r.GeneratorVersion == ir.GeneratorVersion
}

// RecordRun inserts a run with its diagnostics in one transaction and
// returns it with ID and Seq assigned. options is stored as canonical JSON.
func (s *Store) RecordRun(ctx context.Context, run Run, options any, diags []bridge.Diagnostic) (Run, error) {
	if run.Module == "" {
		return Run{}, errors.New("record run: module is required")
	}
	optionsJSON, err := ir.MarshalCanonical(options)
	if err != nil {
		return Run{}, fmt.Errorf("record run: marshal options: %w", err)
	}
	if run.ID == "" {
		run.ID = s.idGen.Generate()
	}
	if run.GeneratorVersion == "" {
		run.GeneratorVersion = ir.GeneratorVersion
	}
	run.Diagnostics = len(diags)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, module, interface_hash, options_hash, header_hash, output, generator_version, options)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Module,
		run.InterfaceHash,
		run.OptionsHash,
		run.HeaderHash,
		run.Output,
		run.GeneratorVersion,
		string(optionsJSON),
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	if run.Seq, err = res.LastInsertId(); err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	for i, d := range diags {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO diagnostics (run_id, idx, code, selector, message)
			VALUES (?, ?, ?, ?, ?)
		`, run.ID, i, d.Code, d.Selector, d.Message)
		if err != nil {
			return Run{}, fmt.Errorf("record diagnostic %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

const runColumns = `
	r.seq, r.id, r.module, r.interface_hash, r.options_hash, r.header_hash, r.output, r.generator_version,
	(SELECT COUNT(*) FROM diagnostics d WHERE d.run_id = r.id)
`

// LatestRun returns the most recent run of a module. The bool is false
// when the module has never been generated.
func (s *Store) LatestRun(ctx context.Context, module string) (Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT`+runColumns+`
		FROM runs r
		WHERE r.module = ?
		ORDER BY r.seq DESC
		LIMIT 1
	`, module)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, fmt.Errorf("latest run: %w", err)
	}
	return run, true, nil
}

// ListRuns returns a module's runs, newest first. An empty module lists
// every module; limit <= 0 means no limit.
//
// Returns an empty slice (not nil) when there are no runs.
func (s *Store) ListRuns(ctx context.Context, module string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT`+runColumns+`
		FROM runs r
		WHERE ? = '' OR r.module = ?
		ORDER BY r.seq DESC
		LIMIT ?
	`, module, module, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Diagnostics returns a run's diagnostics in reported order.
//
// Returns an empty slice (not nil) when the run had none.
func (s *Store) Diagnostics(ctx context.Context, runID string) ([]bridge.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, selector, message
		FROM diagnostics
		WHERE run_id = ?
		ORDER BY idx ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	diags := []bridge.Diagnostic{}
	for rows.Next() {
		var d bridge.Diagnostic
		if err := rows.Scan(&d.Code, &d.Selector, &d.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		diags = append(diags, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diagnostics: %w", err)
	}
	return diags, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	err := row.Scan(
		&run.Seq,
		&run.ID,
		&run.Module,
		&run.InterfaceHash,
		&run.OptionsHash,
		&run.HeaderHash,
		&run.Output,
		&run.GeneratorVersion,
		&run.Diagnostics,
	)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}
