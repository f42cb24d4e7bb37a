package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/ventsim/internal/breath"
	"github.com/roach88/ventsim/internal/ident"
)

// Run is one stored simulation.
type Run struct {
	ID            string            `json:"id"`
	Token         string            `json:"token"`
	Seq           int64             `json:"seq"`
	Label         string            `json:"label,omitempty"`
	Params        breath.Parameters `json:"-"`
	Breaths       int               `json:"breaths"`
	Timing        breath.Timing     `json:"timing"`
	Digest        string            `json:"digest"`
	ModelVersion  string            `json:"model_version"`
	EngineVersion string            `json:"engine_version"`
}

// SaveRun stores a simulated breath and its run metadata in one transaction.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: saving an identical
// configuration again returns the existing run and inserted=false. The label
// is not part of the run ID, so a re-save leaves the first label in place and
// the returned run carries it. The seq of a new run is one past the current
// maximum.
//
// tr must be the complete single-breath trace simulated from p.
func (s *Store) SaveRun(ctx context.Context, p breath.Parameters, breaths int, label string, tr breath.Trace, token string) (run Run, inserted bool, err error) {
	if !tr.Complete() {
		return Run{}, false, fmt.Errorf("save run: trace is incomplete")
	}

	id, err := ident.RunID(p, breaths)
	if err != nil {
		return Run{}, false, fmt.Errorf("save run: %w", err)
	}
	paramsJSON, err := marshalParams(p)
	if err != nil {
		return Run{}, false, fmt.Errorf("save run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, false, fmt.Errorf("save run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return Run{}, false, fmt.Errorf("save run: next seq: %w", err)
	}

	tm := tr.Timing
	result, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, token, seq, label, params, breaths, period_samples, inhale_samples, hold_samples,
		 exhale_samples, step, derivation, digest, model_version, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		id, token, seq, label, paramsJSON, breaths,
		tm.Period, tm.Inhale, tm.Hold, tm.Exhale, tm.Step, string(tm.Derivation),
		ident.SamplesDigest(tr), ident.ModelVersion, ident.EngineVersion,
	)
	if err != nil {
		return Run{}, false, fmt.Errorf("save run: insert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Run{}, false, fmt.Errorf("save run: rows affected: %w", err)
	}

	if affected > 0 {
		if err := insertSamples(ctx, tx, id, tr); err != nil {
			return Run{}, false, err
		}
		inserted = true
	}

	run, err = scanRun(tx.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
	if err != nil {
		return Run{}, false, fmt.Errorf("save run: select: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, false, fmt.Errorf("save run: commit: %w", err)
	}

	return run, inserted, nil
}

// insertSamples writes one row per grid sample of tr.
func insertSamples(ctx context.Context, tx *sql.Tx, runID string, tr breath.Trace) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO samples
		(run_id, idx, phase, flow, airway_pressure, lung_pressure, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save run: prepare samples: %w", err)
	}
	defer stmt.Close()

	for k := 0; k < tr.Len(); k++ {
		row := tr.Row(k)
		if _, err := stmt.ExecContext(ctx, runID, k, row.Phase.String(),
			row.Flow, row.AirwayPressure, row.LungPressure, row.Volume); err != nil {
			return fmt.Errorf("save run: insert sample %d: %w", k, err)
		}
	}
	return nil
}
