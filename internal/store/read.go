package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/ventsim/internal/breath"
)

// ErrAmbiguousID is returned when an ID prefix matches more than one run.
var ErrAmbiguousID = errors.New("ambiguous run id prefix")

const selectRun = `
	SELECT id, token, seq, label, params, breaths, period_samples, inhale_samples,
	       hold_samples, exhale_samples, step, derivation, digest, model_version, engine_version
	FROM runs`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r          Run
		params     string
		derivation string
	)
	err := row.Scan(&r.ID, &r.Token, &r.Seq, &r.Label, &params, &r.Breaths,
		&r.Timing.Period, &r.Timing.Inhale, &r.Timing.Hold, &r.Timing.Exhale,
		&r.Timing.Step, &derivation, &r.Digest, &r.ModelVersion, &r.EngineVersion)
	if err != nil {
		return Run{}, err
	}

	r.Params, err = unmarshalParams(params)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: %w", r.ID, err)
	}
	r.Timing.Derivation = breath.Derivation(derivation)
	return r, nil
}

// ReadRun retrieves a single run by full ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	return scanRun(s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
}

// ResolveID expands a unique ID prefix to the full run ID.
// Returns sql.ErrNoRows if nothing matches and ErrAmbiguousID if several do.
func (s *Store) ResolveID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" || strings.ContainsAny(prefix, "%_") {
		return "", fmt.Errorf("invalid run id prefix %q", prefix)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM runs
		WHERE id LIKE ? || '%'
		ORDER BY id COLLATE BINARY ASC
		LIMIT 2
	`, prefix)
	if err != nil {
		return "", fmt.Errorf("resolve id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("resolve id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve id: %w", err)
	}

	switch len(ids) {
	case 0:
		return "", sql.ErrNoRows
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
	}
}

// ListRuns returns every run in deterministic order:
// ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, selectRun+` ORDER BY seq ASC, id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// ReadTrace rebuilds the stored single-breath trace of run.
func (s *Store) ReadTrace(ctx context.Context, run Run) (breath.Trace, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT idx, phase, flow, airway_pressure, lung_pressure, volume
		FROM samples
		WHERE run_id = ?
		ORDER BY idx ASC
	`, run.ID)
	if err != nil {
		return breath.Trace{}, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	tr := breath.NewTrace(run.Timing)
	count := 0
	for rows.Next() {
		var (
			k     int
			phase string
		)
		var flow, paw, plung, vol float64
		if err := rows.Scan(&k, &phase, &flow, &paw, &plung, &vol); err != nil {
			return breath.Trace{}, fmt.Errorf("scan sample: %w", err)
		}
		if k < 0 || k >= tr.Len() {
			return breath.Trace{}, fmt.Errorf("run %s: sample index %d outside [0, %d)", run.ID, k, tr.Len())
		}
		ph, err := breath.ParsePhase(phase)
		if err != nil {
			return breath.Trace{}, fmt.Errorf("run %s: sample %d: %w", run.ID, k, err)
		}
		tr.Flow[k], tr.AirwayPressure[k], tr.LungPressure[k], tr.Volume[k] = flow, paw, plung, vol
		tr.Phases[k] = ph
		count++
	}
	if err := rows.Err(); err != nil {
		return breath.Trace{}, fmt.Errorf("iterate samples: %w", err)
	}

	if count != tr.Len() {
		return breath.Trace{}, fmt.Errorf("run %s: %d samples stored, want %d", run.ID, count, tr.Len())
	}
	return tr, nil
}
