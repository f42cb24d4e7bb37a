package store

import (
	"context"
	"fmt"
	"math"

	"github.com/roach88/ventsim/internal/breath"
	"github.com/roach88/ventsim/internal/ident"
)

// maxReportedMismatches caps the mismatches kept per replay.
const maxReportedMismatches = 20

// Mismatch is one sample that differs between the stored and replayed trace.
type Mismatch struct {
	Index    int     `json:"index"`
	Column   string  `json:"column"`
	Stored   float64 `json:"stored"`
	Replayed float64 `json:"replayed"`
}

// ReplayResult is the outcome of re-simulating one stored run.
type ReplayResult struct {
	RunID        string     `json:"run_id"`
	Seq          int64      `json:"seq"`
	Rows         int        `json:"rows"`
	TimingMatch  bool       `json:"timing_match"`
	DigestMatch  bool       `json:"digest_match"`
	Mismatches   []Mismatch `json:"mismatches,omitempty"`
	MismatchRows int        `json:"mismatch_rows"`

	// VersionDrift is set when the run was stored under another model version.
	VersionDrift bool `json:"version_drift,omitempty"`
}

// Identical reports whether the replay reproduced every sample bit for bit.
func (r ReplayResult) Identical() bool {
	return r.TimingMatch && r.DigestMatch && r.MismatchRows == 0
}

// Replay re-simulates run id from its stored parameters and compares the
// result with the stored samples.
func (s *Store) Replay(ctx context.Context, id string) (ReplayResult, error) {
	run, err := s.ReadRun(ctx, id)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", id, err)
	}
	return s.replayRun(ctx, run)
}

// ReplayAll replays every stored run in seq order.
func (s *Store) ReplayAll(ctx context.Context) ([]ReplayResult, error) {
	runs, err := s.ListRuns(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]ReplayResult, 0, len(runs))
	for _, run := range runs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.replayRun(ctx, run)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Store) replayRun(ctx context.Context, run Run) (ReplayResult, error) {
	stored, err := s.ReadTrace(ctx, run)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", run.ID, err)
	}

	replayed, err := breath.Simulate(run.Params)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay %s: %w", run.ID, err)
	}

	res := ReplayResult{
		RunID:        run.ID,
		Seq:          run.Seq,
		Rows:         stored.Len(),
		TimingMatch:  replayed.Timing == run.Timing,
		DigestMatch:  ident.SamplesDigest(replayed) == run.Digest && ident.SamplesDigest(stored) == run.Digest,
		VersionDrift: run.ModelVersion != ident.ModelVersion,
	}
	if !res.TimingMatch {
		return res, nil
	}

	for k := 0; k < stored.Len(); k++ {
		differs := stored.Phases[k] != replayed.Phases[k]
		for _, c := range breath.Columns {
			a, b := stored.Column(c)[k], replayed.Column(c)[k]
			if math.Float64bits(a) == math.Float64bits(b) {
				continue
			}
			differs = true
			if len(res.Mismatches) < maxReportedMismatches {
				res.Mismatches = append(res.Mismatches, Mismatch{Index: k, Column: string(c), Stored: a, Replayed: b})
			}
		}
		if differs {
			res.MismatchRows++
		}
	}

	return res, nil
}
