package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/ventsim/internal/ident"
)

// Snapshot returns the canonical JSON snapshot of a scenario result:
// the resolved timing, breath count and row count, or the error code.
// Floats appear as shortest round-trip strings.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	snapshot := map[string]any{
		"scenario_name": scenario.Name,
		"breaths":       result.Breaths,
	}

	if result.ErrorCode != "" {
		snapshot["error_code"] = result.ErrorCode
		return ident.MarshalCanonical(snapshot)
	}

	step, err := ident.FormatFloat(result.Timing.Step)
	if err != nil {
		return nil, err
	}
	snapshot["rows"] = result.Rows
	snapshot["timing"] = map[string]any{
		"step":       step,
		"period":     result.Timing.Period,
		"inhale":     result.Timing.Inhale,
		"hold":       result.Timing.Hold,
		"exhale":     result.Timing.Exhale,
		"derivation": string(result.Timing.Derivation),
	}
	return ident.MarshalCanonical(snapshot)
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(t.Context(), scenario)
	if err != nil {
		return nil, err
	}

	data, err := Snapshot(scenario, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)

	return result, nil
}
