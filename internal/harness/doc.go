// Package harness runs acceptance scenarios against the breath simulator.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: default_breath
//	description: "Reference pattern at 20 BPM, 1:2"
//	profile: ../profiles/adult.yaml   # optional, relative to the scenario
//	params:                           # optional, layered over the profile
//	  ie_ratio: 1
//	breaths: 2
//	assertions:
//	  - type: timing
//	    expect: { period: 300, inhale: 135, hold: 15, exhale: 150 }
//	  - type: sample
//	    row: 135
//	    column: lung_pressure
//	    value: 34.58
//	    tolerance: 0.01
//	  - type: monotonic
//	    column: volume
//	    phase: inspiration
//	    direction: increasing
//
// A scenario that sets expect_error instead asserts that simulation fails
// with that error code; it takes no assertions.
//
// # Assertion Types
//
//   - timing: phase sample counts equal the expected values
//   - sample: one row of one column equals value within tolerance
//   - phase: one row carries the given phase tag
//   - monotonic: a column is non-decreasing, non-increasing or constant over a phase
//   - bounds: every value of a column (optionally within a phase) lies in [min, max]
//   - continuity: each phase starts on the value the previous phase ended with
//   - row_count: the replicated trace has count rows
//   - summary: one summary readout equals value within tolerance
//   - replay: the run survives a save to an in-memory store and replays bit for bit
//
// # Deterministic Testing
//
// Scenarios run with a fixed run token and a fresh in-memory store, so the
// golden snapshot of a scenario is byte-stable across runs.
package harness
