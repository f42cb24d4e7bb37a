package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: reference
description: Reference pattern at 1:1
params:
  ie_ratio: 1
assertions:
  - type: timing
    expect: { period: 300, inhale: 135, hold: 15, exhale: 150 }
  - type: continuity
`

const failingScenario = `name: wrong_period
description: Expects a period the parameters cannot produce
assertions:
  - type: timing
    expect: { period: 250 }
`

const errorScenario = `name: too_fast
description: Rate above the supported range
params:
  breaths_per_minute: 40
expect_error: INVALID_CONFIGURATION
`

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(t, NewTestCommand(newTestRoot(t, "text")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execute(t, NewTestCommand(newTestRoot(t, "text")), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := execute(t, NewTestCommand(newTestRoot(t, "text")), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	var result TestResult
	out, err := execute(t, NewTestCommand(newTestRoot(t, "json")), t.TempDir())
	require.NoError(t, err)
	resp := decodeResponse(t, out, &result)

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, result.Scenarios)
}

func TestTestCommandPassingScenarios(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "reference.yaml", passingScenario)
	writeTestFile(t, dir, "too_fast.yml", errorScenario)

	out, err := execute(t, NewTestCommand(newTestRoot(t, "text")), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ reference")
	assert.Contains(t, out, "✓ too_fast")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "reference.yaml", passingScenario)
	writeTestFile(t, dir, "wrong_period.yaml", failingScenario)

	out, err := execute(t, NewTestCommand(newTestRoot(t, "text")), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_period")
	assert.Contains(t, out, "assertions[0]")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFailingScenarioJSON(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "wrong_period.yaml", failingScenario)

	var result TestResult
	out, err := execute(t, NewTestCommand(newTestRoot(t, "json")), dir)
	require.Error(t, err)
	resp := decodeResponse(t, out, &result)

	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Scenarios, 1)
	assert.False(t, result.Scenarios[0].Pass)
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "broken.yaml", "name: broken\nassertion: []\n")

	out, err := execute(t, NewTestCommand(newTestRoot(t, "text")), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "reference.yaml", passingScenario)
	writeTestFile(t, dir, "wrong_period.yaml", failingScenario)

	var result TestResult
	out, err := execute(t, NewTestCommand(newTestRoot(t, "json")), dir, "--filter", "ref*")
	require.NoError(t, err)
	decodeResponse(t, out, &result)

	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "reference", result.Scenarios[0].Name)
}

func TestTestCommandGoldenLifecycle(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "reference.yaml", passingScenario)
	goldenPath := filepath.Join(dir, "golden", "reference.golden")

	// Without a golden file only the assertions count.
	var result TestResult
	out, err := execute(t, NewTestCommand(newTestRoot(t, "json")), dir)
	require.NoError(t, err)
	decodeResponse(t, out, &result)
	assert.Equal(t, "missing", result.Scenarios[0].Golden)

	out, err = execute(t, NewTestCommand(newTestRoot(t, "text")), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ reference (golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t,
		`{"breaths":1,"rows":300,"scenario_name":"reference","timing":{"derivation":"inhale_hold","exhale":150,"hold":15,"inhale":135,"period":300,"step":"0.01"}}`,
		string(golden))

	out, err = execute(t, NewTestCommand(newTestRoot(t, "json")), dir)
	require.NoError(t, err)
	decodeResponse(t, out, &result)
	assert.Equal(t, "match", result.Scenarios[0].Golden)

	// The golden directory is not scanned for scenarios.
	assert.Equal(t, 1, result.Total)

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"stale":true}`), 0644))
	out, err = execute(t, NewTestCommand(newTestRoot(t, "text")), dir)
	require.Error(t, err)
	assert.Contains(t, out, "snapshot does not match golden file")
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := execute(t, NewTestCommand(newTestRoot(t, "text")), "../harness/testdata/scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ default_breath")
	assert.Contains(t, out, "✓ adult_profile")
	assert.Contains(t, out, "✓ invalid_rate")
}
