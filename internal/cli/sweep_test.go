package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepCommand_Text(t *testing.T) {
	out, err := execute(t, NewSweepCommand(newTestRoot(t, "text")),
		"--param", "breaths_per_minute", "--from", "28", "--to", "34", "--step", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "breaths_per_minute")
	assert.Contains(t, out, "breaths_per_minute=32: ")
	assert.Contains(t, out, "breaths_per_minute=34: ")
	assert.NotContains(t, out, "breaths_per_minute=30: ")
}

func TestSweepCommand_JSON(t *testing.T) {
	var result SweepResult
	out, err := execute(t, NewSweepCommand(newTestRoot(t, "json")),
		"--param", "hold_percent", "--from", "0", "--to", "30", "--step", "10", "--workers", "3")
	require.NoError(t, err)
	decodeResponse(t, out, &result)

	require.Len(t, result.Points, 4)
	assert.Equal(t, 0, result.Failed)
	for i, pt := range result.Points {
		assert.Equal(t, float64(i*10), pt.Value)
		require.NotNil(t, pt.Timing)
		assert.Equal(t, 300, pt.Timing.Period)
	}
	assert.Equal(t, 0, result.Points[0].Timing.Hold)
	assert.Equal(t, 30, result.Points[3].Timing.Hold)
}

func TestSweepCommand_UsesParamFlags(t *testing.T) {
	var result SweepResult
	out, err := execute(t, NewSweepCommand(newTestRoot(t, "json")),
		"--param", "peep", "--from", "5", "--to", "5", "--bpm", "15")
	require.NoError(t, err)
	decodeResponse(t, out, &result)

	require.Len(t, result.Points, 1)
	assert.Equal(t, 400, result.Points[0].Timing.Period)
}

func TestSweepCommand_FailedPointsReported(t *testing.T) {
	var result SweepResult
	out, err := execute(t, NewSweepCommand(newTestRoot(t, "json")),
		"--param", "ie_ratio", "--from", "3", "--to", "5", "--step", "1")
	require.NoError(t, err)
	decodeResponse(t, out, &result)

	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, result.Points[2].Error, "INVALID_CONFIGURATION")
	assert.Nil(t, result.Points[2].Summary)
}

func TestSweepCommand_InvalidAxis(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown param", []string{"--param", "temperature", "--from", "1", "--to", "2"}},
		{"zero step", []string{"--param", "peep", "--from", "1", "--to", "2", "--step", "0"}},
		{"reversed", []string{"--param", "peep", "--from", "5", "--to", "1"}},
		{"huge range", []string{"--param", "peep", "--from", "0", "--to", "1e20", "--step", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, NewSweepCommand(newTestRoot(t, "text")), tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestSweepCommand_RequiresParam(t *testing.T) {
	_, err := execute(t, NewSweepCommand(newTestRoot(t, "text")), "--from", "1", "--to", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "param")
}
