package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ventsim", cmd.Use)
	assert.Contains(t, cmd.Long, "RC lung model")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"simulate", "timing", "validate", "sweep", "runs", "replay", "test", "version"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestParamFlagDefaults(t *testing.T) {
	cmd := NewRootCommand()
	simCmd, _, err := cmd.Find([]string{"simulate"})
	require.NoError(t, err)

	defaults := map[string]string{
		"vt":         "75",
		"bpm":        "20",
		"ie":         "2",
		"hold":       "10",
		"dt":         "0.01",
		"derivation": "inhale_hold",
	}
	for name, want := range defaults {
		f := simCmd.Flags().Lookup(name)
		require.NotNil(t, f, "flag --%s", name)
		assert.Equal(t, want, f.DefValue, "flag --%s", name)
	}

	breaths := simCmd.Flags().Lookup("breaths")
	require.NotNil(t, breaths)
	assert.Equal(t, "n", breaths.Shorthand)
}

func TestSweepCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	sweepCmd, _, err := cmd.Find([]string{"sweep"})
	require.NoError(t, err)

	for _, name := range []string{"param", "from", "to", "step", "workers", "dt"} {
		assert.NotNil(t, sweepCmd.Flags().Lookup(name), "flag --%s", name)
	}
}

func TestRunsSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, path := range [][]string{{"runs", "list"}, {"runs", "show"}} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[1], sub.Name())
	}

	runsCmd, _, err := cmd.Find([]string{"runs"})
	require.NoError(t, err)
	assert.NotNil(t, runsCmd.PersistentFlags().Lookup("db"))
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	_, err := execute(t, cmd, "--format", "xml", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, NewVersionCommand(newTestRoot(t, "text")))
	require.NoError(t, err)
	assert.Contains(t, out, "ventsim 0.1.0 (model 1)")

	var info VersionInfo
	out, err = execute(t, NewVersionCommand(newTestRoot(t, "json")))
	require.NoError(t, err)
	resp := decodeResponse(t, out, &info)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "0.1.0", info.Engine)
	assert.Equal(t, "1", info.Model)
}
