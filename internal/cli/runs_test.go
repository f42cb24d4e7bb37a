package cli

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ventsim/internal/ident"
	"github.com/roach88/ventsim/internal/store"
)

// saveRuns saves one run per argument list through the simulate command.
func saveRuns(t *testing.T, root *RootOptions, argLists ...[]string) []SavedRun {
	t.Helper()
	tokens := make([]string, len(argLists))
	for i := range tokens {
		tokens[i] = fmt.Sprintf("run-%d", i+1)
	}
	root.Tokens = ident.NewFixedGenerator(tokens...)

	jsonRoot := *root
	jsonRoot.Format = "json"

	saved := make([]SavedRun, 0, len(argLists))
	for _, args := range argLists {
		var report SimulateReport
		out, err := execute(t, NewSimulateCommand(&jsonRoot), append([]string{"--save"}, args...)...)
		require.NoError(t, err)
		decodeResponse(t, out, &report)
		require.NotNil(t, report.Saved)
		saved = append(saved, *report.Saved)
	}
	return saved
}

func TestRunsList(t *testing.T) {
	root := newTestRoot(t, "text")
	saved := saveRuns(t, root, []string{"--label", "baseline"}, []string{"--peep", "5"})

	out, err := execute(t, NewRunsCommand(root), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, shortID(saved[0].RunID))
	assert.Contains(t, out, shortID(saved[1].RunID))
	assert.Contains(t, out, "baseline")
}

func TestRunsList_JSON(t *testing.T) {
	root := newTestRoot(t, "text")
	saved := saveRuns(t, root, nil, []string{"--bpm", "12"})
	root.Format = "json"

	var runs []store.Run
	out, err := execute(t, NewRunsCommand(root), "list")
	require.NoError(t, err)
	decodeResponse(t, out, &runs)

	require.Len(t, runs, 2)
	assert.Equal(t, saved[0].RunID, runs[0].ID)
	assert.Equal(t, int64(1), runs[0].Seq)
	assert.Equal(t, int64(2), runs[1].Seq)
	assert.Equal(t, "run-2", runs[1].Token)
	assert.Equal(t, 500, runs[1].Timing.Period)
}

func TestRunsList_Empty(t *testing.T) {
	root := newTestRoot(t, "text")
	st, err := store.Open(root.Config.DatabasePath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, NewRunsCommand(root), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found in database.")
}

func TestRunsList_MissingDatabase(t *testing.T) {
	_, err := execute(t, NewRunsCommand(newTestRoot(t, "text")), "list", "--db", "/nonexistent/ventsim.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestRunsShow(t *testing.T) {
	root := newTestRoot(t, "text")
	saved := saveRuns(t, root, []string{"--label", "baseline", "--ie", "1"})

	out, err := execute(t, NewRunsCommand(root), "show", saved[0].RunID[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "Run:      "+saved[0].RunID)
	assert.Contains(t, out, "Label:    baseline")
	assert.Contains(t, out, "ie_ratio")
	assert.Contains(t, out, "Peak airway pressure: 41.990 cm H2O")
}

func TestRunsShow_JSON(t *testing.T) {
	root := newTestRoot(t, "text")
	saved := saveRuns(t, root, []string{"--ie", "1"})
	root.Format = "json"

	var detail RunDetail
	out, err := execute(t, NewRunsCommand(root), "show", saved[0].RunID)
	require.NoError(t, err)
	decodeResponse(t, out, &detail)

	assert.Equal(t, saved[0].RunID, detail.ID)
	assert.Equal(t, "1", detail.Params["ie_ratio"])
	assert.InDelta(t, 34.583, detail.Summary.EndInspiratoryPressure, 0.001)
}

func TestRunsShow_NotFound(t *testing.T) {
	root := newTestRoot(t, "text")
	saveRuns(t, root, nil)

	_, err := execute(t, NewRunsCommand(root), "show", "zzzz")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found")
}

// tamperSample nudges stored volume sample 42 of run id by 1e-9.
func tamperSample(t *testing.T, dbPath, id string) {
	t.Helper()
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`UPDATE samples SET volume = volume + 1e-9 WHERE run_id = ? AND idx = 42`, id)
	require.NoError(t, err)
}
