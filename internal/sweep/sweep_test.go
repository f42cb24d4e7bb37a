package sweep

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ventsim/internal/breath"
)

func TestAxisValues(t *testing.T) {
	values, err := Axis{Param: "peep", From: 0, To: 10, Step: 2.5}.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2.5, 5, 7.5, 10}, values)

	values, err = Axis{Param: "compliance", From: 0.01, To: 0.05, Step: 0.01}.Values()
	require.NoError(t, err)
	assert.Len(t, values, 5, "rounding must not drop the endpoint")
	assert.InDelta(t, 0.05, values[4], 1e-12)

	values, err = Axis{Param: "resistance", From: 5, To: 5, Step: 1}.Values()
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, values)
}

func TestAxisValuesInvalid(t *testing.T) {
	tests := []struct {
		name string
		axis Axis
	}{
		{"unknown param", Axis{Param: "derivation", From: 0, To: 1, Step: 1}},
		{"zero step", Axis{Param: "peep", From: 0, To: 1, Step: 0}},
		{"negative step", Axis{Param: "peep", From: 0, To: 1, Step: -1}},
		{"empty range", Axis{Param: "peep", From: 2, To: 1, Step: 1}},
		{"too many points", Axis{Param: "peep", From: 0, To: 1, Step: 1e-6}},
		{"span overflows int", Axis{Param: "peep", From: 0, To: 1e20, Step: 1}},
		{"span overflows float", Axis{Param: "peep", From: -1e308, To: 1e308, Step: 1e-300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.axis.Values()
			assert.Error(t, err)
		})
	}
}

func TestParams(t *testing.T) {
	params := Params()
	assert.Len(t, params, 10)
	assert.IsNonDecreasing(t, params)
	assert.Contains(t, params, "breaths_per_minute")
}

func TestRunOrderAndValues(t *testing.T) {
	axis := Axis{Param: "breaths_per_minute", From: 10, To: 30, Step: 2}

	points, err := Run(context.Background(), breath.DefaultParameters(), axis, 4)
	require.NoError(t, err)
	require.Len(t, points, 11)

	for i, pt := range points {
		assert.Equal(t, i, pt.Index)
		assert.Equal(t, 10+2*float64(i), pt.Value)
		assert.Equal(t, pt.Value, pt.Params.BreathsPerMinute)
		require.NoError(t, pt.Err)

		want, err := breath.ResolveTiming(pt.Params)
		require.NoError(t, err)
		assert.Equal(t, want, pt.Timing)
	}

	// Faster rate means a shorter period.
	for i := 1; i < len(points); i++ {
		assert.Less(t, points[i].Timing.Period, points[i-1].Timing.Period)
	}
}

func TestRunMatchesSequential(t *testing.T) {
	axis := Axis{Param: "compliance", From: 0.01, To: 0.08, Step: 0.01}
	base := breath.DefaultParameters()

	parallel, err := Run(context.Background(), base, axis, 8)
	require.NoError(t, err)
	serial, err := Run(context.Background(), base, axis, 1)
	require.NoError(t, err)

	assert.Equal(t, serial, parallel)
}

func TestRunRecordsInvalidPoints(t *testing.T) {
	axis := Axis{Param: "breaths_per_minute", From: 28, To: 34, Step: 2}

	points, err := Run(context.Background(), breath.DefaultParameters(), axis, 2)
	require.NoError(t, err)
	require.Len(t, points, 4)

	assert.NoError(t, points[0].Err)
	assert.NoError(t, points[1].Err)
	assert.True(t, breath.IsInvalidConfiguration(points[2].Err))
	assert.True(t, breath.IsInvalidConfiguration(points[3].Err))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, breath.DefaultParameters(), Axis{Param: "peep", From: 0, To: 20, Step: 1}, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunHugeRange(t *testing.T) {
	assert.NotPanics(t, func() {
		_, err := Run(context.Background(), breath.DefaultParameters(), Axis{Param: "peep", From: 0, To: 1e20, Step: 1}, 2)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "limit is 10000")
	})
}

func TestRunInvalidWorkers(t *testing.T) {
	_, err := Run(context.Background(), breath.DefaultParameters(), Axis{Param: "peep", From: 0, To: 1, Step: 1}, 0)
	assert.Error(t, err)
}
