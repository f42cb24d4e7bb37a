package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/ventsim/internal/breath"
	"github.com/roach88/ventsim/internal/ident"
	"github.com/roach88/ventsim/internal/profile"
	"github.com/roach88/ventsim/internal/store"
)

// Harness holds the per-scenario execution state.
type Harness struct {
	scenario *Scenario
	params   breath.Parameters
	breaths  int
	trace    breath.Trace
	multi    breath.MultiTrace
	summary  breath.Summary
	tokens   ident.TokenGenerator
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Resolve parameters from the profile, inline params and defaults
// 2. Simulate one breath and replicate it
// 3. Check expect_error, or evaluate every assertion
//
// An error is returned only when the scenario cannot be executed at all,
// such as an unreadable profile. Assertion failures are reported in Result.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	return RunWithLogger(ctx, scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with an explicit logger.
func RunWithLogger(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	overrides, breaths, err := resolveInputs(scenario)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		scenario: scenario,
		breaths:  breaths,
		tokens:   ident.NewConstantGenerator(scenario.Token),
		logger:   logger.With("scenario", scenario.Name),
	}

	result := NewResult()
	result.Breaths = breaths

	if err := h.simulate(overrides, result); err != nil {
		return h.checkExpectedError(err, result), nil
	}

	if scenario.ExpectError != "" {
		result.AddError(fmt.Sprintf("expected %s error, simulation succeeded", scenario.ExpectError))
		return result, nil
	}

	for i, a := range scenario.Assertions {
		if err := h.evaluate(ctx, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}

	h.logger.Info("scenario completed", "pass", result.Pass, "errors", len(result.Errors))
	return result, nil
}

// resolveInputs layers inline params over the profile file.
func resolveInputs(s *Scenario) (breath.Overrides, int, error) {
	var overrides breath.Overrides
	breaths := 1

	if s.Profile != "" {
		p, err := profile.Load(s.Profile)
		if err != nil {
			return breath.Overrides{}, 0, fmt.Errorf("failed to load profile: %w", err)
		}
		overrides = p.Overrides()
		breaths = p.BreathCount(breaths)
	}
	if s.Params != nil {
		overrides = overrides.Merge(s.Params.Overrides())
		breaths = s.Params.BreathCount(breaths)
	}
	if s.Breaths > 0 {
		breaths = s.Breaths
	}
	return overrides, breaths, nil
}

func (h *Harness) simulate(overrides breath.Overrides, result *Result) error {
	params, err := breath.Resolve(overrides)
	if err != nil {
		return err
	}
	h.params = params
	result.Params = params

	tr, err := breath.Simulate(params)
	if err != nil {
		return err
	}
	multi, err := breath.Replicate(tr, h.breaths)
	if err != nil {
		return err
	}
	summary, err := breath.Summarize(tr, params)
	if err != nil {
		return err
	}

	h.trace = tr
	h.multi = multi
	h.summary = summary
	result.Timing = tr.Timing
	result.Summary = summary
	result.Rows = multi.Len()

	id, err := ident.RunID(params, h.breaths)
	if err != nil {
		return err
	}
	result.RunID = id

	h.logger.Debug("scenario simulated", "timing", tr.Timing.String(), "rows", multi.Len())
	return nil
}

func (h *Harness) checkExpectedError(err error, result *Result) *Result {
	var be *breath.Error
	if !errors.As(err, &be) {
		result.AddError(fmt.Sprintf("simulation failed: %v", err))
		return result
	}
	result.ErrorCode = string(be.Code)

	switch {
	case h.scenario.ExpectError == "":
		result.AddError(fmt.Sprintf("simulation failed: %v", err))
	case string(be.Code) != h.scenario.ExpectError:
		result.AddError(fmt.Sprintf("expected %s error, got %v", h.scenario.ExpectError, err))
	}
	return result
}

// replay saves the run to a fresh in-memory store and replays it.
func (h *Harness) replay(ctx context.Context) (store.ReplayResult, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return store.ReplayResult{}, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	run, _, err := st.SaveRun(ctx, h.params, h.breaths, h.scenario.Name, h.trace, h.tokens.Generate())
	if err != nil {
		return store.ReplayResult{}, err
	}
	return st.Replay(ctx, run.ID)
}
