package harness

import "github.com/roach88/ventsim/internal/breath"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every assertion held, or simulation
	// failed with the expected error.
	Pass bool `json:"pass"`

	// Errors contains one message per failed assertion.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Breaths is the resolved replication count.
	Breaths int `json:"breaths"`

	// Params are the resolved parameters. Zero when resolution failed.
	Params breath.Parameters `json:"-"`

	// Timing and Summary describe the simulated breath. Zero when
	// simulation failed.
	Timing  breath.Timing  `json:"timing"`
	Summary breath.Summary `json:"summary"`

	// Rows is the length of the replicated trace.
	Rows int `json:"rows"`

	// ErrorCode is the simulation error code, if simulation failed.
	ErrorCode string `json:"error_code,omitempty"`

	// RunID is the content-addressed identity of the run.
	RunID string `json:"run_id,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
