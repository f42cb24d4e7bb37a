package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ventsim/internal/breath"
	"github.com/roach88/ventsim/internal/profile"
)

// Scenario defines one acceptance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Profile is an optional profile file, relative to the scenario file.
	Profile string `yaml:"profile,omitempty"`

	// Params are inline parameters layered over Profile.
	Params *profile.Profile `yaml:"params,omitempty"`

	// Breaths is the replication count. Zero falls back to the params,
	// then the profile, then 1.
	Breaths int `yaml:"breaths,omitempty"`

	// ExpectError is the error code simulation must fail with
	// (e.g. INVALID_CONFIGURATION).
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the simulated trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Token is an optional fixed run token for the replay assertion.
	// If empty, defaults to "test-run-default".
	Token string `yaml:"token,omitempty"`

	// Path is the file the scenario was loaded from.
	Path string `yaml:"-"`
}

// Assertion validates the simulated trace or its summary.
type Assertion struct {
	// Type selects the check; see the Assert* constants.
	Type string `yaml:"type"`

	// Column is the trace column (sample, monotonic, bounds).
	Column string `yaml:"column,omitempty"`

	// Phase restricts monotonic and bounds to one phase, and names the
	// expected tag for phase.
	Phase string `yaml:"phase,omitempty"`

	// Row is the row index (sample, phase).
	Row *int `yaml:"row,omitempty"`

	// Value and Tolerance give the expected value (sample, summary).
	Value     *float64 `yaml:"value,omitempty"`
	Tolerance float64  `yaml:"tolerance,omitempty"`

	// Min and Max bound the column (bounds). Either may be omitted.
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`

	// Direction is increasing, decreasing or constant (monotonic).
	Direction string `yaml:"direction,omitempty"`

	// Count is the expected number of rows (row_count).
	Count *int `yaml:"count,omitempty"`

	// Field is the summary readout name (summary).
	Field string `yaml:"field,omitempty"`

	// Expect holds expected sample counts keyed by period, inhale, hold
	// and exhale (timing). Subset match.
	Expect map[string]int `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTiming     = "timing"
	AssertSample     = "sample"
	AssertPhase      = "phase"
	AssertMonotonic  = "monotonic"
	AssertBounds     = "bounds"
	AssertContinuity = "continuity"
	AssertRowCount   = "row_count"
	AssertSummary    = "summary"
	AssertReplay     = "replay"
)

// Monotonic directions.
const (
	DirectionIncreasing = "increasing"
	DirectionDecreasing = "decreasing"
	DirectionConstant   = "constant"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Profile != "" && !filepath.IsAbs(scenario.Profile) {
		scenario.Profile = filepath.Join(filepath.Dir(path), scenario.Profile)
	}
	scenario.Path = path

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios returns the .yaml and .yml files under dir, in lexical order.
// A non-empty filter is a glob matched against the file name without its
// extension.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Breaths < 0 {
		return fmt.Errorf("breaths must be non-negative")
	}

	if s.Profile != "" {
		if _, err := os.Stat(s.Profile); os.IsNotExist(err) {
			return fmt.Errorf("profile file not found: %s", s.Profile)
		}
	}

	if s.ExpectError != "" {
		if len(s.Assertions) > 0 {
			return fmt.Errorf("assertions cannot be combined with expect_error")
		}
		switch breath.ErrorCode(s.ExpectError) {
		case breath.ErrCodeInvalidConfiguration, breath.ErrCodeGridAlignment, breath.ErrCodeReplicationArgument:
			return nil
		default:
			return fmt.Errorf("unknown expect_error code %q", s.ExpectError)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	needColumn := func() error {
		if _, err := breath.ParseColumn(a.Column); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		return nil
	}
	optionalPhase := func() error {
		if a.Phase == "" {
			return nil
		}
		if _, err := breath.ParsePhase(a.Phase); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
		return nil
	}
	needRow := func() error {
		if a.Row == nil || *a.Row < 0 {
			return fmt.Errorf("assertions[%d]: non-negative row is required for %s", index, a.Type)
		}
		return nil
	}
	needValue := func() error {
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for %s", index, a.Type)
		}
		if a.Tolerance < 0 {
			return fmt.Errorf("assertions[%d]: tolerance must be non-negative", index)
		}
		return nil
	}

	switch a.Type {
	case AssertTiming:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for timing", index)
		}
		for key := range a.Expect {
			if _, ok := timingFields[key]; !ok {
				return fmt.Errorf("assertions[%d]: unknown timing field %q", index, key)
			}
		}
	case AssertSample:
		if err := needRow(); err != nil {
			return err
		}
		if err := needColumn(); err != nil {
			return err
		}
		return needValue()
	case AssertPhase:
		if err := needRow(); err != nil {
			return err
		}
		if a.Phase == "" {
			return fmt.Errorf("assertions[%d]: phase is required for phase", index)
		}
		return optionalPhase()
	case AssertMonotonic:
		if err := needColumn(); err != nil {
			return err
		}
		if a.Phase == "" {
			return fmt.Errorf("assertions[%d]: phase is required for monotonic", index)
		}
		if err := optionalPhase(); err != nil {
			return err
		}
		switch a.Direction {
		case DirectionIncreasing, DirectionDecreasing, DirectionConstant:
		default:
			return fmt.Errorf("assertions[%d]: direction must be increasing, decreasing or constant", index)
		}
	case AssertBounds:
		if err := needColumn(); err != nil {
			return err
		}
		if a.Min == nil && a.Max == nil {
			return fmt.Errorf("assertions[%d]: min or max is required for bounds", index)
		}
		return optionalPhase()
	case AssertRowCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for row_count", index)
		}
	case AssertSummary:
		if _, ok := summaryFields[a.Field]; !ok {
			return fmt.Errorf("assertions[%d]: unknown summary field %q", index, a.Field)
		}
		return needValue()
	case AssertContinuity, AssertReplay:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
