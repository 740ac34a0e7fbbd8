package entities

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Outcome is the result of a single step
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
	// OutcomeSkipped marks a step short-circuited because a dependency failed
	OutcomeSkipped Outcome = "skipped"
)

// StepResult records one scenario step
type StepResult struct {
	Name          string        `json:"name" yaml:"name"`
	Outcome       Outcome       `json:"outcome" yaml:"outcome"`
	FailureDetail string        `json:"failure_detail,omitempty" yaml:"failure_detail,omitempty"`
	Elapsed       time.Duration `json:"elapsed" yaml:"elapsed"`
}

// ScenarioReport aggregates the steps of one scenario
type ScenarioReport struct {
	Name   string       `json:"name" yaml:"name"`
	Tag    string       `json:"tag,omitempty" yaml:"tag,omitempty"`
	Passed bool         `json:"passed" yaml:"passed"`
	Error  string       `json:"error,omitempty" yaml:"error,omitempty"`
	Steps  []StepResult `json:"steps" yaml:"steps"`
}

// Step returns the result recorded under name
func (r ScenarioReport) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// Err combines every failed step into one error, nil when all passed
func (r ScenarioReport) Err() error {
	var err error
	if r.Error != "" {
		err = multierr.Append(err, fmt.Errorf("%s: %s", r.Name, r.Error))
	}
	for _, s := range r.Steps {
		if s.Outcome == OutcomeFail {
			err = multierr.Append(err, fmt.Errorf("%s/%s: %s", r.Name, s.Name, s.FailureDetail))
		}
	}
	return err
}

// SuiteReport is the outcome of one run across scenarios
type SuiteReport struct {
	RunID        string           `json:"run_id" yaml:"run_id"`
	Started      time.Time        `json:"started" yaml:"started"`
	Finished     time.Time        `json:"finished" yaml:"finished"`
	SessionPhase SessionPhase     `json:"session_phase" yaml:"session_phase"`
	Scenarios    []ScenarioReport `json:"scenarios" yaml:"scenarios"`
}

// Passed reports whether every scenario passed
func (r SuiteReport) Passed() bool {
	for _, s := range r.Scenarios {
		if !s.Passed {
			return false
		}
	}
	return true
}

// Err combines the failures of all scenarios
func (r SuiteReport) Err() error {
	var err error
	for _, s := range r.Scenarios {
		err = multierr.Append(err, s.Err())
	}
	return err
}
