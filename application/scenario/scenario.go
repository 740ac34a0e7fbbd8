package scenario

import (
	"context"
	"fmt"
	"strconv"

	"e2e_harness/application/engine"
	"e2e_harness/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Env is what a step runs against. The page is passed explicitly, no step
// holds on to it after returning.
type Env struct {
	Page   interfaces.Page
	Engine *engine.Engine
	Params Params
	Logger *logrus.Entry
}

// StepFunc is one named unit of scenario behavior
type StepFunc func(ctx context.Context, env *Env) error

// Step is a named, independently reported part of a scenario
type Step struct {
	Name string
	// DependsOn lists earlier steps that must pass for this one to run
	DependsOn []string
	Run       StepFunc
}

// Scenario is an ordered list of steps run against one browser context
type Scenario struct {
	Name        string
	Tag         string
	Description string
	// NeedsSession marks scenarios that must start authenticated
	NeedsSession bool
	// Anonymous scenarios always start in an unseeded context
	Anonymous bool
	Steps     []Step
}

// Validate checks step names are unique and dependencies point backwards
func (s Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	seen := make(map[string]bool, len(s.Steps))
	for _, step := range s.Steps {
		if step.Name == "" {
			return fmt.Errorf("scenario %s: step has no name", s.Name)
		}
		if step.Run == nil {
			return fmt.Errorf("scenario %s: step %q has no body", s.Name, step.Name)
		}
		if seen[step.Name] {
			return fmt.Errorf("scenario %s: duplicate step %q", s.Name, step.Name)
		}
		for _, dep := range step.DependsOn {
			if !seen[dep] {
				return fmt.Errorf("scenario %s: step %q depends on %q, which does not run before it", s.Name, step.Name, dep)
			}
		}
		seen[step.Name] = true
	}
	return nil
}

// Params is the parameter map handed to every scenario entry point
type Params map[string]string

// Get returns the value of key or fallback when unset
func (p Params) Get(key, fallback string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Int returns key parsed as an integer, or fallback when unset
func (p Params) Int(key string, fallback int64) (int64, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("param %s: %w", key, err)
	}
	return n, nil
}

// Merge returns a copy of p overlaid with other
func (p Params) Merge(other Params) Params {
	out := make(Params, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}
