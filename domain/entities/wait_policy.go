package entities

import (
	"fmt"
	"time"
)

// Condition is what a resolved element must satisfy before it is handed out
type Condition string

const (
	ConditionExists  Condition = "exists"
	ConditionVisible Condition = "visible"
	ConditionEnabled Condition = "enabled"
	ConditionStable  Condition = "stable"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// WaitPolicy bounds a poll loop
type WaitPolicy struct {
	Timeout      time.Duration `json:"timeout" yaml:"timeout"`
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`
	Condition    Condition     `json:"condition" yaml:"condition"`
}

// DefaultWaitPolicy mirrors typical network-bound rendering latency
func DefaultWaitPolicy() WaitPolicy {
	return WaitPolicy{
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
		Condition:    ConditionExists,
	}
}

// WithCondition returns a copy of p with a different condition
func (p WaitPolicy) WithCondition(c Condition) WaitPolicy {
	p.Condition = c
	return p
}

// WithTimeout returns a copy of p with a different timeout
func (p WaitPolicy) WithTimeout(d time.Duration) WaitPolicy {
	p.Timeout = d
	return p
}

// Validate checks the policy can drive a poll loop
func (p WaitPolicy) Validate() error {
	if p.Timeout <= 0 {
		return fmt.Errorf("wait timeout must be positive, got %s", p.Timeout)
	}
	if p.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", p.PollInterval)
	}
	switch p.Condition {
	case ConditionExists, ConditionVisible, ConditionEnabled, ConditionStable:
	default:
		return fmt.Errorf("unknown wait condition %q", p.Condition)
	}
	return nil
}
