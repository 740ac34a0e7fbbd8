package engine

import (
	"time"

	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Engine bundles the resolver, executor and asserter sharing one default policy
type Engine struct {
	*Resolver
	*Executor
	*Asserter
	policy entities.WaitPolicy
}

// Options configures an Engine
type Options struct {
	Policy          entities.WaitPolicy
	StableFrame     time.Duration
	DispatchTimeout time.Duration
}

// New wires the three components together
func New(opts Options, security interfaces.SecurityLayer, logger *logrus.Logger) *Engine {
	policy := opts.Policy
	if policy.Timeout <= 0 {
		policy.Timeout = entities.DefaultTimeout
	}
	if policy.PollInterval <= 0 {
		policy.PollInterval = entities.DefaultPollInterval
	}
	if policy.Condition == "" {
		policy.Condition = entities.ConditionExists
	}

	resolver := NewResolver(logger, opts.StableFrame)
	return &Engine{
		Resolver: resolver,
		Executor: NewExecutor(resolver, security, logger, policy, opts.DispatchTimeout),
		Asserter: NewAsserter(resolver, logger, policy),
		policy:   policy,
	}
}

// Policy returns the process-wide default wait policy
func (e *Engine) Policy() entities.WaitPolicy { return e.policy }
