package engine

import (
	"context"
	"time"

	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// DefaultDispatchTimeout bounds a single input dispatch once the target is actionable
const DefaultDispatchTimeout = 2 * time.Second

// CallOption overrides the process-wide wait policy for one call
type CallOption func(*entities.WaitPolicy)

// WithTimeout overrides the timeout of one call
func WithTimeout(d time.Duration) CallOption {
	return func(p *entities.WaitPolicy) { p.Timeout = d }
}

// WithPollInterval overrides the poll interval of one call
func WithPollInterval(d time.Duration) CallOption {
	return func(p *entities.WaitPolicy) { p.PollInterval = d }
}

// WithCondition overrides the actionability condition of one call
func WithCondition(c entities.Condition) CallOption {
	return func(p *entities.WaitPolicy) { p.Condition = c }
}

func applyOptions(base entities.WaitPolicy, cond entities.Condition, opts []CallOption) entities.WaitPolicy {
	p := base.WithCondition(cond)
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Executor performs fill/click/read-text against freshly resolved elements
type Executor struct {
	resolver        *Resolver
	security        interfaces.SecurityLayer
	logger          *logrus.Logger
	policy          entities.WaitPolicy
	dispatchTimeout time.Duration
}

// NewExecutor creates an action executor using policy as the default wait policy
func NewExecutor(resolver *Resolver, security interfaces.SecurityLayer, logger *logrus.Logger, policy entities.WaitPolicy, dispatchTimeout time.Duration) *Executor {
	if dispatchTimeout <= 0 {
		dispatchTimeout = DefaultDispatchTimeout
	}
	return &Executor{
		resolver:        resolver,
		security:        security,
		logger:          logger,
		policy:          policy,
		dispatchTimeout: dispatchTimeout,
	}
}

// Fill types value into target once it is enabled
func (e *Executor) Fill(ctx context.Context, page interfaces.Page, target entities.Locator, value string, opts ...CallOption) (entities.ActionResult, error) {
	ev := entities.InputEvent{Type: entities.ActionFill, Value: value}
	return e.perform(ctx, page, target, ev, applyOptions(e.policy, entities.ConditionEnabled, opts))
}

// Click clicks target once it is enabled
func (e *Executor) Click(ctx context.Context, page interfaces.Page, target entities.Locator, opts ...CallOption) (entities.ActionResult, error) {
	ev := entities.InputEvent{Type: entities.ActionClick}
	return e.perform(ctx, page, target, ev, applyOptions(e.policy, entities.ConditionEnabled, opts))
}

// Check selects a radio button or checkbox once it is enabled
func (e *Executor) Check(ctx context.Context, page interfaces.Page, target entities.Locator, opts ...CallOption) (entities.ActionResult, error) {
	ev := entities.InputEvent{Type: entities.ActionCheck}
	return e.perform(ctx, page, target, ev, applyOptions(e.policy, entities.ConditionEnabled, opts))
}

// ReadText returns the text of target once it is visible
func (e *Executor) ReadText(ctx context.Context, page interfaces.Page, target entities.Locator, opts ...CallOption) (string, error) {
	policy := applyOptions(e.policy, entities.ConditionVisible, opts)
	el, err := e.resolver.Resolve(ctx, page, target, policy)
	if err != nil {
		return "", &entities.ActionTimeoutError{Action: entities.ActionReadText, Locator: target.String(), Err: err}
	}
	text, err := page.ReadText(ctx, el.Node)
	if err != nil {
		return "", &entities.ActionRejectedError{Action: entities.ActionReadText, Locator: target.String(), Err: err}
	}
	return text, nil
}

// perform resolves target and dispatches ev exactly once. A dispatch failure
// after a successful resolution is surfaced, never retried.
func (e *Executor) perform(ctx context.Context, page interfaces.Page, target entities.Locator, ev entities.InputEvent, policy entities.WaitPolicy) (entities.ActionResult, error) {
	start := time.Now()
	result := entities.ActionResult{
		Action:  ev.Type,
		Locator: target.String(),
	}
	if ev.Type == entities.ActionFill {
		result.Value = e.security.Redact(target, ev.Value)
	}

	el, err := e.resolver.Resolve(ctx, page, target, policy)
	if err != nil {
		result.Elapsed = time.Since(start)
		return result, &entities.ActionTimeoutError{Action: ev.Type, Locator: target.String(), Err: err}
	}

	ev.Timeout = e.dispatchTimeout
	if err := page.Dispatch(ctx, el.Node, ev); err != nil {
		result.Elapsed = time.Since(start)
		e.logger.WithFields(logrus.Fields{
			"action":  ev.Type,
			"locator": result.Locator,
			"node":    el.Node.Describe(),
		}).Warnf("Dispatch rejected: %v", err)
		return result, &entities.ActionRejectedError{Action: ev.Type, Locator: target.String(), Err: err}
	}

	result.Elapsed = time.Since(start)
	entry := e.logger.WithFields(logrus.Fields{
		"action":  ev.Type,
		"locator": result.Locator,
		"elapsed": result.Elapsed.Round(time.Millisecond),
	})
	if ev.Type == entities.ActionFill {
		entry = entry.WithField("value", result.Value)
	}
	entry.Debug("Action performed")
	return result, nil
}
