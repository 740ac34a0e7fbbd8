package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// DefaultStableFrame is one animation frame at 60Hz
const DefaultStableFrame = 16 * time.Millisecond

// ResolvedElement is bound to one node at one point in time. It is handed to
// exactly one action or assertion and never reused across poll ticks.
type ResolvedElement struct {
	Node       interfaces.Node
	Locator    entities.Locator
	State      entities.NodeState
	ResolvedAt time.Time
}

// observation is what one poll tick saw; it feeds timeout diagnostics
type observation struct {
	matches      int
	scopeMissing bool
	outOfRange   *entities.IndexOutOfRangeError
	state        *entities.NodeState
	err          error
}

func (o observation) problem() error {
	switch {
	case o.err != nil:
		return o.err
	case o.outOfRange != nil:
		return o.outOfRange
	case o.scopeMissing:
		return errors.New("scope did not resolve")
	case o.state != nil && o.state.Visible && !o.state.Enabled:
		return entities.ErrVisibleButDisabled
	case o.state != nil && !o.state.Visible:
		return errors.New("element is not visible")
	}
	return nil
}

// Resolver turns locators into live elements under unpredictable render timing
type Resolver struct {
	logger      *logrus.Logger
	stableFrame time.Duration
}

// NewResolver creates a resolver. stableFrame is how long a bounding box must
// stay put for ConditionStable; zero selects DefaultStableFrame.
func NewResolver(logger *logrus.Logger, stableFrame time.Duration) *Resolver {
	if stableFrame <= 0 {
		stableFrame = DefaultStableFrame
	}
	return &Resolver{
		logger:      logger,
		stableFrame: stableFrame,
	}
}

// Resolve polls until loc matches an element satisfying policy.Condition.
// Scope resolution shares the same deadline as the element itself.
func (r *Resolver) Resolve(ctx context.Context, page interfaces.Page, loc entities.Locator, policy entities.WaitPolicy) (*ResolvedElement, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	attempts := 0
	var found *ResolvedElement
	var last observation

	err := WaitUntil(ctx, policy, func(ctx context.Context) (bool, error) {
		attempts++
		el, obs, err := r.resolveOnce(ctx, page, loc, policy.Condition)
		if err != nil {
			return true, err
		}
		last = obs
		if el == nil {
			return false, nil
		}
		found = el
		return true, nil
	})

	fields := logrus.Fields{
		"locator":  loc.String(),
		"attempts": attempts,
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}
	if err == nil {
		r.logger.WithFields(fields).Debug("Resolved element")
		return found, nil
	}
	if !errors.Is(err, ErrWaitTimeout) {
		return nil, err
	}

	r.logger.WithFields(fields).Debugf("Resolution timed out: %v", last.problem())
	return nil, &entities.ResolutionTimeoutError{
		Locator:   loc.String(),
		Condition: policy.Condition,
		Timeout:   policy.Timeout,
		Matches:   last.matches,
		Last:      last.problem(),
	}
}

// resolveOnce performs a single poll tick. A nil element with a nil error
// means "not yet".
func (r *Resolver) resolveOnce(ctx context.Context, page interfaces.Page, loc entities.Locator, cond entities.Condition) (*ResolvedElement, observation, error) {
	node, obs, err := r.locate(ctx, page, loc)
	if err != nil || node == nil {
		return nil, obs, err
	}

	state, ok, err := r.satisfies(ctx, page, node, cond)
	if err != nil {
		if ctx.Err() != nil {
			return nil, obs, ctx.Err()
		}
		obs.err = err
		return nil, obs, nil
	}
	obs.state = &state
	if !ok {
		return nil, obs, nil
	}

	return &ResolvedElement{
		Node:       node,
		Locator:    loc,
		State:      state,
		ResolvedAt: time.Now(),
	}, obs, nil
}

// locate walks the scope chain from the root down, selecting one node per level
func (r *Resolver) locate(ctx context.Context, page interfaces.Page, loc entities.Locator) (interfaces.Node, observation, error) {
	var scope interfaces.Node
	if parent, ok := loc.Scope(); ok {
		p, obs, err := r.locate(ctx, page, parent)
		if err != nil {
			return nil, obs, err
		}
		if p == nil {
			obs.scopeMissing = true
			return nil, obs, nil
		}
		scope = p
	}

	nodes, err := page.QueryAll(ctx, loc.Query(), scope)
	if err != nil {
		if ctx.Err() != nil {
			return nil, observation{}, ctx.Err()
		}
		// A query can fail mid-navigation; that is still "not yet"
		return nil, observation{err: fmt.Errorf("query %s: %w", loc.Query(), err)}, nil
	}

	obs := observation{matches: len(nodes)}
	if len(nodes) == 0 {
		return nil, obs, nil
	}

	// Ambiguity is resolved by document order
	idx, explicit := loc.Index()
	if !explicit {
		return nodes[0], obs, nil
	}
	if idx < 0 || idx >= len(nodes) {
		obs.outOfRange = &entities.IndexOutOfRangeError{Locator: loc.String(), Index: idx, Count: len(nodes)}
		return nil, obs, nil
	}
	return nodes[idx], obs, nil
}

func (r *Resolver) satisfies(ctx context.Context, page interfaces.Page, node interfaces.Node, cond entities.Condition) (entities.NodeState, bool, error) {
	state, err := page.State(ctx, node)
	if err != nil {
		return state, false, err
	}

	switch cond {
	case entities.ConditionExists:
		return state, true, nil
	case entities.ConditionVisible:
		return state, state.Visible, nil
	case entities.ConditionEnabled:
		return state, state.Visible && state.Enabled, nil
	case entities.ConditionStable:
		if !state.Visible {
			return state, false, nil
		}
		select {
		case <-ctx.Done():
			return state, false, ctx.Err()
		case <-time.After(r.stableFrame):
		}
		next, err := page.State(ctx, node)
		if err != nil {
			return state, false, err
		}
		return next, next.Visible && entities.SameBox(state.Box, next.Box), nil
	}
	return state, false, fmt.Errorf("unknown wait condition %q", cond)
}
