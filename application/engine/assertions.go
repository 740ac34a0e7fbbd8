package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Predicate is evaluated against a freshly resolved element on every poll tick.
// Check returns the observed value and nil when the predicate holds.
type Predicate struct {
	Name     string
	Expected string
	// Condition the element must meet before Check runs; empty means Exists
	Condition entities.Condition
	Check     func(ctx context.Context, page interfaces.Page, el *ResolvedElement) (observed string, err error)
}

var errMismatch = errors.New("predicate does not hold")

// TextEquals holds when the element text equals expected after whitespace normalisation
func TextEquals(expected string) Predicate {
	return Predicate{
		Name:     "to have text",
		Expected: strconv.Quote(expected),
		Check: func(ctx context.Context, page interfaces.Page, el *ResolvedElement) (string, error) {
			text, err := page.ReadText(ctx, el.Node)
			if err != nil {
				return "", err
			}
			observed := entities.NormalizeText(text)
			if observed != entities.NormalizeText(expected) {
				return strconv.Quote(observed), errMismatch
			}
			return strconv.Quote(observed), nil
		},
	}
}

// TextContains holds when the element text contains substring
func TextContains(substring string) Predicate {
	return Predicate{
		Name:     "to contain text",
		Expected: strconv.Quote(substring),
		Check: func(ctx context.Context, page interfaces.Page, el *ResolvedElement) (string, error) {
			text, err := page.ReadText(ctx, el.Node)
			if err != nil {
				return "", err
			}
			observed := entities.NormalizeText(text)
			if !strings.Contains(observed, entities.NormalizeText(substring)) {
				return strconv.Quote(observed), errMismatch
			}
			return strconv.Quote(observed), nil
		},
	}
}

// IsVisible holds when the element is visible
func IsVisible() Predicate {
	return Predicate{
		Name:     "to be visible",
		Expected: "visible",
		Check: func(ctx context.Context, page interfaces.Page, el *ResolvedElement) (string, error) {
			if !el.State.Visible {
				return describeState(el.State), errMismatch
			}
			return describeState(el.State), nil
		},
	}
}

// IsEnabled holds when the element is visible and enabled. A visible but
// disabled element reports ErrVisibleButDisabled, a terminal outcome of its own.
func IsEnabled() Predicate {
	return Predicate{
		Name:     "to be enabled",
		Expected: "visible, enabled",
		Check: func(ctx context.Context, page interfaces.Page, el *ResolvedElement) (string, error) {
			observed := describeState(el.State)
			switch {
			case el.State.Visible && !el.State.Enabled:
				return observed, entities.ErrVisibleButDisabled
			case !el.State.Enabled || !el.State.Visible:
				return observed, errMismatch
			}
			return observed, nil
		},
	}
}

// IsDisabled holds when the element is disabled
func IsDisabled() Predicate {
	return Predicate{
		Name:     "to be disabled",
		Expected: "disabled",
		Check: func(ctx context.Context, page interfaces.Page, el *ResolvedElement) (string, error) {
			if el.State.Enabled {
				return describeState(el.State), errMismatch
			}
			return describeState(el.State), nil
		},
	}
}

// CountLessThan holds when the number in the element's text is below limit
func CountLessThan(limit int64) Predicate {
	return Predicate{
		Name:      "to count less than",
		Expected:  "< " + strconv.FormatInt(limit, 10),
		Condition: entities.ConditionVisible,
		Check: func(ctx context.Context, page interfaces.Page, el *ResolvedElement) (string, error) {
			text, err := page.ReadText(ctx, el.Node)
			if err != nil {
				return "", err
			}
			n, err := ParseCount(text)
			if err != nil {
				var perr *entities.ParseError
				if errors.As(err, &perr) {
					perr.Locator = el.Locator.String()
				}
				return strconv.Quote(entities.NormalizeText(text)), err
			}
			observed := strconv.FormatInt(n, 10)
			if n >= limit {
				return observed, &ComparisonError{Observed: n, Op: "<", Limit: limit}
			}
			return observed, nil
		},
	}
}

func describeState(s entities.NodeState) string {
	visibility := "hidden"
	if s.Visible {
		visibility = "visible"
	}
	enabled := "disabled"
	if s.Enabled {
		enabled = "enabled"
	}
	return visibility + ", " + enabled
}

// Asserter polls predicates until they hold or time out
type Asserter struct {
	resolver *Resolver
	logger   *logrus.Logger
	policy   entities.WaitPolicy
}

// NewAsserter creates an assertion engine using policy as the default wait policy
func NewAsserter(resolver *Resolver, logger *logrus.Logger, policy entities.WaitPolicy) *Asserter {
	return &Asserter{
		resolver: resolver,
		logger:   logger,
		policy:   policy,
	}
}

// Expect is AssertEventually with the default policy
func (a *Asserter) Expect(ctx context.Context, page interfaces.Page, target entities.Locator, pred Predicate, opts ...CallOption) error {
	cond := pred.Condition
	if cond == "" {
		cond = entities.ConditionExists
	}
	return a.AssertEventually(ctx, page, target, pred, applyOptions(a.policy, cond, opts))
}

// AssertEventually re-resolves target on every tick and evaluates pred against
// it. On timeout the error carries the last observed value.
func (a *Asserter) AssertEventually(ctx context.Context, page interfaces.Page, target entities.Locator, pred Predicate, policy entities.WaitPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	lastObserved := "<nothing resolved>"
	var lastErr error

	err := WaitUntil(ctx, policy, func(ctx context.Context) (bool, error) {
		el, obs, err := a.resolver.resolveOnce(ctx, page, target, policy.Condition)
		if err != nil {
			return true, err
		}
		if el == nil {
			lastObserved = fmt.Sprintf("<no element: %d matched>", obs.matches)
			lastErr = obs.problem()
			return false, nil
		}

		observed, err := pred.Check(ctx, page, el)
		lastObserved = observed
		if err != nil {
			if ctx.Err() != nil {
				return true, ctx.Err()
			}
			lastErr = err
			return false, nil
		}
		return true, nil
	})
	if err == nil {
		a.logger.WithFields(logrus.Fields{
			"locator":   target.String(),
			"assertion": pred.Name,
		}).Debugf("Assertion held: %s", lastObserved)
		return nil
	}
	if !errors.Is(err, ErrWaitTimeout) {
		return err
	}

	cause := lastErr
	if errors.Is(cause, errMismatch) {
		cause = nil
	}
	return &entities.AssertionTimeoutError{
		Locator:      target.String(),
		Assertion:    pred.Name,
		Expected:     pred.Expected,
		LastObserved: lastObserved,
		Timeout:      policy.Timeout,
		Cause:        cause,
	}
}

// WaitForAny races several landmarks in one poll loop and returns the index
// of the first one to become visible. Success and failure paths of a flow
// wait under the same deadline this way.
func (a *Asserter) WaitForAny(ctx context.Context, page interfaces.Page, landmarks []entities.Locator, opts ...CallOption) (int, *ResolvedElement, error) {
	policy := applyOptions(a.policy, entities.ConditionVisible, opts)
	if err := policy.Validate(); err != nil {
		return -1, nil, err
	}

	winner := -1
	var found *ResolvedElement
	last := make([]observation, len(landmarks))
	err := WaitUntil(ctx, policy, func(ctx context.Context) (bool, error) {
		for i, lm := range landmarks {
			el, obs, err := a.resolver.resolveOnce(ctx, page, lm, policy.Condition)
			if err != nil {
				return true, err
			}
			last[i] = obs
			if el != nil {
				winner, found = i, el
				return true, nil
			}
		}
		return false, nil
	})
	if err == nil {
		return winner, found, nil
	}
	if !errors.Is(err, ErrWaitTimeout) {
		return -1, nil, err
	}

	names := make([]string, len(landmarks))
	matches := 0
	var problems error
	for i, lm := range landmarks {
		names[i] = lm.String()
		matches += last[i].matches
		if p := last[i].problem(); p != nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: %w", names[i], p))
		}
	}
	return -1, nil, &entities.ResolutionTimeoutError{
		Locator:   "any of [" + strings.Join(names, ", ") + "]",
		Condition: policy.Condition,
		Timeout:   policy.Timeout,
		Matches:   matches,
		Last:      problems,
	}
}
