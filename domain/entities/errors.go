package entities

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrVisibleButDisabled marks an element that rendered but never became enabled
	ErrVisibleButDisabled = errors.New("element is visible but disabled")
	// ErrStaleNode is returned by engines for a node detached from the live document
	ErrStaleNode = errors.New("node is detached from the document")
	// ErrMissingCredentials is a configuration error: login needs a username and password
	ErrMissingCredentials = errors.New("need a username and password to sign in")
)

// ResolutionTimeoutError: no matching element satisfied the condition in time
type ResolutionTimeoutError struct {
	Locator   string
	Condition Condition
	Timeout   time.Duration
	// Matches is how many candidates the last poll saw
	Matches int
	// Last is the last non-timeout problem observed while polling, if any
	Last error
}

func (e *ResolutionTimeoutError) Error() string {
	msg := fmt.Sprintf("timeout %s waiting for %s to be %s (last poll matched %d)", e.Timeout, e.Locator, e.Condition, e.Matches)
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

func (e *ResolutionTimeoutError) Unwrap() error { return e.Last }

// IndexOutOfRangeError: nth selection was impossible at the deadline
type IndexOutOfRangeError struct {
	Locator string
	Index   int
	Count   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("%s: index %d out of range, %d element(s) matched", e.Locator, e.Index, e.Count)
}

// ActionTimeoutError: the target never became actionable
type ActionTimeoutError struct {
	Action  ActionType
	Locator string
	Err     error
}

func (e *ActionTimeoutError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Action, e.Locator, e.Err)
}

func (e *ActionTimeoutError) Unwrap() error { return e.Err }

// ActionRejectedError: dispatch failed on an element that looked actionable
type ActionRejectedError struct {
	Action  ActionType
	Locator string
	Err     error
}

func (e *ActionRejectedError) Error() string {
	return fmt.Sprintf("%s %s rejected: %v", e.Action, e.Locator, e.Err)
}

func (e *ActionRejectedError) Unwrap() error { return e.Err }

// AssertionTimeoutError: the predicate never held. LastObserved is the
// diagnostic a bare timeout would lose.
type AssertionTimeoutError struct {
	Locator      string
	Assertion    string
	Expected     string
	LastObserved string
	Timeout      time.Duration
	Cause        error
}

func (e *AssertionTimeoutError) Error() string {
	msg := fmt.Sprintf("%s %s: expected %s, last observed %s (after %s)", e.Locator, e.Assertion, e.Expected, e.LastObserved, e.Timeout)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *AssertionTimeoutError) Unwrap() error { return e.Cause }

// ParseError: free-form text held no number
type ParseError struct {
	Locator string
	Input   string
}

func (e *ParseError) Error() string {
	if e.Locator == "" {
		return fmt.Sprintf("no number found in %q", e.Input)
	}
	return fmt.Sprintf("%s: no number found in %q", e.Locator, e.Input)
}

// SessionIOError: a persisted session exists but cannot be used
type SessionIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *SessionIOError) Error() string {
	return fmt.Sprintf("session %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SessionIOError) Unwrap() error { return e.Err }

// LoginFailureError: the site showed its error message instead of the success landmark
type LoginFailureError struct {
	Message string
}

func (e *LoginFailureError) Error() string {
	return "login failed: " + e.Message
}
