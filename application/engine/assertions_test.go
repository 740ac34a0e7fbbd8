package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"e2e_harness/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertEventually(t *testing.T) {
	ctx := context.Background()
	stats := entities.ByCSS("stats").Nth(1)

	t.Run("text settles before the deadline", func(t *testing.T) {
		e := newTestEngine(t, time.Second)
		page := newFakePage(&fakeNode{id: "who", css: "bdi", text: "Loading", textAt: 60 * time.Millisecond, laterText: "ElegantEgotist", visible: true})
		require.NoError(t, e.Expect(ctx, page, entities.ByCSS("bdi"), TextEquals("ElegantEgotist")))
	})

	t.Run("timeout carries the last observed value", func(t *testing.T) {
		e := newTestEngine(t, 80*time.Millisecond)
		page := newFakePage(&fakeNode{id: "who", css: "bdi", text: "SomeoneElse", visible: true})

		err := e.Expect(ctx, page, entities.ByCSS("bdi"), TextEquals("ElegantEgotist"))
		var timeout *entities.AssertionTimeoutError
		require.True(t, errors.As(err, &timeout))
		assert.Equal(t, `"SomeoneElse"`, timeout.LastObserved)
		assert.Equal(t, `"ElegantEgotist"`, timeout.Expected)
		assert.NoError(t, timeout.Cause)
	})

	t.Run("nothing resolved is reported", func(t *testing.T) {
		e := newTestEngine(t, 60*time.Millisecond)
		err := e.Expect(ctx, newFakePage(), entities.ByCSS("bdi"), TextContains("Egotist"))
		var timeout *entities.AssertionTimeoutError
		require.True(t, errors.As(err, &timeout))
		assert.Equal(t, "<no element: 0 matched>", timeout.LastObserved)
	})

	t.Run("count below limit", func(t *testing.T) {
		e := newTestEngine(t, time.Second)
		page := newFakePage(
			&fakeNode{id: "s0", css: "stats", text: "Statistics", visible: true},
			&fakeNode{id: "s1", css: "stats", text: "6,908,432 articles", visible: true},
		)
		require.NoError(t, e.Expect(ctx, page, stats, CountLessThan(7000000)))
	})

	t.Run("count above limit reports the number", func(t *testing.T) {
		e := newTestEngine(t, 60*time.Millisecond)
		page := newFakePage(
			&fakeNode{id: "s0", css: "stats", visible: true},
			&fakeNode{id: "s1", css: "stats", text: "9,000,000 articles", visible: true},
		)
		err := e.Expect(ctx, page, stats, CountLessThan(7000000))
		var cmpErr *ComparisonError
		require.True(t, errors.As(err, &cmpErr))
		assert.Equal(t, int64(9000000), cmpErr.Observed)
	})

	t.Run("text without digits is a parse error", func(t *testing.T) {
		e := newTestEngine(t, 60*time.Millisecond)
		page := newFakePage(
			&fakeNode{id: "s0", css: "stats", visible: true},
			&fakeNode{id: "s1", css: "stats", text: "no data", visible: true},
		)
		err := e.Expect(ctx, page, stats, CountLessThan(7000000))
		var perr *entities.ParseError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "no data", perr.Input)
		assert.Equal(t, stats.String(), perr.Locator)
	})

	t.Run("hidden count is not read", func(t *testing.T) {
		e := newTestEngine(t, 60*time.Millisecond)
		page := newFakePage(
			&fakeNode{id: "s0", css: "stats", visible: true},
			&fakeNode{id: "s1", css: "stats", text: "6,908,432"},
		)
		err := e.Expect(ctx, page, stats, CountLessThan(7000000))
		var timeout *entities.AssertionTimeoutError
		require.True(t, errors.As(err, &timeout))
	})

	t.Run("visible but disabled is distinct from missing", func(t *testing.T) {
		e := newTestEngine(t, 60*time.Millisecond)
		page := newFakePage(&fakeNode{id: "small", role: "radio", name: "Small", visible: true})

		err := e.Expect(ctx, page, entities.ByRole("radio", "Small"), IsEnabled())
		assert.ErrorIs(t, err, entities.ErrVisibleButDisabled)

		err = e.Expect(ctx, newFakePage(), entities.ByRole("radio", "Small"), IsEnabled())
		assert.NotErrorIs(t, err, entities.ErrVisibleButDisabled)
	})

	t.Run("disabled and visible predicates", func(t *testing.T) {
		e := newTestEngine(t, time.Second)
		page := newFakePage(&fakeNode{id: "std", label: "Standard", visible: true})
		require.NoError(t, e.Expect(ctx, page, entities.ByLabel("Standard"), IsVisible()))
		require.NoError(t, e.Expect(ctx, page, entities.ByLabel("Standard"), IsDisabled()))
	})

	t.Run("cancellation is not a timeout", func(t *testing.T) {
		e := newTestEngine(t, 5*time.Second)
		cctx, cancel := context.WithTimeout(ctx, 40*time.Millisecond)
		defer cancel()
		err := e.Expect(cctx, newFakePage(), entities.ByCSS("bdi"), IsVisible())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestWaitForAny(t *testing.T) {
	ctx := context.Background()
	success := entities.ByCSS("welcome")
	failure := entities.ByText("Incorrect username or password.")

	t.Run("second landmark wins", func(t *testing.T) {
		e := newTestEngine(t, time.Second)
		page := newFakePage(&fakeNode{id: "err", text: "Incorrect username or password.", visible: true, appearAt: 40 * time.Millisecond})
		idx, el, err := e.WaitForAny(ctx, page, []entities.Locator{success, failure})
		require.NoError(t, err)
		assert.Equal(t, 1, idx)
		assert.Equal(t, "err", el.Node.Describe())
	})

	t.Run("earlier landmark has priority", func(t *testing.T) {
		e := newTestEngine(t, time.Second)
		page := newFakePage(
			&fakeNode{id: "err", text: "Incorrect username or password.", visible: true},
			&fakeNode{id: "ok", css: "welcome", visible: true},
		)
		idx, _, err := e.WaitForAny(ctx, page, []entities.Locator{success, failure})
		require.NoError(t, err)
		assert.Equal(t, 0, idx)
	})

	t.Run("none appears", func(t *testing.T) {
		e := newTestEngine(t, 60*time.Millisecond)
		idx, _, err := e.WaitForAny(ctx, newFakePage(), []entities.Locator{success, failure})
		assert.Equal(t, -1, idx)
		var timeout *entities.ResolutionTimeoutError
		require.True(t, errors.As(err, &timeout))
		assert.Contains(t, timeout.Locator, "any of")
	})

	t.Run("timeout reports what each landmark last saw", func(t *testing.T) {
		e := newTestEngine(t, 60*time.Millisecond)
		page := newFakePage(&fakeNode{id: "ok", css: "welcome"})
		_, _, err := e.WaitForAny(ctx, page, []entities.Locator{success, failure})
		var timeout *entities.ResolutionTimeoutError
		require.True(t, errors.As(err, &timeout))
		assert.Equal(t, 1, timeout.Matches)
		require.Error(t, timeout.Last)
		assert.Contains(t, timeout.Last.Error(), "css=welcome: element is not visible")
		assert.NotContains(t, timeout.Last.Error(), "Incorrect username")
	})
}
