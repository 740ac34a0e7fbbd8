package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"e2e_harness/domain/entities"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, timeout time.Duration) *Engine {
	t.Helper()
	return New(Options{
		Policy: entities.WaitPolicy{Timeout: timeout, PollInterval: 20 * time.Millisecond},
	}, plainSecurity{}, newTestLogger())
}

func TestExecutor(t *testing.T) {
	ctx := context.Background()

	t.Run("fill waits for enabled and dispatches once", func(t *testing.T) {
		e := newTestEngine(t, time.Second)
		box := &fakeNode{id: "user", role: "textbox", name: "Username", visible: true, enableAt: 40 * time.Millisecond}
		page := newFakePage(box)

		res, err := e.Fill(ctx, page, entities.ByRole("textbox", "Username"), "alice")
		require.NoError(t, err)
		assert.Equal(t, entities.ActionFill, res.Action)
		assert.Equal(t, "alice", res.Value)
		require.Len(t, page.dispatched, 1)
		assert.Equal(t, "alice", page.dispatched[0].Value)
		assert.Equal(t, DefaultDispatchTimeout, page.dispatched[0].Timeout)
		assert.Equal(t, "alice", box.text)
	})

	t.Run("sensitive values are redacted in results and logs", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		logger.SetLevel(logrus.DebugLevel)
		e := New(Options{Policy: entities.WaitPolicy{Timeout: time.Second, PollInterval: 20 * time.Millisecond}}, plainSecurity{}, logger)
		page := newFakePage(&fakeNode{id: "pw", label: "Password", visible: true, enabled: true})

		res, err := e.Fill(ctx, page, entities.ByLabel("Password"), "hunter2")
		require.NoError(t, err)
		assert.Equal(t, "********", res.Value)
		assert.Equal(t, "hunter2", page.dispatched[0].Value)
		for _, entry := range hook.AllEntries() {
			assert.NotContains(t, entry.Message, "hunter2")
			if v, ok := entry.Data["value"]; ok {
				assert.Equal(t, "********", v)
			}
		}
	})

	t.Run("never actionable is an action timeout", func(t *testing.T) {
		e := newTestEngine(t, 80*time.Millisecond)
		page := newFakePage(&fakeNode{id: "radio", role: "radio", name: "Small", visible: true})

		_, err := e.Check(ctx, page, entities.ByRole("radio", "Small"))
		var timeout *entities.ActionTimeoutError
		require.True(t, errors.As(err, &timeout))
		assert.Equal(t, entities.ActionCheck, timeout.Action)
		assert.ErrorIs(t, err, entities.ErrVisibleButDisabled)
		assert.Empty(t, page.dispatched)
	})

	t.Run("dispatch failure is surfaced, not retried", func(t *testing.T) {
		e := newTestEngine(t, time.Second)
		page := newFakePage(&fakeNode{id: "btn", role: "button", name: "Log in", visible: true, enabled: true})
		page.dispatchErr = errors.New("element is not attached to the DOM")

		_, err := e.Click(ctx, page, entities.ByRole("button", "Log in"))
		var rejected *entities.ActionRejectedError
		require.True(t, errors.As(err, &rejected))
		assert.Equal(t, entities.ActionClick, rejected.Action)
		assert.Len(t, page.dispatched, 1)
	})

	t.Run("read text waits for visible", func(t *testing.T) {
		e := newTestEngine(t, time.Second)
		page := newFakePage(&fakeNode{id: "who", css: "bdi", text: "ElegantEgotist", visible: true, appearAt: 30 * time.Millisecond})

		text, err := e.ReadText(ctx, page, entities.ByCSS("bdi"))
		require.NoError(t, err)
		assert.Equal(t, "ElegantEgotist", text)
	})

	t.Run("per call options override the policy", func(t *testing.T) {
		e := newTestEngine(t, 10*time.Second)
		page := newFakePage()

		start := time.Now()
		_, err := e.Click(ctx, page, entities.ByText("missing"), WithTimeout(50*time.Millisecond), WithPollInterval(10*time.Millisecond))
		require.Error(t, err)
		assert.Less(t, time.Since(start), time.Second)
	})
}
