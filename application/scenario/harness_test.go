package scenario_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"e2e_harness/application/engine"
	"e2e_harness/application/pages"
	"e2e_harness/application/scenario"
	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"
	"e2e_harness/infrastructure/browser"
	"e2e_harness/infrastructure/security"
	"e2e_harness/infrastructure/storage"
	"e2e_harness/internal/wikitest"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

const (
	testUser     = "Alice"
	testPassword = "hunter2"
)

// harness wires the static engine against a fake wiki
type harness struct {
	srv     *wikitest.Server
	browser interfaces.Browser
	engine  *engine.Engine
	store   interfaces.SessionStore
	logger  *logrus.Logger
	hook    *test.Hook
	path    string
}

func newHarness(t *testing.T, opts wikitest.Options) *harness {
	t.Helper()
	if opts.Username == "" {
		opts.Username, opts.Password = testUser, testPassword
	}
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	srv := wikitest.NewServer(t, opts)
	b, err := browser.NewStaticController(browser.StaticOptions{BaseURL: srv.URL, Timeout: 5 * time.Second}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	eng := engine.New(engine.Options{
		Policy: entities.WaitPolicy{Timeout: 300 * time.Millisecond, PollInterval: 20 * time.Millisecond, Condition: entities.ConditionExists},
	}, security.NewSecurityLayer(logger), logger)

	return &harness{
		srv:     srv,
		browser: b,
		engine:  eng,
		store:   storage.NewSessionStore(logger),
		logger:  logger,
		hook:    hook,
		path:    filepath.Join(t.TempDir(), "auth", "login.json"),
	}
}

func (h *harness) sessions(creds pages.Credentials) *scenario.SessionManager {
	return scenario.NewSessionManager(h.browser, h.store, h.engine, h.logger, h.path, creds)
}

func (h *harness) suite(creds pages.Credentials, concurrency int) *scenario.Suite {
	return scenario.NewSuite(h.browser, h.sessions(creds), scenario.NewRunner(h.engine, h.logger), h.logger, concurrency)
}

func (h *harness) params() scenario.Params {
	return scenario.DefaultParams.Merge(scenario.Params{scenario.ParamPortalURL: h.srv.PortalURL()})
}

func validCreds() pages.Credentials {
	return pages.Credentials{Username: testUser, Password: testPassword}
}

// signedIn is a scenario that only passes in an authenticated context
func signedIn() scenario.Scenario {
	return scenario.Scenario{
		Name:         "signed-in",
		NeedsSession: true,
		Steps: []scenario.Step{
			{
				Name: "open main page",
				Run: func(ctx context.Context, env *scenario.Env) error {
					return pages.OpenMainPage(ctx, env.Page)
				},
			},
			{
				Name:      "user page link shown",
				DependsOn: []string{"open main page"},
				Run: func(ctx context.Context, env *scenario.Env) error {
					return env.Engine.Expect(ctx, env.Page, entities.ByRole("link", testUser).Exact(), engine.IsVisible())
				},
			},
		},
	}
}
