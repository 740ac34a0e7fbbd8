package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Suite runs scenarios in parallel browser contexts. Scenarios share the
// persisted session, never a live context.
type Suite struct {
	browser     interfaces.Browser
	sessions    *SessionManager
	runner      *Runner
	logger      *logrus.Logger
	concurrency int
}

// NewSuite - creates suite; sessions may be nil for anonymous runs
func NewSuite(browser interfaces.Browser, sessions *SessionManager, runner *Runner, logger *logrus.Logger, concurrency int) *Suite {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Suite{
		browser:     browser,
		sessions:    sessions,
		runner:      runner,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Run bootstraps the session and runs scenarios. Reports keep the declared
// scenario order. The returned error is reserved for failures that stop the
// whole run; scenario failures live in the report.
func (s *Suite) Run(ctx context.Context, scenarios []Scenario, params Params) (*entities.SuiteReport, error) {
	report := &entities.SuiteReport{
		RunID:        uuid.NewString(),
		Started:      time.Now(),
		SessionPhase: entities.SessionNone,
	}
	log := s.logger.WithField("run_id", report.RunID)
	log.WithField("scenarios", len(scenarios)).Info("Suite started")

	state, err := s.bootstrap(ctx, log, scenarios)
	if s.sessions != nil {
		report.SessionPhase = s.sessions.Phase()
	}
	if err != nil {
		report.Finished = time.Now()
		return report, err
	}

	report.Scenarios = make([]entities.ScenarioReport, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			report.Scenarios[i] = s.runOne(gctx, log, sc, state, params)
			return nil
		})
	}
	_ = g.Wait()

	report.Finished = time.Now()
	log.WithFields(logrus.Fields{
		"passed":  report.Passed(),
		"elapsed": report.Finished.Sub(report.Started).Round(time.Millisecond),
	}).Info("Suite finished")
	return report, ctx.Err()
}

func (s *Suite) bootstrap(ctx context.Context, log *logrus.Entry, scenarios []Scenario) (*entities.SessionState, error) {
	if s.sessions == nil {
		return nil, nil
	}

	state, err := s.sessions.Bootstrap(ctx)
	if err == nil {
		return state, nil
	}
	if errors.Is(err, entities.ErrMissingCredentials) && !needsSession(scenarios) {
		log.Warn("No session and no credentials, running anonymously")
		return nil, nil
	}
	return nil, fmt.Errorf("session bootstrap: %w", err)
}

func (s *Suite) runOne(ctx context.Context, log *logrus.Entry, sc Scenario, state *entities.SessionState, params Params) entities.ScenarioReport {
	if sc.NeedsSession && state == nil {
		return entities.ScenarioReport{
			Name:  sc.Name,
			Tag:   sc.Tag,
			Error: fmt.Sprintf("requires an authenticated session: %v", entities.ErrMissingCredentials),
		}
	}

	seed := state
	if sc.Anonymous {
		seed = nil
	}
	page, err := s.browser.NewContext(ctx, seed)
	if err != nil {
		return entities.ScenarioReport{
			Name:  sc.Name,
			Tag:   sc.Tag,
			Error: fmt.Sprintf("failed to open browser context: %v", err),
		}
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.WithField("scenario", sc.Name).Warnf("Failed to close browser context: %v", err)
		}
	}()

	return s.runner.run(ctx, log, sc, page, params)
}

func needsSession(scenarios []Scenario) bool {
	for _, sc := range scenarios {
		if sc.NeedsSession {
			return true
		}
	}
	return false
}
