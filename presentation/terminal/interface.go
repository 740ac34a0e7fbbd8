package terminal

import (
	"context"
	"fmt"
	"io"
	"strings"

	"e2e_harness/application/engine"
	"e2e_harness/application/pages"
	"e2e_harness/application/scenario"
	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"
	"e2e_harness/infrastructure/browser"
	"e2e_harness/infrastructure/config"
	"e2e_harness/infrastructure/security"
	"e2e_harness/infrastructure/storage"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"
)

type TerminalInterface struct {
	cfg     *config.Config
	logger  *logrus.Logger
	engine  *engine.Engine
	store   interfaces.SessionStore
	browser interfaces.Browser
	logFile io.Closer
}

// NewTerminalInterface - wires logger, engine and session store from cfg. The
// browser is started lazily so `list` never launches one.
func NewTerminalInterface(cfg *config.Config, console io.Writer) (*TerminalInterface, error) {
	logger, logFile, err := newLogger(cfg.Logger, console)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	securityLayer := security.NewSecurityLayer(logger)
	eng := engine.New(engine.Options{
		Policy:          cfg.WaitPolicy(),
		StableFrame:     cfg.Wait.StableFrame,
		DispatchTimeout: cfg.Wait.DispatchTimeout,
	}, securityLayer, logger)

	return &TerminalInterface{
		cfg:     cfg,
		logger:  logger,
		engine:  eng,
		store:   storage.NewSessionStore(logger),
		logFile: logFile,
	}, nil
}

// newLogger builds the console logger, teeing into a rotating file when configured
func newLogger(cfg config.LoggerConfig, console io.Writer) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text", "console":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	if cfg.File == "" {
		logger.SetOutput(console)
		return logger, nil, nil
	}
	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	logger.SetOutput(io.MultiWriter(console, file))
	return logger, file, nil
}

func (t *TerminalInterface) ensureBrowser() (interfaces.Browser, error) {
	if t.browser != nil {
		return t.browser, nil
	}

	var (
		b   interfaces.Browser
		err error
	)
	switch t.cfg.Browser.Engine {
	case config.EngineStatic:
		b, err = browser.NewStaticController(browser.StaticOptions{
			BaseURL:   t.cfg.BaseURL,
			Timeout:   t.cfg.Wait.Timeout,
			UserAgent: t.cfg.Browser.UserAgent,
		}, t.logger)
	default:
		b, err = browser.NewBrowserController(browser.PlaywrightOptions{
			BaseURL:           t.cfg.BaseURL,
			Headless:          t.cfg.Browser.Headless,
			SlowMo:            t.cfg.Browser.SlowMo,
			NavigationTimeout: t.cfg.Wait.Timeout,
		}, t.logger)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}
	t.browser = b
	return b, nil
}

func (t *TerminalInterface) credentials() pages.Credentials {
	return pages.Credentials{
		Username: t.cfg.Credentials.Username,
		Password: t.cfg.Credentials.Password,
	}
}

func (t *TerminalInterface) sessionManager(b interfaces.Browser) *scenario.SessionManager {
	return scenario.NewSessionManager(b, t.store, t.engine, t.logger, t.cfg.Session.File, t.credentials())
}

// Params - built-in defaults, then configured portal, then config params, then overrides
func (t *TerminalInterface) Params(overrides map[string]string) scenario.Params {
	return scenario.DefaultParams.
		Merge(scenario.Params{scenario.ParamPortalURL: t.cfg.PortalURL}).
		Merge(t.cfg.Params).
		Merge(overrides)
}

// Catalog - every scenario this harness knows
func (t *TerminalInterface) Catalog() []scenario.Scenario {
	return scenario.Catalog(t.credentials())
}

// Login - signs in and replaces the persisted session
func (t *TerminalInterface) Login(ctx context.Context) (entities.SessionPhase, error) {
	b, err := t.ensureBrowser()
	if err != nil {
		return entities.SessionNone, err
	}
	sessions := t.sessionManager(b)
	_, err = sessions.Login(ctx)
	return sessions.Phase(), err
}

// Run - bootstraps the session and runs the named scenarios (all when none)
func (t *TerminalInterface) Run(ctx context.Context, names []string, overrides map[string]string) (*entities.SuiteReport, error) {
	selected, err := scenario.Select(t.Catalog(), names)
	if err != nil {
		return nil, err
	}
	b, err := t.ensureBrowser()
	if err != nil {
		return nil, err
	}

	runner := scenario.NewRunner(t.engine, t.logger)
	suite := scenario.NewSuite(b, t.sessionManager(b), runner, t.logger, t.cfg.Suite.Concurrency)
	return suite.Run(ctx, selected, t.Params(overrides))
}

// Logger - the configured logger
func (t *TerminalInterface) Logger() *logrus.Logger {
	return t.logger
}

func (t *TerminalInterface) Close() error {
	var err error
	if t.browser != nil {
		err = multierr.Append(err, t.browser.Close())
		t.browser = nil
	}
	if t.logFile != nil {
		err = multierr.Append(err, t.logFile.Close())
		t.logFile = nil
	}
	return err
}
