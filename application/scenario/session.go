package scenario

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"e2e_harness/application/engine"
	"e2e_harness/application/pages"
	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// SessionManager drives the authentication lifecycle of a suite run:
//
//	no_session -> (login) -> session_captured -> (save) -> persisted
//	persisted  -> (load at suite start) -> authenticated
//
// A failed login is terminal for the run and never writes a session file.
type SessionManager struct {
	browser interfaces.Browser
	store   interfaces.SessionStore
	engine  *engine.Engine
	logger  *logrus.Logger
	path    string
	creds   pages.Credentials

	mu    sync.Mutex
	phase entities.SessionPhase
}

// NewSessionManager - creates session manager persisting to path
func NewSessionManager(browser interfaces.Browser, store interfaces.SessionStore, eng *engine.Engine, logger *logrus.Logger, path string, creds pages.Credentials) *SessionManager {
	return &SessionManager{
		browser: browser,
		store:   store,
		engine:  eng,
		logger:  logger,
		path:    path,
		creds:   creds,
		phase:   entities.SessionNone,
	}
}

// Phase returns where the lifecycle currently is
func (m *SessionManager) Phase() entities.SessionPhase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *SessionManager) setPhase(p entities.SessionPhase) {
	m.mu.Lock()
	m.phase = p
	m.mu.Unlock()
	m.logger.WithFields(logrus.Fields{"phase": p, "path": m.path}).Debug("Session phase changed")
}

// Bootstrap restores the persisted session, or signs in when there is none.
// A session file that exists but cannot be read is an error, not a reason
// to sign in again.
func (m *SessionManager) Bootstrap(ctx context.Context) (*entities.SessionState, error) {
	state, err := m.store.Load(m.path)
	if err != nil {
		return nil, err
	}
	if state != nil {
		m.setPhase(entities.SessionAuthenticated)
		m.logger.WithField("path", m.path).Info("Restored persisted session")
		return state, nil
	}

	m.logger.WithField("path", m.path).Info("No persisted session, signing in")
	return m.Login(ctx)
}

// Login signs in through a fresh anonymous context and replaces the
// persisted session with the one it captures.
func (m *SessionManager) Login(ctx context.Context) (*entities.SessionState, error) {
	if err := m.creds.Validate(); err != nil {
		return nil, err
	}

	page, err := m.browser.NewContext(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open login context: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			m.logger.Warnf("Failed to close login context: %v", err)
		}
	}()

	if err := pages.Login(ctx, m.engine, page, m.creds); err != nil {
		m.setPhase(entities.SessionLoginFailed)
		var failure *entities.LoginFailureError
		if errors.As(err, &failure) {
			m.logger.WithField("user", m.creds.Username).Error("Login rejected")
		}
		return nil, err
	}

	state, err := page.StorageState(ctx)
	if err != nil {
		m.setPhase(entities.SessionLoginFailed)
		return nil, fmt.Errorf("failed to capture session: %w", err)
	}
	m.setPhase(entities.SessionCaptured)

	if err := m.store.Save(state, m.path); err != nil {
		return nil, err
	}
	m.setPhase(entities.SessionPersisted)
	m.logger.WithFields(logrus.Fields{
		"path":    m.path,
		"cookies": len(state.Cookies),
	}).Info("Session persisted")
	return state, nil
}
