package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"

	json "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var codec = json.ConfigCompatibleWithStandardLibrary

type sessionStore struct {
	logger *logrus.Logger
}

// NewSessionStore - creates a file backed session store
func NewSessionStore(logger *logrus.Logger) interfaces.SessionStore {
	return &sessionStore{logger: logger}
}

// Save - writes state to path through a temp file in the same directory so a
// reader never sees a half-written session
func (s *sessionStore) Save(state *entities.SessionState, path string) error {
	if state == nil {
		return &entities.SessionIOError{Op: "save", Path: path, Err: errors.New("nil session state")}
	}
	data, err := codec.MarshalIndent(normalized(state), "", "  ")
	if err != nil {
		return &entities.SessionIOError{Op: "save", Path: path, Err: fmt.Errorf("failed to encode: %w", err)}
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &entities.SessionIOError{Op: "save", Path: path, Err: err}
	}
	if err := writeAtomic(dir, path, data); err != nil {
		return &entities.SessionIOError{Op: "save", Path: path, Err: err}
	}

	s.logger.WithFields(logrus.Fields{
		"path":    path,
		"cookies": len(state.Cookies),
		"origins": len(state.Origins),
	}).Info("Session saved")
	return nil
}

// Load - reads the session at path, nil when none was saved
func (s *sessionStore) Load(path string) (*entities.SessionState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.WithField("path", path).Debug("No saved session")
			return nil, nil
		}
		return nil, &entities.SessionIOError{Op: "load", Path: path, Err: err}
	}

	var state entities.SessionState
	if err := codec.Unmarshal(data, &state); err != nil {
		return nil, &entities.SessionIOError{Op: "load", Path: path, Err: fmt.Errorf("failed to decode: %w", err)}
	}

	s.logger.WithFields(logrus.Fields{
		"path":    path,
		"cookies": len(state.Cookies),
	}).Debug("Session loaded")
	return normalized(&state), nil
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// normalized replaces nil lists with empty ones so files always carry arrays
func normalized(in *entities.SessionState) *entities.SessionState {
	out := &entities.SessionState{
		Cookies: in.Cookies,
		Origins: make([]entities.OriginStorage, 0, len(in.Origins)),
	}
	if out.Cookies == nil {
		out.Cookies = []entities.Cookie{}
	}
	for _, o := range in.Origins {
		if o.LocalStorage == nil {
			o.LocalStorage = []entities.NameValue{}
		}
		out.Origins = append(out.Origins, o)
	}
	return out
}
