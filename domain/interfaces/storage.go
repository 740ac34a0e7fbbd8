package interfaces

import "e2e_harness/domain/entities"

// SessionStore persists authentication state between runs
type SessionStore interface {
	// Save replaces any prior session at path
	Save(state *entities.SessionState, path string) error

	// Load returns nil without error when no session was ever saved at path
	Load(path string) (*entities.SessionState, error)
}
