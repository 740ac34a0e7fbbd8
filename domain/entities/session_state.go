package entities

// SessionState is the authentication artifact captured from a browser context.
// Field names follow the Playwright storage-state file format so a file written
// by either engine seeds the other. A nil list and an empty list describe the
// same state; the session store always loads empty lists as non-nil.
type SessionState struct {
	Cookies []Cookie        `json:"cookies"`
	Origins []OriginStorage `json:"origins"`
}

// Cookie is a single browser cookie
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// OriginStorage is the key/value storage of one origin, in insertion order
type OriginStorage struct {
	Origin       string      `json:"origin"`
	LocalStorage []NameValue `json:"localStorage"`
}

// NameValue is one storage entry
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// IsEmpty reports whether the state carries nothing to seed a context with
func (s *SessionState) IsEmpty() bool {
	return s == nil || (len(s.Cookies) == 0 && len(s.Origins) == 0)
}

// Storage returns the key/value pairs recorded for origin
func (s *SessionState) Storage(origin string) []NameValue {
	if s == nil {
		return nil
	}
	for _, o := range s.Origins {
		if o.Origin == origin {
			return o.LocalStorage
		}
	}
	return nil
}

// SessionPhase tracks where a suite run is in the authentication lifecycle
type SessionPhase string

const (
	SessionNone          SessionPhase = "no_session"
	SessionCaptured      SessionPhase = "session_captured"
	SessionPersisted     SessionPhase = "persisted"
	SessionAuthenticated SessionPhase = "authenticated"
	SessionLoginFailed   SessionPhase = "login_failed"
)
