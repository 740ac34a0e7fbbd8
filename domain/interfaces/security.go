package interfaces

import "e2e_harness/domain/entities"

// SecurityLayer keeps credentials out of logs and reports
type SecurityLayer interface {
	// IsSensitive reports whether values typed into the target are secrets
	IsSensitive(target entities.Locator) bool

	// Redact returns the value safe to log for a fill against target
	Redact(target entities.Locator, value string) string
}
