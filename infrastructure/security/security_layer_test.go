package security

import (
	"testing"

	"e2e_harness/domain/entities"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestIsSensitive(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewSecurityLayer(logger, " PIN ")

	tests := []struct {
		name string
		loc  entities.Locator
		want bool
	}{
		{"password label", entities.ByLabel("Password"), true},
		{"password css", entities.ByCSS(`input[type="password"]`), true},
		{"token role", entities.ByRole("textbox", "Access token"), true},
		{"extra keyword", entities.ByLabel("Card PIN"), true},
		{"username", entities.ByRole("textbox", "Username"), false},
		{"search", entities.ByRole("searchbox", "Search Wikipedia"), false},
		{"scope does not leak", entities.ByRole("textbox", "Username").Within(entities.ByCSS("form#password-reset")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.IsSensitive(tt.loc))
		})
	}
}

func TestRedact(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewSecurityLayer(logger)

	assert.Equal(t, Mask, s.Redact(entities.ByLabel("Password"), "hunter2"))
	assert.Equal(t, Mask, s.Redact(entities.ByLabel("Password"), "a much longer secret value"))
	assert.Equal(t, "", s.Redact(entities.ByLabel("Password"), ""))
	assert.Equal(t, "Alice", s.Redact(entities.ByRole("textbox", "Username"), "Alice"))

	for _, e := range hook.AllEntries() {
		assert.NotContains(t, e.Message, "hunter2")
	}
}
