package security

import (
	"strings"

	"e2e_harness/domain/entities"
	"e2e_harness/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// Mask replaces every secret value, whatever its length
const Mask = "********"

var sensitiveKeywords = []string{
	"password", "passwd", "pwd", "пароль",
	"secret", "token", "credential",
	"api key", "api_key", "apikey",
	"one-time code",
}

type SecurityLayer struct {
	logger   *logrus.Logger
	keywords []string
}

// NewSecurityLayer - creates a redactor; extra keywords extend the built-in list
func NewSecurityLayer(logger *logrus.Logger, extra ...string) *SecurityLayer {
	keywords := append([]string{}, sensitiveKeywords...)
	for _, k := range extra {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return &SecurityLayer{
		logger:   logger,
		keywords: keywords,
	}
}

// IsSensitive - checks the target's own parameters; scopes don't make a field secret
func (s *SecurityLayer) IsSensitive(target entities.Locator) bool {
	for _, v := range target.Params() {
		lower := strings.ToLower(v)
		for _, keyword := range s.keywords {
			if strings.Contains(lower, keyword) {
				return true
			}
		}
	}
	return false
}

// Redact - masks value when target is sensitive
func (s *SecurityLayer) Redact(target entities.Locator, value string) string {
	if value == "" || !s.IsSensitive(target) {
		return value
	}
	s.logger.WithField("locator", target.String()).Debug("Masking sensitive value")
	return Mask
}

// Ensure SecurityLayer implements SecurityLayer interface
var _ interfaces.SecurityLayer = (*SecurityLayer)(nil)
