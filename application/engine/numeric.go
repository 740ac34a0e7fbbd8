package engine

import (
	"fmt"
	"strconv"
	"strings"

	"e2e_harness/domain/entities"
)

// ComparisonError is a numeric assertion that parsed fine but did not hold
type ComparisonError struct {
	Observed int64
	Op       string
	Limit    int64
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("observed %d, want %s %d", e.Observed, e.Op, e.Limit)
}

// ParseCount reads an integer out of free-form text by dropping every
// non-digit character, so "6,908,432 articles" is 6908432.
func ParseCount(text string) (int64, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return 0, &entities.ParseError{Input: text}
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", text, err)
	}
	return n, nil
}

// LessThan checks that the number in text is below limit
func LessThan(text string, limit int64) error {
	n, err := ParseCount(text)
	if err != nil {
		return err
	}
	if n >= limit {
		return &ComparisonError{Observed: n, Op: "<", Limit: limit}
	}
	return nil
}
