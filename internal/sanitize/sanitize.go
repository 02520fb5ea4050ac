// Package sanitize validates identifiers (schema, entity and column names)
// before they are interpolated into SQL text.
//
// The check is deliberately conservative: an allow-list of characters plus a
// substring denylist of statement keywords. It is a first line of defense
// only; callers still quote every identifier when rendering SQL.
package sanitize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidIdentifier is returned for any identifier that fails validation.
var ErrInvalidIdentifier = errors.New("invalid identifier")

var allowed = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// DeniedKeywords are rejected anywhere inside an identifier, case-insensitively.
var DeniedKeywords = []string{"DROP", "CREATE", "ALTER", "INSERT", "UPDATE", "DELETE", "--", ";"}

// Sanitizer checks identifiers against the allow-list and a keyword denylist.
type Sanitizer struct {
	denied []string
}

// NewSanitizer creates a Sanitizer that rejects DeniedKeywords plus extra.
// Extra keywords are matched case-insensitively; empty entries are ignored.
func NewSanitizer(extra []string) *Sanitizer {
	denied := make([]string, 0, len(DeniedKeywords)+len(extra))
	denied = append(denied, DeniedKeywords...)
	for _, kw := range extra {
		kw = strings.ToUpper(strings.TrimSpace(kw))
		if kw != "" {
			denied = append(denied, kw)
		}
	}
	return &Sanitizer{denied: denied}
}

var defaultSanitizer = NewSanitizer(nil)

// Identifier validates raw with the default denylist.
func Identifier(raw string) (string, error) {
	return defaultSanitizer.Identifier(raw)
}

// Identifier returns raw unchanged if it is a safe identifier.
func (s *Sanitizer) Identifier(raw string) (string, error) {
	if !allowed.MatchString(raw) {
		return "", fmt.Errorf("%w %q: only letters, digits, '_', '.' and '-' are allowed", ErrInvalidIdentifier, raw)
	}
	upper := strings.ToUpper(raw)
	for _, kw := range s.denied {
		if strings.Contains(upper, kw) {
			return "", fmt.Errorf("%w %q: contains reserved keyword %q", ErrInvalidIdentifier, raw, kw)
		}
	}
	return raw, nil
}

// Identifiers validates every name and stops at the first failure.
func (s *Sanitizer) Identifiers(names []string) error {
	for _, name := range names {
		if _, err := s.Identifier(name); err != nil {
			return err
		}
	}
	return nil
}
