package timeout

import (
	"fmt"
	"regexp"
	"time"
)

// Rule is the timeout manager's own rule type.
type Rule struct {
	Pattern string
	Timeout time.Duration
}

// Config is the timeout manager's own config type.
type Config struct {
	ReadTimeout  time.Duration // catalog SELECTs
	WriteTimeout time.Duration // COMMENT ON statements
	Rules        []Rule
}

type compiledRule struct {
	pattern *regexp.Regexp
	timeout time.Duration
}

// Manager resolves statement timeouts based on SQL pattern matching.
type Manager struct {
	rules        []compiledRule
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewManager creates a new Manager. Returns an error on invalid regex patterns.
func NewManager(config Config) (*Manager, error) {
	compiled := make([]compiledRule, len(config.Rules))
	for i, r := range config.Rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("timeout: invalid regex pattern %q: %v", r.Pattern, err)
		}
		compiled[i] = compiledRule{pattern: re, timeout: r.Timeout}
	}
	return &Manager{
		rules:        compiled,
		readTimeout:  config.ReadTimeout,
		writeTimeout: config.WriteTimeout,
	}, nil
}

// GetTimeout returns the timeout for the given SQL.
// First matching rule wins. Falls back to the read or write default.
func (m *Manager) GetTimeout(sql string, write bool) time.Duration {
	d, _ := m.GetTimeoutWithPattern(sql, write)
	return d
}

// GetTimeoutWithPattern is GetTimeout that also reports the matching rule's
// pattern, or "" when the default applied.
func (m *Manager) GetTimeoutWithPattern(sql string, write bool) (time.Duration, string) {
	for _, rule := range m.rules {
		if rule.pattern.MatchString(sql) {
			return rule.timeout, rule.pattern.String()
		}
	}
	if write {
		return m.writeTimeout, ""
	}
	return m.readTimeout, ""
}
