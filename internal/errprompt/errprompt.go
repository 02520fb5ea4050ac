package errprompt

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule is the error prompt matcher's own rule type.
type Rule struct {
	Pattern string
	Message string
}

// DefaultRules cover the failures COMMENT ON and catalog reads commonly hit.
// They are used when no rules are configured.
var DefaultRules = []Rule{
	{Pattern: `(?i)must be owner of`, Message: "COMMENT ON requires ownership of the object. Connect as the owner or a member of the owning role."},
	{Pattern: `(?i)relation .* does not exist`, Message: "The entity does not exist. Check the schema and table name; names are case-sensitive."},
	{Pattern: `(?i)column .* does not exist`, Message: "A column in the comment set does not exist on the entity. Snapshot column keys must be column names."},
	{Pattern: `(?i)is not a (view|table|materialized view)`, Message: "The comment verb does not match the entity kind. Use save_comments, which picks the verb from the catalog."},
	{Pattern: `unsupported entity kind`, Message: "Only tables, views and materialized views accept entity comments."},
}

type compiledRule struct {
	pattern *regexp.Regexp
	message string
}

// Matcher checks error messages against patterns and returns guidance prompts.
type Matcher struct {
	rules []compiledRule
}

// NewMatcher creates a new Matcher. Returns an error on invalid regex patterns.
func NewMatcher(rules []Rule) (*Matcher, error) {
	compiled := make([]compiledRule, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("errprompt: invalid regex pattern %q: %v", r.Pattern, err)
		}
		compiled[i] = compiledRule{pattern: re, message: r.Message}
	}
	return &Matcher{rules: compiled}, nil
}

// Match checks error message against all rules (top to bottom).
// Returns all matching prompt messages joined with newline separators.
// Returns empty string if no match.
func (m *Matcher) Match(errMsg string) string {
	var matches []string
	for _, rule := range m.rules {
		if rule.pattern.MatchString(errMsg) {
			matches = append(matches, rule.message)
		}
	}
	return strings.Join(matches, "\n")
}

// MatchedPatterns returns the regex patterns that matched the given error message.
// Returns nil if no match.
func (m *Matcher) MatchedPatterns(errMsg string) []string {
	var patterns []string
	for _, rule := range m.rules {
		if rule.pattern.MatchString(errMsg) {
			patterns = append(patterns, rule.pattern.String())
		}
	}
	return patterns
}

// Annotate returns err's message followed by any matching prompts.
func (m *Matcher) Annotate(err error) string {
	msg := err.Error()
	if prompt := m.Match(msg); prompt != "" {
		return msg + "\n\n" + prompt
	}
	return msg
}
