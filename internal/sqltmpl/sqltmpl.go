// Package sqltmpl fills {name} placeholders in fixed SQL templates.
//
// Only identifiers and fixed keywords go through Render. Values supplied by
// users (comment text, selector lists) stay as bind markers in the template
// and are passed to the database client as parameters.
package sqltmpl

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrMissingKey is returned when a template references a placeholder that has
// no value. It indicates a programming defect, not bad user input.
var ErrMissingKey = errors.New("template placeholder has no value")

var placeholder = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Render replaces every {name} in tmpl with values[name]. Values that match
// no placeholder are ignored.
func Render(tmpl string, values map[string]string) (string, error) {
	var missing string
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := m[1 : len(m)-1]
		v, ok := values[key]
		if !ok {
			if missing == "" {
				missing = key
			}
			return m
		}
		return v
	})
	if missing != "" {
		return "", fmt.Errorf("%w: {%s}", ErrMissingKey, missing)
	}
	return out, nil
}

// Placeholders returns the distinct placeholder names in tmpl, in order of
// first appearance.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
