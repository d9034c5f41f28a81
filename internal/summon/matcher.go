// Package summon decides whether inbound text addresses the bot.
package summon

import (
	"fmt"
	"regexp"
)

// Matcher detects the activation name at word boundaries, with an optional
// @-mention prefix. Case-insensitive.
type Matcher struct {
	pattern *regexp.Regexp
}

// NewMatcher compiles a matcher for the given activation name
func NewMatcher(name string) (*Matcher, error) {
	if name == "" {
		name = "jarvis"
	}
	pattern, err := regexp.Compile(fmt.Sprintf(`(?i)(^|\s)@?%s(:|\s|$)`, regexp.QuoteMeta(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to compile summon pattern: %w", err)
	}
	return &Matcher{pattern: pattern}, nil
}

// IsSummon reports whether the text summons the bot. Empty text never does.
func (m *Matcher) IsSummon(text string) bool {
	if text == "" {
		return false
	}
	return m.pattern.MatchString(text)
}
