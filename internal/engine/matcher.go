package engine

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsURLMatch compares currentURL against the matcher, ignoring case.
// Unknown rules never match.
func IsURLMatch(currentURL string, m URLMatcher) bool {
	cur := lower(currentURL)
	target := lower(m.URL)

	switch m.Rule {
	case RuleExact:
		return cur == target
	case RuleContains:
		return strings.Contains(cur, target)
	case RuleStartsWith:
		return strings.HasPrefix(cur, target)
	case RuleEndsWith:
		return strings.HasSuffix(cur, target)
	case RuleNotContains:
		return !strings.Contains(cur, target)
	case RuleNotMatches:
		return cur != target
	default:
		return false
	}
}

// IsEventActive reports whether the event applies to currentPath.
// Matchers are OR-ed; an event without matchers is global.
func IsEventActive(e EventConfig, currentPath string) bool {
	if len(e.URLs) == 0 {
		return true
	}
	for _, m := range e.URLs {
		if IsURLMatch(currentPath, m) {
			return true
		}
	}
	return false
}

// lower is strings.ToLower that copies invalid UTF-8 bytes through unchanged,
// so distinct byte strings never fold into the same value.
func lower(s string) string {
	if utf8.ValidString(s) {
		return strings.ToLower(s)
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(s[i])
		} else {
			b.WriteRune(unicode.ToLower(r))
		}
		i += size
	}
	return b.String()
}
