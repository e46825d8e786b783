package monitor

import (
	"strings"
	"unicode/utf8"
)

var sdkMarkers = []string{"🎯", "🚀", "✅", "❌", "⚠️", "🔄", "📊"}

// IsSDKMessage reports whether a console line looks like SDK output.
func IsSDKMessage(msg string) bool {
	for _, m := range sdkMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "cxgaia") ||
		strings.Contains(lower, "webintercept") ||
		strings.Contains(lower, "initializing") ||
		(strings.Contains(lower, "sdk") && strings.Contains(lower, "loaded"))
}

// IsSDKAPICall reports whether a request URL belongs to the survey backend.
// Other traffic is not recorded.
func IsSDKAPICall(url string) bool {
	return strings.Contains(url, "feedback.concentrixcx.com") ||
		strings.Contains(url, "gaia") ||
		strings.Contains(url, "survey")
}

// Classify picks the event type by keyword; the first matching group wins.
func Classify(msg string) EventType {
	lower := strings.ToLower(msg)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("initializ"):
		return EventInitialization
	case has("api call", "fetching"):
		return EventAPICall
	case has("response", "received"):
		return EventAPIResponse
	case has("trigger", "event"):
		return EventTriggered
	case has("display", "show"):
		return EventSurveyDisplay
	case has("hidden", "close"):
		return EventSurveyHidden
	case has("error", "fail"):
		return EventError
	case has("storage", "localstorage"):
		return EventStorage
	case has("url", "match"):
		return EventURLMatch
	}
	return EventGeneral
}

// isEmoji covers the pictograph block U+1F300..U+1F9FF.
func isEmoji(r rune) bool { return r >= 0x1F300 && r <= 0x1F9FF }

// SplitEmoji returns the first pictograph in msg and msg with all of them
// removed and trimmed.
func SplitEmoji(msg string) (emoji, rest string) {
	var b strings.Builder
	for i := 0; i < len(msg); {
		r, size := utf8.DecodeRuneInString(msg[i:])
		if isEmoji(r) {
			if emoji == "" {
				emoji = string(r)
			}
		} else {
			b.WriteString(msg[i : i+size])
		}
		i += size
	}
	return emoji, strings.TrimSpace(b.String())
}
