package engine

// URLRule selects how a matcher's URL is compared against the current page.
// Comparison is case-insensitive.
type URLRule string

const (
	RuleExact       URLRule = "exact"
	RuleContains    URLRule = "contains"
	RuleStartsWith  URLRule = "startsWith"
	RuleEndsWith    URLRule = "endsWith"
	RuleNotContains URLRule = "notContains"
	RuleNotMatches  URLRule = "notMatches" // negation of exact, not of contains
)

// Known reports whether r is one of the supported rules.
func (r URLRule) Known() bool {
	switch r {
	case RuleExact, RuleContains, RuleStartsWith, RuleEndsWith, RuleNotContains, RuleNotMatches:
		return true
	}
	return false
}

// Trigger is the display category of an event; the resolver never interprets it.
type Trigger string

const (
	TriggerPageView    Trigger = "pageView"
	TriggerScrollDepth Trigger = "scrollDepth"
	TriggerClick       Trigger = "click"
	TriggerExitIntent  Trigger = "exitIntent"
)

type URLMatcher struct {
	URL  string  `json:"url"`
	Rule URLRule `json:"rule"`
}

// EventConfig is one configured survey trigger.
// An empty URLs slice means the event is active on every page.
type EventConfig struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Trigger Trigger      `json:"trigger"`
	URLs    []URLMatcher `json:"urls"`

	// passed through untouched
	Mode              string `json:"mode,omitempty"`
	DisplayPercentage int    `json:"displayPercentage"`
	DisplayDelay      int    `json:"displayDelay"`
}

type SurveyConfig struct {
	ID        string        `json:"id"`
	SessionID string        `json:"sessionId"`
	Display   bool          `json:"display"` // already shown in this session
	Events    []EventConfig `json:"events"`
}

// Resolution is the activation result for one survey on one page.
type Resolution struct {
	SurveyID  string                    `json:"surveyId"`
	Page      string                    `json:"page"`
	Active    []EventConfig             `json:"active"`
	ByTrigger map[Trigger][]EventConfig `json:"byTrigger"`
}

// HasActive reports whether any event is active.
func (r Resolution) HasActive() bool { return len(r.Active) > 0 }
