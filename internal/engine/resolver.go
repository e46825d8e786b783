package engine

// ExtractActiveEvents returns the events of cfg active on currentPath, in
// configuration order. The result is never nil; a nil cfg yields no events.
func ExtractActiveEvents(cfg *SurveyConfig, currentPath string) []EventConfig {
	out := []EventConfig{}
	if cfg == nil {
		return out
	}
	for _, e := range cfg.Events {
		if IsEventActive(e, currentPath) {
			out = append(out, e)
		}
	}
	return out
}

// ExtractActiveEventsByTrigger groups the active events by trigger.
// Only triggers with at least one active event get a key.
func ExtractActiveEventsByTrigger(cfg *SurveyConfig, currentPath string) map[Trigger][]EventConfig {
	return groupByTrigger(ExtractActiveEvents(cfg, currentPath))
}

func groupByTrigger(events []EventConfig) map[Trigger][]EventConfig {
	out := map[Trigger][]EventConfig{}
	for _, e := range events {
		out[e.Trigger] = append(out[e.Trigger], e)
	}
	return out
}

// HasActiveEvents reports whether any event of cfg is active on currentPath.
func HasActiveEvents(cfg *SurveyConfig, currentPath string) bool {
	return len(ExtractActiveEvents(cfg, currentPath)) > 0
}

// FirstActiveEventByTrigger returns the earliest active event with the given
// trigger. ok is false when there is none.
func FirstActiveEventByTrigger(cfg *SurveyConfig, currentPath string, trigger Trigger) (EventConfig, bool) {
	for _, e := range ExtractActiveEvents(cfg, currentPath) {
		if e.Trigger == trigger {
			return e, true
		}
	}
	return EventConfig{}, false
}
