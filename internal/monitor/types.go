package monitor

import "time"

type Level string

const (
	LevelDebug Level = "debug"
	LevelLog   Level = "log"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ParseLevel maps a console method name to a Level, defaulting to log.
func ParseLevel(s string) Level {
	switch l := Level(s); l {
	case LevelDebug, LevelLog, LevelInfo, LevelWarn, LevelError:
		return l
	}
	return LevelLog
}

type EventType string

const (
	EventInitialization EventType = "initialization"
	EventAPICall        EventType = "api_call"
	EventAPIResponse    EventType = "api_response"
	EventTriggered      EventType = "event_triggered"
	EventSurveyDisplay  EventType = "survey_display"
	EventSurveyHidden   EventType = "survey_hidden"
	EventError          EventType = "error"
	EventStorage        EventType = "storage_operation"
	EventURLMatch       EventType = "url_match"
	EventGeneral        EventType = "general"
)

type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	EventType EventType `json:"eventType"`
	Message   string    `json:"message"`
	Emoji     string    `json:"emoji,omitempty"`
	Details   []any     `json:"details,omitempty"`
}

type APICall struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	URL        string            `json:"url"`
	Method     string            `json:"method"`
	Headers    map[string]string `json:"headers,omitempty"`
	Status     int               `json:"status,omitempty"`
	DurationMS int64             `json:"duration,omitempty"` // milliseconds
	Error      string            `json:"error,omitempty"`
}

// State is what the SDK last reported about itself.
type State struct {
	Initialized      bool              `json:"isInitialized"`
	APIKey           string            `json:"apiKey,omitempty"`
	SessionID        string            `json:"sessionId,omitempty"`
	TargetAttributes map[string]string `json:"targetAttributes,omitempty"`
	Environment      string            `json:"environment,omitempty"` // dev | uat | prod | local
	APIVersion       string            `json:"apiVersion,omitempty"`  // v1 | v2
	DebugMode        bool              `json:"debugMode"`
}
