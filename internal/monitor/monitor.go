// Package monitor collects console output and API calls reported by the
// embedded survey SDK so debug panels can show them.
package monitor

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"survey-activation-engine/internal/observability"
)

const DefaultCapacity = 1000

// Monitor is safe for concurrent use. It records nothing until Start.
type Monitor struct {
	mu       sync.RWMutex
	capacity int
	running  bool
	entries  []Entry
	calls    []APICall
	state    State
	subs     map[int]func(Entry)
	stateSub map[int]func(State)
	nextSub  int
	now      func() time.Time
}

func New(capacity int) *Monitor {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Monitor{
		capacity: capacity,
		subs:     map[int]func(Entry){},
		stateSub: map[int]func(State){},
		now:      time.Now,
	}
}

// Start begins recording. It returns false if already running.
func (m *Monitor) Start() bool {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return false
	}
	m.running = true
	m.mu.Unlock()

	m.add(Entry{Level: LevelInfo, EventType: EventGeneral, Emoji: "🎯", Message: "SDK Monitor started"})
	return true
}

// Stop ends recording. It returns false if not running.
func (m *Monitor) Stop() bool {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return false
	}
	m.running = false
	m.mu.Unlock()

	m.add(Entry{Level: LevelInfo, EventType: EventGeneral, Emoji: "🛑", Message: "SDK Monitor stopped"})
	return true
}

func (m *Monitor) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Record captures a console call. The first argument is the message; the
// rest become details. Lines that do not look like SDK output, and any
// line while stopped, are ignored.
func (m *Monitor) Record(level Level, args ...any) (Entry, bool) {
	if len(args) == 0 || !m.Running() {
		return Entry{}, false
	}
	msg := fmt.Sprint(args[0])
	if !IsSDKMessage(msg) {
		return Entry{}, false
	}
	emoji, text := SplitEmoji(msg)
	e := Entry{
		Level:     level,
		EventType: Classify(msg),
		Message:   text,
		Emoji:     emoji,
	}
	if len(args) > 1 {
		e.Details = args[1:]
	}
	return m.add(e), true
}

// RecordAPICall stores a finished SDK request and logs the request followed
// by its outcome. Calls to URLs outside the survey backend are ignored and
// ok is false.
func (m *Monitor) RecordAPICall(c APICall) (APICall, bool) {
	if !IsSDKAPICall(c.URL) {
		return APICall{}, false
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = m.now()
	}
	if c.Method == "" {
		c.Method = "GET"
	}

	m.mu.Lock()
	m.calls = append(m.calls, c)
	if len(m.calls) > m.capacity {
		m.calls = append([]APICall(nil), m.calls[len(m.calls)-m.capacity:]...)
	}
	m.mu.Unlock()

	m.add(Entry{
		Level:     LevelInfo,
		EventType: EventAPICall,
		Message:   fmt.Sprintf("API Call: %s %s", c.Method, c.URL),
		Details:   []any{c},
	})

	e := Entry{Level: LevelInfo, EventType: EventAPIResponse, Details: []any{c}}
	switch {
	case c.Error != "":
		e.Level, e.EventType = LevelError, EventError
		e.Message = "API Error: " + c.Error
	case c.Status >= 400:
		e.Level = LevelWarn
		e.Message = fmt.Sprintf("API Response: %d (%dms)", c.Status, c.DurationMS)
	default:
		e.Message = fmt.Sprintf("API Response: %d (%dms)", c.Status, c.DurationMS)
	}
	m.add(e)
	return c, true
}

// UpdateState applies fn to the current state, notifies state subscribers
// and returns the result.
func (m *Monitor) UpdateState(fn func(*State)) State {
	m.mu.Lock()
	fn(&m.state)
	s := m.state
	subs := make([]func(State), 0, len(m.stateSub))
	for _, sub := range m.stateSub {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		sub(s)
	}
	return s
}

// SubscribeState registers fn for every state change and returns its cancel
// func.
func (m *Monitor) SubscribeState(fn func(State)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.stateSub[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.stateSub, id)
		m.mu.Unlock()
	}
}

// Subscribe registers fn for every new entry and returns its cancel func.
// fn runs on the recording goroutine and must not block.
func (m *Monitor) Subscribe(fn func(Entry)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Monitor) Logs() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Entry{}, m.entries...)
}

func (m *Monitor) LogsByType(t EventType) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Entry{}
	for _, e := range m.entries {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

func (m *Monitor) APICalls() []APICall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]APICall{}, m.calls...)
}

func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Clear drops all entries and API calls, leaving a single marker entry.
func (m *Monitor) Clear() {
	m.mu.Lock()
	m.entries = nil
	m.calls = nil
	m.mu.Unlock()

	m.add(Entry{Level: LevelInfo, EventType: EventGeneral, Emoji: "🗑", Message: "Logs cleared"})
}

type export struct {
	Logs       []Entry   `json:"logs"`
	APICalls   []APICall `json:"apiCalls"`
	State      State     `json:"state"`
	ExportedAt time.Time `json:"exportedAt"`
}

// Export renders everything recorded as indented JSON.
func (m *Monitor) Export() ([]byte, error) {
	m.mu.RLock()
	doc := export{
		Logs:       append([]Entry{}, m.entries...),
		APICalls:   append([]APICall{}, m.calls...),
		State:      m.state,
		ExportedAt: m.now().UTC(),
	}
	m.mu.RUnlock()
	return json.MarshalIndent(doc, "", "  ")
}

func (m *Monitor) add(e Entry) Entry {
	e.ID = uuid.NewString()
	e.Timestamp = m.now()

	m.mu.Lock()
	m.entries = append(m.entries, e)
	if len(m.entries) > m.capacity {
		m.entries = append([]Entry(nil), m.entries[len(m.entries)-m.capacity:]...)
	}
	subs := make([]func(Entry), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	observability.MonitorEntries.WithLabelValues(string(e.EventType)).Inc()
	log.Debug().
		Str("level", string(e.Level)).
		Str("event_type", string(e.EventType)).
		Msg(e.Message)

	for _, fn := range subs {
		fn(e)
	}
	return e
}
