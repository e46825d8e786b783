package engine

import (
	"context"

	"github.com/rs/zerolog/log"

	"survey-activation-engine/internal/cache"
	"survey-activation-engine/internal/observability"
	"survey-activation-engine/internal/storage"
)

// Source supplies the persisted survey configurations.
type Source interface {
	LoadSurveys(ctx context.Context) ([]storage.SurveyRecord, error)
}

type snapshot struct {
	surveys []SurveyConfig // storage order
	byID    map[string]int
}

// ActivationEngine serves read-only, lock-free activation lookups over the
// last loaded set of surveys.
type ActivationEngine struct{ snap cache.Snapshot[snapshot] }

func NewEngine() *ActivationEngine { return &ActivationEngine{} }

// BuildSnapshot loads all surveys from src and swaps them in.
// On error the previous snapshot stays in place.
func (e *ActivationEngine) BuildSnapshot(ctx context.Context, src Source) error {
	rows, err := src.LoadSurveys(ctx)
	if err != nil {
		observability.SnapshotRefreshes.WithLabelValues("error").Inc()
		return err
	}
	e.Load(rows)
	observability.SnapshotRefreshes.WithLabelValues("ok").Inc()
	log.Debug().Int("surveys", len(rows)).Msg("snapshot rebuilt")
	return nil
}

// Load replaces the snapshot with the given records.
func (e *ActivationEngine) Load(rows []storage.SurveyRecord) {
	s := snapshot{
		surveys: make([]SurveyConfig, 0, len(rows)),
		byID:    make(map[string]int, len(rows)),
	}
	for _, r := range rows {
		c := FromRecord(r)
		warnUnknownRules(c)
		if i, ok := s.byID[c.ID]; ok {
			s.surveys[i] = c
			continue
		}
		s.byID[c.ID] = len(s.surveys)
		s.surveys = append(s.surveys, c)
	}
	e.snap.Store(s)
	observability.SnapshotSurveys.Set(float64(len(s.surveys)))
}

// FromRecord converts a persisted record into the resolver's model.
func FromRecord(r storage.SurveyRecord) SurveyConfig {
	c := SurveyConfig{
		ID:        r.ID,
		SessionID: r.SessionID,
		Display:   r.Display,
		Events:    make([]EventConfig, 0, len(r.Events)),
	}
	for _, ev := range r.Events {
		e := EventConfig{
			ID:                ev.ID,
			Name:              ev.Name,
			Trigger:           Trigger(ev.Trigger),
			URLs:              make([]URLMatcher, 0, len(ev.URLs)),
			Mode:              ev.Mode,
			DisplayPercentage: ev.DisplayPercentage,
			DisplayDelay:      ev.DisplayDelay,
		}
		for _, u := range ev.URLs {
			e.URLs = append(e.URLs, URLMatcher{URL: u.URL, Rule: URLRule(u.Rule)})
		}
		c.Events = append(c.Events, e)
	}
	return c
}

func warnUnknownRules(c SurveyConfig) {
	for _, ev := range c.Events {
		for _, m := range ev.URLs {
			if !m.Rule.Known() {
				log.Warn().
					Str("survey_id", c.ID).
					Str("event_id", ev.ID).
					Str("rule", string(m.Rule)).
					Msg("unknown url rule; matcher will never match")
			}
		}
	}
}

// Surveys returns a copy of the loaded surveys.
func (e *ActivationEngine) Surveys() []SurveyConfig {
	s, _ := e.snap.Load()
	return append([]SurveyConfig{}, s.surveys...)
}

// Survey looks up one survey by id.
func (e *ActivationEngine) Survey(id string) (*SurveyConfig, bool) {
	s, _ := e.snap.Load()
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	c := s.surveys[i]
	return &c, true
}

// Resolve computes the active events of one survey for page. page may be a
// full URL; it is reduced to origin + path first. ok is false when the
// survey is not loaded.
func (e *ActivationEngine) Resolve(_ context.Context, surveyID, page string) (Resolution, bool) {
	cfg, ok := e.Survey(surveyID)
	if !ok {
		observability.Resolutions.WithLabelValues("unknown_survey").Inc()
		return Resolution{}, false
	}
	page = CurrentPage(page)
	active := ExtractActiveEvents(cfg, page)
	if len(active) > 0 {
		observability.Resolutions.WithLabelValues("active").Inc()
	} else {
		observability.Resolutions.WithLabelValues("inactive").Inc()
	}
	return Resolution{
		SurveyID:  surveyID,
		Page:      page,
		Active:    active,
		ByTrigger: groupByTrigger(active),
	}, true
}
