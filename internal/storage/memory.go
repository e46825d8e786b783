package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps surveys in process, in insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []string
	surveys map[string]SurveyRecord
}

func NewMemoryStore(seed ...SurveyRecord) *MemoryStore {
	m := &MemoryStore{surveys: map[string]SurveyRecord{}}
	for _, s := range seed {
		_ = m.SaveSurvey(context.Background(), s)
	}
	return m
}

func (m *MemoryStore) LoadSurveys(_ context.Context) ([]SurveyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SurveyRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.surveys[id])
	}
	return out, nil
}

func (m *MemoryStore) GetSurvey(_ context.Context, id string) (SurveyRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.surveys[id]
	if !ok {
		return SurveyRecord{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) SaveSurvey(_ context.Context, rec SurveyRecord) error {
	if err := Validate(rec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.surveys[rec.ID]; !ok {
		m.order = append(m.order, rec.ID)
	}
	m.surveys[rec.ID] = rec
	return nil
}

func (m *MemoryStore) DeleteSurvey(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.surveys[id]; !ok {
		return ErrNotFound
	}
	delete(m.surveys, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) Reset(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.surveys)
	m.surveys = map[string]SurveyRecord{}
	m.order = nil
	return n, nil
}

func (m *MemoryStore) Close() error { return nil }
