package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey-activation-engine/internal/storage"
)

type MockSource struct {
	surveys []storage.SurveyRecord
	err     error
}

func (m *MockSource) LoadSurveys(context.Context) ([]storage.SurveyRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.surveys, nil
}

func sampleRecords() []storage.SurveyRecord {
	return []storage.SurveyRecord{
		{
			ID: "s1", SessionID: "sess-1",
			Events: []storage.EventRecord{
				{ID: "a", Trigger: "pageView", Mode: "modal", DisplayPercentage: 100},
				{ID: "b", Trigger: "click", URLs: []storage.URLRecord{{URL: "/pricing", Rule: "endsWith"}}},
			},
		},
		{ID: "s2", Events: []storage.EventRecord{}},
	}
}

func TestEngine_BuildSnapshotAndResolve(t *testing.T) {
	eng := NewEngine()
	require.NoError(t, eng.BuildSnapshot(context.Background(), &MockSource{surveys: sampleRecords()}))

	assert.Len(t, eng.Surveys(), 2)

	res, ok := eng.Resolve(context.Background(), "s1", "https://shop.test/Pricing?utm=x")
	require.True(t, ok)
	assert.Equal(t, "https://shop.test/Pricing", res.Page)
	assert.Equal(t, []string{"a", "b"}, ids(res.Active))
	assert.True(t, res.HasActive())
	assert.Equal(t, []string{"b"}, ids(res.ByTrigger[TriggerClick]))
	assert.Equal(t, "modal", res.Active[0].Mode)

	res, ok = eng.Resolve(context.Background(), "s2", "/pricing")
	require.True(t, ok)
	assert.NotNil(t, res.Active)
	assert.False(t, res.HasActive())
	assert.Empty(t, res.ByTrigger)

	_, ok = eng.Resolve(context.Background(), "missing", "/pricing")
	assert.False(t, ok)
}

func TestEngine_FailedRefreshKeepsSnapshot(t *testing.T) {
	eng := NewEngine()
	require.NoError(t, eng.BuildSnapshot(context.Background(), &MockSource{surveys: sampleRecords()}))

	err := eng.BuildSnapshot(context.Background(), &MockSource{err: errors.New("boom")})
	assert.Error(t, err)
	assert.Len(t, eng.Surveys(), 2)
}

func TestEngine_EmptyBeforeFirstBuild(t *testing.T) {
	eng := NewEngine()
	assert.Empty(t, eng.Surveys())
	_, ok := eng.Survey("s1")
	assert.False(t, ok)
}

func TestEngine_DuplicateIDsLastWins(t *testing.T) {
	eng := NewEngine()
	eng.Load([]storage.SurveyRecord{
		{ID: "s1", SessionID: "old", Events: []storage.EventRecord{}},
		{ID: "s2", Events: []storage.EventRecord{}},
		{ID: "s1", SessionID: "new", Events: []storage.EventRecord{}},
	})

	all := eng.Surveys()
	require.Len(t, all, 2)
	assert.Equal(t, "s1", all[0].ID)
	assert.Equal(t, "new", all[0].SessionID)
}

func TestEngine_BuildFromMemoryStore(t *testing.T) {
	store := storage.NewMemoryStore(sampleRecords()...)
	eng := NewEngine()
	require.NoError(t, eng.BuildSnapshot(context.Background(), store))

	cfg, ok := eng.Survey("s1")
	require.True(t, ok)
	assert.Equal(t, "sess-1", cfg.SessionID)
	assert.Equal(t, URLMatcher{URL: "/pricing", Rule: RuleEndsWith}, cfg.Events[1].URLs[0])
}
