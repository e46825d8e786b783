package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	rdb, err := DialRedis(context.Background(), s.Addr(), "", 0)
	require.NoError(t, err)
	store := NewRedisStore(rdb, "survey-", []string{"CXGAIA", "survey-"})
	t.Cleanup(func() { _ = store.Close() })
	return store, s
}

func TestRedisStore_SaveLoadSkipsGarbage(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	require.NoError(t, store.SaveSurvey(ctx, SurveyRecord{ID: "b", Events: []EventRecord{{ID: "e1"}}}))
	require.NoError(t, store.SaveSurvey(ctx, SurveyRecord{ID: "a", Events: []EventRecord{}}))
	require.NoError(t, mr.Set("survey-broken", "not json"))
	require.NoError(t, mr.Set("survey-noevents", `{"id":"x"}`))
	require.NoError(t, mr.Set("unrelated", `{"id":"u","events":[]}`))

	got, err := store.LoadSurveys(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "e1", got[1].Events[0].ID)
}

func TestRedisStore_LoadEmpty(t *testing.T) {
	store, _ := newTestRedisStore(t)
	got, err := store.LoadSurveys(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRedisStore_GetDelete(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	_, err := store.GetSurvey(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SaveSurvey(ctx, SurveyRecord{ID: "s1", SessionID: "abc", Events: []EventRecord{}}))
	rec, err := store.GetSurvey(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.SessionID)

	require.NoError(t, store.DeleteSurvey(ctx, "s1"))
	assert.ErrorIs(t, store.DeleteSurvey(ctx, "s1"), ErrNotFound)
}

func TestRedisStore_ResetOnlyPrefixedKeys(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	require.NoError(t, store.SaveSurvey(ctx, SurveyRecord{ID: "s1", Events: []EventRecord{}}))
	require.NoError(t, mr.Set("CXGAIA_session", "1"))
	require.NoError(t, mr.Set("keep-me", "1"))

	n, err := store.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("keep-me"))
	assert.False(t, mr.Exists("survey-s1"))
}

func TestDialRedis_Unreachable(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	addr := s.Addr()
	s.Close()

	_, err = DialRedis(context.Background(), addr, "", 0)
	assert.Error(t, err)
}

var _ Store = (*RedisStore)(nil)
var _ Store = (*MemoryStore)(nil)
var _ Store = (*PostgresStore)(nil)
