package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisStore keeps one JSON blob per survey under <prefix><id>, the same
// layout the browser playground uses in localStorage.
type RedisStore struct {
	rdb           *goredis.Client
	prefix        string
	resetPrefixes []string
}

func NewRedisStore(rdb *goredis.Client, prefix string, resetPrefixes []string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, resetPrefixes: resetPrefixes}
}

// DialRedis opens a client and pings it.
func DialRedis(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

// LoadSurveys returns every parsable survey, ordered by key.
// Blobs that do not parse are skipped.
func (s *RedisStore) LoadSurveys(ctx context.Context) ([]SurveyRecord, error) {
	keys, err := s.scan(ctx, s.prefix)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []SurveyRecord{}, nil
	}
	slices.Sort(keys)
	keys = slices.Compact(keys) // SCAN may repeat keys

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget surveys: %w", err)
	}

	out := make([]SurveyRecord, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue // deleted between SCAN and MGET
		}
		rec, err := ParseSurvey([]byte(raw))
		if err != nil {
			log.Debug().Err(err).Str("key", keys[i]).Msg("skipping stored value")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) GetSurvey(ctx context.Context, id string) (SurveyRecord, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return SurveyRecord{}, ErrNotFound
	}
	if err != nil {
		return SurveyRecord{}, fmt.Errorf("get survey: %w", err)
	}
	return ParseSurvey(raw)
}

func (s *RedisStore) SaveSurvey(ctx context.Context, rec SurveyRecord) error {
	if err := Validate(rec); err != nil {
		return err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode survey: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key(rec.ID), b, 0).Err(); err != nil {
		return fmt.Errorf("set survey: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteSurvey(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Reset removes every key that starts with one of the reset prefixes.
func (s *RedisStore) Reset(ctx context.Context) (int, error) {
	total := 0
	for _, p := range s.resetPrefixes {
		keys, err := s.scan(ctx, p)
		if err != nil {
			return total, err
		}
		if len(keys) == 0 {
			continue
		}
		n, err := s.rdb.Del(ctx, keys...).Result()
		if err != nil {
			return total, fmt.Errorf("delete %q keys: %w", p, err)
		}
		total += int(n)
	}
	return total, nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }

func (s *RedisStore) scan(ctx context.Context, prefix string) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.rdb.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan %q: %w", prefix, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}
