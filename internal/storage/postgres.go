package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"

	"survey-activation-engine/internal/config"
	"survey-activation-engine/migrations"
)

type PostgresStore struct {
	pool    *pgxpool.Pool
	channel string
}

func NewPostgres(ctx context.Context, cfg config.Config) (*PostgresStore, error) {
	dsn := cfg.DSN()
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres DSN: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Postgres.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.Postgres.MaxIdleConns)
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	return &PostgresStore{pool: pool, channel: cfg.Listener.Channel}, nil
}

// Migrate applies the embedded schema migrations.
func (s *PostgresStore) Migrate() error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()
	return migrations.Run(db)
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// LoadSurveys loads every stored survey ordered by id. Rows whose payload
// fails validation are skipped.
func (s *PostgresStore) LoadSurveys(ctx context.Context) ([]SurveyRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT id, payload FROM survey_configs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query surveys: %w", err)
	}
	defer rows.Close()

	out := []SurveyRecord{}
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec, err := ParseSurvey(payload)
		if err != nil {
			log.Warn().Err(err).Str("survey_id", id).Msg("skipping stored survey")
			continue
		}
		out = append(out, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (s *PostgresStore) GetSurvey(ctx context.Context, id string) (SurveyRecord, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM survey_configs WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return SurveyRecord{}, ErrNotFound
	}
	if err != nil {
		return SurveyRecord{}, fmt.Errorf("get survey: %w", err)
	}
	return ParseSurvey(payload)
}

func (s *PostgresStore) SaveSurvey(ctx context.Context, rec SurveyRecord) error {
	if err := Validate(rec); err != nil {
		return err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode survey: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO survey_configs (id, session_id, payload, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET session_id = EXCLUDED.session_id,
		    payload    = EXCLUDED.payload,
		    updated_at = now()
	`, rec.ID, rec.SessionID, b)
	if err != nil {
		return fmt.Errorf("upsert survey: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteSurvey(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM survey_configs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Reset(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM survey_configs`)
	if err != nil {
		return 0, fmt.Errorf("reset surveys: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) ListenChannel() string {
	if s.channel == "" {
		return "survey_config_change"
	}
	return s.channel
}

func (s *PostgresStore) PgxPool() *pgxpool.Pool {
	if s.pool == nil {
		panic(errors.New("pgx pool is nil"))
	}
	return s.pool
}

func DSNRedacted(cfg config.Config) string {
	return fmt.Sprintf("postgres://***:***@%s:%d/%s", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.DBName)
}
