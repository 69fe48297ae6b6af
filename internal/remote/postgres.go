package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"academy/internal/progress"
)

type PoolConfig struct {
	MaxConns        int32
	MaxConnLifetime time.Duration
}

func NewPool(ctx context.Context, dsn string, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}
	return pool, nil
}

// Postgres stores one row per user in user_progress.
type Postgres struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_progress (
			user_id TEXT PRIMARY KEY,
			completed_lessons TEXT[] NOT NULL DEFAULT '{}',
			earned_badges TEXT[] NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) Fetch(ctx context.Context, userID string) (progress.Record, error) {
	query := `
		SELECT completed_lessons, earned_badges
		FROM user_progress
		WHERE user_id = $1
	`
	var rec progress.Record
	err := p.db.QueryRow(ctx, query, userID).Scan(&rec.CompletedLessons, &rec.EarnedBadges)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return progress.Record{}, progress.ErrRemoteNotFound
		}
		return progress.Record{}, fmt.Errorf("fetch progress: %w", err)
	}
	return normalize(rec), nil
}

func (p *Postgres) Upsert(ctx context.Context, userID string, rec progress.Record) error {
	rec = normalize(rec)
	query := `
		INSERT INTO user_progress (user_id, completed_lessons, earned_badges, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET
			completed_lessons = excluded.completed_lessons,
			earned_badges = excluded.earned_badges,
			updated_at = excluded.updated_at
	`
	if _, err := p.db.Exec(ctx, query, userID, rec.CompletedLessons, rec.EarnedBadges, p.now().UTC()); err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, userID string) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM user_progress WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}

func normalize(rec progress.Record) progress.Record {
	if rec.CompletedLessons == nil {
		rec.CompletedLessons = []string{}
	}
	if rec.EarnedBadges == nil {
		rec.EarnedBadges = []string{}
	}
	return rec
}
