package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"academy/internal/auth"
	"academy/internal/progress"

	_ "modernc.org/sqlite"
)

const (
	sessionKey    = "auth-session"
	lastLessonKey = "last-lesson"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The UI and the dev API both write; SQLite wants a single writer.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS lesson_visits (
			lesson_id TEXT PRIMARY KEY,
			level_id TEXT NOT NULL,
			visits INTEGER NOT NULL DEFAULT 0,
			last_visit_ts TEXT NOT NULL DEFAULT ''
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// LoadRecord reads the serialized progress record. ok is false when none has
// been written yet.
func (s *SQLiteStore) LoadRecord(ctx context.Context) (progress.Record, bool, error) {
	raw, ok, err := s.getValue(ctx, progress.StorageKey)
	if err != nil || !ok {
		return progress.Record{}, false, err
	}
	var rec progress.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return progress.Record{}, false, fmt.Errorf("decode progress record: %w", err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) SaveRecord(ctx context.Context, rec progress.Record) error {
	if rec.CompletedLessons == nil {
		rec.CompletedLessons = []string{}
	}
	if rec.EarnedBadges == nil {
		rec.EarnedBadges = []string{}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.SaveSettings(ctx, map[string]string{progress.StorageKey: string(b)})
}

func (s *SQLiteStore) DeleteRecord(ctx context.Context) error {
	return s.deleteValue(ctx, progress.StorageKey)
}

func (s *SQLiteStore) LoadSession(ctx context.Context) (auth.Session, bool, error) {
	raw, ok, err := s.getValue(ctx, sessionKey)
	if err != nil || !ok {
		return auth.Session{}, false, err
	}
	var sess auth.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return auth.Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return sess, true, nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess auth.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.SaveSettings(ctx, map[string]string{sessionKey: string(b)})
}

func (s *SQLiteStore) DeleteSession(ctx context.Context) error {
	return s.deleteValue(ctx, sessionKey)
}

// RecordVisit remembers that a lesson was opened; the most recent visit
// drives "continue where you left off".
func (s *SQLiteStore) RecordVisit(ctx context.Context, levelID, lessonID string, at time.Time) error {
	lessonID = strings.TrimSpace(lessonID)
	if lessonID == "" {
		return nil
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO lesson_visits(lesson_id, level_id, visits, last_visit_ts) VALUES(?, ?, 1, ?)
		ON CONFLICT(lesson_id) DO UPDATE SET
			level_id = excluded.level_id,
			visits = lesson_visits.visits + 1,
			last_visit_ts = excluded.last_visit_ts
	`, lessonID, levelID, at.UTC().Format(timeLayout)); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO app_settings(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, lastLessonKey, levelID+"/"+lessonID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) LastVisit(ctx context.Context) (*Visit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT lesson_id, level_id, visits, last_visit_ts
		FROM lesson_visits
		ORDER BY last_visit_ts DESC, rowid DESC
		LIMIT 1
	`)
	var (
		v     Visit
		tsRaw string
	)
	if err := row.Scan(&v.LessonID, &v.LevelID, &v.Visits, &tsRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if ts, err := time.Parse(timeLayout, tsRaw); err == nil {
		v.LastVisit = ts
	}
	return &v, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO app_settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, value); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) getValue(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *SQLiteStore) deleteValue(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM app_settings WHERE key = ?`, key)
	return err
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
