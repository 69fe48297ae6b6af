package state

import (
	"context"
	"time"

	"academy/internal/auth"
	"academy/internal/progress"
)

type Store interface {
	EnsureSchema(ctx context.Context) error
	LoadRecord(ctx context.Context) (progress.Record, bool, error)
	SaveRecord(ctx context.Context, rec progress.Record) error
	DeleteRecord(ctx context.Context) error
	LoadSession(ctx context.Context) (auth.Session, bool, error)
	SaveSession(ctx context.Context, sess auth.Session) error
	DeleteSession(ctx context.Context) error
	RecordVisit(ctx context.Context, levelID, lessonID string, at time.Time) error
	LastVisit(ctx context.Context) (*Visit, error)
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	Close() error
}

type Visit struct {
	LevelID   string
	LessonID  string
	Visits    int
	LastVisit time.Time
}

var (
	_ Store                 = (*SQLiteStore)(nil)
	_ progress.LocalStorage = (*SQLiteStore)(nil)
	_ auth.SessionStore     = (*SQLiteStore)(nil)
)
