package app

import (
	"context"
	"time"

	"academy/internal/auth"
	"academy/internal/progress"
	"academy/internal/state"
)

// LocalStore is the per-machine database the app keeps progress, the
// session and navigation history in.
type LocalStore interface {
	progress.LocalStorage
	auth.SessionStore
	RecordVisit(ctx context.Context, levelID, lessonID string, at time.Time) error
	LastVisit(ctx context.Context) (*state.Visit, error)
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	Close() error
}

var _ LocalStore = (*state.SQLiteStore)(nil)
