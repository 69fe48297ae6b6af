package progress

import (
	"context"
	"errors"
)

// ErrRemoteNotFound is returned by Remote.Fetch when the user has no row.
var ErrRemoteNotFound = errors.New("remote progress not found")

// LocalStorage is the durable per-machine copy of the active record.
type LocalStorage interface {
	LoadRecord(ctx context.Context) (Record, bool, error)
	SaveRecord(ctx context.Context, rec Record) error
	DeleteRecord(ctx context.Context) error
}

// Remote is the per-user progress table.
type Remote interface {
	Fetch(ctx context.Context, userID string) (Record, error)
	Upsert(ctx context.Context, userID string, rec Record) error
	Delete(ctx context.Context, userID string) error
}
