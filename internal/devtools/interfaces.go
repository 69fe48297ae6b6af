package devtools

import (
	"academy/internal/auth"
	"academy/internal/progress"
)

// Progress is the slice of the progress store the API drives.
type Progress interface {
	Summary() progress.Summary
	IsLessonComplete(lessonID string) bool
	ToggleLessonComplete(lessonID string) progress.Record
	MarkLessonComplete(lessonID string) progress.Record
	Reset()
	Subscribe(fn func()) (unsubscribe func())
}

// Accounts reports who is signed in.
type Accounts interface {
	State() auth.State
}

// SyncStatus reports the background remote writer's health.
type SyncStatus interface {
	Status() progress.SyncStatus
}
