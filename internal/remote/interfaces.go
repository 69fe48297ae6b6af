package remote

import "academy/internal/progress"

var (
	_ progress.Remote = (*Postgres)(nil)
	_ progress.Remote = (*REST)(nil)
	_ progress.Remote = (*Memory)(nil)
)
