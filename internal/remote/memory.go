package remote

import (
	"context"
	"sync"

	"academy/internal/progress"
)

// Memory is an in-process remote, used for demos and tests.
type Memory struct {
	mu   sync.Mutex
	rows map[string]progress.Record
}

func NewMemory() *Memory {
	return &Memory{rows: map[string]progress.Record{}}
}

func (m *Memory) Fetch(_ context.Context, userID string) (progress.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[userID]
	if !ok {
		return progress.Record{}, progress.ErrRemoteNotFound
	}
	return rec.Clone(), nil
}

func (m *Memory) Upsert(_ context.Context, userID string, rec progress.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[userID] = normalize(rec.Clone())
	return nil
}

func (m *Memory) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, userID)
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
