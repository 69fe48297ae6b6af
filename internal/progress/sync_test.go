package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestSyncerRetriesThenDrops(t *testing.T) {
	defer goleak.VerifyNone(t)

	remote := newMemRemote()
	remote.upsertErr = errors.New("unavailable")
	s := NewSyncer(remote, nil, SyncPolicy{Retries: 2, Backoff: time.Millisecond, Timeout: time.Second})
	s.Start(context.Background())

	if !s.Enqueue(Job{Op: OpUpsert, UserID: "u1", Record: Empty()}) {
		t.Fatalf("enqueue refused")
	}
	flush(t, s)
	s.Close()

	if _, upserts, _ := remote.counts(); upserts != 3 {
		t.Fatalf("expected 3 attempts, got %d", upserts)
	}
	st := s.Status()
	if st.Dropped != 1 || st.Pending != 0 || st.LastError != "unavailable" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestSyncerRunsJobsInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	remote := newMemRemote()
	s := NewSyncer(remote, nil, DefaultSyncPolicy())
	s.Start(context.Background())

	s.Enqueue(Job{Op: OpUpsert, UserID: "u1", Record: Record{CompletedLessons: []string{"1-1"}, EarnedBadges: []string{}}})
	s.Enqueue(Job{Op: OpDelete, UserID: "u1"})
	s.Enqueue(Job{Op: OpUpsert, UserID: "u1", Record: Record{CompletedLessons: []string{"2-1"}, EarnedBadges: []string{"B"}}})
	s.Close()

	row, ok := remote.row("u1")
	if !ok || len(row.CompletedLessons) != 1 || row.CompletedLessons[0] != "2-1" {
		t.Fatalf("expected final upsert to win, got %+v ok=%v", row, ok)
	}
	if st := s.Status(); st.LastSynced.IsZero() || st.Dropped != 0 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestSyncerDropsWhenQueueFull(t *testing.T) {
	remote := newMemRemote()
	s := NewSyncer(remote, nil, SyncPolicy{QueueSize: 1})

	if !s.Enqueue(Job{Op: OpDelete, UserID: "a"}) {
		t.Fatalf("first enqueue should fit")
	}
	if s.Enqueue(Job{Op: OpDelete, UserID: "b"}) {
		t.Fatalf("second enqueue should be dropped")
	}
	if st := s.Status(); st.Dropped != 1 {
		t.Fatalf("expected 1 dropped, got %+v", st)
	}
	s.Close()
	if s.Enqueue(Job{Op: OpDelete, UserID: "c"}) {
		t.Fatalf("closed syncer accepted a job")
	}
}

func TestNilSyncerIsInert(t *testing.T) {
	var s *Syncer
	if s.Enqueue(Job{Op: OpDelete}) {
		t.Fatalf("nil syncer accepted a job")
	}
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	s.Close()
}

func TestSyncerStopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewSyncer(newMemRemote(), nil, DefaultSyncPolicy())
	s.Start(ctx)
	cancel()
	s.Close()
}
