package progress

import (
	"context"
	"testing"
)

func TestWatcherReconcilesOncePerIdentity(t *testing.T) {
	local := &memLocal{rec: &Record{CompletedLessons: []string{"1-1"}}}
	remote := newMemRemote()
	remote.rows["u1"] = Record{CompletedLessons: []string{"1-2"}}
	store, syncer := newTestStore(t, local, remote)
	w := NewIdentityWatcher(store)
	ctx := context.Background()

	if w.Observe(ctx, Identity{Loading: true}) {
		t.Fatalf("loading state must not reconcile")
	}
	if !w.Observe(ctx, Identity{}) {
		t.Fatalf("first guest observation should reconcile")
	}
	if w.Observe(ctx, Identity{}) {
		t.Fatalf("repeated guest observation should be ignored")
	}
	if !w.Observe(ctx, Identity{UserID: "u1"}) {
		t.Fatalf("sign-in should reconcile")
	}
	if w.Observe(ctx, Identity{UserID: "u1"}) {
		t.Fatalf("duplicate sign-in event should be ignored")
	}
	flush(t, syncer)
	if fetches, _, _ := remote.counts(); fetches != 1 {
		t.Fatalf("expected exactly one remote fetch, got %d", fetches)
	}
	if !store.IsLessonComplete("1-1") || !store.IsLessonComplete("1-2") {
		t.Fatalf("expected merged record after sign-in")
	}

	if !w.Observe(ctx, Identity{}) {
		t.Fatalf("sign-out should reconcile")
	}
	if store.UserID() != "" {
		t.Fatalf("expected guest identity after sign-out")
	}
	if !w.Observe(ctx, Identity{UserID: "u2"}) {
		t.Fatalf("switching user should reconcile")
	}
}
