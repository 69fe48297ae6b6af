package progress

import (
	"context"
	"sync"
)

// Identity is what the auth gate reports. An empty UserID is a guest.
type Identity struct {
	UserID  string
	Loading bool
}

// IdentityWatcher runs Reconcile once per identity change. Repeated reports
// of the same identity are ignored, as are reports made while the auth
// provider is still resolving.
type IdentityWatcher struct {
	store *Store

	mu       sync.Mutex
	observed bool
	prev     string
}

func NewIdentityWatcher(store *Store) *IdentityWatcher {
	return &IdentityWatcher{store: store}
}

// Observe reports whether a reconciliation ran. It returns after the merged
// record is installed, so callers can rely on Load afterwards.
func (w *IdentityWatcher) Observe(ctx context.Context, id Identity) bool {
	if id.Loading {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.observed && w.prev == id.UserID {
		return false
	}
	w.observed = true
	w.prev = id.UserID
	w.store.Reconcile(ctx, id.UserID)
	return true
}
