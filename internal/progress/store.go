package progress

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"academy/internal/catalog"
	"academy/internal/telemetry"
)

const localTimeout = 2 * time.Second

type Options struct {
	Catalog *catalog.Catalog
	// Local may be nil when no durable storage is available; the store then
	// keeps the record in memory only.
	Local LocalStorage
	// Remote and Syncer are both nil for a local-only install.
	Remote Remote
	Syncer *Syncer
	Logger *telemetry.Logger
}

// Store is the single owner of the active progress record.
type Store struct {
	catalog *catalog.Catalog
	local   LocalStorage
	remote  Remote
	syncer  *Syncer
	logger  *telemetry.Logger

	mu     sync.Mutex
	cached *Record
	userID string

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

func NewStore(opts Options) *Store {
	return &Store{
		catalog: opts.Catalog,
		local:   opts.Local,
		remote:  opts.Remote,
		syncer:  opts.Syncer,
		logger:  opts.Logger,
		subs:    map[int]func(){},
	}
}

// Load returns the active record, hydrating it from local storage on first
// use. It never fails: missing or unreadable storage yields the empty record.
func (s *Store) Load() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked().Clone()
}

func (s *Store) IsLessonComplete(lessonID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked().Has(lessonID)
}

// ToggleLessonComplete flips lessonID in the completed set.
func (s *Store) ToggleLessonComplete(lessonID string) Record {
	s.mu.Lock()
	cur := s.loadLocked()
	var ids []string
	if cur.Has(lessonID) {
		ids = make([]string, 0, len(cur.CompletedLessons))
		for _, id := range cur.CompletedLessons {
			if id != lessonID {
				ids = append(ids, id)
			}
		}
	} else {
		ids = append(append([]string{}, cur.CompletedLessons...), lessonID)
	}
	rec := s.commitLocked(derive(s.catalog, ids))
	s.mu.Unlock()

	s.notify()
	return rec
}

// MarkLessonComplete adds lessonID; it is a no-op when already present.
func (s *Store) MarkLessonComplete(lessonID string) Record {
	s.mu.Lock()
	cur := s.loadLocked()
	if cur.Has(lessonID) {
		rec := cur.Clone()
		s.mu.Unlock()
		return rec
	}
	ids := append(append([]string{}, cur.CompletedLessons...), lessonID)
	rec := s.commitLocked(derive(s.catalog, ids))
	s.mu.Unlock()

	s.notify()
	return rec
}

// LevelProgress is the rounded completion percentage of one level; 0 for an
// unknown or empty level.
func (s *Store) LevelProgress(levelID string) int {
	lv, ok := s.catalog.LevelByID(levelID)
	if !ok || len(lv.Lessons) == 0 {
		return 0
	}
	rec := s.Load()
	done := 0
	for _, ls := range lv.Lessons {
		if rec.Has(ls.ID) {
			done++
		}
	}
	return percent(done, len(lv.Lessons))
}

// OverallProgress counts completed lessons that exist in the catalog.
func (s *Store) OverallProgress() int {
	total := s.catalog.TotalLessons()
	if total == 0 {
		return 0
	}
	rec := s.Load()
	done := 0
	for _, id := range rec.CompletedLessons {
		if s.catalog.Contains(id) {
			done++
		}
	}
	return percent(done, total)
}

// CurrentBadge is the badge of the highest fully completed level.
func (s *Store) CurrentBadge() (string, bool) {
	rec := s.Load()
	if len(rec.EarnedBadges) == 0 {
		return "", false
	}
	return rec.EarnedBadges[len(rec.EarnedBadges)-1], true
}

// Reset forgets all progress locally and, for a signed-in user, queues a
// remote delete.
func (s *Store) Reset() {
	s.mu.Lock()
	s.cached = nil
	if s.local != nil {
		ctx, cancel := context.WithTimeout(context.Background(), localTimeout)
		if err := s.local.DeleteRecord(ctx); err != nil {
			s.logger.Debug("progress.local_delete_failed", map[string]any{"error": err.Error()})
		}
		cancel()
	}
	if s.userID != "" && s.syncer != nil {
		s.syncer.Enqueue(Job{Op: OpDelete, UserID: s.userID})
	}
	s.mu.Unlock()

	s.notify()
}

// UserID is the identity the active record belongs to; empty for a guest.
func (s *Store) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Subscribe registers fn to run after every state change. fn receives no
// payload and should re-read the store.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// Reconcile installs the record for a new identity. An empty userID means a
// guest: the record comes from local storage and no remote I/O happens. For a
// user, the remote record and the local one are merged by set union and the
// remote copy is brought up to date through the syncer. The fetch runs
// without the lock; the union is taken against the record as it stands once
// the fetch returns, so lessons completed meanwhile are kept.
func (s *Store) Reconcile(ctx context.Context, userID string) Record {
	online := userID != "" && s.remote != nil
	var remoteIDs []string
	found := false
	if online {
		var remote Record
		remote, found = s.fetchRemote(ctx, userID)
		remoteIDs = dedupe(remote.CompletedLessons)
	}

	s.mu.Lock()
	cur := s.loadLocked()
	var merged Record
	switch {
	case !online:
		merged = derive(s.catalog, cur.CompletedLessons)
	case !found:
		merged = derive(s.catalog, cur.CompletedLessons)
		s.syncer.Enqueue(Job{Op: OpUpsert, UserID: userID, Record: merged.Clone()})
	default:
		merged = derive(s.catalog, Union(remoteIDs, cur.CompletedLessons))
		if len(merged.CompletedLessons) > len(remoteIDs) {
			s.syncer.Enqueue(Job{Op: OpUpsert, UserID: userID, Record: merged.Clone()})
		}
	}
	s.writeLocalLocked(merged)
	s.cached = &merged
	s.userID = userID
	out := merged.Clone()
	s.mu.Unlock()

	s.logger.Info("progress.reconciled", map[string]any{
		"user":      userID,
		"completed": len(out.CompletedLessons),
		"badges":    len(out.EarnedBadges),
	})
	s.notify()
	return out
}

func (s *Store) fetchRemote(ctx context.Context, userID string) (Record, bool) {
	rec, err := s.remote.Fetch(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrRemoteNotFound) {
			s.logger.Warn("progress.remote_fetch_failed", map[string]any{"user": userID, "error": err.Error()})
		}
		return Record{}, false
	}
	return rec, true
}

func (s *Store) readLocal() Record {
	if s.local == nil {
		return Empty()
	}
	ctx, cancel := context.WithTimeout(context.Background(), localTimeout)
	defer cancel()
	rec, ok, err := s.local.LoadRecord(ctx)
	if err != nil {
		s.logger.Debug("progress.local_read_failed", map[string]any{"error": err.Error()})
		return Empty()
	}
	if !ok {
		return Empty()
	}
	return derive(s.catalog, rec.CompletedLessons)
}

func (s *Store) loadLocked() Record {
	if s.cached == nil {
		rec := s.readLocal()
		s.cached = &rec
	}
	return *s.cached
}

func (s *Store) commitLocked(rec Record) Record {
	s.writeLocalLocked(rec)
	s.cached = &rec
	if s.userID != "" && s.syncer != nil {
		s.syncer.Enqueue(Job{Op: OpUpsert, UserID: s.userID, Record: rec.Clone()})
	}
	return rec.Clone()
}

func (s *Store) writeLocalLocked(rec Record) {
	if s.local == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), localTimeout)
	defer cancel()
	if err := s.local.SaveRecord(ctx, rec); err != nil {
		s.logger.Debug("progress.local_write_failed", map[string]any{"error": err.Error()})
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(100 * float64(done) / float64(total)))
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
