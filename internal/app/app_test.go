package app

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"academy/internal/auth"
	"academy/internal/catalog"
	"academy/internal/progress"
	"academy/internal/remote"
	"academy/internal/state"
	"academy/internal/telemetry"
	"academy/internal/ui"
)

type fakeView struct {
	mu      sync.Mutex
	screen  ui.Screen
	home    ui.HomeState
	level   ui.LevelState
	lesson  ui.LessonState
	account ui.AccountState
	flashes []string
	stopped int
}

func (v *fakeView) Run() error                   { return nil }
func (v *fakeView) SetController(ui.Controller)  {}
func (v *fakeView) SetCheatSheet(catalog.Blocks) {}
func (v *fakeView) SetSync(ui.SyncState)         {}
func (v *fakeView) SetMenuOpen(bool)             {}
func (v *fakeView) SetSignInOpen(bool)           {}
func (v *fakeView) SetResetConfirmOpen(bool)     {}

func (v *fakeView) Stop() {
	v.mu.Lock()
	v.stopped++
	v.mu.Unlock()
}

func (v *fakeView) SetScreen(s ui.Screen) {
	v.mu.Lock()
	v.screen = s
	v.mu.Unlock()
}

func (v *fakeView) SetHome(st ui.HomeState) {
	v.mu.Lock()
	v.home = st
	v.mu.Unlock()
}

func (v *fakeView) SetLevel(st ui.LevelState) {
	v.mu.Lock()
	v.level = st
	v.mu.Unlock()
}

func (v *fakeView) SetLesson(st ui.LessonState) {
	v.mu.Lock()
	v.lesson = st
	v.mu.Unlock()
}

func (v *fakeView) SetAccount(st ui.AccountState) {
	v.mu.Lock()
	v.account = st
	v.mu.Unlock()
}

func (v *fakeView) FlashStatus(msg string) {
	v.mu.Lock()
	v.flashes = append(v.flashes, msg)
	v.mu.Unlock()
}

func (v *fakeView) lastFlash() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.flashes) == 0 {
		return ""
	}
	return v.flashes[len(v.flashes)-1]
}

type fakeProvider struct {
	userID string
}

func (p fakeProvider) RequestCode(context.Context, string) error { return nil }

func (p fakeProvider) VerifyCode(_ context.Context, email, code string) (auth.Session, error) {
	if code != "123456" {
		return auth.Session{}, auth.ErrInvalidCode
	}
	return auth.Session{UserID: p.userID, Email: email, AccessToken: "tok"}, nil
}

func (p fakeProvider) SignOut(context.Context, string) error { return nil }

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New("Test Course", []catalog.Level{
		{ID: "1", Number: 1, Title: "Basics", Badge: "Starter", Lessons: []catalog.Lesson{
			{ID: "1-1", Title: "Hello", EstimatedMinutes: 3},
			{ID: "1-2", Title: "Files", EstimatedMinutes: 4},
		}},
		{ID: "2", Number: 2, Title: "Prompts", Badge: "Prompter", Lessons: []catalog.Lesson{
			{ID: "2-1", Title: "Asking", EstimatedMinutes: 5},
		}},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

// clock hands out strictly increasing times so visits order deterministically.
func clock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Minute)
		return t
	}
}

type harness struct {
	app    *App
	view   *fakeView
	remote *remote.Memory
	local  *state.SQLiteStore
}

func newHarness(t *testing.T, withRemote bool) *harness {
	t.Helper()
	db, err := state.NewSQLite(filepath.Join(t.TempDir(), "academy.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}
	h := &harness{view: &fakeView{}, local: db}
	cfg := DefaultConfig()
	d := deps{
		cfg:     cfg,
		logger:  telemetry.Nop(),
		session: "test",
		local:   db,
		catalog: testCatalog(t),
		view:    h.view,
		now:     clock(),
		closers: []func() error{db.Close},
	}
	if withRemote {
		h.remote = remote.NewMemory()
		d.remote = h.remote
		d.provider = fakeProvider{userID: "u-1"}
		d.cfg.Remote.Backend = "memory"
	}
	h.app = assemble(d)
	t.Cleanup(h.app.Close)
	h.app.Prepare(context.Background())
	return h
}

func TestAssembleSeedsHome(t *testing.T) {
	h := newHarness(t, false)
	home := h.view.home
	if home.Title != "Test Course" || home.Total != 3 || len(home.Levels) != 2 {
		t.Fatalf("unexpected home %+v", home)
	}
	if home.Continue == nil || home.Continue.LessonID != "1-1" {
		t.Fatalf("fresh learner should continue at 1-1, got %+v", home.Continue)
	}
	if got := home.Levels[0].Minutes; got != 7 {
		t.Fatalf("level minutes: got %d", got)
	}
	if h.view.account.Available {
		t.Fatalf("sign-in should be unavailable without a provider")
	}
}

func TestToggleRefreshesOpenLesson(t *testing.T) {
	h := newHarness(t, false)
	h.app.OnOpenLesson("1", "1-2")
	if h.view.screen != ui.ScreenLesson || h.view.lesson.Lesson.ID != "1-2" {
		t.Fatalf("lesson not shown: screen=%v lesson=%+v", h.view.screen, h.view.lesson)
	}
	if h.view.lesson.Position != 2 || h.view.lesson.Count != 2 {
		t.Fatalf("position %d/%d", h.view.lesson.Position, h.view.lesson.Count)
	}
	if h.view.lesson.Prev == nil || h.view.lesson.Prev.LessonID != "1-1" || h.view.lesson.Next == nil || h.view.lesson.Next.LessonID != "2-1" {
		t.Fatalf("links prev=%+v next=%+v", h.view.lesson.Prev, h.view.lesson.Next)
	}

	h.app.OnToggleLessonComplete("1", "1-2")
	if !h.view.lesson.Complete {
		t.Fatalf("open lesson should refresh to complete")
	}
	if h.view.lastFlash() != "Lesson complete" {
		t.Fatalf("flash %q", h.view.lastFlash())
	}
	if h.view.home.Completed != 1 || h.view.home.Overall != 33 {
		t.Fatalf("home not refreshed: %+v", h.view.home)
	}

	h.app.OnToggleLessonComplete("1", "1-1")
	if got := h.view.lastFlash(); got != "Badge earned: Starter" {
		t.Fatalf("flash %q", got)
	}
	h.app.OnToggleLessonComplete("1", "1-1")
	if got := h.view.lastFlash(); got != "Marked as not complete" {
		t.Fatalf("flash %q", got)
	}

	rec, ok, err := h.local.LoadRecord(context.Background())
	if err != nil || !ok {
		t.Fatalf("local record: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff([]string{"1-2"}, rec.CompletedLessons); diff != "" {
		t.Fatalf("persisted lessons (-want +got):\n%s", diff)
	}
}

func TestContinueFollowsLastVisit(t *testing.T) {
	h := newHarness(t, false)
	h.app.OnOpenLesson("1", "1-2")
	h.app.OnHome()
	if c := h.view.home.Continue; c == nil || c.LessonID != "1-2" {
		t.Fatalf("continue should resume 1-2, got %+v", c)
	}

	h.app.OnToggleLessonComplete("1", "1-2")
	if c := h.view.home.Continue; c == nil || c.LessonID != "2-1" {
		t.Fatalf("continue should skip completed lessons, got %+v", c)
	}

	h.app.Progress().MarkLessonComplete("2-1")
	if c := h.view.home.Continue; c == nil || c.LessonID != "1-1" {
		t.Fatalf("continue should wrap to 1-1, got %+v", c)
	}

	h.app.Progress().MarkLessonComplete("1-1")
	h.app.OnContinue()
	if !strings.HasPrefix(h.view.lastFlash(), "Every lesson is complete") {
		t.Fatalf("flash %q", h.view.lastFlash())
	}
}

func TestNavigationAcrossLevels(t *testing.T) {
	h := newHarness(t, false)
	h.app.OnNextLesson("1", "1-2")
	if h.view.lesson.Lesson.ID != "2-1" || h.view.lesson.LevelID != "2" {
		t.Fatalf("next should cross into level 2, got %+v", h.view.lesson)
	}
	h.app.OnPrevLesson("2", "2-1")
	if h.view.lesson.Lesson.ID != "1-2" {
		t.Fatalf("prev should return to 1-2, got %s", h.view.lesson.Lesson.ID)
	}
	h.app.OnNextLesson("2", "2-1")
	if h.view.screen != ui.ScreenHome || h.view.lastFlash() != "You reached the end of the course." {
		t.Fatalf("end of course: screen=%v flash=%q", h.view.screen, h.view.lastFlash())
	}

	h.app.OnOpenLevel("9")
	if h.view.lastFlash() != "Level not found: 9" {
		t.Fatalf("flash %q", h.view.lastFlash())
	}
	h.app.OnOpenLevel("2")
	if h.view.screen != ui.ScreenLevel || len(h.view.level.Lessons) != 1 {
		t.Fatalf("level screen %v %+v", h.view.screen, h.view.level)
	}
}

func TestNextLessonFinishesCurrentOne(t *testing.T) {
	h := newHarness(t, false)
	h.app.OnOpenLesson("1", "1-1")
	h.app.OnNextLesson("1", "1-1")
	if !h.app.Progress().IsLessonComplete("1-1") {
		t.Fatalf("next should mark 1-1 complete")
	}
	if h.view.lesson.Lesson.ID != "1-2" {
		t.Fatalf("next should open 1-2, got %s", h.view.lesson.Lesson.ID)
	}

	h.app.OnNextLesson("1", "1-2")
	if h.view.lesson.Lesson.ID != "2-1" || h.view.lastFlash() != "Badge earned: Starter" {
		t.Fatalf("lesson=%s flash=%q", h.view.lesson.Lesson.ID, h.view.lastFlash())
	}

	calls := 0
	unsubscribe := h.app.Progress().Subscribe(func() { calls++ })
	defer unsubscribe()
	h.app.OnNextLesson("1", "1-1")
	if calls != 0 {
		t.Fatalf("leaving a completed lesson should not touch progress, %d notifications", calls)
	}
	want := []string{"1-1", "1-2"}
	if diff := cmp.Diff(want, h.app.Progress().Load().CompletedLessons); diff != "" {
		t.Fatalf("completed (-want +got):\n%s", diff)
	}
}

func TestResetClearsEverything(t *testing.T) {
	h := newHarness(t, false)
	h.app.Progress().MarkLessonComplete("1-1")
	h.app.Progress().MarkLessonComplete("1-2")
	h.app.OnResetProgress()
	if h.view.home.Completed != 0 || h.view.home.CurrentBadge != "" {
		t.Fatalf("home after reset %+v", h.view.home)
	}
	if h.view.lastFlash() != "Progress reset" {
		t.Fatalf("flash %q", h.view.lastFlash())
	}
}

func TestSignInMergesGuestProgress(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()
	if err := h.remote.Upsert(ctx, "u-1", progress.Record{CompletedLessons: []string{"2-1"}}); err != nil {
		t.Fatalf("seed remote: %v", err)
	}
	h.app.Progress().MarkLessonComplete("1-1")

	h.app.OnSignIn("not-an-email")
	if !strings.HasPrefix(h.view.lastFlash(), "Could not send code") {
		t.Fatalf("flash %q", h.view.lastFlash())
	}
	h.app.OnSignIn("learner@example.com")
	if h.view.account.Status != string(auth.StatusSent) {
		t.Fatalf("status %q", h.view.account.Status)
	}
	h.app.OnVerifyCode("learner@example.com", "000000")
	if !strings.HasPrefix(h.view.lastFlash(), "Sign-in failed") {
		t.Fatalf("flash %q", h.view.lastFlash())
	}
	h.app.OnVerifyCode("learner@example.com", "123456")
	if !h.view.account.SignedIn || h.view.account.Email != "learner@example.com" {
		t.Fatalf("account %+v", h.view.account)
	}

	want := []string{"2-1", "1-1"}
	if diff := cmp.Diff(want, h.app.Progress().Load().CompletedLessons); diff != "" {
		t.Fatalf("merged lessons (-want +got):\n%s", diff)
	}

	fctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.app.syncer.Flush(fctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	got, err := h.remote.Fetch(ctx, "u-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if diff := cmp.Diff(want, got.CompletedLessons); diff != "" {
		t.Fatalf("remote lessons (-want +got):\n%s", diff)
	}

	h.app.OnSignOut()
	if h.view.account.SignedIn || h.view.lastFlash() != "Signed out" {
		t.Fatalf("after sign out %+v %q", h.view.account, h.view.lastFlash())
	}
	if h.app.Progress().UserID() != "" {
		t.Fatalf("store should fall back to guest")
	}
}

func TestSignInUnavailable(t *testing.T) {
	h := newHarness(t, false)
	h.app.OnSignIn("learner@example.com")
	if h.view.lastFlash() != "Sign-in is not configured" {
		t.Fatalf("flash %q", h.view.lastFlash())
	}
}

func TestQuitStopsView(t *testing.T) {
	h := newHarness(t, false)
	h.app.OnQuit()
	if h.view.stopped != 1 {
		t.Fatalf("stop calls %d", h.view.stopped)
	}
}

func TestResolveUIRemembersChoice(t *testing.T) {
	db, err := state.NewSQLite(filepath.Join(t.TempDir(), "academy.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}

	got := resolveUI(ctx, db, UIConfig{}, telemetry.Nop())
	if diff := cmp.Diff(UIConfig{StyleVariant: "modern_arcade", MotionLevel: "full"}, got); diff != "" {
		t.Fatalf("defaults (-want +got):\n%s", diff)
	}
	resolveUI(ctx, db, UIConfig{StyleVariant: "retro_terminal", MotionLevel: "off"}, telemetry.Nop())
	got = resolveUI(ctx, db, UIConfig{MotionLevel: "reduced"}, telemetry.Nop())
	if diff := cmp.Diff(UIConfig{StyleVariant: "retro_terminal", MotionLevel: "reduced"}, got); diff != "" {
		t.Fatalf("remembered (-want +got):\n%s", diff)
	}
}

func TestOpenHeadlessRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Remote.Backend = "memory"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	ctx := context.Background()

	a, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	a.Prepare(ctx)
	if a.Catalog().TotalLessons() == 0 {
		t.Fatalf("built-in course should not be empty")
	}
	first := a.Catalog().Order()[0]
	a.Progress().MarkLessonComplete(first.LessonID)
	a.Close()
	a.Close()

	b, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()
	if !b.Progress().IsLessonComplete(first.LessonID) {
		t.Fatalf("progress should survive a restart")
	}
}
