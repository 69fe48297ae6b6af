package devtools

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"academy/internal/auth"
	"academy/internal/catalog"
	"academy/internal/progress"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

type fakeAccounts struct{ st auth.State }

func (f fakeAccounts) State() auth.State { return f.st }

type fakeSync struct{ st progress.SyncStatus }

func (f fakeSync) Status() progress.SyncStatus { return f.st }

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New("Academy", []catalog.Level{
		{ID: "1", Number: 1, Title: "One", Badge: "A", Lessons: []catalog.Lesson{
			{ID: "1-1", Title: "a", EstimatedMinutes: 5},
			{ID: "1-2", Title: "b", EstimatedMinutes: 7},
		}},
		{ID: "2", Number: 2, Title: "Two", Badge: "B", Lessons: []catalog.Lesson{{ID: "2-1", Title: "c"}}},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func newTestServer(t *testing.T) (*Server, *progress.Store) {
	t.Helper()
	cat := testCatalog(t)
	store := progress.NewStore(progress.Options{Catalog: cat})
	s := New(Options{
		Catalog:  cat,
		Progress: store,
		Accounts: fakeAccounts{st: auth.State{UserID: "u-1", Email: "a@b.co"}},
		Sync:     fakeSync{st: progress.SyncStatus{Pending: 2}},
	})
	t.Cleanup(s.Close)
	return s, store
}

func do(t *testing.T, h http.Handler, method, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code < 300 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func TestToggleCompleteAndReset(t *testing.T) {
	s, store := newTestServer(t)
	h := s.Handler()

	if code := do(t, h, http.MethodPost, "/api/lessons/1-1/toggle", nil); code != http.StatusOK {
		t.Fatalf("toggle: status %d", code)
	}
	if code := do(t, h, http.MethodPost, "/api/lessons/1-2/complete", nil); code != http.StatusOK {
		t.Fatalf("complete: status %d", code)
	}
	if code := do(t, h, http.MethodPost, "/api/lessons/1-2/complete", nil); code != http.StatusOK {
		t.Fatalf("complete again: status %d", code)
	}

	var sum progress.Summary
	do(t, h, http.MethodGet, "/api/progress", &sum)
	want := progress.Record{CompletedLessons: []string{"1-1", "1-2"}, EarnedBadges: []string{"A"}}
	if diff := cmp.Diff(want, sum.Record); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	if sum.Overall != 67 || sum.CurrentBadge != "A" {
		t.Fatalf("unexpected summary %+v", sum)
	}

	do(t, h, http.MethodPost, "/api/lessons/1-1/toggle", nil)
	if store.IsLessonComplete("1-1") {
		t.Fatalf("second toggle should clear 1-1")
	}

	if code := do(t, h, http.MethodDelete, "/api/progress", &sum); code != http.StatusOK {
		t.Fatalf("reset: status %d", code)
	}
	if sum.Completed != 0 || len(sum.Record.EarnedBadges) != 0 {
		t.Fatalf("reset should clear everything, got %+v", sum)
	}
}

func TestUnknownIDsAreNotFound(t *testing.T) {
	s, store := newTestServer(t)
	h := s.Handler()

	if code := do(t, h, http.MethodPost, "/api/lessons/nope/toggle", nil); code != http.StatusNotFound {
		t.Fatalf("toggle unknown: status %d", code)
	}
	if code := do(t, h, http.MethodGet, "/api/levels/9", nil); code != http.StatusNotFound {
		t.Fatalf("level unknown: status %d", code)
	}
	if len(store.Load().CompletedLessons) != 0 {
		t.Fatalf("unknown ids must not reach the store")
	}
}

func TestLevelsReflectProgress(t *testing.T) {
	s, store := newTestServer(t)
	store.MarkLessonComplete("1-1")

	var list struct {
		Title  string      `json:"title"`
		Levels []levelView `json:"levels"`
	}
	do(t, s.Handler(), http.MethodGet, "/api/levels", &list)
	if list.Title != "Academy" || len(list.Levels) != 2 {
		t.Fatalf("unexpected list %+v", list)
	}
	if lv := list.Levels[0]; lv.Percent != 50 || lv.Minutes != 12 || lv.Earned || len(lv.Lessons) != 0 {
		t.Fatalf("unexpected level one %+v", lv)
	}

	var one levelView
	do(t, s.Handler(), http.MethodGet, "/api/levels/1", &one)
	got := []bool{one.Lessons[0].Complete, one.Lessons[1].Complete}
	if diff := cmp.Diff([]bool{true, false}, got); diff != "" {
		t.Fatalf("lesson flags (-want +got):\n%s", diff)
	}
}

func TestIdentity(t *testing.T) {
	s, _ := newTestServer(t)
	var v identityView
	do(t, s.Handler(), http.MethodGet, "/api/identity", &v)
	if !v.SignedIn || v.UserID != "u-1" || v.Sync == nil || v.Sync.Pending != 2 {
		t.Fatalf("unexpected identity %+v", v)
	}
}

func TestCORSAllowsLocalOrigin(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/progress", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin: got %q", got)
	}
}

type sseEvent struct {
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if ev.name != "" || ev.data != "" {
				return ev
			}
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

func TestEventsStreamProgressUpdates(t *testing.T) {
	s, store := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type %q", ct)
	}
	r := bufio.NewReader(resp.Body)

	first := readEvent(t, r)
	if first.name != eventProgress {
		t.Fatalf("first event %q", first.name)
	}

	deadline := time.Now().Add(time.Second)
	for s.hub.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	store.MarkLessonComplete("2-1")

	ev := readEvent(t, r)
	var sum progress.Summary
	if err := json.Unmarshal([]byte(ev.data), &sum); err != nil {
		t.Fatalf("decode %q: %v", ev.data, err)
	}
	if ev.name != eventProgress || sum.CurrentBadge != "B" {
		t.Fatalf("unexpected update %q %+v", ev.name, sum)
	}

	cancel()
	deadline = time.Now().Add(time.Second)
	for s.hub.count() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := s.hub.count(); n != 0 {
		t.Fatalf("stream should unsubscribe on disconnect, %d left", n)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}
	http.DefaultClient.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("serve did not return")
	}
}
