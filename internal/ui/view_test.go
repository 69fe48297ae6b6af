package ui

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"academy/internal/catalog"
	"academy/internal/widgets"
)

type mockController struct {
	calls chan string
}

func newMockController() *mockController {
	return &mockController{calls: make(chan string, 32)}
}

func (m *mockController) record(s string) { m.calls <- s }

func (m *mockController) OnHome()                    { m.record("home") }
func (m *mockController) OnContinue()                { m.record("continue") }
func (m *mockController) OnOpenLevel(id string)      { m.record("level:" + id) }
func (m *mockController) OnOpenLesson(lv, ls string) { m.record("lesson:" + lv + "/" + ls) }
func (m *mockController) OnToggleLessonComplete(_, ls string) {
	m.record("toggle:" + ls)
}
func (m *mockController) OnNextLesson(_, ls string) { m.record("next:" + ls) }
func (m *mockController) OnPrevLesson(_, ls string) { m.record("prev:" + ls) }
func (m *mockController) OnCheatSheet()             { m.record("cheatsheet") }
func (m *mockController) OnResetProgress()          { m.record("reset") }
func (m *mockController) OnSignIn(email string)     { m.record("signin:" + email) }
func (m *mockController) OnVerifyCode(email, code string) {
	m.record("verify:" + email + ":" + code)
}
func (m *mockController) OnSignOut() { m.record("signout") }
func (m *mockController) OnQuit()    { m.record("quit") }

func (m *mockController) expect(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-m.calls:
		if got != want {
			t.Fatalf("expected controller call %q, got %q", want, got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func (m *mockController) expectNone(t *testing.T) {
	t.Helper()
	select {
	case got := <-m.calls:
		t.Fatalf("unexpected controller call %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func press(v *Root, code rune, mod tea.KeyMod, text string) {
	_, _ = v.Update(tea.KeyPressMsg{Code: code, Mod: mod, Text: text})
}

func typeText(v *Root, s string) {
	for _, r := range s {
		press(v, r, 0, string(r))
	}
}

func newTestRoot(t *testing.T) (*Root, *mockController) {
	t.Helper()
	v := New(Options{MotionLevel: "off"})
	ctrl := newMockController()
	v.SetController(ctrl)
	_, _ = v.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return v, ctrl
}

func sampleLesson(id string) LessonState {
	return LessonState{
		LevelID:    "1",
		LevelTitle: "Getting started",
		Position:   1,
		Count:      2,
		Lesson: catalog.Lesson{
			ID:    id,
			Title: "Meet the terminal",
			Blocks: catalog.Blocks{
				&catalog.Paragraph{Text: "Welcome."},
				&catalog.Quiz{Question: "Pick B", Options: []string{"A", "B"}, CorrectIndex: 1},
				&catalog.InteractiveTerminal{
					Title:         "Practice",
					AllowFreeType: true,
					Commands:      []catalog.TerminalCommand{{Command: "pwd", Output: []string{"/home/you"}}},
				},
			},
		},
		Next: &LessonLink{LevelID: "1", LessonID: "1-2", Title: "Next one"},
	}
}

func TestResetKeyOpensConfirmWithoutImmediateReset(t *testing.T) {
	v, ctrl := newTestRoot(t)

	press(v, tea.KeyF9, 0, "")
	if !v.resetOpen {
		t.Fatalf("expected reset confirm to be open")
	}
	ctrl.expectNone(t)

	press(v, tea.KeyRight, 0, "")
	press(v, tea.KeyEnter, 0, "")
	ctrl.expect(t, "reset")
	if v.resetOpen {
		t.Fatalf("confirm should close after choosing")
	}
}

func TestOverlayEscClosesTopModal(t *testing.T) {
	v, _ := newTestRoot(t)
	v.SetMenuOpen(true)
	v.SetResetConfirmOpen(true)

	press(v, tea.KeyEsc, 0, "")
	if v.resetOpen || !v.menuOpen {
		t.Fatalf("expected only the reset modal to close")
	}
	press(v, tea.KeyEsc, 0, "")
	if v.menuOpen {
		t.Fatalf("expected menu to close")
	}
}

func TestHomeEnterOpensSelectedLevel(t *testing.T) {
	v, ctrl := newTestRoot(t)
	v.SetHome(HomeState{
		Levels: []LevelRow{
			{ID: "1", Number: 1, Title: "Basics", Total: 2},
			{ID: "2", Number: 2, Title: "Prompts", Total: 3},
		},
		Continue: &LessonLink{LevelID: "1", LessonID: "1-1", Title: "Meet the terminal"},
	})

	press(v, tea.KeyEnter, 0, "")
	ctrl.expect(t, "continue")

	press(v, tea.KeyDown, 0, "")
	press(v, tea.KeyDown, 0, "")
	press(v, tea.KeyEnter, 0, "")
	ctrl.expect(t, "level:2")

	text := ansi.Strip(v.renderHome(20))
	if !strings.Contains(text, "Level 2: Prompts") || !strings.Contains(text, "Cheat sheet") {
		t.Fatalf("home missing entries:\n%s", text)
	}
}

func TestLessonWidgetsKeepStateAcrossProgressUpdates(t *testing.T) {
	v, ctrl := newTestRoot(t)
	v.SetScreen(ScreenLesson)
	v.SetLesson(sampleLesson("1-1"))

	press(v, tea.KeyTab, 0, "")
	press(v, tea.KeyDown, 0, "")
	press(v, tea.KeyEnter, 0, "")

	quiz := v.lessonPg.sections[1].Widget.(*widgets.Quiz)
	if !quiz.Correct() {
		t.Fatalf("expected the second option to be selected")
	}

	press(v, tea.KeyEsc, 0, "")
	press(v, 'c', 0, "c")
	ctrl.expect(t, "toggle:1-1")

	done := sampleLesson("1-1")
	done.Complete = true
	v.SetLesson(done)
	if v.lessonPg.sections[1].Widget.(*widgets.Quiz) != quiz {
		t.Fatalf("same lesson must keep its widgets")
	}
	if !strings.Contains(ansi.Strip(v.renderLesson(30)), "Completed") {
		t.Fatalf("expected completed marker")
	}

	v.SetLesson(sampleLesson("1-2"))
	if v.lessonPg.sections[1].Widget.(*widgets.Quiz).Answered() {
		t.Fatalf("a new lesson gets fresh widgets")
	}
}

func TestFreeTypeTerminalTakesLetters(t *testing.T) {
	v, ctrl := newTestRoot(t)
	v.SetScreen(ScreenLesson)
	v.SetLesson(sampleLesson("1-1"))

	press(v, tea.KeyTab, 0, "")
	press(v, tea.KeyTab, 0, "")
	if !v.lessonPg.typing() {
		t.Fatalf("expected the terminal to take text")
	}
	typeText(v, "cls")
	press(v, tea.KeyEnter, 0, "")
	ctrl.expectNone(t)

	term := v.lessonPg.sections[2].Widget.(*widgets.Terminal)
	hist := term.History()
	if len(hist) == 0 || hist[len(hist)-1].Text != "bash: cls: command not found" {
		t.Fatalf("unexpected history %+v", hist)
	}

	typeText(v, "pwd")
	press(v, tea.KeyEnter, 0, "")
	if !term.AllDone() {
		t.Fatalf("with motion off the scripted command should finish at once")
	}

	press(v, tea.KeyEsc, 0, "")
	press(v, 'n', 0, "n")
	ctrl.expect(t, "next:1-1")
}

func TestSignInFlow(t *testing.T) {
	v, ctrl := newTestRoot(t)
	v.SetAccount(AccountState{Available: true})

	press(v, tea.KeyF8, 0, "")
	if !v.signInOpen {
		t.Fatalf("expected sign-in overlay")
	}
	v.emailInput.SetValue("learner@example.com")
	press(v, tea.KeyEnter, 0, "")
	ctrl.expect(t, "signin:learner@example.com")

	v.SetAccount(AccountState{Available: true, Status: "sent", PendingEmail: "learner@example.com"})
	v.codeInput.SetValue("123456")
	press(v, tea.KeyEnter, 0, "")
	ctrl.expect(t, "verify:learner@example.com:123456")

	v.SetAccount(AccountState{Available: true, SignedIn: true, Email: "learner@example.com"})
	if v.signInOpen {
		t.Fatalf("overlay should close once signed in")
	}
	if !strings.Contains(v.headerText(), "learner@example.com") {
		t.Fatalf("header should show the account: %q", v.headerText())
	}
}

func TestCtrlQQuitsFromAnyScreen(t *testing.T) {
	v, ctrl := newTestRoot(t)
	v.SetScreen(ScreenLesson)
	v.SetLesson(sampleLesson("1-1"))

	press(v, 'q', tea.ModCtrl, "")
	ctrl.expect(t, "quit")
}

func TestStaleWidgetTicksAreDropped(t *testing.T) {
	v, _ := newTestRoot(t)
	v.SetScreen(ScreenLesson)
	v.SetLesson(sampleLesson("1-1"))
	old := v.lessonPg.gen
	v.SetLesson(sampleLesson("1-2"))

	if v.lessonPg.tick(widgetTickMsg{gen: old, section: 2}) {
		t.Fatalf("tick from the previous lesson must be ignored")
	}
}

func TestTooSmallLayout(t *testing.T) {
	v, _ := newTestRoot(t)
	_, _ = v.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	if v.layout != LayoutTooSmall {
		t.Fatalf("expected too-small layout")
	}
	if !strings.Contains(ansi.Strip(v.renderTooSmall()), "too small") {
		t.Fatalf("expected resize hint")
	}
}
