package term

import (
	"testing"

	tea "charm.land/bubbletea/v2"
)

func press(l *Line, code rune, mod tea.KeyMod, text string) Action {
	return l.HandleKey(tea.KeyPressMsg{Code: code, Mod: mod, Text: text})
}

func typeText(l *Line, s string) {
	for _, r := range s {
		press(l, r, 0, string(r))
	}
}

func TestLineEditing(t *testing.T) {
	l := NewLine(0)
	typeText(l, "git sttus")
	press(l, tea.KeyLeft, 0, "")
	press(l, tea.KeyLeft, 0, "")
	press(l, tea.KeyLeft, 0, "")
	press(l, tea.KeyBackspace, 0, "")
	typeText(l, "ta")
	if got := l.Value(); got != "git status" {
		t.Fatalf("expected corrected line, got %q", got)
	}
	before, at, after := l.Split()
	if before != "git sta" || at != "t" || after != "us" {
		t.Fatalf("unexpected split %q %q %q", before, at, after)
	}

	press(l, 'a', tea.ModCtrl, "")
	if l.Cursor() != 0 {
		t.Fatalf("ctrl+a should move to start")
	}
	press(l, 'k', tea.ModCtrl, "")
	if l.Value() != "" {
		t.Fatalf("ctrl+k at start should clear, got %q", l.Value())
	}
}

func TestLineWordDeleteAndKill(t *testing.T) {
	l := NewLine(0)
	typeText(l, "claude --help now")
	press(l, 'w', tea.ModCtrl, "")
	if got := l.Value(); got != "claude --help " {
		t.Fatalf("ctrl+w should drop the last word, got %q", got)
	}
	press(l, tea.KeyLeft, tea.ModCtrl, "")
	press(l, 'u', tea.ModCtrl, "")
	if got := l.Value(); got != "--help " {
		t.Fatalf("ctrl+u should kill to start, got %q", got)
	}
}

func TestLineSubmitAndHistory(t *testing.T) {
	l := NewLine(0)
	typeText(l, "ls")
	if press(l, tea.KeyEnter, 0, "") != ActionSubmit {
		t.Fatalf("enter should submit")
	}
	if got := l.Submit(); got != "ls" || l.Value() != "" {
		t.Fatalf("submit should return and clear, got %q", got)
	}
	typeText(l, "pwd")
	l.Submit()
	typeText(l, "dra")

	press(l, tea.KeyUp, 0, "")
	if l.Value() != "pwd" {
		t.Fatalf("up should recall last command, got %q", l.Value())
	}
	press(l, tea.KeyUp, 0, "")
	press(l, tea.KeyUp, 0, "")
	if l.Value() != "ls" {
		t.Fatalf("up should stop at oldest command, got %q", l.Value())
	}
	press(l, tea.KeyDown, 0, "")
	press(l, tea.KeyDown, 0, "")
	if l.Value() != "dra" {
		t.Fatalf("down past newest should restore draft, got %q", l.Value())
	}
	if press(l, tea.KeyEsc, 0, "") != ActionCancel {
		t.Fatalf("esc should cancel")
	}
}

func TestLineIgnoresEscapeFragmentsAndLimit(t *testing.T) {
	l := NewLine(3)
	if press(l, 0, 0, "[B") != ActionNone {
		t.Fatalf("escape fragments must not be inserted")
	}
	typeText(l, "abcdef")
	if l.Value() != "abc" {
		t.Fatalf("limit should cap input, got %q", l.Value())
	}
	if press(l, tea.KeyF5, 0, "") != ActionNone {
		t.Fatalf("unbound keys should report none")
	}
}
