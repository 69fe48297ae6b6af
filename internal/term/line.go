package term

import (
	"strings"
	"unicode"

	tea "charm.land/bubbletea/v2"
)

const defaultLimit = 256

// Line is a single-line shell prompt editor with history recall.
type Line struct {
	buf     []rune
	cursor  int
	history []string
	histPos int
	draft   []rune
	limit   int
}

func NewLine(limit int) *Line {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Line{limit: limit}
}

func (l *Line) Value() string { return string(l.buf) }

func (l *Line) Cursor() int { return l.cursor }

// Split returns the text before the cursor, the rune under it ("" at the
// end) and the rest.
func (l *Line) Split() (before, at, after string) {
	before = string(l.buf[:l.cursor])
	if l.cursor < len(l.buf) {
		at = string(l.buf[l.cursor])
		after = string(l.buf[l.cursor+1:])
	}
	return before, at, after
}

func (l *Line) Reset() {
	l.buf = nil
	l.cursor = 0
	l.histPos = len(l.history)
	l.draft = nil
}

// Submit returns the current line, records it in history and clears the
// editor.
func (l *Line) Submit() string {
	v := l.Value()
	if strings.TrimSpace(v) != "" {
		if n := len(l.history); n == 0 || l.history[n-1] != v {
			l.history = append(l.history, v)
		}
	}
	l.Reset()
	return v
}

func (l *Line) Insert(s string) {
	for _, r := range s {
		if r == '\t' {
			r = ' '
		}
		if !unicode.IsPrint(r) || len(l.buf) >= l.limit {
			continue
		}
		l.buf = append(l.buf, 0)
		copy(l.buf[l.cursor+1:], l.buf[l.cursor:])
		l.buf[l.cursor] = r
		l.cursor++
	}
}

// HandleKey applies a key press using readline conventions.
func (l *Line) HandleKey(ev tea.KeyPressMsg) Action {
	key := ev.Key()

	if key.Text != "" && key.Mod&(tea.ModCtrl|tea.ModAlt) == 0 {
		// Some transports surface escape fragments such as "[B" as text.
		if looksLikeEscFragment(key.Text) {
			return ActionNone
		}
		l.Insert(key.Text)
		return ActionEdit
	}

	switch key.Code {
	case tea.KeyEnter:
		return ActionSubmit
	case tea.KeyEsc:
		return ActionCancel
	case tea.KeyBackspace:
		if key.Mod&tea.ModAlt != 0 {
			l.deleteWord()
		} else if l.cursor > 0 {
			l.buf = append(l.buf[:l.cursor-1], l.buf[l.cursor:]...)
			l.cursor--
		}
		return ActionEdit
	case tea.KeyDelete:
		if l.cursor < len(l.buf) {
			l.buf = append(l.buf[:l.cursor], l.buf[l.cursor+1:]...)
		}
		return ActionEdit
	case tea.KeyLeft:
		if key.Mod&(tea.ModCtrl|tea.ModAlt) != 0 {
			l.cursor = l.wordStart()
		} else if l.cursor > 0 {
			l.cursor--
		}
		return ActionEdit
	case tea.KeyRight:
		if key.Mod&(tea.ModCtrl|tea.ModAlt) != 0 {
			l.cursor = l.wordEnd()
		} else if l.cursor < len(l.buf) {
			l.cursor++
		}
		return ActionEdit
	case tea.KeyHome:
		l.cursor = 0
		return ActionEdit
	case tea.KeyEnd:
		l.cursor = len(l.buf)
		return ActionEdit
	case tea.KeyUp:
		l.recall(-1)
		return ActionEdit
	case tea.KeyDown:
		l.recall(1)
		return ActionEdit
	}

	if key.Mod&tea.ModCtrl != 0 {
		switch unicode.ToLower(key.Code) {
		case 'a':
			l.cursor = 0
		case 'e':
			l.cursor = len(l.buf)
		case 'u':
			l.buf = append([]rune(nil), l.buf[l.cursor:]...)
			l.cursor = 0
		case 'k':
			l.buf = l.buf[:l.cursor]
		case 'w':
			l.deleteWord()
		case 'c':
			return ActionCancel
		default:
			return ActionNone
		}
		return ActionEdit
	}
	return ActionNone
}

func (l *Line) recall(delta int) {
	if len(l.history) == 0 {
		return
	}
	if l.histPos == len(l.history) {
		l.draft = append([]rune(nil), l.buf...)
	}
	pos := l.histPos + delta
	if pos < 0 || pos > len(l.history) {
		return
	}
	l.histPos = pos
	if pos == len(l.history) {
		l.buf = append([]rune(nil), l.draft...)
	} else {
		l.buf = []rune(l.history[pos])
	}
	l.cursor = len(l.buf)
}

func (l *Line) deleteWord() {
	start := l.wordStart()
	l.buf = append(l.buf[:start], l.buf[l.cursor:]...)
	l.cursor = start
}

func (l *Line) wordStart() int {
	i := l.cursor
	for i > 0 && unicode.IsSpace(l.buf[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(l.buf[i-1]) {
		i--
	}
	return i
}

func (l *Line) wordEnd() int {
	i := l.cursor
	for i < len(l.buf) && unicode.IsSpace(l.buf[i]) {
		i++
	}
	for i < len(l.buf) && !unicode.IsSpace(l.buf[i]) {
		i++
	}
	return i
}

func looksLikeEscFragment(s string) bool {
	if len(s) < 2 || len(s) > 16 {
		return false
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return false
	}

	if strings.HasPrefix(s, "[") {
		last := s[len(s)-1]
		if !((last >= 'A' && last <= 'Z') || last == '~') {
			return false
		}
		for i := 1; i < len(s)-1; i++ {
			ch := s[i]
			if (ch >= '0' && ch <= '9') || ch == ';' || ch == '?' {
				continue
			}
			return false
		}
		return true
	}

	if strings.HasPrefix(s, "O") && len(s) == 2 {
		switch s[1] {
		case 'P', 'Q', 'R', 'S', 'A', 'B', 'C', 'D', 'H', 'F', 'Z':
			return true
		}
	}

	return false
}
