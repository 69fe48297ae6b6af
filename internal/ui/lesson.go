package ui

import (
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"academy/internal/catalog"
	"academy/internal/render"
	"academy/internal/term"
	"academy/internal/widgets"
)

// widgetTickMsg advances one animated section. Ticks from a previous page
// carry a stale generation and are dropped.
type widgetTickMsg struct {
	gen     int
	section int
}

// page is a scrollable list of rendered sections: a lesson or the cheat
// sheet. Widget state lives here and is discarded with the page.
type page struct {
	id       string
	sections []render.Section
	cursor   map[int]int
	lines    map[int]*term.Line
	focus    int
	scroll   int
	gen      int
	ticking  map[int]bool
	offsets  []int
	total    int
	follow   bool
}

func newPage(id string, sections []render.Section, gen int) *page {
	return &page{
		id:       id,
		sections: sections,
		cursor:   map[int]int{},
		lines:    map[int]*term.Line{},
		focus:    -1,
		gen:      gen,
		ticking:  map[int]bool{},
	}
}

func (p *page) interactive() []int {
	var out []int
	for i, sec := range p.sections {
		if sec.Interactive() {
			out = append(out, i)
		}
	}
	return out
}

// cycleFocus moves focus to the next (delta > 0) or previous interactive
// section, wrapping around. It reports whether anything is focusable.
func (p *page) cycleFocus(delta int) bool {
	ids := p.interactive()
	if len(ids) == 0 {
		p.focus = -1
		return false
	}
	pos := -1
	for i, id := range ids {
		if id == p.focus {
			pos = i
			break
		}
	}
	switch {
	case pos < 0 && delta < 0:
		pos = len(ids) - 1
	case pos < 0:
		pos = 0
	default:
		pos = wrapIndex(pos+delta, len(ids))
	}
	p.focus = ids[pos]
	p.follow = true
	return true
}

func (p *page) focused() (render.Section, bool) {
	if p.focus < 0 || p.focus >= len(p.sections) {
		return render.Section{}, false
	}
	return p.sections[p.focus], true
}

func (p *page) line(i int) *term.Line {
	l, ok := p.lines[i]
	if !ok {
		l = term.NewLine(0)
		p.lines[i] = l
	}
	return l
}

// typing reports whether the focused widget takes free text, so letter
// keys go to it instead of page shortcuts.
func (p *page) typing() bool {
	sec, ok := p.focused()
	if !ok {
		return false
	}
	switch w := sec.Widget.(type) {
	case *widgets.Terminal:
		return w.FreeType() && !w.AllDone()
	case *widgets.PromptBuilder:
		secs := w.Block().Sections
		c := p.cursor[p.focus]
		return c >= 0 && c < len(secs) && len(secs[c].Options) == 0
	}
	return false
}

func (p *page) focusState(i int) render.Focus {
	f := render.Focus{Active: i == p.focus, Cursor: p.cursor[i]}
	if f.Active {
		if l, ok := p.lines[i]; ok {
			f.Input = l.Value()
		}
	}
	return f
}

// body draws every section and records where each one starts.
func (p *page) body(r *render.Renderer) []string {
	var out []string
	p.offsets = p.offsets[:0]
	for i, sec := range p.sections {
		p.offsets = append(p.offsets, len(out))
		text := r.Draw(sec, p.focusState(i))
		out = append(out, strings.Split(text, "\n")...)
		out = append(out, "")
	}
	p.total = len(out)
	return out
}

// reveal scrolls so the focused section's first line is visible.
func (p *page) reveal(height int) {
	if p.focus < 0 || p.focus >= len(p.offsets) {
		return
	}
	start := p.offsets[p.focus]
	end := p.total
	if p.focus+1 < len(p.offsets) {
		end = p.offsets[p.focus+1]
	}
	if start < p.scroll {
		p.scroll = start
	} else if end > p.scroll+height {
		p.scroll = min(start, end-height)
	}
	p.clamp(height)
}

func (p *page) scrollBy(delta, height int) {
	p.scroll += delta
	p.clamp(height)
}

func (p *page) clamp(height int) {
	p.scroll = min(p.scroll, max(0, p.total-height))
	p.scroll = max(0, p.scroll)
}

// schedule starts a tick for every animated section that needs one and is
// not already waiting. With motion off, animations finish immediately.
func (p *page) schedule(motion string) tea.Cmd {
	var cmds []tea.Cmd
	for i, sec := range p.sections {
		a, ok := sec.Widget.(widgets.Animator)
		if !ok || p.ticking[i] {
			continue
		}
		if motion == "off" {
			for guard := 0; a.Interval() > 0 && guard < 10000; guard++ {
				a.Step()
			}
			continue
		}
		d := a.Interval()
		if d <= 0 {
			continue
		}
		if motion == "reduced" {
			d = reducedInterval(d)
		}
		p.ticking[i] = true
		gen, idx := p.gen, i
		cmds = append(cmds, tea.Tick(d, func(time.Time) tea.Msg {
			return widgetTickMsg{gen: gen, section: idx}
		}))
	}
	return tea.Batch(cmds...)
}

// tick advances one section and reports whether the page changed.
func (p *page) tick(msg widgetTickMsg) bool {
	if msg.gen != p.gen || msg.section < 0 || msg.section >= len(p.sections) {
		return false
	}
	p.ticking[msg.section] = false
	a, ok := p.sections[msg.section].Widget.(widgets.Animator)
	if !ok {
		return false
	}
	return a.Step()
}

// Reduced motion keeps every animation but caps how often the screen
// repaints for it.
func reducedInterval(d time.Duration) time.Duration {
	return max(d, 60*time.Millisecond)
}

// handleWidgetKey routes a key to the focused widget. It reports whether the
// key was consumed.
func (p *page) handleWidgetKey(msg tea.KeyPressMsg) bool {
	sec, ok := p.focused()
	if !ok {
		return false
	}
	i := p.focus
	switch w := sec.Widget.(type) {
	case *widgets.Reveal:
		if msg.Code != tea.KeyEnter && msg.Code != tea.KeySpace {
			return false
		}
		if _, isExercise := sec.Block.(*catalog.Exercise); isExercise {
			w.Show()
		} else {
			w.Toggle()
		}
		return true
	case *widgets.Quiz:
		n := len(w.Block().Options)
		switch msg.Code {
		case tea.KeyUp:
			p.cursor[i] = wrapIndex(p.cursor[i]-1, n)
		case tea.KeyDown:
			p.cursor[i] = wrapIndex(p.cursor[i]+1, n)
		case tea.KeyEnter, tea.KeySpace:
			w.Select(p.cursor[i])
		default:
			if d := int(msg.Code - '1'); msg.Mod == 0 && d >= 0 && d < n && d < 9 {
				p.cursor[i] = d
				w.Select(d)
				return true
			}
			return false
		}
		return true
	case *widgets.DragRank:
		return p.dragRankKey(w, i, msg)
	case *widgets.Terminal:
		return p.terminalKey(w, i, msg)
	case *widgets.Conversation:
		return conversationKey(w, msg)
	case *widgets.PromptBuilder:
		return p.promptBuilderKey(w, i, msg)
	}
	return false
}

func (p *page) dragRankKey(w *widgets.DragRank, i int, msg tea.KeyPressMsg) bool {
	n := len(w.Order())
	switch {
	case key.Matches(msg, rankKeys.MoveUp):
		if w.MoveUp(p.cursor[i]) {
			p.cursor[i]--
		}
	case key.Matches(msg, rankKeys.MoveDown):
		if w.MoveDown(p.cursor[i]) {
			p.cursor[i]++
		}
	case key.Matches(msg, rankKeys.Up):
		p.cursor[i] = wrapIndex(p.cursor[i]-1, n)
	case key.Matches(msg, rankKeys.Down):
		p.cursor[i] = wrapIndex(p.cursor[i]+1, n)
	case key.Matches(msg, rankKeys.Check):
		if w.Submitted() && !w.Correct() {
			w.TryAgain()
		} else {
			w.Check()
		}
	case key.Matches(msg, rankKeys.Retry):
		w.TryAgain()
	default:
		return false
	}
	return true
}

func (p *page) terminalKey(w *widgets.Terminal, i int, msg tea.KeyPressMsg) bool {
	if !w.FreeType() {
		n := len(w.Block().Commands)
		switch msg.Code {
		case tea.KeyLeft:
			p.cursor[i] = wrapIndex(p.cursor[i]-1, n)
		case tea.KeyRight:
			p.cursor[i] = wrapIndex(p.cursor[i]+1, n)
		case tea.KeyEnter, tea.KeySpace:
			if !w.Run(p.cursor[i]) {
				w.RunNext()
			}
			for j := 0; j < n; j++ {
				if !w.Executed(j) {
					p.cursor[i] = j
					break
				}
			}
		default:
			return false
		}
		return true
	}
	if w.Running() {
		return msg.Code != tea.KeyEsc && msg.Code != tea.KeyTab
	}
	if msg.Code == tea.KeyTab {
		return false
	}
	l := p.line(i)
	switch l.HandleKey(msg) {
	case term.ActionSubmit:
		if strings.TrimSpace(l.Value()) == "" {
			w.RunNext()
			return true
		}
		w.Submit(l.Submit())
	case term.ActionCancel:
		if l.Value() == "" {
			return false
		}
		l.Reset()
	case term.ActionNone:
		return false
	}
	return true
}

func conversationKey(w *widgets.Conversation, msg tea.KeyPressMsg) bool {
	switch {
	case msg.Code == tea.KeyEnter || msg.Code == tea.KeySpace:
		switch w.Action() {
		case widgets.ActionApprove:
			w.Approve()
		case widgets.ActionStart, widgets.ActionSend, widgets.ActionContinue:
			w.Advance()
		}
		return true
	case msg.Code == 'r' && msg.Mod == 0:
		if w.Done() {
			w.Restart()
			return true
		}
	}
	return false
}

func (p *page) promptBuilderKey(w *widgets.PromptBuilder, i int, msg tea.KeyPressMsg) bool {
	secs := w.Block().Sections
	if len(secs) == 0 {
		return false
	}
	move := func(delta int) {
		p.cursor[i] = wrapIndex(p.cursor[i]+delta, len(secs))
		l := p.line(i)
		l.Reset()
		l.Insert(w.Value(p.cursor[i]))
	}
	if (msg.Code == 'x' || msg.Code == 'X') && msg.Mod&tea.ModCtrl != 0 {
		w.RevealExample()
		return true
	}
	switch msg.Code {
	case tea.KeyUp:
		move(-1)
		return true
	case tea.KeyDown:
		move(1)
		return true
	}
	c := p.cursor[i]
	if c >= len(secs) {
		c = 0
		p.cursor[i] = 0
	}
	if len(secs[c].Options) > 0 {
		switch msg.Code {
		case tea.KeyLeft:
			w.CycleOption(c, -1)
		case tea.KeyRight, tea.KeySpace:
			w.CycleOption(c, 1)
		case tea.KeyEnter:
			move(1)
		default:
			return false
		}
		return true
	}
	l := p.line(i)
	if l.Value() == "" && w.Value(c) != "" {
		l.Insert(w.Value(c))
	}
	switch l.HandleKey(msg) {
	case term.ActionEdit:
		w.Set(c, strings.TrimSpace(l.Value()))
	case term.ActionSubmit:
		w.Set(c, strings.TrimSpace(l.Value()))
		move(1)
	case term.ActionCancel:
		return false
	case term.ActionNone:
		return false
	}
	return true
}

// paste feeds pasted text to a focused text widget.
func (p *page) paste(content string) bool {
	sec, ok := p.focused()
	if !ok || !p.typing() {
		return false
	}
	l := p.line(p.focus)
	done := l.Paste(content)
	switch w := sec.Widget.(type) {
	case *widgets.Terminal:
		for _, cmd := range done {
			w.Submit(cmd)
		}
	case *widgets.PromptBuilder:
		c := p.cursor[p.focus]
		if len(done) > 0 {
			w.Set(c, strings.TrimSpace(strings.Join(append(done, l.Value()), " ")))
			l.Reset()
			l.Insert(w.Value(c))
		} else {
			w.Set(c, strings.TrimSpace(l.Value()))
		}
	}
	return true
}
