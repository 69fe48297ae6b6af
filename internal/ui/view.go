package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"

	"academy/internal/catalog"
	"academy/internal/render"
)

type applyMsg struct {
	fn func(*Root)
}

type clockMsg time.Time
type animateMsg time.Time

type Root struct {
	theme        Theme
	ascii        bool
	debug        bool
	ctrl         Controller
	styleVariant string
	motionLevel  string

	mu      sync.Mutex
	program *tea.Program
	running bool

	screen Screen
	layout LayoutMode
	cols   int
	rows   int

	home      HomeState
	level     LevelState
	lesson    LessonState
	sheet     catalog.Blocks
	account   AccountState
	syncState SyncState

	renderer  *render.Renderer
	lessonPg  *page
	sheetPg   *page
	pageGen   int
	bodyRows  int
	statusMsg string

	menuOpen   bool
	signInOpen bool
	resetOpen  bool

	homeIndex  int
	levelIndex int
	menuIndex  int
	resetIndex int

	emailInput textinput.Model
	codeInput  textinput.Model

	help     help.Model
	keymap   appKeyMap
	bar      progress.Model
	syncSpin spinner.Model
	logger   *clog.Logger
	fillPos  float64
	fillVel  float64
	spring   harmonica.Spring
	now      func() time.Time

	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	StyleVariant string
	MotionLevel  string
	Now          func() time.Time
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "academy-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	theme := ThemeForVariant(styleVariant)
	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	switch motionLevel {
	case "reduced":
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
	case "off":
		spring = harmonica.NewSpring(harmonica.FPS(60), 1000.0, 1.0)
	}
	bar := progress.New(
		progress.WithWidth(20),
		progress.WithColors(lipgloss.Color("#5EC2FF"), lipgloss.Color("#79E6A6"), lipgloss.Color("#F2D16B")),
		progress.WithScaled(true),
	)
	if motionLevel == "off" {
		bar.SetSpringOptions(1000.0, 1.0)
	}
	syncSpin := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Accent),
	)

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email: "
	email.CharLimit = 254
	code := textinput.New()
	code.Placeholder = "123456"
	code.Prompt = "Code:  "
	code.CharLimit = 12

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		debug:        opts.Debug,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		screen:       ScreenHome,
		layout:       LayoutWide,
		cols:         120,
		rows:         30,
		renderer:     render.New(theme.Content, contentWidth(LayoutWide, 120)),
		emailInput:   email,
		codeInput:    code,
		help:         h,
		keymap:       defaultKeyMap(),
		bar:          bar,
		syncSpin:     syncSpin,
		logger:       logger,
		spring:       spring,
		now:          now,
		home:         HomeState{Title: "Claude Code Academy"},
		account:      AccountState{Loading: true},
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(clockTickCmd(), spinnerTickCmd(r.syncSpin))
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.resize(msg.Width, msg.Height)
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, tea.Batch(r.animateIfNeeded(), r.schedulePages())
	case clockMsg:
		return r, clockTickCmd()
	case animateMsg:
		target := r.fillTarget()
		r.fillPos, r.fillVel = r.spring.Update(r.fillPos, r.fillVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		r.fillPos = target
		r.fillVel = 0
		return r, nil
	case widgetTickMsg:
		p := r.activePage()
		if p == nil || !p.tick(msg) {
			return r, r.schedulePages()
		}
		return r, p.schedule(r.motionLevel)
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.syncSpin, cmd = r.syncSpin.Update(msg)
		return r, cmd
	case tea.PasteMsg:
		return r.handlePaste(msg)
	case tea.MouseWheelMsg:
		return r.handleMouseWheel(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	if r.signInOpen {
		return r, r.updateInputs(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			if r.statusMsg == "" {
				r.statusMsg = "Recovered UI panic"
			}
			view = tea.NewView(r.theme.Fail.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}

	var base string
	if r.layout == LayoutTooSmall {
		base = r.renderTooSmall()
	} else {
		header := r.theme.Header.Width(max(1, r.cols)).Render(trimForWidth(r.headerText(), max(1, r.cols-2)))
		footer := r.footerText()
		bodyH := max(3, r.rows-1-lipgloss.Height(footer))
		var body string
		switch r.screen {
		case ScreenLevel:
			body = r.renderLevel(bodyH)
		case ScreenLesson:
			body = r.renderLesson(bodyH)
		case ScreenCheatSheet:
			body = r.renderCheatSheet(bodyH)
		default:
			body = r.renderHome(bodyH)
		}
		base = header + "\n" + body + "\n" + footer
	}

	if overlay := r.renderOverlay(); overlay != "" {
		base = composeOverlay(base, overlay, r.cols, r.rows)
	}
	v := tea.NewView(base)
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetScreen(screen Screen) {
	r.apply(func(v *Root) {
		if v.screen != screen {
			v.statusMsg = ""
		}
		v.screen = screen
		v.menuOpen = false
	})
}

func (r *Root) SetHome(state HomeState) {
	r.apply(func(v *Root) {
		if state.Title == "" {
			state.Title = v.home.Title
		}
		v.home = state
		v.homeIndex = min(v.homeIndex, max(0, len(v.homeItems())-1))
	})
}

func (r *Root) SetLevel(state LevelState) {
	r.apply(func(v *Root) {
		if v.level.Level.ID != state.Level.ID {
			v.levelIndex = firstIncomplete(state.Lessons)
		}
		v.level = state
		v.levelIndex = min(v.levelIndex, max(0, len(state.Lessons)-1))
	})
}

// SetLesson installs a lesson. A different lesson id rebuilds every section
// with fresh widgets; the same id only refreshes the surrounding state.
func (r *Root) SetLesson(state LessonState) {
	r.apply(func(v *Root) {
		v.lesson = state
		if v.lessonPg != nil && v.lessonPg.id == state.Lesson.ID {
			return
		}
		v.lessonPg = v.buildPage(state.Lesson.ID, state.Lesson.Blocks)
	})
}

func (r *Root) SetCheatSheet(blocks catalog.Blocks) {
	r.apply(func(v *Root) {
		v.sheet = blocks
		v.sheetPg = v.buildPage("cheatsheet", blocks)
	})
}

func (r *Root) SetAccount(state AccountState) {
	r.apply(func(v *Root) {
		wasSignedIn := v.account.SignedIn
		v.account = state
		if state.SignedIn && !wasSignedIn && v.signInOpen {
			v.closeSignIn()
			v.statusMsg = "Signed in as " + state.Email
		}
		if state.Status == "sent" {
			v.emailInput.Blur()
			v.codeInput.Focus()
		}
	})
}

func (r *Root) SetSync(state SyncState) {
	r.apply(func(v *Root) { v.syncState = state })
}

func (r *Root) SetMenuOpen(open bool) {
	r.apply(func(v *Root) {
		v.menuOpen = open
		if open {
			v.menuIndex = 0
		}
	})
}

func (r *Root) SetSignInOpen(open bool) {
	r.apply(func(v *Root) {
		if open {
			v.openSignIn()
		} else {
			v.closeSignIn()
		}
	})
}

func (r *Root) SetResetConfirmOpen(open bool) {
	r.apply(func(v *Root) {
		v.resetOpen = open
		v.resetIndex = 0
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(v *Root) { v.statusMsg = msg })
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) resize(cols, rows int) {
	r.cols = cols
	r.rows = rows
	r.layout = DetermineLayoutMode(cols, rows)
	r.help.SetWidth(cols)
	width := contentWidth(r.layout, cols)
	if width == r.renderer.Width() {
		return
	}
	r.renderer.SetWidth(width)
	for _, p := range []*page{r.lessonPg, r.sheetPg} {
		r.rewrap(p)
	}
}

// rewrap re-renders static sections at the current width. Widgets keep
// their state and wrap at draw time.
func (r *Root) rewrap(p *page) {
	if p == nil {
		return
	}
	for i, sec := range p.sections {
		if sec.Interactive() {
			continue
		}
		if fresh, err := r.renderer.Block(sec.Block); err == nil {
			p.sections[i].Static = fresh.Static
		}
	}
}

func (r *Root) buildPage(id string, blocks catalog.Blocks) *page {
	r.pageGen++
	sections, err := r.renderer.Lesson(blocks)
	if err != nil {
		r.logger.Error("ui.render_failed", "page", id, "err", err)
		r.statusMsg = "Could not render this page"
		sections = nil
	}
	return newPage(id, sections, r.pageGen)
}

func (r *Root) activePage() *page {
	switch r.screen {
	case ScreenLesson:
		return r.lessonPg
	case ScreenCheatSheet:
		return r.sheetPg
	}
	return nil
}

func (r *Root) schedulePages() tea.Cmd {
	if p := r.activePage(); p != nil {
		return p.schedule(r.motionLevel)
	}
	return nil
}

func (r *Root) openSignIn() {
	r.signInOpen = true
	r.menuOpen = false
	r.emailInput.Reset()
	r.codeInput.Reset()
	if r.account.PendingEmail != "" {
		r.emailInput.SetValue(r.account.PendingEmail)
	}
	if r.account.Status == "sent" {
		r.codeInput.Focus()
	} else {
		r.emailInput.Focus()
	}
}

func (r *Root) closeSignIn() {
	r.signInOpen = false
	r.emailInput.Blur()
	r.codeInput.Blur()
}

func (r *Root) updateInputs(msg tea.Msg) tea.Cmd {
	var emailCmd, codeCmd tea.Cmd
	r.emailInput, emailCmd = r.emailInput.Update(msg)
	r.codeInput, codeCmd = r.codeInput.Update(msg)
	return tea.Batch(emailCmd, codeCmd)
}

func (r *Root) fillTarget() float64 {
	return float64(max(0, min(100, r.home.Overall))) / 100
}

func (r *Root) animateIfNeeded() tea.Cmd {
	target := r.fillTarget()
	if r.motionLevel == "off" {
		r.fillPos = target
		r.fillVel = 0
		return nil
	}
	if r.shouldAnimate(target) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if r.motionLevel == "off" {
		return false
	}
	return abs(r.fillPos-target) > 0.001 || abs(r.fillVel) > 0.001
}

func (r *Root) levelBar(pct float64, width int) string {
	m := r.bar
	m.SetWidth(max(8, width))
	return m.ViewAs(pct)
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusMsg == "" {
		r.statusMsg = "Recovered UI panic"
	}
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"messageType", msgType,
		"screen", r.screen.String(),
		"layout", r.layout,
		"cols", r.cols,
		"rows", r.rows,
		"overlay", r.topOverlay(),
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var (
	_ tea.Model   = (*Root)(nil)
	_ View        = (*Root)(nil)
	_ help.KeyMap = appKeyMap{}
)
