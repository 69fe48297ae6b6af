package ui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))
	r.statusMsg = ""

	if key.Matches(msg, r.keymap.Quit) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}
	if r.overlayActive() {
		return r.handleOverlayKey(msg)
	}
	if r.layout == LayoutTooSmall {
		return r, nil
	}

	p := r.activePage()
	typing := p != nil && p.typing()
	if !typing {
		switch {
		case key.Matches(msg, r.keymap.Help):
			r.help.ShowAll = !r.help.ShowAll
			return r, nil
		case key.Matches(msg, r.keymap.Menu):
			r.menuOpen = true
			r.menuIndex = 0
			return r, nil
		case key.Matches(msg, r.keymap.CheatSheet):
			r.dispatchController(func(c Controller) { c.OnCheatSheet() })
			return r, nil
		case key.Matches(msg, r.keymap.Account):
			r.openSignIn()
			return r, nil
		case key.Matches(msg, r.keymap.Reset):
			r.resetOpen = true
			r.resetIndex = 0
			return r, nil
		}
	}

	switch r.screen {
	case ScreenLevel:
		return r.handleLevelKey(msg)
	case ScreenLesson:
		return r.handleLessonKey(msg)
	case ScreenCheatSheet:
		return r.handleSheetKey(msg)
	default:
		return r.handleHomeKey(msg)
	}
}

func (r *Root) handleOverlayKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.Code == tea.KeyEsc || msg.Code == tea.KeyEscape {
		r.closeTopOverlay()
		return r, nil
	}

	switch r.topOverlay() {
	case "menu":
		items := r.menuItems()
		switch msg.Code {
		case tea.KeyUp:
			r.menuIndex = wrapIndex(r.menuIndex-1, len(items))
		case tea.KeyDown, tea.KeyTab:
			r.menuIndex = wrapIndex(r.menuIndex+1, len(items))
		case tea.KeyEnter:
			r.menuOpen = false
			r.activateMenuItem(items[wrapIndex(r.menuIndex, len(items))])
		}
	case "reset":
		switch msg.Code {
		case tea.KeyLeft, tea.KeyUp:
			r.resetIndex = 0
		case tea.KeyRight, tea.KeyDown, tea.KeyTab:
			r.resetIndex = 1
		case tea.KeyEnter:
			r.resetOpen = false
			if r.resetIndex == 1 {
				r.dispatchController(func(c Controller) { c.OnResetProgress() })
			}
		}
	case "signin":
		return r.handleSignInKey(msg)
	}
	return r, nil
}

func (r *Root) handleSignInKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	a := r.account
	if !a.Available {
		if msg.Code == tea.KeyEnter {
			r.closeSignIn()
		}
		return r, nil
	}
	if a.SignedIn {
		if msg.Code == tea.KeyEnter {
			r.closeSignIn()
			r.dispatchController(func(c Controller) { c.OnSignOut() })
		}
		return r, nil
	}
	if msg.Code == tea.KeyEnter {
		if a.Status == "sent" {
			email, code := a.PendingEmail, strings.TrimSpace(r.codeInput.Value())
			if code == "" {
				return r, nil
			}
			r.dispatchController(func(c Controller) { c.OnVerifyCode(email, code) })
			return r, nil
		}
		email := strings.TrimSpace(r.emailInput.Value())
		if email == "" || a.Status == "sending" {
			return r, nil
		}
		r.account.Status = "sending"
		r.dispatchController(func(c Controller) { c.OnSignIn(email) })
		return r, nil
	}
	return r, r.updateInputs(msg)
}

func (r *Root) closeTopOverlay() {
	switch r.topOverlay() {
	case "reset":
		r.resetOpen = false
	case "signin":
		r.closeSignIn()
	case "menu":
		r.menuOpen = false
	}
}

func (r *Root) activateMenuItem(item menuItem) {
	switch item.ID {
	case itemHome:
		r.dispatchController(func(c Controller) { c.OnHome() })
	case itemCheatSheet:
		r.dispatchController(func(c Controller) { c.OnCheatSheet() })
	case itemAccount:
		if r.account.SignedIn {
			r.dispatchController(func(c Controller) { c.OnSignOut() })
			return
		}
		r.openSignIn()
	case itemReset:
		r.resetOpen = true
		r.resetIndex = 0
	case itemQuit:
		r.dispatchController(func(c Controller) { c.OnQuit() })
	}
}

func (r *Root) handleHomeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	items := r.homeItems()
	switch msg.Code {
	case tea.KeyUp:
		r.homeIndex = wrapIndex(r.homeIndex-1, len(items))
	case tea.KeyDown, tea.KeyTab:
		r.homeIndex = wrapIndex(r.homeIndex+1, len(items))
	case tea.KeyEnter:
		if len(items) == 0 {
			return r, nil
		}
		item := items[wrapIndex(r.homeIndex, len(items))]
		switch {
		case item.ID == itemContinue:
			r.dispatchController(func(c Controller) { c.OnContinue() })
		case item.ID == itemCheatSheet:
			r.dispatchController(func(c Controller) { c.OnCheatSheet() })
		case strings.HasPrefix(item.ID, "level:"):
			id := strings.TrimPrefix(item.ID, "level:")
			r.dispatchController(func(c Controller) { c.OnOpenLevel(id) })
		}
	case tea.KeyEsc:
		r.menuOpen = true
		r.menuIndex = 0
	}
	return r, nil
}

func (r *Root) handleLevelKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	lessons := r.level.Lessons
	switch msg.Code {
	case tea.KeyUp:
		r.levelIndex = wrapIndex(r.levelIndex-1, len(lessons))
	case tea.KeyDown, tea.KeyTab:
		r.levelIndex = wrapIndex(r.levelIndex+1, len(lessons))
	case tea.KeyEnter:
		if len(lessons) == 0 {
			return r, nil
		}
		levelID, lessonID := r.level.Level.ID, lessons[wrapIndex(r.levelIndex, len(lessons))].ID
		r.dispatchController(func(c Controller) { c.OnOpenLesson(levelID, lessonID) })
	case tea.KeyEsc:
		r.dispatchController(func(c Controller) { c.OnHome() })
	}
	return r, nil
}

func (r *Root) handleLessonKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	p := r.lessonPg
	if p == nil {
		return r, nil
	}
	if handled, cmd := r.handlePageKey(p, msg); handled {
		return r, cmd
	}
	levelID, lessonID := r.lesson.LevelID, r.lesson.Lesson.ID
	switch {
	case key.Matches(msg, r.keymap.Complete):
		r.dispatchController(func(c Controller) { c.OnToggleLessonComplete(levelID, lessonID) })
	case key.Matches(msg, r.keymap.Next):
		r.dispatchController(func(c Controller) { c.OnNextLesson(levelID, lessonID) })
	case key.Matches(msg, r.keymap.Prev):
		if r.lesson.Prev != nil {
			r.dispatchController(func(c Controller) { c.OnPrevLesson(levelID, lessonID) })
		}
	case key.Matches(msg, r.keymap.Back):
		r.dispatchController(func(c Controller) { c.OnOpenLevel(levelID) })
	}
	return r, nil
}

func (r *Root) handleSheetKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	p := r.sheetPg
	if p != nil {
		if handled, cmd := r.handlePageKey(p, msg); handled {
			return r, cmd
		}
	}
	if key.Matches(msg, r.keymap.Back) {
		r.dispatchController(func(c Controller) { c.OnHome() })
	}
	return r, nil
}

// handlePageKey covers focus, widgets and scrolling shared by lesson pages
// and the cheat sheet.
func (r *Root) handlePageKey(p *page, msg tea.KeyPressMsg) (bool, tea.Cmd) {
	if msg.Code == tea.KeyTab {
		delta := 1
		if msg.Mod&tea.ModShift != 0 {
			delta = -1
		}
		p.cycleFocus(delta)
		return true, nil
	}
	if p.focus >= 0 {
		if p.handleWidgetKey(msg) {
			return true, p.schedule(r.motionLevel)
		}
		if msg.Code == tea.KeyEsc {
			p.focus = -1
			return true, nil
		}
		if p.typing() {
			return true, nil
		}
	}
	step := max(1, r.bodyRows-1)
	switch msg.Code {
	case tea.KeyUp:
		p.scrollBy(-1, r.bodyRows)
	case tea.KeyDown:
		p.scrollBy(1, r.bodyRows)
	case tea.KeyPgUp:
		p.scrollBy(-step, r.bodyRows)
	case tea.KeyPgDown, tea.KeySpace:
		p.scrollBy(step, r.bodyRows)
	case tea.KeyHome:
		p.scroll = 0
	case tea.KeyEnd:
		p.scrollBy(p.total, r.bodyRows)
	case tea.KeyEnter:
		if p.cycleFocus(1) {
			return true, nil
		}
		return false, nil
	default:
		return false, nil
	}
	return true, nil
}

func (r *Root) handlePaste(msg tea.PasteMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("paste:%d", len(msg.Content)))
	if r.signInOpen {
		return r, r.updateInputs(msg)
	}
	if r.overlayActive() {
		return r, nil
	}
	if p := r.activePage(); p != nil && p.paste(msg.Content) {
		return r, p.schedule(r.motionLevel)
	}
	return r, nil
}

func (r *Root) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_wheel:%d,%d button:%v", mouse.X, mouse.Y, mouse.Button))
	p := r.activePage()
	if p == nil || r.overlayActive() {
		return r, nil
	}
	switch mouse.Button {
	case tea.MouseWheelUp:
		p.scrollBy(-3, r.bodyRows)
	case tea.MouseWheelDown:
		p.scrollBy(3, r.bodyRows)
	}
	return r, nil
}
