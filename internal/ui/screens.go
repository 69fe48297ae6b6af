package ui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/dustin/go-humanize"
)

type menuItem struct {
	ID    string
	Label string
}

const (
	itemContinue   = "continue"
	itemCheatSheet = "cheatsheet"
	itemHome       = "home"
	itemAccount    = "account"
	itemReset      = "reset"
	itemQuit       = "quit"
)

func (r *Root) homeItems() []menuItem {
	var items []menuItem
	if c := r.home.Continue; c != nil {
		items = append(items, menuItem{ID: itemContinue, Label: "Continue: " + c.Title})
	}
	for _, lv := range r.home.Levels {
		items = append(items, menuItem{ID: "level:" + lv.ID, Label: fmt.Sprintf("Level %d: %s", lv.Number, lv.Title)})
	}
	items = append(items, menuItem{ID: itemCheatSheet, Label: "Cheat sheet"})
	return items
}

func (r *Root) menuItems() []menuItem {
	account := "Sign in"
	if r.account.SignedIn {
		account = "Sign out"
	}
	return []menuItem{
		{ID: itemHome, Label: "Home"},
		{ID: itemCheatSheet, Label: "Cheat sheet"},
		{ID: itemAccount, Label: account},
		{ID: itemReset, Label: "Reset progress"},
		{ID: itemQuit, Label: "Quit"},
	}
}

func (r *Root) levelRow(id string) (LevelRow, bool) {
	for _, lv := range r.home.Levels {
		if lv.ID == id {
			return lv, true
		}
	}
	return LevelRow{}, false
}

func firstIncomplete(lessons []LessonRow) int {
	for i, ls := range lessons {
		if !ls.Complete {
			return i
		}
	}
	return 0
}

func (r *Root) renderHome(height int) string {
	items := r.homeItems()
	leftW := min(48, max(30, r.cols/2))
	if r.layout != LayoutWide {
		leftW = r.cols
	}
	barW := max(8, leftW-30)
	var lines []string
	for i, item := range items {
		prefix := "  "
		if i == r.homeIndex {
			prefix = r.theme.Accent.Render("> ")
		}
		label := trimForWidth(item.Label, max(4, leftW-barW-10))
		line := prefix + label
		if id, ok := strings.CutPrefix(item.ID, "level:"); ok {
			if lv, ok := r.levelRow(id); ok {
				mark := " "
				if lv.Earned {
					mark = r.theme.Pass.Render("★")
				}
				line = padCells(line, leftW-barW-8) + " " + r.levelBar(float64(lv.Percent)/100, barW) + " " + mark
			}
		}
		lines = append(lines, line)
	}
	left := r.drawPanel("Levels", lines, leftW, height)
	if r.layout != LayoutWide {
		return left
	}
	right := r.drawPanel("Overview", r.homeInfo(items, r.cols-leftW-4), r.cols-leftW, height)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (r *Root) homeInfo(items []menuItem, width int) []string {
	lines := []string{
		r.theme.PanelTitle.Render("Your progress"),
		r.levelBar(r.fillPos, max(8, width-8)) + fmt.Sprintf(" %3d%%", r.home.Overall),
		fmt.Sprintf("%d of %d lessons complete", r.home.Completed, r.home.Total),
	}
	if r.home.CurrentBadge != "" {
		lines = append(lines, "Current badge: "+r.theme.Pass.Render(r.home.CurrentBadge))
	}
	lines = append(lines, "")
	if r.homeIndex < len(items) {
		item := items[r.homeIndex]
		switch {
		case item.ID == itemContinue && r.home.Continue != nil:
			lines = append(lines, r.theme.PanelTitle.Render("Pick up where you left off"), r.home.Continue.Title)
		case item.ID == itemCheatSheet:
			lines = append(lines, r.theme.PanelTitle.Render("Cheat sheet"), "Commands, shortcuts and prompt patterns on one page.")
		case strings.HasPrefix(item.ID, "level:"):
			if lv, ok := r.levelRow(strings.TrimPrefix(item.ID, "level:")); ok {
				lines = append(lines, r.levelInfo(lv, width)...)
			}
		}
	}
	return lines
}

func (r *Root) levelInfo(lv LevelRow, width int) []string {
	lines := []string{r.theme.PanelTitle.Render(fmt.Sprintf("Level %d: %s", lv.Number, lv.Title))}
	for _, ln := range strings.Split(wrapText(lv.Subtitle, width), "\n") {
		if ln != "" {
			lines = append(lines, r.theme.Muted.Render(ln))
		}
	}
	lines = append(lines, fmt.Sprintf("%d/%d lessons · about %s min", lv.Completed, lv.Total, humanize.Comma(int64(lv.Minutes))))
	badge := r.theme.Muted.Render("Badge: " + lv.Badge + " (locked)")
	if lv.Earned {
		badge = r.theme.Pass.Render("Badge earned: " + lv.Badge)
	}
	return append(lines, badge)
}

func (r *Root) renderLevel(height int) string {
	lv := r.level.Level
	width := r.cols
	if r.layout == LayoutWide {
		width = r.cols - sidebarWidth
	}
	var lines []string
	for i, ls := range r.level.Lessons {
		prefix := "  "
		if i == r.levelIndex {
			prefix = r.theme.Accent.Render("> ")
		}
		mark := r.theme.Muted.Render("○")
		if ls.Complete {
			mark = r.theme.Pass.Render("✓")
		}
		lines = append(lines, prefix+mark+" "+trimForWidth(ls.Title, max(4, width-16))+r.theme.Muted.Render(fmt.Sprintf("  %d min", ls.Minutes)))
		if ls.Subtitle != "" && i == r.levelIndex {
			lines = append(lines, "    "+r.theme.Muted.Render(trimForWidth(ls.Subtitle, max(4, width-8))))
		}
	}
	title := fmt.Sprintf("Level %d: %s", lv.Number, lv.Title)
	main := r.drawPanel(title, lines, width, height)
	if r.layout != LayoutWide {
		return main
	}
	info := r.levelInfo(lv, sidebarWidth-4)
	info = append(info, "", r.levelBar(float64(lv.Percent)/100, sidebarWidth-10)+fmt.Sprintf(" %3d%%", lv.Percent))
	return lipgloss.JoinHorizontal(lipgloss.Top, main, r.drawPanel("Level", info, sidebarWidth, height))
}

func (r *Root) renderLesson(height int) string {
	st := r.lesson
	width := r.cols
	if r.layout == LayoutWide {
		width = r.cols - sidebarWidth
	}
	head := []string{
		r.theme.PanelTitle.Render(trimForWidth(st.Lesson.Title, width-4)),
	}
	if st.Lesson.Subtitle != "" {
		head = append(head, r.theme.Muted.Render(trimForWidth(st.Lesson.Subtitle, width-4)))
	}
	head = append(head, r.lessonActions(width-4), "")
	bodyH := max(1, height-2-len(head))
	lines := append(head, r.pageWindow(r.lessonPg, bodyH)...)
	title := fmt.Sprintf("%s · Lesson %d of %d", st.LevelTitle, st.Position, st.Count)
	main := r.drawPanel(title, lines, width, height)
	if r.layout != LayoutWide {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, main, r.drawPanel("Lesson", r.lessonSidebar(), sidebarWidth, height))
}

func (r *Root) lessonActions(width int) string {
	st := r.lesson
	done := r.theme.Muted.Render("[ Mark complete (c) ]")
	if st.Complete {
		done = r.theme.Pass.Render("[✓ Completed]")
	}
	next := r.theme.Muted.Render("Finish level (n)")
	if st.Next != nil {
		next = r.theme.Accent.Render("Next: " + trimForWidth(st.Next.Title, max(4, width/2)) + " (n) →")
	}
	return done + "  " + next
}

func (r *Root) lessonSidebar() []string {
	st := r.lesson
	inner := sidebarWidth - 4
	lines := []string{
		fmt.Sprintf("Lesson %d of %d", st.Position, st.Count),
		fmt.Sprintf("About %d min", st.Lesson.EstimatedMinutes),
	}
	if st.Complete {
		lines = append(lines, r.theme.Pass.Render("Completed"))
	} else {
		lines = append(lines, r.theme.Pending.Render("In progress"))
	}
	lines = append(lines, "")
	if st.Prev != nil {
		lines = append(lines, r.theme.Muted.Render("← "+trimForWidth(st.Prev.Title, inner-2)))
	}
	if st.Next != nil {
		lines = append(lines, r.theme.Accent.Render("→ "+trimForWidth(st.Next.Title, inner-2)))
	}
	if p := r.lessonPg; p != nil {
		if n := len(p.interactive()); n > 0 {
			lines = append(lines, "", fmt.Sprintf("%d interactive %s", n, plural(n, "exercise", "exercises")), r.theme.Muted.Render("Tab to focus"))
		}
	}
	return lines
}

func (r *Root) renderCheatSheet(height int) string {
	lines := r.pageWindow(r.sheetPg, max(1, height-2))
	return r.drawPanel("Cheat sheet", lines, r.cols, height)
}

// pageWindow draws a page and returns the slice visible at its scroll
// position. A focus change scrolls the focused section into view once.
func (r *Root) pageWindow(p *page, height int) []string {
	r.bodyRows = height
	if p == nil {
		return []string{r.theme.Muted.Render("Loading…")}
	}
	all := p.body(r.renderer)
	if p.follow {
		p.reveal(height)
		p.follow = false
	} else {
		p.clamp(height)
	}
	end := min(len(all), p.scroll+height)
	if p.scroll >= end {
		return nil
	}
	return all[p.scroll:end]
}

func (r *Root) renderTooSmall() string {
	msg := fmt.Sprintf("Terminal too small (%dx%d). Resize to at least %dx%d.", r.cols, r.rows, minCols, minRows)
	return r.theme.Fail.Render(trimForWidth(msg, max(1, r.cols)))
}

func (r *Root) headerText() string {
	parts := []string{r.home.Title, fmt.Sprintf("%d%% complete", r.home.Overall)}
	if r.home.CurrentBadge != "" {
		parts = append(parts, "★ "+r.home.CurrentBadge)
	}
	parts = append(parts, r.accountLabel())
	if s := r.syncLabel(); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " · ")
}

func (r *Root) accountLabel() string {
	switch {
	case r.account.Loading:
		return "checking account"
	case r.account.SignedIn:
		return r.account.Email
	case r.account.Available:
		return "guest (F8 to sign in)"
	default:
		return "guest"
	}
}

func (r *Root) syncLabel() string {
	s := r.syncState
	switch {
	case !s.Enabled || !r.account.SignedIn:
		return ""
	case s.Pending > 0:
		return r.syncSpin.View() + " syncing"
	case s.LastError != "" && s.LastSynced.IsZero():
		return "sync failed"
	case !s.LastSynced.IsZero():
		return "synced " + humanize.RelTime(s.LastSynced, r.now(), "ago", "from now")
	}
	return ""
}

func (r *Root) footerText() string {
	if r.statusMsg != "" {
		return r.theme.Status.Width(max(1, r.cols)).Render(trimForWidth(r.statusMsg, max(1, r.cols-2)))
	}
	return r.help.View(r.keymap)
}

func (r *Root) topOverlay() string {
	switch {
	case r.resetOpen:
		return "reset"
	case r.signInOpen:
		return "signin"
	case r.menuOpen:
		return "menu"
	}
	return ""
}

func (r *Root) overlayActive() bool {
	return r.topOverlay() != ""
}

func (r *Root) renderOverlay() string {
	top := r.topOverlay()
	if top == "" {
		return ""
	}
	w := min(max(44, r.cols/2), r.cols)
	var title string
	var lines []string
	switch top {
	case "menu":
		title = "Menu"
		for i, item := range r.menuItems() {
			prefix := "  "
			if i == r.menuIndex {
				prefix = "> "
			}
			lines = append(lines, prefix+item.Label)
		}
	case "reset":
		title = "Reset progress"
		lines = []string{"Clear every completed lesson and badge?", "This cannot be undone.", ""}
		for i, label := range []string{"Cancel", "Reset"} {
			prefix := "  "
			if i == r.resetIndex {
				prefix = "> "
			}
			lines = append(lines, prefix+label)
		}
	case "signin":
		title = "Account"
		lines = r.signInLines()
	}
	lines = append(lines, "", "Esc: Close")
	return r.drawPanel(title, lines, w, len(lines)+2)
}

func (r *Root) signInLines() []string {
	a := r.account
	switch {
	case !a.Available:
		return []string{"Accounts are not configured.", "Progress is saved on this machine only."}
	case a.SignedIn:
		return []string{"Signed in as " + a.Email, "Progress syncs to your account.", "", "Enter: Sign out"}
	case a.Status == "sent":
		lines := []string{"We sent a sign-in code to " + a.PendingEmail + ".", "", r.codeInput.View(), ""}
		if a.Error != "" {
			lines = append(lines, r.theme.Fail.Render(a.Error))
		}
		return append(lines, "Enter: Verify")
	}
	lines := []string{"Sign in to sync progress across machines.", "", r.emailInput.View(), ""}
	switch a.Status {
	case "sending":
		lines = append(lines, r.syncSpin.View()+" Sending code…")
	case "error":
		lines = append(lines, r.theme.Fail.Render(firstNonEmpty(a.Error, "Could not send code")))
	default:
		lines = append(lines, "Enter: Send code")
	}
	return lines
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
