package ui

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"academy/internal/render"
)

type Theme struct {
	Header         lipgloss.Style
	Status         lipgloss.Style
	PanelTitle     lipgloss.Style
	PanelBorder    lipgloss.Style
	PanelBody      lipgloss.Style
	Overlay        lipgloss.Style
	OverlayTitle   lipgloss.Style
	Accent         lipgloss.Style
	Pass           lipgloss.Style
	Fail           lipgloss.Style
	Pending        lipgloss.Style
	Muted          lipgloss.Style
	Info           lipgloss.Style
	TerminalBorder lipgloss.Style
	Selected       lipgloss.Style

	Content render.Styles
}

// palette is the handful of colors a style variant picks; every Theme style
// is derived from one.
type palette struct {
	base    color.Color // header and overlay background
	bar     color.Color // status line background
	text    color.Color
	title   color.Color
	accent  color.Color
	pass    color.Color
	fail    color.Color
	warn    color.Color
	muted   color.Color
	frame   color.Color // panel borders
	screen  color.Color // terminal and card borders
	overlay lipgloss.Border
}

var palettes = map[string]palette{
	"modern_arcade": {
		base:    lipgloss.Color("#0E1420"),
		bar:     lipgloss.Color("#1B2740"),
		text:    lipgloss.Color("#EAF2FF"),
		title:   lipgloss.Color("#5EEBFF"),
		accent:  lipgloss.Color("#5EEBFF"),
		pass:    lipgloss.Color("#67F0A8"),
		fail:    lipgloss.Color("#FF6F91"),
		warn:    lipgloss.Color("#FFC857"),
		muted:   lipgloss.Color("#9CAAC6"),
		frame:   lipgloss.Color("#4B5F8A"),
		screen:  lipgloss.Color("#4B5F8A"),
		overlay: lipgloss.RoundedBorder(),
	},
	"cozy_clean": {
		base:    lipgloss.Color("#1E2430"),
		bar:     lipgloss.Color("#30394A"),
		text:    lipgloss.Color("#F4F6FA"),
		title:   lipgloss.Color("#F2B872"),
		accent:  lipgloss.Color("#86B6F6"),
		pass:    lipgloss.Color("#80C4A3"),
		fail:    lipgloss.Color("#D17A86"),
		warn:    lipgloss.Color("#F2B872"),
		muted:   lipgloss.Color("#A3ACC2"),
		frame:   lipgloss.Color("#30394A"),
		screen:  lipgloss.Color("#4A5972"),
		overlay: lipgloss.RoundedBorder(),
	},
	"retro_terminal": {
		base:    lipgloss.Color("#07150A"),
		bar:     lipgloss.Color("#12301A"),
		text:    lipgloss.Color("#C5F7C4"),
		title:   lipgloss.Color("#E5D47A"),
		accent:  lipgloss.Color("#9CF5A2"),
		pass:    lipgloss.Color("#9CF5A2"),
		fail:    lipgloss.Color("#FF6B6B"),
		warn:    lipgloss.Color("#E5D47A"),
		muted:   lipgloss.Color("#73A17A"),
		frame:   lipgloss.Color("#12301A"),
		screen:  lipgloss.Color("#1F5C2F"),
		overlay: lipgloss.DoubleBorder(),
	},
}

func DefaultTheme() Theme {
	return ThemeForVariant("modern_arcade")
}

// ThemeForVariant falls back to modern_arcade for unknown names.
func ThemeForVariant(variant string) Theme {
	p, ok := palettes[variant]
	if !ok {
		p = palettes["modern_arcade"]
	}
	t := p.theme()
	t.Content = t.contentStyles()
	return t
}

func (p palette) theme() Theme {
	fg := func(c color.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	bold := func(c color.Color) lipgloss.Style { return fg(c).Bold(true) }
	return Theme{
		Header:      lipgloss.NewStyle().Background(p.base).Foreground(p.text).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(p.bar).Foreground(p.text).Padding(0, 1),
		PanelTitle:  bold(p.title),
		PanelBorder: fg(p.frame),
		PanelBody:   fg(p.text),
		Overlay: lipgloss.NewStyle().
			BorderStyle(p.overlay).
			BorderForeground(p.title).
			Background(p.base).
			Foreground(p.text).
			Padding(1, 2),
		OverlayTitle:   bold(p.title),
		Accent:         bold(p.accent),
		Pass:           bold(p.pass),
		Fail:           bold(p.fail),
		Pending:        fg(p.warn),
		Muted:          fg(p.muted),
		Info:           fg(p.accent),
		TerminalBorder: fg(p.screen),
		Selected:       lipgloss.NewStyle().Foreground(p.base).Background(p.accent),
	}
}

// contentStyles derives lesson styles from the chrome so cards and widgets
// match the chosen variant.
func (t Theme) contentStyles() render.Styles {
	s := render.DefaultStyles()
	border := t.TerminalBorder.GetForeground()
	s.Text = t.PanelBody
	s.Heading = t.PanelTitle
	s.Subheading = t.Pending.Bold(true)
	s.Muted = t.Muted
	s.Accent = t.Accent
	s.Code = t.Info
	s.CardTitle = t.Accent
	s.Tip = t.Pending
	s.Pass = t.Pass
	s.Fail = t.Fail
	s.Pending = t.Pending
	s.Selected = t.Selected
	s.Card = s.Card.BorderForeground(border)
	s.Terminal = s.Terminal.BorderForeground(border)
	return s
}
