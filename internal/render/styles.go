package render

import "charm.land/lipgloss/v2"

// Styles are the content colors. The UI theme supplies them per variant.
type Styles struct {
	Text       lipgloss.Style
	Heading    lipgloss.Style
	Subheading lipgloss.Style
	Muted      lipgloss.Style
	Accent     lipgloss.Style
	Code       lipgloss.Style
	Card       lipgloss.Style
	CardTitle  lipgloss.Style
	Tip        lipgloss.Style
	Pass       lipgloss.Style
	Fail       lipgloss.Style
	Pending    lipgloss.Style
	Selected   lipgloss.Style
	Terminal   lipgloss.Style
}

func DefaultStyles() Styles {
	teal := lipgloss.Color("#5EEBFF")
	mint := lipgloss.Color("#67F0A8")
	amber := lipgloss.Color("#FFC857")
	brick := lipgloss.Color("#FF6F91")
	powder := lipgloss.Color("#EAF2FF")
	muted := lipgloss.Color("#9CAAC6")
	border := lipgloss.Color("#4B5F8A")
	ink := lipgloss.Color("#0E1420")

	return Styles{
		Text:       lipgloss.NewStyle().Foreground(powder),
		Heading:    lipgloss.NewStyle().Foreground(teal).Bold(true),
		Subheading: lipgloss.NewStyle().Foreground(amber).Bold(true),
		Muted:      lipgloss.NewStyle().Foreground(muted),
		Accent:     lipgloss.NewStyle().Foreground(teal).Bold(true),
		Code:       lipgloss.NewStyle().Foreground(mint),
		Card: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		CardTitle: lipgloss.NewStyle().Foreground(teal).Bold(true),
		Tip:       lipgloss.NewStyle().Foreground(amber),
		Pass:      lipgloss.NewStyle().Foreground(mint).Bold(true),
		Fail:      lipgloss.NewStyle().Foreground(brick).Bold(true),
		Pending:   lipgloss.NewStyle().Foreground(amber),
		Selected:  lipgloss.NewStyle().Foreground(ink).Background(teal),
		Terminal: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(border).
			Padding(0, 1),
	}
}
