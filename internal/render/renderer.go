package render

import (
	"errors"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"

	"academy/internal/catalog"
	"academy/internal/widgets"
)

var ErrUnhandledBlock = errors.New("no renderer for block type")

const (
	minWidth     = 24
	defaultWidth = 78
)

// Section is one rendered block. Static blocks carry their text; interactive
// blocks carry a fresh widget whose state the UI drives.
type Section struct {
	Block  catalog.Block
	Static string
	Widget any
}

func (s Section) Interactive() bool { return s.Widget != nil }

// Focus is the UI state a widget needs to draw itself.
type Focus struct {
	Active bool
	Cursor int
	Input  string
}

type Renderer struct {
	styles Styles
	width  int
	md     *glamour.TermRenderer
}

func New(styles Styles, width int) *Renderer {
	r := &Renderer{styles: styles}
	r.SetWidth(width)
	return r
}

func (r *Renderer) Width() int { return r.width }

// SetWidth rebuilds the markdown renderer when the wrap width changes.
// Sections rendered before the change keep their old wrapping.
func (r *Renderer) SetWidth(width int) {
	if width <= 0 {
		width = defaultWidth
	}
	width = max(minWidth, width)
	if width == r.width && r.md != nil {
		return
	}
	r.width = width
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		md = nil
	}
	r.md = md
}

// Lesson renders every block of a lesson in order.
func (r *Renderer) Lesson(blocks catalog.Blocks) ([]Section, error) {
	out := make([]Section, 0, len(blocks))
	for i, b := range blocks {
		sec, err := r.Block(b)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, sec)
	}
	return out, nil
}

// Block maps one block to its section. Every catalog block type has a case.
func (r *Renderer) Block(b catalog.Block) (Section, error) {
	sec := Section{Block: b}
	switch b := b.(type) {
	case *catalog.Paragraph:
		sec.Static = r.markdown(b.Text)
	case *catalog.Heading:
		sec.Static = r.styles.Heading.Render(r.wrap(b.Text, r.width))
	case *catalog.Subheading:
		sec.Static = r.styles.Subheading.Render(r.wrap(b.Text, r.width))
	case *catalog.Code:
		sec.Static = r.code(b)
	case *catalog.Comparison:
		sec.Static = r.comparison(b)
	case *catalog.Concept:
		sec.Static = r.card(b.Title, b.Text)
	case *catalog.PromptCard:
		sec.Static = r.promptCard(b)
	case *catalog.Checklist:
		sec.Static = r.checklist(b)
	case *catalog.Step:
		sec.Static = r.step(b)
	case *catalog.MythReality:
		sec.Static = r.mythReality(b)
	case *catalog.TerminalDemo:
		sec.Static = r.terminalDemo(b)
	case *catalog.Flowchart:
		sec.Static = r.flowchart(b)
	case *catalog.Tip:
		sec.Static = r.tip(b)
	case *catalog.Divider:
		sec.Static = r.styles.Muted.Render(strings.Repeat("─", r.width))
	case *catalog.Accordion:
		sec.Widget = widgets.NewReveal()
	case *catalog.Exercise:
		sec.Widget = widgets.NewReveal()
	case *catalog.InteractiveTerminal:
		sec.Widget = widgets.NewTerminal(b)
	case *catalog.Conversation:
		sec.Widget = widgets.NewConversation(b)
	case *catalog.PromptBuilder:
		sec.Widget = widgets.NewPromptBuilder(b)
	case *catalog.Quiz:
		sec.Widget = widgets.NewQuiz(b)
	case *catalog.DragRank:
		sec.Widget = widgets.NewDragRank(b)
	default:
		return Section{}, fmt.Errorf("%w: %T", ErrUnhandledBlock, b)
	}
	return sec, nil
}

// Draw renders a section in its current state.
func (r *Renderer) Draw(sec Section, f Focus) string {
	switch w := sec.Widget.(type) {
	case nil:
		return sec.Static
	case *widgets.Reveal:
		switch b := sec.Block.(type) {
		case *catalog.Accordion:
			return r.accordion(b, w, f)
		case *catalog.Exercise:
			return r.exercise(b, w, f)
		}
	case *widgets.Quiz:
		return r.quiz(w, f)
	case *widgets.DragRank:
		return r.dragRank(w, f)
	case *widgets.Terminal:
		return r.terminal(w, f)
	case *widgets.Conversation:
		return r.conversation(w, f)
	case *widgets.PromptBuilder:
		return r.promptBuilder(w, f)
	}
	return r.styles.Fail.Render(fmt.Sprintf("[cannot draw %T]", sec.Widget))
}

func (r *Renderer) markdown(text string) string {
	if r.md == nil {
		return r.styles.Text.Render(r.wrap(text, r.width))
	}
	out, err := r.md.Render(text)
	if err != nil {
		return r.styles.Text.Render(r.wrap(text, r.width))
	}
	return strings.Trim(out, "\n")
}

func (r *Renderer) wrap(text string, width int) string {
	return ansi.Wordwrap(text, max(1, width), "")
}

func (r *Renderer) card(title, body string) string {
	inner := r.width - 4
	lines := []string{}
	if title != "" {
		lines = append(lines, r.styles.CardTitle.Render(r.wrap(title, inner)))
	}
	if body != "" {
		lines = append(lines, r.styles.Text.Render(r.wrap(body, inner)))
	}
	return r.styles.Card.Width(r.width).Render(strings.Join(lines, "\n"))
}

func (r *Renderer) code(b *catalog.Code) string {
	if r.md != nil {
		fence := "```" + b.Language + "\n" + strings.TrimRight(b.Code, "\n") + "\n```"
		if out, err := r.md.Render(fence); err == nil {
			body := strings.Trim(out, "\n")
			if b.Label != "" {
				return r.styles.Muted.Render(b.Label) + "\n" + body
			}
			return body
		}
	}
	body := r.styles.Code.Render(b.Code)
	return r.styles.Card.Width(r.width).Render(strings.TrimSpace(b.Label + "\n" + body))
}

func (r *Renderer) comparison(b *catalog.Comparison) string {
	half := (r.width - 1) / 2
	if half < minWidth {
		return r.card(b.Left.Title, b.Left.Text) + "\n" + r.card(b.Right.Title, b.Right.Text)
	}
	side := func(s catalog.Side, title lipgloss.Style) string {
		body := title.Render(r.wrap(s.Title, half-4)) + "\n" + r.styles.Text.Render(r.wrap(s.Text, half-4))
		return r.styles.Card.Width(half).Render(body)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, side(b.Left, r.styles.Muted.Bold(true)), " ", side(b.Right, r.styles.CardTitle))
}

func (r *Renderer) promptCard(b *catalog.PromptCard) string {
	phrase := r.styles.Code.Render(r.wrap("“"+b.Phrase+"”", r.width-4))
	body := phrase
	if b.Explanation != "" {
		body += "\n" + r.styles.Muted.Render(r.wrap(b.Explanation, r.width-4))
	}
	return r.styles.Card.Width(r.width).Render(body)
}

func (r *Renderer) checklist(b *catalog.Checklist) string {
	lines := make([]string, len(b.Items))
	for i, item := range b.Items {
		lines[i] = r.styles.Pass.Render("✓ ") + r.styles.Text.Render(hang(r.wrap(item, r.width-2), "  "))
	}
	return strings.Join(lines, "\n")
}

func (r *Renderer) step(b *catalog.Step) string {
	badge := r.styles.Selected.Render(fmt.Sprintf(" %d ", b.Number))
	title := r.styles.CardTitle.Render(b.Title)
	body := r.styles.Text.Render(indent(r.wrap(b.Text, r.width-4), "    "))
	return badge + " " + title + "\n" + body
}

func (r *Renderer) mythReality(b *catalog.MythReality) string {
	inner := r.width - 4
	body := r.styles.Fail.Render("Myth: ") + r.styles.Muted.Render(hang(r.wrap(b.Myth, inner-6), "      ")) + "\n" +
		r.styles.Pass.Render("Reality: ") + r.styles.Text.Render(hang(r.wrap(b.Reality, inner-9), "         "))
	return r.styles.Card.Width(r.width).Render(body)
}

func (r *Renderer) terminalDemo(b *catalog.TerminalDemo) string {
	var lines []string
	for _, ln := range b.Lines {
		if ln.Command != "" {
			prompt := ln.Prompt
			if prompt == "" {
				prompt = widgets.DefaultPrompt
			}
			lines = append(lines, r.styles.Accent.Render(prompt)+" "+r.styles.Text.Render(ln.Command))
		}
		if ln.Output != "" {
			for _, out := range strings.Split(ln.Output, "\n") {
				lines = append(lines, r.styles.Muted.Render(out))
			}
		}
	}
	return r.boxed("Terminal", lines)
}

func (r *Renderer) flowchart(b *catalog.Flowchart) string {
	index := make(map[string]int, len(b.Nodes))
	for i, n := range b.Nodes {
		index[n.ID] = i + 1
	}
	ref := func(id string) string {
		if i, ok := index[id]; ok {
			return fmt.Sprintf("%d", i)
		}
		return id
	}
	var lines []string
	for i, n := range b.Nodes {
		lines = append(lines, r.styles.CardTitle.Render(fmt.Sprintf("%d.", i+1))+" "+r.styles.Text.Render(hang(r.wrap(n.Text, r.width-8), "   ")))
		switch {
		case n.Yes != "" || n.No != "":
			var branches []string
			if n.Yes != "" {
				branches = append(branches, r.styles.Pass.Render("yes → "+ref(n.Yes)))
			}
			if n.No != "" {
				branches = append(branches, r.styles.Fail.Render("no → "+ref(n.No)))
			}
			lines = append(lines, "   "+strings.Join(branches, "   "))
		case n.Next != "":
			lines = append(lines, "   "+r.styles.Muted.Render("↓ "+ref(n.Next)))
		}
	}
	return r.styles.Card.Width(r.width).Render(strings.Join(lines, "\n"))
}

func (r *Renderer) tip(b *catalog.Tip) string {
	return r.styles.Tip.Render("Tip: ") + r.styles.Text.Render(hang(r.wrap(b.Text, r.width-5), "     "))
}

func (r *Renderer) boxed(title string, lines []string) string {
	body := strings.Join(lines, "\n")
	if title != "" {
		body = r.styles.Muted.Render(title) + "\n" + body
	}
	return r.styles.Terminal.Width(r.width).Render(body)
}

// hang indents every line after the first.
func hang(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}

func indent(s, prefix string) string {
	return prefix + hang(s, prefix)
}
