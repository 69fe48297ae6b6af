package render

import (
	"fmt"
	"strings"

	"academy/internal/catalog"
	"academy/internal/widgets"
)

func (r *Renderer) marker(f Focus, i int) string {
	if f.Active && f.Cursor == i {
		return r.styles.Accent.Render("› ")
	}
	return "  "
}

func (r *Renderer) hint(f Focus, text string) string {
	if !f.Active || text == "" {
		return ""
	}
	return "\n" + r.styles.Muted.Render(text)
}

func (r *Renderer) accordion(b *catalog.Accordion, w *widgets.Reveal, f Focus) string {
	arrow := "▸ "
	if w.Open() {
		arrow = "▾ "
	}
	title := r.styles.CardTitle.Render(arrow + b.Title)
	if f.Active {
		title = r.styles.Selected.Render(arrow + b.Title)
	}
	if !w.Open() {
		return title + r.hint(f, "enter: expand")
	}
	return title + "\n" + indent(r.markdown(b.Content), "  ") + r.hint(f, "enter: collapse")
}

func (r *Renderer) exercise(b *catalog.Exercise, w *widgets.Reveal, f Focus) string {
	inner := r.width - 4
	lines := []string{
		r.styles.Subheading.Render("Try it yourself"),
		r.styles.Text.Render(r.wrap(b.Prompt, inner)),
	}
	if w.Open() {
		lines = append(lines, "", r.styles.Pass.Render("Answer"), r.styles.Text.Render(r.wrap(b.Reveal, inner)))
	} else {
		label := "[ Show answer ]"
		if f.Active {
			label = r.styles.Selected.Render(label)
		} else {
			label = r.styles.Muted.Render(label)
		}
		lines = append(lines, "", label)
	}
	return r.styles.Card.Width(r.width).Render(strings.Join(lines, "\n"))
}

func (r *Renderer) quiz(w *widgets.Quiz, f Focus) string {
	b := w.Block()
	inner := r.width - 4
	lines := []string{r.styles.CardTitle.Render(r.wrap(b.Question, inner))}
	for i, opt := range b.Options {
		label := fmt.Sprintf("%c. %s", 'A'+rune(i), opt)
		var row string
		switch w.OptionState(i) {
		case widgets.OptionCorrect:
			row = r.styles.Pass.Render("✓ " + label)
		case widgets.OptionWrong:
			row = r.styles.Fail.Render("✗ " + label)
		case widgets.OptionDimmed:
			row = r.styles.Muted.Render("  " + label)
		default:
			row = r.marker(f, i) + r.styles.Text.Render(label)
		}
		lines = append(lines, hang(r.wrap(row, inner), "   "))
	}
	if w.Answered() {
		verdict := r.styles.Fail.Render("Not quite.")
		if w.Correct() {
			verdict = r.styles.Pass.Render("Correct!")
		}
		lines = append(lines, "", verdict)
		if b.Explanation != "" {
			lines = append(lines, r.styles.Text.Render(r.wrap(b.Explanation, inner)))
		}
	} else if f.Active {
		lines = append(lines, "", r.styles.Muted.Render("↑/↓ choose · enter answer"))
	}
	return r.styles.Card.Width(r.width).Render(strings.Join(lines, "\n"))
}

func (r *Renderer) dragRank(w *widgets.DragRank, f Focus) string {
	b := w.Block()
	inner := r.width - 4
	lines := []string{r.styles.CardTitle.Render(r.wrap(b.Instruction, inner))}
	for i, item := range w.Order() {
		row := fmt.Sprintf("%d. %s", i+1, item.Text)
		switch w.Status(i) {
		case widgets.RankCorrect:
			row = r.styles.Pass.Render("✓ " + row)
		case widgets.RankIncorrect:
			row = r.styles.Fail.Render("✗ " + row)
		default:
			row = r.marker(f, i) + r.styles.Text.Render(row)
		}
		lines = append(lines, hang(r.wrap(row, inner), "     "))
	}
	switch {
	case w.Correct():
		lines = append(lines, "", r.styles.Pass.Render("Correct order!"))
		if b.Feedback != "" {
			lines = append(lines, r.styles.Text.Render(r.wrap(b.Feedback, inner)))
		}
	case w.Submitted():
		lines = append(lines, "", r.styles.Fail.Render("Not quite. Items in red are out of place."))
		if f.Active {
			lines = append(lines, r.styles.Muted.Render("r: try again"))
		}
	case f.Active:
		lines = append(lines, "", r.styles.Muted.Render("↑/↓ select · shift+↑/↓ move · enter check"))
	}
	return r.styles.Card.Width(r.width).Render(strings.Join(lines, "\n"))
}

func (r *Renderer) terminal(w *widgets.Terminal, f Focus) string {
	b := w.Block()
	var lines []string
	for _, ln := range w.History() {
		switch ln.Kind {
		case widgets.LineCommand:
			lines = append(lines, r.styles.Accent.Render(ln.Prompt)+" "+r.styles.Text.Render(ln.Text))
		default:
			lines = append(lines, r.styles.Muted.Render(ln.Text))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, r.styles.Muted.Render("(no commands run yet)"))
	}
	if w.FreeType() && f.Active && !w.Running() {
		lines = append(lines, r.styles.Accent.Render(widgets.DefaultPrompt)+" "+r.styles.Text.Render(f.Input)+r.styles.Selected.Render(" "))
	}
	var chips []string
	for i, cmd := range b.Commands {
		chip := cmd.Command
		switch {
		case w.Executed(i):
			chip = r.styles.Pass.Render("✓ " + chip)
		case f.Active && f.Cursor == i && !w.FreeType():
			chip = r.styles.Selected.Render(" " + chip + " ")
		default:
			chip = r.styles.Muted.Render(chip)
		}
		chips = append(chips, chip)
	}
	out := r.boxed(b.Title, lines)
	if len(chips) > 0 {
		out += "\n" + strings.Join(chips, "  ")
	}
	if w.AllDone() {
		out += "\n" + r.styles.Pass.Render("All commands complete.")
	} else if f.Active {
		if w.FreeType() {
			out += r.hint(f, "type a command · enter run")
		} else {
			out += r.hint(f, "←/→ choose · enter run")
		}
	}
	return out
}

func (r *Renderer) conversation(w *widgets.Conversation, f Focus) string {
	b := w.Block()
	inner := r.width - 4
	var lines []string
	if b.Title != "" {
		lines = append(lines, r.styles.CardTitle.Render(b.Title))
	}
	for _, v := range w.Visible() {
		switch s := v.Step.(type) {
		case catalog.UserStep:
			lines = append(lines, r.styles.Accent.Render("You: ")+r.styles.Text.Render(hang(r.wrap(v.Text, inner-5), "     ")))
		case catalog.ClaudeStep:
			text := v.Text
			if v.Animated {
				text += "▌"
			}
			lines = append(lines, r.styles.Pending.Render("Claude: ")+r.styles.Text.Render(hang(r.wrap(text, inner-8), "        ")))
		case catalog.PermissionStep:
			head := r.styles.Tip.Render("⚠ Permission: ") + r.styles.Text.Render(v.Text)
			if v.Approved {
				head += " " + r.styles.Pass.Render("✓ approved")
			}
			lines = append(lines, head)
			if s.Detail != "" {
				lines = append(lines, "  "+r.styles.Muted.Render(hang(r.wrap(s.Detail, inner-2), "  ")))
			}
		case catalog.FileCreationStep:
			lines = append(lines, r.styles.Pass.Render("+ "+v.Text))
			for _, ln := range v.Lines {
				lines = append(lines, "  "+r.styles.Code.Render(ln))
			}
		}
	}
	var action string
	switch w.Action() {
	case widgets.ActionStart:
		action = "[ Start conversation ]"
	case widgets.ActionSend:
		if s, ok := w.Next().(catalog.UserStep); ok {
			action = "[ Send: " + s.Message + " ]"
		} else {
			action = "[ Send ]"
		}
	case widgets.ActionApprove:
		action = "[ Approve ]"
	case widgets.ActionContinue:
		action = "[ Continue ]"
	}
	if action != "" {
		if f.Active {
			action = r.styles.Selected.Render(action)
		} else {
			action = r.styles.Muted.Render(action)
		}
		lines = append(lines, "", hang(r.wrap(action, inner), "  "))
	}
	if w.Done() {
		lines = append(lines, "", r.styles.Pass.Render("Conversation complete."))
		if f.Active {
			lines = append(lines, r.styles.Muted.Render("r: replay"))
		}
	}
	return r.styles.Card.Width(r.width).Render(strings.Join(lines, "\n"))
}

func (r *Renderer) promptBuilder(w *widgets.PromptBuilder, f Focus) string {
	b := w.Block()
	inner := r.width - 4
	lines := []string{
		r.styles.Subheading.Render("Build a prompt"),
		r.styles.Text.Render(r.wrap(b.Scenario, inner)),
		"",
	}
	for i, sec := range b.Sections {
		value := w.Value(i)
		if f.Active && f.Cursor == i && len(sec.Options) == 0 {
			value = f.Input + "▌"
		}
		shown := r.styles.Text.Render(value)
		if value == "" {
			shown = r.styles.Muted.Render(sec.Placeholder)
		}
		if len(sec.Options) > 0 {
			shown = r.styles.Muted.Render("‹ ") + shown + r.styles.Muted.Render(" ›")
		}
		lines = append(lines, r.marker(f, i)+r.styles.CardTitle.Render(sec.Label+": ")+shown)
	}
	var preview []string
	for _, part := range w.Preview() {
		if part.Filled {
			preview = append(preview, r.styles.Text.Render(part.Text))
		} else {
			preview = append(preview, r.styles.Muted.Render(part.Text))
		}
	}
	lines = append(lines, "",
		r.styles.Muted.Render(fmt.Sprintf("Preview (%d/%d filled)", w.FilledCount(), len(b.Sections))),
		r.wrap(strings.Join(preview, " "), inner),
	)
	if w.ExampleShown() {
		lines = append(lines, "", r.styles.Pass.Render("Example prompt"), r.styles.Code.Render(r.wrap(b.ExamplePrompt, inner)))
	} else if w.Complete() {
		lines = append(lines, "", r.styles.Muted.Render("ctrl+x: show example prompt"))
	}
	if f.Active {
		lines = append(lines, r.styles.Muted.Render("↑/↓ section · type or ←/→ to fill"))
	}
	return r.styles.Card.Width(r.width).Render(strings.Join(lines, "\n"))
}
