package widgets

import (
	"fmt"
	"strings"

	"academy/internal/catalog"
)

// PromptBuilder assembles a prompt from labeled sections.
type PromptBuilder struct {
	block       *catalog.PromptBuilder
	values      []string
	showExample bool
}

func NewPromptBuilder(b *catalog.PromptBuilder) *PromptBuilder {
	return &PromptBuilder{block: b, values: make([]string, len(b.Sections))}
}

func (p *PromptBuilder) Block() *catalog.PromptBuilder { return p.block }

func (p *PromptBuilder) Value(i int) string {
	if i < 0 || i >= len(p.values) {
		return ""
	}
	return p.values[i]
}

// Set stores free text for section i. Sections with options only accept
// one of their options or "".
func (p *PromptBuilder) Set(i int, value string) bool {
	if i < 0 || i >= len(p.values) {
		return false
	}
	if opts := p.block.Sections[i].Options; len(opts) > 0 && value != "" && indexOf(opts, value) < 0 {
		return false
	}
	p.values[i] = value
	return true
}

// CycleOption moves an option section's choice by delta, passing through
// the empty choice.
func (p *PromptBuilder) CycleOption(i, delta int) bool {
	if i < 0 || i >= len(p.values) {
		return false
	}
	opts := p.block.Sections[i].Options
	if len(opts) == 0 {
		return false
	}
	n := len(opts) + 1
	pos := indexOf(opts, p.values[i]) + 1
	pos = ((pos+delta)%n + n) % n
	if pos == 0 {
		p.values[i] = ""
	} else {
		p.values[i] = opts[pos-1]
	}
	return true
}

func (p *PromptBuilder) FilledCount() int {
	n := 0
	for _, v := range p.values {
		if v != "" {
			n++
		}
	}
	return n
}

func (p *PromptBuilder) Complete() bool {
	return p.FilledCount() == len(p.values)
}

// Assembled joins section values with a space, standing in
// "[label: placeholder]" for empty sections.
func (p *PromptBuilder) Assembled() string {
	parts := make([]string, len(p.values))
	for i, v := range p.values {
		if v == "" {
			s := p.block.Sections[i]
			v = fmt.Sprintf("[%s: %s]", s.Label, s.Placeholder)
		}
		parts[i] = v
	}
	return strings.Join(parts, " ")
}

type PreviewPart struct {
	Text   string
	Filled bool
}

// Preview is the live preview, with "[label]" for empty sections.
func (p *PromptBuilder) Preview() []PreviewPart {
	out := make([]PreviewPart, len(p.values))
	for i, v := range p.values {
		if v == "" {
			out[i] = PreviewPart{Text: "[" + p.block.Sections[i].Label + "]"}
			continue
		}
		out[i] = PreviewPart{Text: v, Filled: true}
	}
	return out
}

func (p *PromptBuilder) RevealExample() bool {
	if p.showExample {
		return false
	}
	p.showExample = true
	return true
}

func (p *PromptBuilder) ExampleShown() bool { return p.showExample }

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}
