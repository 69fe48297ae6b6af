package widgets

import (
	"testing"

	"academy/internal/catalog"
)

func demoBuilder() *PromptBuilder {
	return NewPromptBuilder(&catalog.PromptBuilder{
		Scenario: "Fix a bug",
		Sections: []catalog.PromptSection{
			{Label: "Goal", Placeholder: "what to do"},
			{Label: "Scope", Placeholder: "which files", Options: []string{"one file", "whole repo"}},
		},
		ExamplePrompt: "Fix the login bug in auth.go",
	})
}

func TestPromptBuilderAssembles(t *testing.T) {
	p := demoBuilder()
	if got := p.Assembled(); got != "[Goal: what to do] [Scope: which files]" {
		t.Fatalf("unexpected empty assembly %q", got)
	}
	if !p.Set(0, "Fix the crash") {
		t.Fatalf("free text should be accepted")
	}
	if p.Set(1, "everything") {
		t.Fatalf("value outside options should be refused")
	}
	if p.FilledCount() != 1 || p.Complete() {
		t.Fatalf("expected 1 of 2 filled")
	}
	if got := p.Assembled(); got != "Fix the crash [Scope: which files]" {
		t.Fatalf("unexpected partial assembly %q", got)
	}
	preview := p.Preview()
	if !preview[0].Filled || preview[1].Filled || preview[1].Text != "[Scope]" {
		t.Fatalf("unexpected preview %+v", preview)
	}

	p.CycleOption(1, 1)
	if p.Value(1) != "one file" {
		t.Fatalf("cycle forward should pick first option, got %q", p.Value(1))
	}
	p.CycleOption(1, -2)
	if p.Value(1) != "whole repo" {
		t.Fatalf("cycle back should wrap through empty, got %q", p.Value(1))
	}
	if !p.Complete() || p.Assembled() != "Fix the crash whole repo" {
		t.Fatalf("expected complete prompt, got %q", p.Assembled())
	}
	if p.CycleOption(0, 1) {
		t.Fatalf("free-text section has no options to cycle")
	}
	if !p.RevealExample() || p.RevealExample() || !p.ExampleShown() {
		t.Fatalf("example should reveal once")
	}
}
