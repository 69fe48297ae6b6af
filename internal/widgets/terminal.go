package widgets

import (
	"fmt"
	"strings"
	"time"

	"academy/internal/catalog"
)

const (
	DefaultPrompt      = "$"
	DefaultOutputDelay = 80 * time.Millisecond
)

type LineKind int

const (
	LineCommand LineKind = iota
	LineOutput
)

type TerminalLine struct {
	Kind   LineKind
	Prompt string
	Text   string
}

// Terminal replays scripted commands. Nothing is ever executed.
type Terminal struct {
	block    *catalog.InteractiveTerminal
	history  []TerminalLine
	executed map[int]bool
	running  int
	next     int
}

func NewTerminal(b *catalog.InteractiveTerminal) *Terminal {
	return &Terminal{block: b, executed: map[int]bool{}, running: -1}
}

func (t *Terminal) Block() *catalog.InteractiveTerminal { return t.block }

func (t *Terminal) History() []TerminalLine {
	return append([]TerminalLine(nil), t.history...)
}

func (t *Terminal) Running() bool { return t.running >= 0 }

func (t *Terminal) Executed(i int) bool { return t.executed[i] }

func (t *Terminal) AllDone() bool {
	return len(t.executed) == len(t.block.Commands)
}

func (t *Terminal) FreeType() bool { return t.block.AllowFreeType }

// Run starts command i. It is ignored while another command is printing
// and for commands that already ran.
func (t *Terminal) Run(i int) bool {
	if t.Running() || t.executed[i] || i < 0 || i >= len(t.block.Commands) {
		return false
	}
	cmd := t.block.Commands[i]
	t.history = append(t.history, TerminalLine{Kind: LineCommand, Prompt: promptOf(cmd), Text: cmd.Command})
	if len(cmd.Output) == 0 {
		t.executed[i] = true
		return true
	}
	t.running = i
	t.next = 0
	return true
}

// RunNext runs the first command that has not run yet.
func (t *Terminal) RunNext() bool {
	for i := range t.block.Commands {
		if !t.executed[i] {
			return t.Run(i)
		}
	}
	return false
}

// Submit handles a line typed by the learner. Input matching a pending
// scripted command runs it; anything else gets a shell-style error.
func (t *Terminal) Submit(input string) bool {
	typed := strings.TrimSpace(input)
	if typed == "" || !t.block.AllowFreeType {
		return false
	}
	for i, cmd := range t.block.Commands {
		if cmd.Command == typed && !t.executed[i] {
			return t.Run(i)
		}
	}
	word := strings.Fields(typed)[0]
	t.history = append(t.history,
		TerminalLine{Kind: LineCommand, Prompt: DefaultPrompt, Text: typed},
		TerminalLine{Kind: LineOutput, Text: fmt.Sprintf("bash: %s: command not found", word)},
	)
	return true
}

func (t *Terminal) Interval() time.Duration {
	if !t.Running() {
		return 0
	}
	return delayOf(t.block.Commands[t.running])
}

// Step prints the next output line of the running command. The tick after
// the last line marks the command as executed.
func (t *Terminal) Step() bool {
	if !t.Running() {
		return false
	}
	cmd := t.block.Commands[t.running]
	if t.next < len(cmd.Output) {
		t.history = append(t.history, TerminalLine{Kind: LineOutput, Text: cmd.Output[t.next]})
		t.next++
		return true
	}
	t.executed[t.running] = true
	t.running = -1
	return true
}

func (t *Terminal) Reset() {
	t.history = nil
	t.executed = map[int]bool{}
	t.running = -1
	t.next = 0
}

func promptOf(cmd catalog.TerminalCommand) string {
	if cmd.Prompt == "" {
		return DefaultPrompt
	}
	return cmd.Prompt
}

func delayOf(cmd catalog.TerminalCommand) time.Duration {
	if cmd.Delay <= 0 {
		return DefaultOutputDelay
	}
	return time.Duration(cmd.Delay) * time.Millisecond
}
