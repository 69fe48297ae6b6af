package widgets

import (
	"time"

	"academy/internal/catalog"
)

const (
	TypeInterval   = 18 * time.Millisecond
	RevealInterval = 100 * time.Millisecond
	AutoAdvance    = 600 * time.Millisecond
	startDelay     = 300 * time.Millisecond
	sendDelay      = 400 * time.Millisecond
)

// ConversationAction is what the learner can do next.
type ConversationAction int

const (
	ActionNone ConversationAction = iota
	ActionStart
	ActionSend
	ActionApprove
	ActionContinue
)

// VisibleStep is one step as currently displayed.
type VisibleStep struct {
	Step     catalog.ConversationStep
	Text     string
	Lines    []string
	Current  bool
	Animated bool
	Approved bool
}

// Conversation plays back a scripted agent session. Claude messages type
// out, created files reveal line by line, and the learner sends suggested
// messages and approves permission requests.
type Conversation struct {
	block *catalog.Conversation

	started   bool
	current   int
	typing    bool
	typed     []rune
	shown     int
	revealing bool
	lines     int
	pending   time.Duration
	approved  map[int]bool
}

func NewConversation(b *catalog.Conversation) *Conversation {
	c := &Conversation{block: b}
	c.Restart()
	return c
}

func (c *Conversation) Block() *catalog.Conversation { return c.block }

// Restart returns to the first step. A conversation that opens with a
// suggested user message waits for Start.
func (c *Conversation) Restart() {
	c.current = 0
	c.typing = false
	c.typed = nil
	c.shown = 0
	c.revealing = false
	c.lines = 0
	c.pending = 0
	c.approved = map[int]bool{}
	c.started = true
	if len(c.block.Steps) > 0 {
		if u, ok := c.block.Steps[0].(catalog.UserStep); ok && u.Suggested {
			c.started = false
		}
	}
}

func (c *Conversation) Started() bool { return c.started }

func (c *Conversation) Busy() bool { return c.typing || c.revealing }

func (c *Conversation) Current() int { return c.current }

func (c *Conversation) stepAt(i int) catalog.ConversationStep {
	if i < 0 || i >= len(c.block.Steps) {
		return nil
	}
	return c.block.Steps[i]
}

func (c *Conversation) awaitingApproval() bool {
	_, ok := c.stepAt(c.current).(catalog.PermissionStep)
	return ok && !c.approved[c.current]
}

// Done reports whether the last step is visible and settled.
func (c *Conversation) Done() bool {
	return c.started && c.current >= len(c.block.Steps)-1 && !c.Busy() && c.pending == 0 && !c.awaitingApproval()
}

// Action reports which interaction, if any, the conversation waits for.
func (c *Conversation) Action() ConversationAction {
	if !c.started {
		return ActionStart
	}
	if c.Busy() || c.pending > 0 {
		return ActionNone
	}
	if c.awaitingApproval() {
		return ActionApprove
	}
	switch next := c.stepAt(c.current + 1).(type) {
	case nil:
		return ActionNone
	case catalog.UserStep:
		if next.Suggested {
			return ActionSend
		}
		return ActionContinue
	default:
		return ActionNone
	}
}

// Next returns the upcoming step, used to label the send button.
func (c *Conversation) Next() catalog.ConversationStep {
	if !c.started {
		return c.stepAt(0)
	}
	return c.stepAt(c.current + 1)
}

// Advance performs the pending interaction. It is ignored while a message
// is typing or a file is revealing.
func (c *Conversation) Advance() bool {
	switch c.Action() {
	case ActionStart:
		c.started = true
		if len(c.block.Steps) > 1 {
			c.pending = startDelay
		}
		return true
	case ActionSend:
		c.show(c.current + 1)
		if c.stepAt(c.current+1) != nil {
			c.pending = sendDelay
		}
		return true
	case ActionApprove:
		return c.Approve()
	case ActionContinue:
		c.show(c.current + 1)
		return true
	}
	return false
}

// Approve allows the permission request currently on screen.
func (c *Conversation) Approve() bool {
	if c.Busy() || !c.awaitingApproval() {
		return false
	}
	c.approved[c.current] = true
	if c.stepAt(c.current+1) != nil {
		c.show(c.current + 1)
	}
	return true
}

func (c *Conversation) show(i int) {
	if c.stepAt(i) == nil {
		return
	}
	c.current = i
	switch s := c.block.Steps[i].(type) {
	case catalog.ClaudeStep:
		if s.Types() {
			c.typing = true
			c.typed = []rune(s.Message)
			c.shown = 0
		}
	case catalog.FileCreationStep:
		c.revealing = true
		c.lines = 0
	}
}

func (c *Conversation) autoNext() bool {
	if !c.started || c.Busy() || c.awaitingApproval() {
		return false
	}
	switch c.stepAt(c.current + 1).(type) {
	case catalog.ClaudeStep, catalog.FileCreationStep, catalog.PermissionStep:
		return true
	}
	return false
}

func (c *Conversation) Interval() time.Duration {
	switch {
	case c.typing:
		return TypeInterval
	case c.revealing:
		return RevealInterval
	case c.pending > 0:
		return c.pending
	case c.autoNext():
		return AutoAdvance
	}
	return 0
}

// Step advances the running animation by one tick. The tick after the last
// character or line ends the animation.
func (c *Conversation) Step() bool {
	switch {
	case c.typing:
		if c.shown < len(c.typed) {
			c.shown++
		} else {
			c.typing = false
		}
		return true
	case c.revealing:
		fc, _ := c.stepAt(c.current).(catalog.FileCreationStep)
		if c.lines < len(fc.Lines) {
			c.lines++
		} else {
			c.revealing = false
		}
		return true
	case c.pending > 0:
		c.pending = 0
		c.show(c.current + 1)
		return true
	case c.autoNext():
		c.show(c.current + 1)
		return true
	}
	return false
}

// Visible lists the steps on screen. Before Start nothing is visible.
func (c *Conversation) Visible() []VisibleStep {
	if !c.started {
		return nil
	}
	out := make([]VisibleStep, 0, c.current+1)
	for i := 0; i <= c.current && i < len(c.block.Steps); i++ {
		step := c.block.Steps[i]
		v := VisibleStep{Step: step, Current: i == c.current, Approved: c.approved[i]}
		switch s := step.(type) {
		case catalog.UserStep:
			v.Text = s.Message
		case catalog.ClaudeStep:
			v.Text = s.Message
			if v.Current && c.typing {
				v.Text = string(c.typed[:c.shown])
				v.Animated = true
			}
		case catalog.PermissionStep:
			v.Text = s.Action
		case catalog.FileCreationStep:
			v.Text = s.Filename
			v.Lines = s.Lines
			if v.Current && c.revealing {
				v.Lines = s.Lines[:c.lines]
				v.Animated = true
			}
		}
		out = append(out, v)
	}
	return out
}
