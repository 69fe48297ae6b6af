package widgets

import (
	"testing"

	"academy/internal/catalog"
)

func noTyping() *bool {
	f := false
	return &f
}

func TestConversationScriptedSession(t *testing.T) {
	c := NewConversation(&catalog.Conversation{Steps: catalog.ConversationSteps{
		catalog.UserStep{Message: "add a test", Suggested: true},
		catalog.ClaudeStep{Message: "On it"},
		catalog.PermissionStep{Action: "Create file", Detail: "tests/a_test.go"},
		catalog.FileCreationStep{Filename: "a_test.go", Lines: []string{"package a", "", "func TestA() {}"}},
		catalog.ClaudeStep{Message: "Done.", Typing: noTyping()},
	}})

	if c.Started() || c.Action() != ActionStart || len(c.Visible()) != 0 {
		t.Fatalf("conversation should wait for start")
	}
	if c.Interval() != 0 {
		t.Fatalf("nothing should tick before start")
	}
	if !c.Advance() {
		t.Fatalf("start should be accepted")
	}
	if c.Interval() != startDelay {
		t.Fatalf("expected start delay, got %v", c.Interval())
	}
	c.Step()
	if c.Current() != 1 || !c.Busy() || c.Interval() != TypeInterval {
		t.Fatalf("claude reply should be typing, current=%d", c.Current())
	}
	if c.Advance() {
		t.Fatalf("advance must be blocked while typing")
	}
	c.Step()
	c.Step()
	if v := c.Visible(); v[1].Text != "On" || !v[1].Animated {
		t.Fatalf("expected two typed characters, got %+v", v[1])
	}
	c.Step()
	c.Step()
	c.Step()
	if !c.Busy() {
		t.Fatalf("all characters shown but the closing tick has not fired")
	}
	c.Step()
	if c.Busy() {
		t.Fatalf("typing should end on the tick after the last character")
	}

	if c.Interval() != AutoAdvance {
		t.Fatalf("permission step should appear after the auto-advance pause")
	}
	c.Step()
	if c.Current() != 2 || c.Action() != ActionApprove || c.Interval() != 0 {
		t.Fatalf("conversation should wait for approval, action=%v", c.Action())
	}
	if !c.Approve() {
		t.Fatalf("approve should be accepted")
	}
	if c.Current() != 3 || !c.Busy() || c.Interval() != RevealInterval {
		t.Fatalf("file should be revealing after approval")
	}
	c.Step()
	if v := c.Visible(); len(v[3].Lines) != 1 || !v[2].Approved {
		t.Fatalf("expected one revealed line and an approved permission, got %+v", v)
	}
	drain(c)

	if c.Current() != 4 || c.Busy() || !c.Done() {
		t.Fatalf("expected untyped final message and done, current=%d", c.Current())
	}
	if v := c.Visible(); v[4].Text != "Done." || v[4].Animated {
		t.Fatalf("untyped message should show in full, got %+v", v[4])
	}

	c.Restart()
	if c.Started() || c.Done() {
		t.Fatalf("restart should return to the start button")
	}
}

func TestConversationSendAndContinue(t *testing.T) {
	c := NewConversation(&catalog.Conversation{Steps: catalog.ConversationSteps{
		catalog.ClaudeStep{Message: "Hi", Typing: noTyping()},
		catalog.UserStep{Message: "explain", Suggested: true},
		catalog.ClaudeStep{Message: "Sure", Typing: noTyping()},
		catalog.UserStep{Message: "thanks"},
	}})

	if !c.Started() || c.Current() != 0 {
		t.Fatalf("conversation opening with claude should start immediately")
	}
	if c.Action() != ActionSend || c.Interval() != 0 {
		t.Fatalf("suggested user message should wait for send")
	}
	if c.Next().(catalog.UserStep).Message != "explain" {
		t.Fatalf("next should be the suggested message")
	}
	c.Advance()
	if c.Current() != 1 || c.Interval() != sendDelay {
		t.Fatalf("send should show the user message then pause")
	}
	if c.Advance() {
		t.Fatalf("advance must wait for the reply")
	}
	c.Step()
	if c.Current() != 2 || c.Action() != ActionContinue {
		t.Fatalf("plain user step should need continue, action=%v", c.Action())
	}
	c.Advance()
	if !c.Done() || c.Action() != ActionNone {
		t.Fatalf("conversation should be done")
	}
	if c.Approve() {
		t.Fatalf("approve without a permission request should be ignored")
	}
}
