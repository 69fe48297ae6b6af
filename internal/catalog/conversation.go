package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type StepRole string

const (
	RoleUser         StepRole = "user"
	RoleClaude       StepRole = "claude"
	RolePermission   StepRole = "permission"
	RoleFileCreation StepRole = "file-creation"
)

// ConversationStep is one beat of a simulated agent session.
type ConversationStep interface {
	Role() StepRole
	validate() error
}

type UserStep struct {
	Message   string `yaml:"message"`
	Suggested bool   `yaml:"suggested"`
}

type ClaudeStep struct {
	Message string `yaml:"message"`
	Typing  *bool  `yaml:"typing"`
}

type PermissionStep struct {
	Action string `yaml:"action"`
	Detail string `yaml:"detail"`
}

type FileCreationStep struct {
	Filename string   `yaml:"filename"`
	Lines    []string `yaml:"lines"`
}

func (UserStep) Role() StepRole         { return RoleUser }
func (ClaudeStep) Role() StepRole       { return RoleClaude }
func (PermissionStep) Role() StepRole   { return RolePermission }
func (FileCreationStep) Role() StepRole { return RoleFileCreation }

// Types reports whether the message is revealed character by character.
// Unset means yes.
func (s ClaudeStep) Types() bool {
	return s.Typing == nil || *s.Typing
}

func (s UserStep) validate() error       { return required("message", s.Message) }
func (s ClaudeStep) validate() error     { return required("message", s.Message) }
func (s PermissionStep) validate() error { return required("action", s.Action) }

func (s FileCreationStep) validate() error {
	if err := required("filename", s.Filename); err != nil {
		return err
	}
	if len(s.Lines) == 0 {
		return fmt.Errorf("lines must contain at least one entry")
	}
	return nil
}

type ConversationSteps []ConversationStep

func (c *ConversationSteps) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: steps must be a list", value.Line)
	}
	out := make(ConversationSteps, 0, len(value.Content))
	for i, node := range value.Content {
		var head struct {
			Role StepRole `yaml:"role"`
		}
		if err := node.Decode(&head); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		var (
			step ConversationStep
			err  error
		)
		switch head.Role {
		case RoleUser:
			var s UserStep
			err = node.Decode(&s)
			step = s
		case RoleClaude:
			var s ClaudeStep
			err = node.Decode(&s)
			step = s
		case RolePermission:
			var s PermissionStep
			err = node.Decode(&s)
			step = s
		case RoleFileCreation:
			var s FileCreationStep
			err = node.Decode(&s)
			step = s
		default:
			return fmt.Errorf("steps[%d] line %d: unknown role %q", i, node.Line, head.Role)
		}
		if err != nil {
			return fmt.Errorf("steps[%d] (%s): %w", i, head.Role, err)
		}
		out = append(out, step)
	}
	*c = out
	return nil
}
