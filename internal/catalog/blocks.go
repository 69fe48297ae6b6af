package catalog

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrUnknownBlock = errors.New("unknown block type")

type BlockType string

const (
	BlockParagraph           BlockType = "paragraph"
	BlockHeading             BlockType = "heading"
	BlockSubheading          BlockType = "subheading"
	BlockCode                BlockType = "code"
	BlockComparison          BlockType = "comparison"
	BlockConcept             BlockType = "concept"
	BlockPromptCard          BlockType = "prompt-card"
	BlockAccordion           BlockType = "accordion"
	BlockChecklist           BlockType = "checklist"
	BlockStep                BlockType = "step"
	BlockMythReality         BlockType = "myth-reality"
	BlockTerminalDemo        BlockType = "terminal-demo"
	BlockFlowchart           BlockType = "flowchart"
	BlockTip                 BlockType = "tip"
	BlockExercise            BlockType = "exercise"
	BlockDivider             BlockType = "divider"
	BlockInteractiveTerminal BlockType = "interactive-terminal"
	BlockClaudeConversation  BlockType = "claude-conversation"
	BlockPromptBuilder       BlockType = "prompt-builder"
	BlockQuiz                BlockType = "quiz"
	BlockDragRank            BlockType = "drag-rank"
)

// Block is one tagged content block. The implementations in this package are
// the complete set.
type Block interface {
	Type() BlockType
	validate() error
}

var blockFactories = map[BlockType]func() Block{
	BlockParagraph:           func() Block { return &Paragraph{} },
	BlockHeading:             func() Block { return &Heading{} },
	BlockSubheading:          func() Block { return &Subheading{} },
	BlockCode:                func() Block { return &Code{} },
	BlockComparison:          func() Block { return &Comparison{} },
	BlockConcept:             func() Block { return &Concept{} },
	BlockPromptCard:          func() Block { return &PromptCard{} },
	BlockAccordion:           func() Block { return &Accordion{} },
	BlockChecklist:           func() Block { return &Checklist{} },
	BlockStep:                func() Block { return &Step{} },
	BlockMythReality:         func() Block { return &MythReality{} },
	BlockTerminalDemo:        func() Block { return &TerminalDemo{} },
	BlockFlowchart:           func() Block { return &Flowchart{} },
	BlockTip:                 func() Block { return &Tip{} },
	BlockExercise:            func() Block { return &Exercise{} },
	BlockDivider:             func() Block { return &Divider{} },
	BlockInteractiveTerminal: func() Block { return &InteractiveTerminal{} },
	BlockClaudeConversation:  func() Block { return &Conversation{} },
	BlockPromptBuilder:       func() Block { return &PromptBuilder{} },
	BlockQuiz:                func() Block { return &Quiz{} },
	BlockDragRank:            func() Block { return &DragRank{} },
}

// NewBlock returns an empty block for a tag.
func NewBlock(t BlockType) (Block, error) {
	factory, ok := blockFactories[t]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownBlock, t)
	}
	return factory(), nil
}

// BlockTypes lists every known tag.
func BlockTypes() []BlockType {
	return []BlockType{
		BlockParagraph, BlockHeading, BlockSubheading, BlockCode, BlockComparison,
		BlockConcept, BlockPromptCard, BlockAccordion, BlockChecklist, BlockStep,
		BlockMythReality, BlockTerminalDemo, BlockFlowchart, BlockTip, BlockExercise,
		BlockDivider, BlockInteractiveTerminal, BlockClaudeConversation,
		BlockPromptBuilder, BlockQuiz, BlockDragRank,
	}
}

type Blocks []Block

func (b *Blocks) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: blocks must be a list", value.Line)
	}
	out := make(Blocks, 0, len(value.Content))
	for i, node := range value.Content {
		var head struct {
			Type BlockType `yaml:"type"`
		}
		if err := node.Decode(&head); err != nil {
			return fmt.Errorf("blocks[%d]: %w", i, err)
		}
		block, err := NewBlock(head.Type)
		if err != nil {
			return fmt.Errorf("blocks[%d] line %d: %w", i, node.Line, err)
		}
		if err := node.Decode(block); err != nil {
			return fmt.Errorf("blocks[%d] (%s): %w", i, head.Type, err)
		}
		out = append(out, block)
	}
	*b = out
	return nil
}

func (b Blocks) Validate() error {
	for i, block := range b {
		if block == nil {
			return fmt.Errorf("blocks[%d]: nil block", i)
		}
		if err := block.validate(); err != nil {
			return fmt.Errorf("blocks[%d] (%s): %w", i, block.Type(), err)
		}
	}
	return nil
}

type Paragraph struct {
	Text string `yaml:"text"`
}

type Heading struct {
	Text string `yaml:"text"`
}

type Subheading struct {
	Text string `yaml:"text"`
}

type Code struct {
	Code     string `yaml:"code"`
	Language string `yaml:"language"`
	Label    string `yaml:"label"`
}

type Side struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

type Comparison struct {
	Left  Side `yaml:"left"`
	Right Side `yaml:"right"`
}

type Concept struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

type PromptCard struct {
	Phrase      string `yaml:"phrase"`
	Explanation string `yaml:"explanation"`
}

type Accordion struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

type Checklist struct {
	Items []string `yaml:"items"`
}

type Step struct {
	Number int    `yaml:"number"`
	Title  string `yaml:"title"`
	Text   string `yaml:"text"`
}

type MythReality struct {
	Myth    string `yaml:"myth"`
	Reality string `yaml:"reality"`
}

type DemoLine struct {
	Prompt  string `yaml:"prompt"`
	Command string `yaml:"command"`
	Output  string `yaml:"output"`
}

type TerminalDemo struct {
	Lines []DemoLine `yaml:"lines"`
}

type FlowNode struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
	Yes  string `yaml:"yes"`
	No   string `yaml:"no"`
	Next string `yaml:"next"`
}

type Flowchart struct {
	Nodes []FlowNode `yaml:"nodes"`
}

type Tip struct {
	Text string `yaml:"text"`
}

type Exercise struct {
	Prompt string `yaml:"prompt"`
	Reveal string `yaml:"reveal"`
}

type Divider struct{}

type TerminalCommand struct {
	Command string   `yaml:"command"`
	Output  []string `yaml:"output"`
	Prompt  string   `yaml:"prompt"`
	// Delay is the per-line output delay in milliseconds.
	Delay int `yaml:"delay"`
}

type InteractiveTerminal struct {
	Title         string            `yaml:"title"`
	Commands      []TerminalCommand `yaml:"commands"`
	AllowFreeType bool              `yaml:"allow_free_type"`
}

type Conversation struct {
	Title string            `yaml:"title"`
	Steps ConversationSteps `yaml:"steps"`
}

type PromptSection struct {
	Label       string   `yaml:"label"`
	Placeholder string   `yaml:"placeholder"`
	Options     []string `yaml:"options"`
}

type PromptBuilder struct {
	Scenario      string          `yaml:"scenario"`
	Sections      []PromptSection `yaml:"sections"`
	ExamplePrompt string          `yaml:"example_prompt"`
}

type Quiz struct {
	Question     string   `yaml:"question"`
	Options      []string `yaml:"options"`
	CorrectIndex int      `yaml:"correct_index"`
	Explanation  string   `yaml:"explanation"`
}

type RankItem struct {
	ID   string `yaml:"id"`
	Text string `yaml:"text"`
}

type DragRank struct {
	Instruction  string     `yaml:"instruction"`
	Items        []RankItem `yaml:"items"`
	CorrectOrder []string   `yaml:"correct_order"`
	Feedback     string     `yaml:"feedback"`
}

func (*Paragraph) Type() BlockType           { return BlockParagraph }
func (*Heading) Type() BlockType             { return BlockHeading }
func (*Subheading) Type() BlockType          { return BlockSubheading }
func (*Code) Type() BlockType                { return BlockCode }
func (*Comparison) Type() BlockType          { return BlockComparison }
func (*Concept) Type() BlockType             { return BlockConcept }
func (*PromptCard) Type() BlockType          { return BlockPromptCard }
func (*Accordion) Type() BlockType           { return BlockAccordion }
func (*Checklist) Type() BlockType           { return BlockChecklist }
func (*Step) Type() BlockType                { return BlockStep }
func (*MythReality) Type() BlockType         { return BlockMythReality }
func (*TerminalDemo) Type() BlockType        { return BlockTerminalDemo }
func (*Flowchart) Type() BlockType           { return BlockFlowchart }
func (*Tip) Type() BlockType                 { return BlockTip }
func (*Exercise) Type() BlockType            { return BlockExercise }
func (*Divider) Type() BlockType             { return BlockDivider }
func (*InteractiveTerminal) Type() BlockType { return BlockInteractiveTerminal }
func (*Conversation) Type() BlockType        { return BlockClaudeConversation }
func (*PromptBuilder) Type() BlockType       { return BlockPromptBuilder }
func (*Quiz) Type() BlockType                { return BlockQuiz }
func (*DragRank) Type() BlockType            { return BlockDragRank }

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

func (b *Paragraph) validate() error  { return required("text", b.Text) }
func (b *Heading) validate() error    { return required("text", b.Text) }
func (b *Subheading) validate() error { return required("text", b.Text) }
func (b *Tip) validate() error        { return required("text", b.Text) }
func (b *Divider) validate() error    { return nil }
func (b *Code) validate() error       { return required("code", b.Code) }

func (b *Comparison) validate() error {
	if err := required("left.title", b.Left.Title); err != nil {
		return err
	}
	return required("right.title", b.Right.Title)
}

func (b *Concept) validate() error {
	if err := required("title", b.Title); err != nil {
		return err
	}
	return required("text", b.Text)
}

func (b *PromptCard) validate() error { return required("phrase", b.Phrase) }

func (b *Accordion) validate() error {
	if err := required("title", b.Title); err != nil {
		return err
	}
	return required("content", b.Content)
}

func (b *Checklist) validate() error {
	if len(b.Items) == 0 {
		return fmt.Errorf("items must contain at least one entry")
	}
	return nil
}

func (b *Step) validate() error {
	if b.Number <= 0 {
		return fmt.Errorf("number must be >0")
	}
	return required("title", b.Title)
}

func (b *MythReality) validate() error {
	if err := required("myth", b.Myth); err != nil {
		return err
	}
	return required("reality", b.Reality)
}

func (b *TerminalDemo) validate() error {
	if len(b.Lines) == 0 {
		return fmt.Errorf("lines must contain at least one entry")
	}
	for i, line := range b.Lines {
		if err := required(fmt.Sprintf("lines[%d].command", i), line.Command); err != nil {
			return err
		}
	}
	return nil
}

func (b *Flowchart) validate() error {
	if len(b.Nodes) == 0 {
		return fmt.Errorf("nodes must contain at least one entry")
	}
	ids := map[string]struct{}{}
	for _, n := range b.Nodes {
		if err := required("nodes[].id", n.ID); err != nil {
			return err
		}
		if _, dup := ids[n.ID]; dup {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	for _, n := range b.Nodes {
		for _, edge := range []string{n.Yes, n.No, n.Next} {
			if edge == "" {
				continue
			}
			if _, ok := ids[edge]; !ok {
				return fmt.Errorf("node %q points at unknown node %q", n.ID, edge)
			}
		}
	}
	return nil
}

func (b *Exercise) validate() error {
	if err := required("prompt", b.Prompt); err != nil {
		return err
	}
	return required("reveal", b.Reveal)
}

func (b *InteractiveTerminal) validate() error {
	if len(b.Commands) == 0 {
		return fmt.Errorf("commands must contain at least one entry")
	}
	for i, c := range b.Commands {
		if err := required(fmt.Sprintf("commands[%d].command", i), c.Command); err != nil {
			return err
		}
		if c.Delay < 0 {
			return fmt.Errorf("commands[%d].delay must be >=0", i)
		}
	}
	return nil
}

func (b *Conversation) validate() error {
	if len(b.Steps) == 0 {
		return fmt.Errorf("steps must contain at least one entry")
	}
	for i, s := range b.Steps {
		if err := s.validate(); err != nil {
			return fmt.Errorf("steps[%d] (%s): %w", i, s.Role(), err)
		}
	}
	return nil
}

func (b *PromptBuilder) validate() error {
	if err := required("scenario", b.Scenario); err != nil {
		return err
	}
	if len(b.Sections) == 0 {
		return fmt.Errorf("sections must contain at least one entry")
	}
	for i, s := range b.Sections {
		if err := required(fmt.Sprintf("sections[%d].label", i), s.Label); err != nil {
			return err
		}
	}
	return nil
}

func (b *Quiz) validate() error {
	if err := required("question", b.Question); err != nil {
		return err
	}
	if len(b.Options) < 2 {
		return fmt.Errorf("options must contain at least two entries")
	}
	if b.CorrectIndex < 0 || b.CorrectIndex >= len(b.Options) {
		return fmt.Errorf("correct_index %d out of range [0,%d)", b.CorrectIndex, len(b.Options))
	}
	return nil
}

func (b *DragRank) validate() error {
	if len(b.Items) == 0 {
		return fmt.Errorf("items must contain at least one entry")
	}
	ids := map[string]struct{}{}
	for _, it := range b.Items {
		if err := required("items[].id", it.ID); err != nil {
			return err
		}
		if _, dup := ids[it.ID]; dup {
			return fmt.Errorf("duplicate item id %q", it.ID)
		}
		ids[it.ID] = struct{}{}
	}
	if len(b.CorrectOrder) != len(b.Items) {
		return fmt.Errorf("correct_order has %d ids, items has %d", len(b.CorrectOrder), len(b.Items))
	}
	seen := map[string]struct{}{}
	for _, id := range b.CorrectOrder {
		if _, ok := ids[id]; !ok {
			return fmt.Errorf("correct_order references unknown item %q", id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("correct_order repeats item %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
