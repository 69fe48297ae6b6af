package widgets

import "academy/internal/catalog"

// Quiz accepts exactly one answer.
type Quiz struct {
	block    *catalog.Quiz
	selected int
}

func NewQuiz(b *catalog.Quiz) *Quiz {
	return &Quiz{block: b, selected: -1}
}

func (q *Quiz) Block() *catalog.Quiz { return q.block }

// Select records the answer. Later selections and out-of-range indexes are
// ignored.
func (q *Quiz) Select(i int) bool {
	if q.Answered() || i < 0 || i >= len(q.block.Options) {
		return false
	}
	q.selected = i
	return true
}

func (q *Quiz) Answered() bool { return q.selected >= 0 }

// Selected is the chosen option index, or -1.
func (q *Quiz) Selected() int { return q.selected }

func (q *Quiz) Correct() bool {
	return q.Answered() && q.selected == q.block.CorrectIndex
}

type OptionState int

const (
	OptionOpen OptionState = iota
	OptionCorrect
	OptionWrong
	OptionDimmed
)

// OptionState tells the renderer how to draw option i.
func (q *Quiz) OptionState(i int) OptionState {
	switch {
	case !q.Answered():
		return OptionOpen
	case i == q.block.CorrectIndex:
		return OptionCorrect
	case i == q.selected:
		return OptionWrong
	default:
		return OptionDimmed
	}
}
