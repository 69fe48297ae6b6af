package widgets

import (
	"math"
	"unicode/utf16"

	"academy/internal/catalog"
)

type RankStatus int

const (
	RankNeutral RankStatus = iota
	RankCorrect
	RankIncorrect
)

// DragRank asks the learner to put items in order with up/down moves.
type DragRank struct {
	block     *catalog.DragRank
	order     []catalog.RankItem
	submitted bool
	correct   bool
}

func NewDragRank(b *catalog.DragRank) *DragRank {
	return &DragRank{block: b, order: Shuffle(b.Items, b.Instruction)}
}

func (d *DragRank) Block() *catalog.DragRank { return d.block }

func (d *DragRank) Order() []catalog.RankItem {
	return append([]catalog.RankItem(nil), d.order...)
}

func (d *DragRank) Submitted() bool { return d.submitted }

func (d *DragRank) Correct() bool { return d.submitted && d.correct }

func (d *DragRank) MoveUp(i int) bool { return d.move(i, i-1) }

func (d *DragRank) MoveDown(i int) bool { return d.move(i, i+1) }

func (d *DragRank) move(from, to int) bool {
	if d.submitted || from < 0 || from >= len(d.order) || to < 0 || to >= len(d.order) {
		return false
	}
	d.order[from], d.order[to] = d.order[to], d.order[from]
	return true
}

// Check submits the current order.
func (d *DragRank) Check() bool {
	d.correct = len(d.order) == len(d.block.CorrectOrder)
	for i, item := range d.order {
		if !d.correct {
			break
		}
		d.correct = item.ID == d.block.CorrectOrder[i]
	}
	d.submitted = true
	return d.correct
}

// TryAgain reopens the exercise keeping the learner's current order.
func (d *DragRank) TryAgain() {
	d.submitted = false
	d.correct = false
}

func (d *DragRank) Status(i int) RankStatus {
	if !d.submitted || i < 0 || i >= len(d.order) {
		return RankNeutral
	}
	if i < len(d.block.CorrectOrder) && d.order[i].ID == d.block.CorrectOrder[i] {
		return RankCorrect
	}
	return RankIncorrect
}

// Shuffle returns a deterministic permutation of items seeded from seed.
// The result never equals the input order when there are at least two
// items.
func Shuffle(items []catalog.RankItem, seed string) []catalog.RankItem {
	out := append([]catalog.RankItem(nil), items...)
	var h int32
	for _, u := range utf16.Encode([]rune(seed)) {
		h = (h << 5) - h + int32(u)
	}
	for i := len(out) - 1; i > 0; i-- {
		h = toInt32(float64(h)*1103515245+12345) & 0x7fffffff
		j := int(h) % (i + 1)
		out[i], out[j] = out[j], out[i]
	}
	same := true
	for i := range out {
		if out[i].ID != items[i].ID {
			same = false
			break
		}
	}
	if same && len(out) > 1 {
		out[0], out[1] = out[1], out[0]
	}
	return out
}

// toInt32 wraps a float64 to int32 modulo 2^32, truncating toward zero first.
func toInt32(f float64) int32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	const two32 = 4294967296.0
	m := math.Mod(math.Trunc(f), two32)
	if m < 0 {
		m += two32
	}
	return int32(uint32(m))
}
