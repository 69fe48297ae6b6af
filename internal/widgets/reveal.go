package widgets

// Reveal backs accordions and exercises: hidden content shown on demand.
type Reveal struct {
	open bool
}

func NewReveal() *Reveal { return &Reveal{} }

func (r *Reveal) Open() bool { return r.open }

func (r *Reveal) Toggle() { r.open = !r.open }

// Show opens the reveal; exercises cannot be closed again.
func (r *Reveal) Show() bool {
	if r.open {
		return false
	}
	r.open = true
	return true
}
