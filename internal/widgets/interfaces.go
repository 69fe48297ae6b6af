package widgets

import "time"

// Animator is implemented by widgets whose state changes on a timer. The UI
// schedules a tick after Interval and calls Step when it fires. An Interval
// of zero means the widget is idle and needs no tick.
type Animator interface {
	Interval() time.Duration
	Step() bool
}

var (
	_ Animator = (*Terminal)(nil)
	_ Animator = (*Conversation)(nil)
)
