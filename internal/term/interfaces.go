package term

// Action is what a key press did to a Line.
type Action int

const (
	ActionNone Action = iota
	ActionEdit
	ActionSubmit
	ActionCancel
)

func (a Action) String() string {
	switch a {
	case ActionEdit:
		return "edit"
	case ActionSubmit:
		return "submit"
	case ActionCancel:
		return "cancel"
	default:
		return "none"
	}
}
