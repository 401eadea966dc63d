package quote

// State is a step of the quote workflow.
type State string

// Validating, Invalid and Estimating are only held while Submit owns the
// workflow lock; callers observe Editing, Notifying or Submitted.
const (
	StateEditing    State = "editing"
	StateValidating State = "validating"
	StateInvalid    State = "invalid"
	StateEstimating State = "estimating"
	StateNotifying  State = "notifying"
	StateSubmitted  State = "submitted"
)

func (s State) String() string {
	return string(s)
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateEditing, StateValidating, StateInvalid, StateEstimating, StateNotifying, StateSubmitted:
		return true
	}
	return false
}
