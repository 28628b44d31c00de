package form

// Phase is the coarse state-machine position of a form instance.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhasePartiallyFilled
	PhaseInvalid
	PhaseValid
	PhaseSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhasePartiallyFilled:
		return "partially_filled"
	case PhaseInvalid:
		return "invalid"
	case PhaseValid:
		return "valid"
	case PhaseSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// MarshalText lets Phase appear as its name in JSON.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Phase derives the state-machine position from s.
// Submitted wins while the snapshot still equals the current values.
func (s State) Phase() Phase {
	if s.Submitted != nil && *s.Submitted == s.Values {
		return PhaseSubmitted
	}
	if len(s.VisibleErrors()) > 0 {
		return PhaseInvalid
	}
	if s.Values.IsEmpty() {
		return PhaseEmpty
	}
	if s.Valid() {
		return PhaseValid
	}
	return PhasePartiallyFilled
}
