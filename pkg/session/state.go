package session

// State is a snapshot of the session. Authenticated is true exactly when
// Identity is set.
type State struct {
	Identity      *Identity `json:"user"`
	Authenticated bool      `json:"authenticated"`
	Hydrated      bool      `json:"hydrated"`
}

// Phase reports which phase of the lifecycle s belongs to.
func (s State) Phase() Phase {
	switch {
	case !s.Hydrated:
		return PhaseUninitialized
	case s.Authenticated:
		return PhaseAuthenticated
	default:
		return PhaseUnauthenticated
	}
}

// Email returns the identifier of the signed-in user, or "".
func (s State) Email() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.ID
}

func (s State) clone() State {
	if s.Identity != nil {
		id := *s.Identity
		s.Identity = &id
	}
	return s
}

// Observer is notified synchronously after every state mutation.
type Observer func(State)
