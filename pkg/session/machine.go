package session

import "fmt"

// Phase is a lifecycle phase of the session.
type Phase string

const (
	PhaseUninitialized   Phase = "uninitialized"
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseAuthenticated   Phase = "authenticated"
)

func (p Phase) String() string { return string(p) }

type event string

const (
	eventHydrate event = "hydrate"
	eventLogin   event = "login"
	eventLogout  event = "logout"
)

// guard decides whether a transition applies given whether an identity is
// present after the event.
type guard func(hasIdentity bool) bool

func withIdentity(has bool) bool    { return has }
func withoutIdentity(has bool) bool { return !has }

type transition struct {
	to     Phase
	guards []guard
}

// transitions is indexed [from][event]. The first transition whose guards
// pass wins.
var transitions = map[Phase]map[event][]transition{
	PhaseUninitialized: {
		eventHydrate: {
			{to: PhaseAuthenticated, guards: []guard{withIdentity}},
			{to: PhaseUnauthenticated, guards: []guard{withoutIdentity}},
		},
		// Login and logout before hydration keep the phase until Hydrate runs.
		eventLogin:  {{to: PhaseUninitialized}},
		eventLogout: {{to: PhaseUninitialized}},
	},
	PhaseUnauthenticated: {
		eventHydrate: {
			{to: PhaseAuthenticated, guards: []guard{withIdentity}},
			{to: PhaseUnauthenticated, guards: []guard{withoutIdentity}},
		},
		eventLogin:  {{to: PhaseAuthenticated}},
		eventLogout: {{to: PhaseUnauthenticated}},
	},
	PhaseAuthenticated: {
		eventHydrate: {
			{to: PhaseAuthenticated, guards: []guard{withIdentity}},
			{to: PhaseUnauthenticated, guards: []guard{withoutIdentity}},
		},
		eventLogin:  {{to: PhaseAuthenticated}},
		eventLogout: {{to: PhaseUnauthenticated}},
	},
}

// next returns the phase reached from `from` on ev.
func next(from Phase, ev event, hasIdentity bool) (Phase, error) {
	for _, t := range transitions[from][ev] {
		ok := true
		for _, g := range t.guards {
			if !g(hasIdentity) {
				ok = false
				break
			}
		}
		if ok {
			return t.to, nil
		}
	}
	return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, from, ev)
}
