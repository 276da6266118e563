// Package session models the credential lifecycle of one identity as a
// pure transition table. Services derive the current State from the
// identity's refresh slot, ask Decide what to do, then apply the effects.
package session

import (
	"errors"
	"fmt"
)

type State int

const (
	// Anonymous means no refresh token is anchored for the identity.
	Anonymous State = iota
	// Authenticated means exactly one refresh token is anchored.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Event int

const (
	Login Event = iota
	Refresh
	Logout
)

func (e Event) String() string {
	switch e {
	case Login:
		return "login"
	case Refresh:
		return "refresh"
	case Logout:
		return "logout"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Effect is a side effect the caller must perform to complete a transition.
type Effect int

const (
	// IssuePair mints a fresh access/refresh pair.
	IssuePair Effect = iota
	// StoreRefresh overwrites the slot unconditionally.
	StoreRefresh
	// RotateRefresh replaces the slot only if it still holds the version
	// that was verified.
	RotateRefresh
	// ClearRefresh unsets the slot.
	ClearRefresh
)

func (e Effect) String() string {
	switch e {
	case IssuePair:
		return "issue-pair"
	case StoreRefresh:
		return "store-refresh"
	case RotateRefresh:
		return "rotate-refresh"
	case ClearRefresh:
		return "clear-refresh"
	default:
		return fmt.Sprintf("effect(%d)", int(e))
	}
}

type Transition struct {
	Next    State
	Effects []Effect
}

// Has reports whether the transition requires effect.
func (t Transition) Has(effect Effect) bool {
	for _, e := range t.Effects {
		if e == effect {
			return true
		}
	}
	return false
}

// ErrIllegalTransition is returned for events the state does not accept.
var ErrIllegalTransition = errors.New("illegal session transition")

// FromSlot derives the state from whether a refresh token is stored.
func FromSlot(hasRefreshToken bool) State {
	if hasRefreshToken {
		return Authenticated
	}
	return Anonymous
}

// Decide returns the transition for event in state.
func Decide(state State, event Event) (Transition, error) {
	switch event {
	case Login:
		// Logging in again replaces whatever was anchored before.
		return Transition{Next: Authenticated, Effects: []Effect{IssuePair, StoreRefresh}}, nil
	case Refresh:
		if state != Authenticated {
			return Transition{}, fmt.Errorf("%w: %s in %s", ErrIllegalTransition, event, state)
		}
		return Transition{Next: Authenticated, Effects: []Effect{IssuePair, RotateRefresh}}, nil
	case Logout:
		if state == Anonymous {
			return Transition{Next: Anonymous}, nil
		}
		return Transition{Next: Anonymous, Effects: []Effect{ClearRefresh}}, nil
	default:
		return Transition{}, fmt.Errorf("%w: %s in %s", ErrIllegalTransition, event, state)
	}
}
