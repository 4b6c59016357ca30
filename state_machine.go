package authclient

import (
	"sync"
	"sync/atomic"
)

// State is the authentication state of an Orchestrator.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
)

func (s State) String() string {
	return string(s)
}

// sessionState owns the cached authentication flag. Transitions are only
// requested from inside the orchestrator's critical section; reads are
// lock free.
type sessionState struct {
	mu            sync.Mutex
	transitions   map[State]map[State]struct{}
	authenticated atomic.Bool
}

func newSessionState() *sessionState {
	return &sessionState{
		transitions: map[State]map[State]struct{}{
			StateUnauthenticated: {
				StateAuthenticated:   {},
				StateUnauthenticated: {},
			},
			StateAuthenticated: {
				StateAuthenticated:   {},
				StateUnauthenticated: {},
			},
		},
	}
}

func (s *sessionState) Current() State {
	if s.authenticated.Load() {
		return StateAuthenticated
	}
	return StateUnauthenticated
}

func (s *sessionState) IsAuthenticated() bool {
	return s.authenticated.Load()
}

// Transition moves to target and returns the previous state.
func (s *sessionState) Transition(target State) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.Current()
	if _, ok := s.transitions[from][target]; !ok {
		return from, ErrInvalidTransition
	}

	s.authenticated.Store(target == StateAuthenticated)
	return from, nil
}

// reset forces the state, used when reconciling with the store.
func (s *sessionState) reset(authenticated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated.Store(authenticated)
}
