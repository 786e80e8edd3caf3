package controller

import "fmt"

// State is the controller's session lifecycle state. There is exactly one
// session at a time; re-onboarding tears the previous one down.
type State string

const (
	// StateNew is the initial state before any onboarding has begun.
	StateNew State = "new"
	// StateOnboarding means the daemon is waiting on the user's connection
	// choice.
	StateOnboarding State = "onboarding"
	// StateStartingNode means a local lnd process has been spawned and no
	// service endpoint is reachable yet.
	StateStartingNode State = "starting-node"
	// StateRunning means the wallet unlocker endpoint is reachable but the
	// wallet has not been unlocked.
	StateRunning State = "running"
	// StateConnected means the lightning service is reachable and
	// authenticated.
	StateConnected State = "connected"
	// StateTerminated is final.
	StateTerminated State = "terminated"
)

type Transition string

const (
	// TransitionOnboard begins (or restarts) onboarding.
	TransitionOnboard Transition = "onboard"
	// TransitionStartNode records that a local process was spawned.
	TransitionStartNode Transition = "start-node"
	// TransitionServiceActive records that the unlocker answered.
	TransitionServiceActive Transition = "service-active"
	// TransitionConnect records that the lightning service answered.
	TransitionConnect Transition = "connect"
	// TransitionTerminate ends the session.
	TransitionTerminate Transition = "terminate"
)

// TransitionError reports a lifecycle operation attempted from a state that
// does not permit it.
type TransitionError struct {
	From       State
	Transition Transition
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %q is not allowed from state %q", e.Transition, e.From)
}

var transitions = map[Transition]map[State]State{
	TransitionOnboard: {
		StateNew:          StateOnboarding,
		StateOnboarding:   StateOnboarding,
		StateStartingNode: StateOnboarding,
		StateRunning:      StateOnboarding,
		StateConnected:    StateOnboarding,
	},
	TransitionStartNode: {
		StateOnboarding: StateStartingNode,
	},
	TransitionServiceActive: {
		// A remote node with a locked wallet goes straight from
		// onboarding to running; a local one passes through the spawn.
		StateOnboarding:   StateRunning,
		StateStartingNode: StateRunning,
	},
	TransitionConnect: {
		// A remote node with an unlocked wallet skips running.
		StateOnboarding: StateConnected,
		StateRunning:    StateConnected,
	},
	TransitionTerminate: {
		StateNew:          StateTerminated,
		StateOnboarding:   StateTerminated,
		StateStartingNode: StateTerminated,
		StateRunning:      StateTerminated,
		StateConnected:    StateTerminated,
		StateTerminated:   StateTerminated,
	},
}

// next is the pure transition function. It never mutates anything.
func next(from State, t Transition) (State, error) {
	to, ok := transitions[t][from]
	if !ok {
		return from, &TransitionError{From: from, Transition: t}
	}
	return to, nil
}
