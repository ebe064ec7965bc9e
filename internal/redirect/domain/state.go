package domain

import (
	"fmt"
	"strings"
)

// State is a step of the three-hop redirect protocol.
type State string

const (
	StateGenesis          State = "GENESIS"
	StateValidating       State = "VALIDATING"
	StateTransit          State = "TRANSIT"
	StateRouting          State = "ROUTING"
	StateComplete         State = "COMPLETE"
	StateGenesisFailed    State = "GENESIS_FAILED"
	StateValidationFailed State = "VALIDATION_FAILED"
	StateRoutingFailed    State = "ROUTING_FAILED"
)

// transitions holds the only legal forward moves. Failure states have no outgoing edges:
// a failed click must restart from Stage 1 with fresh tokens.
var transitions = map[State][]State{
	StateGenesis:    {StateValidating, StateGenesisFailed},
	StateValidating: {StateTransit, StateValidationFailed},
	StateTransit:    {StateRouting},
	StateRouting:    {StateComplete, StateRoutingFailed},
}

// CanTransition reports whether the protocol may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

var allStates = []State{
	StateGenesis, StateValidating, StateTransit, StateRouting, StateComplete,
	StateGenesisFailed, StateValidationFailed, StateRoutingFailed,
}

// ParseState accepts a state name in any case.
func ParseState(name string) (State, error) {
	for _, s := range allStates {
		if strings.EqualFold(string(s), name) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown state %q", name)
}
