package communicator

import "fmt"

// State is the backend connection state.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateRestarting
	StateStopped
	StateFailed
)

var stateNames = [...]string{
	StateDisconnected: "disconnected",
	StateConnecting:   "connecting",
	StateReady:        "ready",
	StateRestarting:   "restarting",
	StateStopped:      "stopped",
	StateFailed:       "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transitions happen.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFailed
}

// MarshalText renders the state by name in JSON and YAML output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
