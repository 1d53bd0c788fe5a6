// Package machine drives the pin-setting machine: debounced ball
// detection, retried pin-sensor sweeps and timed solenoid actuation
// cycles, over a pluggable hardware backend.
package machine

// State is the machine controller's operating state. Ball detection is
// only honoured while Idle; entering any other state suspends it.
type State int

const (
	Idle State = iota
	Resetting
	SettingPins
	WaitingTimingSensor
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Resetting:
		return "resetting"
	case SettingPins:
		return "setting_pins"
	case WaitingTimingSensor:
		return "waiting_timing_sensor"
	default:
		return "unknown"
	}
}

// PinState is a deck snapshot in canonical pin order (lTwo, lThree,
// cFive, rThree, rTwo); 1 means the pin is standing.
type PinState [5]int

// AllUp is the freshly set deck.
func AllUp() PinState { return PinState{1, 1, 1, 1, 1} }
