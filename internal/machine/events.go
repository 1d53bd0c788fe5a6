package machine

// Event is raised by the controller toward the lane orchestrator.
type Event interface {
	machineEvent()
}

// Ready is emitted once the hardware backend initialises.
type Ready struct{}

func (Ready) machineEvent() {}

// BallDetected carries the deck read after a debounced ball trip.
type BallDetected struct {
	Pins PinState
}

func (BallDetected) machineEvent() {}

// PinStatesChanged is emitted whenever the known deck changes, both on
// detection and after an actuation cycle completes.
type PinStatesChanged struct {
	Pins PinState
}

func (PinStatesChanged) machineEvent() {}

// Fault reports a hardware problem the controller survived; the
// machine degrades to fail-safe values rather than stopping play.
type Fault struct {
	Err error
}

func (Fault) machineEvent() {}
