package machine

import "time"

// PinHardware abstracts the lane electronics: one digital ball-trip
// sensor, five analog pin sensors, one analog machine-timing sensor,
// a reset line and five pin solenoids. The GPIO backend talks to the
// real lane; Sim is a deterministic stand-in for tests and bench runs.
//
// Sensor reads return errors rather than panicking; the controller
// retries and falls back to fail-safe values.
type PinHardware interface {
	Init() error

	// BallTripped samples the digital ball sensor.
	BallTripped() (bool, error)

	// PinVoltage reads the analog sensor for pin channel 0-4. A
	// voltage at or above the configured threshold means "pin down".
	PinVoltage(channel int) (float64, error)

	// TimingVoltage reads the machine's cycle-timing sensor.
	TimingVoltage() (float64, error)

	// PulseReset asserts the reset line for the given duration.
	PulseReset(hold time.Duration) error

	// SetSolenoid energises or releases the solenoid for pin 0-4.
	SetSolenoid(channel int, active bool) error

	// SafeState forces every output off: solenoids released, reset
	// line idle. Must be callable at any time, including mid-cycle.
	SafeState() error

	Close() error
}
