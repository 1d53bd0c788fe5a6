package machine

import (
	"errors"
	"sync"
	"time"
)

// Sim is the simulation backend: sensors are plain settable values and
// actuations are recorded instead of performed. It is deterministic
// and safe for concurrent use, so tests can drive the controller's
// poll and cycle loops against it.
type Sim struct {
	mu sync.Mutex

	ballTripped   bool
	pinVoltages   [5]float64
	timingVoltage float64

	failPinReads bool

	resetPulses    int
	solenoidPulses []int // channels energised, in order
	safeStates     int
}

// NewSim returns a simulator with every pin standing (0 V on all
// sensors) and the ball sensor clear.
func NewSim() *Sim {
	return &Sim{}
}

func (s *Sim) Init() error  { return nil }
func (s *Sim) Close() error { return nil }

func (s *Sim) BallTripped() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ballTripped, nil
}

func (s *Sim) PinVoltage(channel int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel < 0 || channel >= 5 {
		return 0, errors.New("machine: pin channel out of range")
	}
	if s.failPinReads {
		return 0, errors.New("machine: simulated sensor fault")
	}
	return s.pinVoltages[channel], nil
}

func (s *Sim) TimingVoltage() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timingVoltage, nil
}

func (s *Sim) PulseReset(hold time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetPulses++
	return nil
}

func (s *Sim) SetSolenoid(channel int, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active {
		s.solenoidPulses = append(s.solenoidPulses, channel)
	}
	return nil
}

func (s *Sim) SafeState() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.safeStates++
	return nil
}

// SetBallTripped raises or clears the simulated ball sensor.
func (s *Sim) SetBallTripped(tripped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ballTripped = tripped
}

// SetPinVoltage sets one analog pin sensor's reading.
func (s *Sim) SetPinVoltage(channel int, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel >= 0 && channel < 5 {
		s.pinVoltages[channel] = v
	}
}

// SetTimingVoltage sets the cycle-timing sensor's reading.
func (s *Sim) SetTimingVoltage(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timingVoltage = v
}

// FailPinReads makes every pin sensor read return an error, exercising
// the controller's retry and fail-safe path.
func (s *Sim) FailPinReads(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPinReads = fail
}

// ResetPulses reports how many reset pulses were issued.
func (s *Sim) ResetPulses() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetPulses
}

// SolenoidPulses returns the channels energised so far, in order.
func (s *Sim) SolenoidPulses() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.solenoidPulses...)
}

// SafeStates reports how many times outputs were forced safe.
func (s *Sim) SafeStates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.safeStates
}
