package machine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ErrInvalidConfiguration rejects pin targets that are not five 0/1
// flags.
var ErrInvalidConfiguration = errors.New("machine: invalid pin configuration")

// Config holds the machine controller's tunables. Defaults mirror the
// lane hardware: a 1 ms detection poll, 50 ms cycle tick and an 8.5 s
// full machine sweep.
type Config struct {
	LaneID int

	PollInterval      time.Duration // ball sensor sampling cadence
	TickInterval      time.Duration // machine cycle progression tick
	CycleDuration     time.Duration // full pin-set sweep length
	DebounceThreshold int           // consecutive positive samples required
	DebounceInterval  time.Duration // minimum gap between detections

	VoltageThreshold   float64 // at or above means "pin down"
	SensorAttempts     int
	SensorRetryDelay   time.Duration
	SensorSweepTimeout time.Duration // cap on one full 5-channel sweep

	TimingTimeout time.Duration // bound on the timing-sensor wait
	ResetPulse    time.Duration
	SolenoidHold  time.Duration
	SolenoidPause time.Duration
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		LaneID:             1,
		PollInterval:       time.Millisecond,
		TickInterval:       50 * time.Millisecond,
		CycleDuration:      8500 * time.Millisecond,
		DebounceThreshold:  10,
		DebounceInterval:   500 * time.Millisecond,
		VoltageThreshold:   4.0,
		SensorAttempts:     3,
		SensorRetryDelay:   50 * time.Millisecond,
		SensorSweepTimeout: 3 * time.Second,
		TimingTimeout:      8 * time.Second,
		ResetPulse:         50 * time.Millisecond,
		SolenoidHold:       150 * time.Millisecond,
		SolenoidPause:      50 * time.Millisecond,
	}
}

// Controller runs the pin-setting machine. The detection poll and the
// cycle tick run on their own goroutines; actuation happens on the
// cycle goroutine so solenoid hold delays never stall the poll loop.
type Controller struct {
	cfg    Config
	hw     PinHardware
	logger *log.Logger

	mu                 sync.Mutex
	state              State
	gameActive         bool
	detectionActive    bool
	detectionSuspended bool
	sampleCount        int
	lastDetection      time.Time
	current            PinState
	target             PinState
	inOperation        bool
	cycleStart         time.Time
	detectStop         chan struct{}

	events   chan Event
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New builds a controller over the given hardware backend.
func New(cfg Config, hw PinHardware, logger *log.Logger) *Controller {
	return &Controller{
		cfg:     cfg,
		hw:      hw,
		logger:  logger,
		state:   Idle,
		current: AllUp(),
		target:  AllUp(),
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
	}
}

// Events is the stream of machine events for the lane orchestrator.
func (c *Controller) Events() <-chan Event { return c.events }

// Start initialises the hardware and begins the cycle tick.
func (c *Controller) Start() error {
	if err := c.hw.Init(); err != nil {
		return fmt.Errorf("machine: hardware init: %w", err)
	}
	c.wg.Add(1)
	go c.cycleLoop()
	c.logger.Info("machine controller started", "lane", c.cfg.LaneID)
	c.emit(Ready{})
	return nil
}

// Stop halts detection and the cycle tick and forces outputs safe.
// Safe to call more than once.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.StopBallDetection()
		close(c.done)
		c.wg.Wait()
		if err := c.hw.SafeState(); err != nil {
			c.logger.Warn("safe state on shutdown failed", "err", err)
		}
		if err := c.hw.Close(); err != nil {
			c.logger.Warn("hardware close failed", "err", err)
		}
	})
}

// StartBallDetection begins the fast sensor poll. Idempotent.
func (c *Controller) StartBallDetection() {
	c.mu.Lock()
	if c.detectionActive {
		c.mu.Unlock()
		return
	}
	c.detectionActive = true
	c.detectionSuspended = false
	c.sampleCount = 0
	c.lastDetection = time.Time{}
	stop := make(chan struct{})
	c.detectStop = stop
	c.mu.Unlock()

	c.wg.Add(1)
	go c.pollLoop(stop)
	c.logger.Info("ball detection started", "lane", c.cfg.LaneID)
}

// StopBallDetection halts the sensor poll. Idempotent.
func (c *Controller) StopBallDetection() {
	c.mu.Lock()
	if !c.detectionActive {
		c.mu.Unlock()
		return
	}
	c.detectionActive = false
	close(c.detectStop)
	c.mu.Unlock()
	c.logger.Info("ball detection stopped", "lane", c.cfg.LaneID)
}

// SetDetectionSuspended pauses detection without tearing the poll
// loop down, e.g. while the lane is held.
func (c *Controller) SetDetectionSuspended(suspended bool) {
	c.mu.Lock()
	c.detectionSuspended = suspended
	c.sampleCount = 0
	c.mu.Unlock()
}

// SetGameActive gates detection on an active game. Deactivating is a
// safety override: the machine returns to Idle whatever was in flight.
func (c *Controller) SetGameActive(active bool) {
	c.mu.Lock()
	c.gameActive = active
	if !active {
		c.state = Idle
		c.inOperation = false
	}
	c.mu.Unlock()
}

// State returns the current machine state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentPins returns the last known deck.
func (c *Controller) CurrentPins() PinState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// ResetPins drives the deck back to all pins up. Immediate resets
// pulse the reset line synchronously; otherwise a timed machine cycle
// starts and the deck settles when it elapses.
func (c *Controller) ResetPins(immediate bool) {
	c.mu.Lock()
	c.state = Resetting
	c.target = AllUp()
	if !immediate {
		c.inOperation = true
		c.cycleStart = time.Now()
		c.mu.Unlock()
		c.logger.Debug("machine cycle started for reset", "lane", c.cfg.LaneID)
		return
	}
	c.mu.Unlock()

	if err := c.hw.PulseReset(c.cfg.ResetPulse); err != nil {
		c.fault(fmt.Errorf("machine: reset pulse: %w", err))
	}
	c.mu.Lock()
	c.current = AllUp()
	c.inOperation = false
	c.state = Idle
	c.mu.Unlock()
	c.emit(PinStatesChanged{Pins: AllUp()})
}

// SetPinConfiguration starts a timed cycle toward an arbitrary deck,
// used to re-seat standing pins after a partial throw.
func (c *Controller) SetPinConfiguration(pins []int) error {
	if len(pins) != 5 {
		return fmt.Errorf("%w: got %d states, want 5", ErrInvalidConfiguration, len(pins))
	}
	var target PinState
	for i, p := range pins {
		if p != 0 && p != 1 {
			return fmt.Errorf("%w: state %d is %d", ErrInvalidConfiguration, i, p)
		}
		target[i] = p
	}
	c.mu.Lock()
	c.state = SettingPins
	c.target = target
	c.inOperation = true
	c.cycleStart = time.Now()
	c.mu.Unlock()
	c.logger.Debug("machine cycle started for pin set", "lane", c.cfg.LaneID, "target", target)
	return nil
}

// pollLoop samples the ball sensor at the fast cadence.
func (c *Controller) pollLoop(stop chan struct{}) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.sampleBallSensor()
		}
	}
}

// sampleBallSensor applies the two-part debounce gate: a run of
// positive samples reaching the threshold fires a detection, but only
// if the minimum interval since the last accepted one has elapsed.
func (c *Controller) sampleBallSensor() {
	c.mu.Lock()
	eligible := c.state == Idle && c.gameActive && c.detectionActive && !c.detectionSuspended
	c.mu.Unlock()
	if !eligible {
		return
	}

	tripped, err := c.hw.BallTripped()
	if err != nil || !tripped {
		c.mu.Lock()
		c.sampleCount = 0
		c.mu.Unlock()
		return
	}

	c.mu.Lock()
	c.sampleCount++
	if c.sampleCount < c.cfg.DebounceThreshold {
		c.mu.Unlock()
		return
	}
	c.sampleCount = 0
	now := time.Now()
	if !c.lastDetection.IsZero() && now.Sub(c.lastDetection) < c.cfg.DebounceInterval {
		c.mu.Unlock()
		return
	}
	c.lastDetection = now
	c.mu.Unlock()

	c.logger.Info("ball detected", "lane", c.cfg.LaneID)
	pins := c.readPinSensors()
	c.mu.Lock()
	c.current = pins
	c.mu.Unlock()
	c.emit(BallDetected{Pins: pins})
	c.emit(PinStatesChanged{Pins: pins})
}

// readPinSensors sweeps the five analog channels. Each read is retried
// a bounded number of times; an exhausted channel defaults to "pin up"
// so a dead sensor can never score phantom pinfall.
func (c *Controller) readPinSensors() PinState {
	states := AllUp()
	deadline := time.Now().Add(c.cfg.SensorSweepTimeout)
	var failed bool
	for ch := 0; ch < 5; ch++ {
		ok := false
		for attempt := 0; attempt < c.cfg.SensorAttempts; attempt++ {
			if time.Now().After(deadline) {
				break
			}
			v, err := c.hw.PinVoltage(ch)
			if err == nil {
				if v >= c.cfg.VoltageThreshold {
					states[ch] = 0
				}
				ok = true
				break
			}
			c.logger.Warn("pin sensor read failed", "channel", ch, "attempt", attempt+1, "err", err)
			time.Sleep(c.cfg.SensorRetryDelay)
		}
		if !ok {
			failed = true
		}
	}
	if failed {
		c.logger.Warn("pin sensor sweep degraded, defaulting failed channels to up", "lane", c.cfg.LaneID)
		c.emit(Fault{Err: errors.New("machine: pin sensor sweep degraded")})
	}
	return states
}

// cycleLoop advances timed machine cycles at the slow tick.
func (c *Controller) cycleLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

func (c *Controller) tick() {
	c.mu.Lock()
	if !c.inOperation || time.Since(c.cycleStart) < c.cfg.CycleDuration {
		c.mu.Unlock()
		return
	}
	target := c.target
	prior := c.state
	c.mu.Unlock()

	c.actuate(target, prior)

	c.mu.Lock()
	c.current = target
	c.inOperation = false
	c.state = Idle
	c.mu.Unlock()
	c.logger.Debug("machine cycle complete", "lane", c.cfg.LaneID, "pins", target)
	c.emit(PinStatesChanged{Pins: target})
}

// actuate performs the physical sequence: reset pulse, bounded wait
// for the timing sensor, then a solenoid pulse per pin that must end
// up down. Any failure forces the safe all-off state.
func (c *Controller) actuate(target PinState, prior State) {
	if err := c.hw.PulseReset(c.cfg.ResetPulse); err != nil {
		c.fault(fmt.Errorf("machine: reset pulse: %w", err))
		return
	}

	c.setState(WaitingTimingSensor)
	c.waitTimingSensor()
	c.setState(prior)

	for ch := 0; ch < 5; ch++ {
		if target[ch] != 0 {
			continue
		}
		if err := c.hw.SetSolenoid(ch, true); err != nil {
			c.fault(fmt.Errorf("machine: solenoid %d on: %w", ch, err))
			return
		}
		time.Sleep(c.cfg.SolenoidHold)
		if err := c.hw.SetSolenoid(ch, false); err != nil {
			c.fault(fmt.Errorf("machine: solenoid %d off: %w", ch, err))
			return
		}
		time.Sleep(c.cfg.SolenoidPause)
	}
}

// waitTimingSensor polls the timing sensor until it trips or the
// bound elapses; on timeout the cycle proceeds anyway.
func (c *Controller) waitTimingSensor() {
	start := time.Now()
	errCount := 0
	for time.Since(start) < c.cfg.TimingTimeout {
		v, err := c.hw.TimingVoltage()
		if err != nil {
			errCount++
			if errCount >= 10 {
				c.logger.Warn("timing sensor unreadable, proceeding", "errors", errCount)
				return
			}
		} else if v >= c.cfg.VoltageThreshold {
			c.logger.Debug("timing sensor tripped", "after", time.Since(start))
			return
		}
		select {
		case <-c.done:
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
	c.logger.Warn("timing sensor timeout, proceeding", "waited", time.Since(start))
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// fault forces the safe state and reports the problem upward; the
// machine keeps running degraded rather than aborting play.
func (c *Controller) fault(err error) {
	c.logger.Error("machine fault", "lane", c.cfg.LaneID, "err", err)
	if serr := c.hw.SafeState(); serr != nil {
		c.logger.Error("safe state failed", "err", serr)
	}
	c.emit(Fault{Err: err})
}

// emit delivers an event without ever blocking the machine loops;
// when the buffer is full the oldest event is dropped.
func (c *Controller) emit(evt Event) {
	select {
	case c.events <- evt:
		return
	default:
	}
	select {
	case <-c.events:
	default:
	}
	select {
	case c.events <- evt:
	default:
	}
}
