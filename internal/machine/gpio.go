package machine

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// GPIOConfig names the pins the real machine is wired to. Solenoid
// and analog channel order follows the deck layout, left corner to
// right corner.
type GPIOConfig struct {
	BallSensorPin string   `yaml:"ball_sensor_pin"`
	ResetPin      string   `yaml:"reset_pin"`
	SolenoidPins  []string `yaml:"solenoid_pins"`
}

// DefaultGPIOConfig returns the reference wiring.
func DefaultGPIOConfig() GPIOConfig {
	return GPIOConfig{
		BallSensorPin: "GPIO17",
		ResetPin:      "GPIO27",
		SolenoidPins:  []string{"GPIO5", "GPIO6", "GPIO13", "GPIO19", "GPIO26"},
	}
}

// GPIO drives the machine through periph.io. Pin position sensing
// reads five analog channels; the channel reader is injected so the
// ADC wiring (ADS1115 or otherwise) stays out of this package's way.
type GPIO struct {
	cfg GPIOConfig

	ballSensor gpio.PinIn
	reset      gpio.PinOut
	solenoids  []gpio.PinOut

	// readChannel samples one analog channel, 0-4 for the pin
	// sensors and 5 for the timing sensor.
	readChannel func(channel int) (analog.Sample, error)
}

// NewGPIO builds the hardware backend for the given wiring.
func NewGPIO(cfg GPIOConfig, readChannel func(int) (analog.Sample, error)) *GPIO {
	return &GPIO{cfg: cfg, readChannel: readChannel}
}

// Init claims the pins and drives everything to the inert state.
func (g *GPIO) Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("gpio: host init: %v", err)
	}
	g.ballSensor = gpioreg.ByName(g.cfg.BallSensorPin)
	if g.ballSensor == nil {
		return fmt.Errorf("gpio: ball sensor pin %q not found", g.cfg.BallSensorPin)
	}
	if err := g.ballSensor.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return fmt.Errorf("gpio: ball sensor in: %v", err)
	}
	reset := gpioreg.ByName(g.cfg.ResetPin)
	if reset == nil {
		return fmt.Errorf("gpio: reset pin %q not found", g.cfg.ResetPin)
	}
	if err := reset.Out(gpio.Low); err != nil {
		return fmt.Errorf("gpio: reset out: %v", err)
	}
	g.reset = reset
	if len(g.cfg.SolenoidPins) != 5 {
		return fmt.Errorf("gpio: want 5 solenoid pins, got %d", len(g.cfg.SolenoidPins))
	}
	g.solenoids = g.solenoids[:0]
	for _, name := range g.cfg.SolenoidPins {
		p := gpioreg.ByName(name)
		if p == nil {
			return fmt.Errorf("gpio: solenoid pin %q not found", name)
		}
		if err := p.Out(gpio.Low); err != nil {
			return fmt.Errorf("gpio: solenoid %q out: %v", name, err)
		}
		g.solenoids = append(g.solenoids, p)
	}
	return nil
}

// BallTripped reports whether the ball sensor line is high.
func (g *GPIO) BallTripped() (bool, error) {
	return g.ballSensor.Read() == gpio.High, nil
}

// PinVoltage reads one pin position channel in volts.
func (g *GPIO) PinVoltage(channel int) (float64, error) {
	if channel < 0 || channel > 4 {
		return 0, fmt.Errorf("gpio: pin channel %d out of range", channel)
	}
	return g.voltage(channel)
}

// TimingVoltage reads the machine timing sensor channel.
func (g *GPIO) TimingVoltage() (float64, error) {
	return g.voltage(5)
}

func (g *GPIO) voltage(channel int) (float64, error) {
	s, err := g.readChannel(channel)
	if err != nil {
		return 0, fmt.Errorf("gpio: channel %d: %v", channel, err)
	}
	return float64(s.V) / float64(physic.Volt), nil
}

// PulseReset raises the reset line for the hold duration.
func (g *GPIO) PulseReset(hold time.Duration) error {
	if err := g.reset.Out(gpio.High); err != nil {
		return fmt.Errorf("gpio: reset high: %v", err)
	}
	time.Sleep(hold)
	if err := g.reset.Out(gpio.Low); err != nil {
		return fmt.Errorf("gpio: reset low: %v", err)
	}
	return nil
}

// SetSolenoid drives one solenoid line.
func (g *GPIO) SetSolenoid(channel int, active bool) error {
	if channel < 0 || channel >= len(g.solenoids) {
		return fmt.Errorf("gpio: solenoid %d out of range", channel)
	}
	level := gpio.Low
	if active {
		level = gpio.High
	}
	if err := g.solenoids[channel].Out(level); err != nil {
		return fmt.Errorf("gpio: solenoid %d: %v", channel, err)
	}
	return nil
}

// SafeState drops every output line low.
func (g *GPIO) SafeState() error {
	var first error
	if g.reset != nil {
		if err := g.reset.Out(gpio.Low); err != nil && first == nil {
			first = err
		}
	}
	for _, s := range g.solenoids {
		if err := s.Out(gpio.Low); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close releases the pins. periph pins need no explicit teardown
// beyond returning to the safe state.
func (g *GPIO) Close() error {
	return g.SafeState()
}
