// Package config provides YAML-based configuration loading for the
// lane controller.
package config

// Config is the full lane controller configuration.
type Config struct {
	Lane    LaneConfig    `yaml:"lane"`
	Machine MachineConfig `yaml:"machine"`
	Network NetworkConfig `yaml:"network"`
	Logging LoggingConfig `yaml:"logging"`
}

// LaneConfig identifies this lane and its session behaviour.
type LaneConfig struct {
	ID                   int    `yaml:"id"`
	SnapshotPath         string `yaml:"snapshot_path"`
	TimerIntervalSeconds int    `yaml:"timer_interval_seconds"`
}

// MachineConfig holds the pin-setting machine timings and wiring.
// Durations are milliseconds.
type MachineConfig struct {
	Backend string `yaml:"backend"` // "sim" or "gpio"

	PollIntervalMs    int `yaml:"poll_interval_ms"`
	TickIntervalMs    int `yaml:"tick_interval_ms"`
	CycleDurationMs   int `yaml:"cycle_duration_ms"`
	DebounceThreshold int `yaml:"debounce_threshold"`
	DebounceMs        int `yaml:"debounce_ms"`

	VoltageThreshold     float64 `yaml:"voltage_threshold"`
	SensorAttempts       int     `yaml:"sensor_attempts"`
	SensorRetryDelayMs   int     `yaml:"sensor_retry_delay_ms"`
	SensorSweepTimeoutMs int     `yaml:"sensor_sweep_timeout_ms"`

	TimingTimeoutMs int `yaml:"timing_timeout_ms"`
	ResetPulseMs    int `yaml:"reset_pulse_ms"`
	SolenoidHoldMs  int `yaml:"solenoid_hold_ms"`
	SolenoidPauseMs int `yaml:"solenoid_pause_ms"`

	GPIO GPIOWiring `yaml:"gpio"`
}

// GPIOWiring names the pins for the gpio backend.
type GPIOWiring struct {
	BallSensorPin string   `yaml:"ball_sensor_pin"`
	ResetPin      string   `yaml:"reset_pin"`
	SolenoidPins  []string `yaml:"solenoid_pins"`
}

// NetworkConfig holds the front desk server link settings.
type NetworkConfig struct {
	Host                     string `yaml:"host"`
	Port                     int    `yaml:"port"`
	DialTimeoutSeconds       int    `yaml:"dial_timeout_seconds"`
	HeartbeatIntervalSeconds int    `yaml:"heartbeat_interval_seconds"`
	BackoffBaseSeconds       int    `yaml:"backoff_base_seconds"`
	BackoffMaxSeconds        int    `yaml:"backoff_max_seconds"`
	MaxAttempts              int    `yaml:"max_attempts"`
	Discovery                bool   `yaml:"discovery"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
