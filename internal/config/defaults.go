package config

import (
	_ "embed"
)

//go:embed defaults/lanebox.yaml
var defaultYAML []byte

// Default returns the hardcoded fallback configuration, matching the
// embedded defaults/lanebox.yaml.
func Default() Config {
	return Config{
		Lane: LaneConfig{
			ID:                   1,
			SnapshotPath:         "lanebox-state.json",
			TimerIntervalSeconds: 60,
		},
		Machine: MachineConfig{
			Backend:              "sim",
			PollIntervalMs:       1,
			TickIntervalMs:       50,
			CycleDurationMs:      8500,
			DebounceThreshold:    10,
			DebounceMs:           500,
			VoltageThreshold:     4.0,
			SensorAttempts:       3,
			SensorRetryDelayMs:   50,
			SensorSweepTimeoutMs: 3000,
			TimingTimeoutMs:      8000,
			ResetPulseMs:         50,
			SolenoidHoldMs:       150,
			SolenoidPauseMs:      50,
			GPIO: GPIOWiring{
				BallSensorPin: "GPIO17",
				ResetPin:      "GPIO27",
				SolenoidPins:  []string{"GPIO5", "GPIO6", "GPIO13", "GPIO19", "GPIO26"},
			},
		},
		Network: NetworkConfig{
			Host:                     "127.0.0.1",
			Port:                     50005,
			DialTimeoutSeconds:       5,
			HeartbeatIntervalSeconds: 10,
			BackoffBaseSeconds:       1,
			BackoffMaxSeconds:        30,
			MaxAttempts:              10,
			Discovery:                true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
