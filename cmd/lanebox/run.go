package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"

	"github.com/fivepin/lanebox/internal/config"
	"github.com/fivepin/lanebox/internal/lane"
	"github.com/fivepin/lanebox/internal/machine"
	"github.com/fivepin/lanebox/internal/netclient"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the lane controller",
	Long: `Run the lane controller daemon.

The controller connects to the front desk server, waits for game
commands, and scores throws as the machine detects them. With the
sim machine backend it runs anywhere; the gpio backend needs the
lane hardware.

Examples:
  lanebox run
  lanebox run --config ./configs/lane3.yaml
  lanebox run --lane 3 --log-level debug`,
	Run: runLane,
}

func runLane(_ *cobra.Command, _ []string) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if flagLane > 0 {
		cfg.Lane.ID = flagLane
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}

	logger := newLogger(cfg.Logging.Level)
	logger.Info("lanebox starting", "lane", cfg.Lane.ID, "backend", cfg.Machine.Backend)

	hw, err := buildHardware(cfg.Machine)
	if err != nil {
		logger.Fatal("hardware setup failed", "err", err)
	}

	mc := machine.New(machineConfig(cfg), hw, logger.WithPrefix("machine"))
	nc := netclient.New(netConfig(cfg), logger.WithPrefix("net"))
	lc := lane.New(lane.Config{
		LaneID:        cfg.Lane.ID,
		SnapshotPath:  cfg.Lane.SnapshotPath,
		TimerInterval: time.Duration(cfg.Lane.TimerIntervalSeconds) * time.Second,
	}, mc, nc, logger.WithPrefix("lane"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mc.Start(); err != nil {
		logger.Fatal("machine start failed", "err", err)
	}
	defer mc.Stop()

	go nc.Run(ctx)
	go displayLoop(ctx, lc)

	if err := lc.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("lane stopped", "err", err)
	}
	logger.Info("lanebox shut down")
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

func machineConfig(cfg config.Config) machine.Config {
	m := cfg.Machine
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return machine.Config{
		LaneID:             cfg.Lane.ID,
		PollInterval:       ms(m.PollIntervalMs),
		TickInterval:       ms(m.TickIntervalMs),
		CycleDuration:      ms(m.CycleDurationMs),
		DebounceThreshold:  m.DebounceThreshold,
		DebounceInterval:   ms(m.DebounceMs),
		VoltageThreshold:   m.VoltageThreshold,
		SensorAttempts:     m.SensorAttempts,
		SensorRetryDelay:   ms(m.SensorRetryDelayMs),
		SensorSweepTimeout: ms(m.SensorSweepTimeoutMs),
		TimingTimeout:      ms(m.TimingTimeoutMs),
		ResetPulse:         ms(m.ResetPulseMs),
		SolenoidHold:       ms(m.SolenoidHoldMs),
		SolenoidPause:      ms(m.SolenoidPauseMs),
	}
}

func netConfig(cfg config.Config) netclient.Config {
	n := cfg.Network
	sec := func(v int) time.Duration { return time.Duration(v) * time.Second }
	return netclient.Config{
		LaneID:            cfg.Lane.ID,
		Host:              n.Host,
		Port:              n.Port,
		DialTimeout:       sec(n.DialTimeoutSeconds),
		HeartbeatInterval: sec(n.HeartbeatIntervalSeconds),
		Backoff: netclient.Backoff{
			Base: sec(n.BackoffBaseSeconds),
			Max:  sec(n.BackoffMaxSeconds),
		},
		MaxAttempts:  n.MaxAttempts,
		UseDiscovery: n.Discovery,
	}
}

func buildHardware(m config.MachineConfig) (machine.PinHardware, error) {
	switch m.Backend {
	case "", "sim":
		return machine.NewSim(), nil
	case "gpio":
		read, err := newADCReader()
		if err != nil {
			return nil, err
		}
		return machine.NewGPIO(machine.GPIOConfig{
			BallSensorPin: m.GPIO.BallSensorPin,
			ResetPin:      m.GPIO.ResetPin,
			SolenoidPins:  m.GPIO.SolenoidPins,
		}, read), nil
	default:
		return nil, fmt.Errorf("unknown machine backend %q", m.Backend)
	}
}

// newADCReader opens the two ADS1115 converters behind the pin and
// timing sensors: channels 0-3 on the 0x48 device, 4-5 on 0x49.
func newADCReader() (func(int) (analog.Sample, error), error) {
	bus, err := i2creg.Open("")
	if err != nil {
		return nil, fmt.Errorf("i2c open: %v", err)
	}

	pins := make([]analog.PinADC, 0, 6)
	channels := []ads1x15.Channel{
		ads1x15.Channel0, ads1x15.Channel1, ads1x15.Channel2, ads1x15.Channel3,
	}
	for i, addr := range []uint16{0x48, 0x49} {
		opts := ads1x15.DefaultOpts
		opts.I2cAddress = addr
		dev, err := ads1x15.NewADS1115(bus, &opts)
		if err != nil {
			return nil, fmt.Errorf("ads1115 at %#x: %v", addr, err)
		}
		n := 4
		if i == 1 {
			n = 2
		}
		for _, ch := range channels[:n] {
			pin, err := dev.PinForChannel(ch, 5*physic.Volt, 100*physic.Hertz, ads1x15.SaveEnergy)
			if err != nil {
				return nil, fmt.Errorf("adc channel %v at %#x: %v", ch, addr, err)
			}
			pins = append(pins, pin)
		}
	}

	return func(channel int) (analog.Sample, error) {
		if channel < 0 || channel >= len(pins) {
			return analog.Sample{}, fmt.Errorf("adc channel %d out of range", channel)
		}
		return pins[channel].Read()
	}, nil
}

// displayLoop is the console scoreboard: it prints the sheet after
// every throw and calls out strikes and spares.
func displayLoop(ctx context.Context, lc *lane.Controller) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-lc.Events():
			renderEvent(evt)
		}
	}
}

func renderEvent(evt lane.Event) {
	switch e := evt.(type) {
	case lane.GameStarted:
		fmt.Printf("\n=== Game on! %s ===\n", strings.Join(e.Players, ", "))
	case lane.BallProcessed:
		printSheet(e.State)
	case lane.SpecialEffect:
		switch e.Kind {
		case "strike":
			fmt.Println("  ** STRIKE! **")
		case "spare":
			fmt.Println("  ** SPARE! **")
		}
	case lane.CurrentPlayerChanged:
		fmt.Printf("Now up: %s\n", e.Name)
	case lane.HeldChanged:
		if e.Held {
			fmt.Println("-- lane held --")
		} else {
			fmt.Println("-- lane resumed --")
		}
	case lane.GameEnded:
		fmt.Println("\n=== Game over ===")
		for _, b := range e.Result.FinalScores {
			fmt.Printf("  %-20s %4d\n", b.Name, b.Score)
		}
	}
}

func printSheet(st lane.GameState) {
	for _, b := range st.Bowlers {
		fmt.Printf("%-12s", b.Name)
		for _, f := range b.Frames {
			fmt.Printf(" |%-7s", f.Display())
		}
		fmt.Printf(" | %d\n", b.TotalScore)
	}
}
