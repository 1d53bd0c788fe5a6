package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmbeddedDefaultMatchesHardcoded(t *testing.T) {
	// run from a scratch dir so no local configs/ is picked up
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.Lane != want.Lane {
		t.Errorf("lane = %+v, want %+v", cfg.Lane, want.Lane)
	}
	if cfg.Network != want.Network {
		t.Errorf("network = %+v, want %+v", cfg.Network, want.Network)
	}
	if cfg.Logging != want.Logging {
		t.Errorf("logging = %+v, want %+v", cfg.Logging, want.Logging)
	}
	if cfg.Machine.CycleDurationMs != 8500 || cfg.Machine.DebounceThreshold != 10 {
		t.Errorf("machine = %+v", cfg.Machine)
	}
	if len(cfg.Machine.GPIO.SolenoidPins) != 5 {
		t.Errorf("solenoid pins = %v", cfg.Machine.GPIO.SolenoidPins)
	}
}

func TestLoadCustomPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lane7.yaml")
	body := []byte("lane:\n  id: 7\nnetwork:\n  host: 10.0.0.9\n  port: 6000\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lane.ID != 7 {
		t.Errorf("lane id = %d, want 7", cfg.Lane.ID)
	}
	if cfg.Network.Host != "10.0.0.9" || cfg.Network.Port != 6000 {
		t.Errorf("network = %+v", cfg.Network)
	}
}

func TestLoadMissingCustomPathFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("missing custom config did not error")
	}
}
