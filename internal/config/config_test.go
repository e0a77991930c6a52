package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "iotmonitor.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	// directory senza configs/: restano solo i default
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Simulation.Duration != 10*time.Second {
		t.Fatalf("duration got %s want 10s", cfg.Simulation.Duration)
	}
	if cfg.Simulation.JoinTimeout != 500*time.Millisecond {
		t.Fatalf("join timeout got %s want 500ms", cfg.Simulation.JoinTimeout)
	}
	if cfg.Controller.Interval != 2500*time.Millisecond {
		t.Fatalf("controller interval got %s", cfg.Controller.Interval)
	}
	if got := cfg.Profiles["co2"]; got.Interval != 4*time.Second || got.Min != 300 || got.Max != 2000 {
		t.Fatalf("co2 profile got %+v", got)
	}
	if got := cfg.Profiles["light"]; got.Interval != 2500*time.Millisecond || got.Max != 10000 {
		t.Fatalf("light profile got %+v", got)
	}
	th := cfg.Controller.Thresholds
	if th.TemperatureLow != 8 || th.CO2Forced != 900 || th.LightHigh != 700 {
		t.Fatalf("thresholds got %+v", th)
	}
	if len(cfg.Sensors) != 2 || cfg.Sensors[0].Type != "Temperature" || cfg.Sensors[1].ID != 2 {
		t.Fatalf("sensors got %+v", cfg.Sensors)
	}
	if cfg.Persistence.Backend != "file" || cfg.Recorder.Influx.Enabled {
		t.Fatalf("persistence/recorder defaults got %+v / %+v", cfg.Persistence, cfg.Recorder.Influx)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
simulation:
  duration: 2s
sensors:
  - type: co2
    id: 7
    strategy: drift
  - type: luz
    id: 8
profiles:
  co2:
    interval: 1s
controller:
  thresholds:
    co2_forced: 1000
persistence:
  codec: proto
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Simulation.Duration != 2*time.Second {
		t.Fatalf("duration got %s want 2s", cfg.Simulation.Duration)
	}
	if len(cfg.Sensors) != 2 || cfg.Sensors[0].Strategy != "drift" || cfg.Sensors[1].Type != "luz" {
		t.Fatalf("sensors got %+v", cfg.Sensors)
	}
	if got := cfg.Profiles["co2"]; got.Interval != time.Second || got.Min != 300 {
		t.Fatalf("co2 profile got %+v, want file interval with default range", got)
	}
	if cfg.Controller.Thresholds.CO2Forced != 1000 || cfg.Controller.Thresholds.CO2Moderate != 600 {
		t.Fatalf("thresholds got %+v", cfg.Controller.Thresholds)
	}
	if cfg.Persistence.Codec != "proto" {
		t.Fatalf("codec got %q want proto", cfg.Persistence.Codec)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("IOTMONITOR_SIMULATION_DURATION", "45s")
	t.Setenv("IOTMONITOR_RECORDER_REDIS_ENABLED", "true")
	t.Setenv("IOTMONITOR_LOG_LEVEL", "debug")
	cfg, err := Load(writeConfig(t, "log:\n  level: warn\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Simulation.Duration != 45*time.Second {
		t.Fatalf("duration got %s want 45s", cfg.Simulation.Duration)
	}
	if !cfg.Recorder.Redis.Enabled {
		t.Fatalf("redis should be enabled from env")
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("env should win over file, level got %q", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	path := writeConfig(t, `
sensors:
  - type: Temperature
    id: 1
  - type: Humidity
    id: 1
zone:
  priority: 5
persistence:
  backend: sqlite
`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"duplicate sensor id 1", "sqlite", "zone.priority"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %q", err, want)
		}
	}
}

func TestMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("explicit missing config file should fail")
	}
}

func TestDefaultMatchesLoad(t *testing.T) {
	t.Chdir(t.TempDir())
	loaded, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := Default()
	if def.Simulation != loaded.Simulation || def.Controller != loaded.Controller || def.Zone != loaded.Zone {
		t.Fatalf("Default() differs from Load(\"\")")
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
