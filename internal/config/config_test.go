package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/sweeney/traffic-light/internal/logic"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.LogicDurations() != logic.DefaultDurations() {
		t.Errorf("durations: got %+v", cfg.LogicDurations())
	}
	if cfg.LogicLimits() != logic.DefaultLimits() {
		t.Errorf("limits: got %+v", cfg.LogicLimits())
	}
}

func TestDefaultDoesNotShareSlices(t *testing.T) {
	a := Default()
	a.GPIO.LampPins[0] = 99
	if b := Default(); b.GPIO.LampPins[0] == 99 {
		t.Error("Default returned a slice aliasing package state")
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "traffic.toml", `
[durations]
red_ms = 3000

[gpio]
lights = "digital"
lamp_pins = [23, 24, 25]

[mqtt]
broker = "tcp://broker.local:1883"
prefix = "junction/1"

[logging]
level = "debug"

[logging.modules]
mqtt = "warn"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Durations.RedMs != 3000 {
		t.Errorf("RedMs: got %d, want 3000", cfg.Durations.RedMs)
	}
	if cfg.Durations.YellowMs != 500 {
		t.Errorf("YellowMs should keep its default, got %d", cfg.Durations.YellowMs)
	}
	if cfg.GPIO.Lights != LightsDigital {
		t.Errorf("Lights: got %q", cfg.GPIO.Lights)
	}
	if !reflect.DeepEqual(cfg.GPIO.LampPins, []int{23, 24, 25}) {
		t.Errorf("LampPins: got %v", cfg.GPIO.LampPins)
	}
	if cfg.MQTT.Prefix != "junction/1" || cfg.MQTT.Broker != "tcp://broker.local:1883" {
		t.Errorf("MQTT: got %+v", cfg.MQTT)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Modules["mqtt"] != "warn" {
		t.Errorf("Logging: got %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "traffic.yml", `
durations:
  green_ms: 4000
serial:
  port: /dev/ttyUSB0
  baud: 115200
control:
  notices: false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Durations.GreenMs != 4000 {
		t.Errorf("GreenMs: got %d, want 4000", cfg.Durations.GreenMs)
	}
	if cfg.Serial.Port != "/dev/ttyUSB0" || cfg.Serial.Baud != 115200 {
		t.Errorf("Serial: got %+v", cfg.Serial)
	}
	if cfg.Control.Notices {
		t.Error("Notices should be false")
	}
	if cfg.Control.AnalogMax != logic.DefaultAnalogMax {
		t.Errorf("AnalogMax should keep its default, got %d", cfg.Control.AnalogMax)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeFile(t, "traffic.ini", "x=1")); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := Load(writeFile(t, "bad.toml", "[durations\nred_ms = ")); err == nil {
		t.Error("expected TOML parse error")
	}
	if _, err := Load(writeFile(t, "bad.yaml", "durations: [")); err == nil {
		t.Error("expected YAML parse error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "traffic.toml", "[durations]\nred_ms = 3000\n[gpio]\nbuttons = \"poll\"\n")
	t.Setenv("TRAFFIC_RED_MS", "4500")
	t.Setenv("TRAFFIC_BUTTON_PINS", "2, 3,4")
	t.Setenv("TRAFFIC_NOTICES", "false")
	t.Setenv("TRAFFIC_HTTP_ADDR", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Durations.RedMs != 4500 {
		t.Errorf("RedMs: env should win, got %d", cfg.Durations.RedMs)
	}
	if cfg.GPIO.Buttons != ButtonsPoll {
		t.Errorf("Buttons: file value lost, got %q", cfg.GPIO.Buttons)
	}
	if !reflect.DeepEqual(cfg.GPIO.ButtonPins, []int{2, 3, 4}) {
		t.Errorf("ButtonPins: got %v", cfg.GPIO.ButtonPins)
	}
	if cfg.Control.Notices {
		t.Error("Notices: env should win")
	}
	if cfg.HTTP.Addr != ":80" {
		t.Errorf("empty env must not override, got %q", cfg.HTTP.Addr)
	}
}

func TestApplyEnvBadValue(t *testing.T) {
	cfg := Default()
	lookup := func(key string) (string, bool) {
		if key == "TRAFFIC_SERIAL_BAUD" {
			return "fast", true
		}
		return "", false
	}
	if err := ApplyEnv(&cfg, lookup); err == nil {
		t.Error("expected error for non-numeric baud")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"lights", func(c *Config) { c.GPIO.Lights = "neon" }},
		{"buttons", func(c *Config) { c.GPIO.Buttons = "touch" }},
		{"lamp pins", func(c *Config) { c.GPIO.LampPins = []int{1, 2} }},
		{"button pins", func(c *Config) { c.GPIO.ButtonPins = nil }},
		{"pwm channels", func(c *Config) { c.GPIO.PWMChannels = []int{0, 1, 2, 3} }},
		{"poll", func(c *Config) { c.GPIO.Buttons = ButtonsPoll; c.GPIO.PollMs = 0 }},
		{"analog max", func(c *Config) { c.Control.AnalogMax = 0 }},
		{"heartbeat", func(c *Config) { c.Control.HeartbeatMs = -1 }},
		{"baud", func(c *Config) { c.Serial.Baud = 0 }},
		{"duration below limit", func(c *Config) { c.Durations.RedMs = 100 }},
		{"duration above limit", func(c *Config) { c.Durations.YellowMs = 9000 }},
		{"inverted limits", func(c *Config) { c.Limits.GreenMinMs = 6000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("got %v, want ErrInvalid", err)
			}
		})
	}
}

func TestControllerConfig(t *testing.T) {
	cfg := Default()
	cfg.Durations.GreenMs = 3000
	cfg.Control.AnalogMax = 4095

	lc := cfg.Controller()
	if lc.Durations.Green != 3*time.Second {
		t.Errorf("Green: got %v", lc.Durations.Green)
	}
	if lc.AnalogMax != 4095 || lc.ButtonQueueSize != 16 || lc.CommandQueueSize != 32 {
		t.Errorf("got %+v", lc)
	}
}

func TestDurationCommands(t *testing.T) {
	old := Default()
	next := Default()
	next.Durations.RedMs = 1000
	next.Durations.GreenMs = 2500

	got := DurationCommands(old, next)
	want := []string{"RED:1000", "GREEN:2500"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got := DurationCommands(old, old); len(got) != 0 {
		t.Errorf("unchanged config produced %v", got)
	}
}

func TestParseInts(t *testing.T) {
	got, err := ParseInts("17, 27,22")
	if err != nil || !reflect.DeepEqual(got, []int{17, 27, 22}) {
		t.Errorf("got %v, %v", got, err)
	}
	if _, err := ParseInts("1,x"); err == nil {
		t.Error("expected error")
	}
}

func TestPins(t *testing.T) {
	if got := Pins([]int{5, 6, 13}); got != [3]int{5, 6, 13} {
		t.Errorf("got %v", got)
	}
}
