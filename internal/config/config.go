// Package config loads the daemon configuration. Precedence, lowest first:
// built-in defaults, the config file (TOML or YAML, picked by extension),
// TRAFFIC_* environment variables, then command-line flags applied by the
// caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/traffic-light/internal/gpio"
	"github.com/sweeney/traffic-light/internal/logging"
	"github.com/sweeney/traffic-light/internal/logic"
	"github.com/sweeney/traffic-light/internal/mqtt"
	"github.com/sweeney/traffic-light/internal/serialport"
)

// EnvPrefix is prepended to every env tag.
const EnvPrefix = "TRAFFIC_"

// Lamp output drivers.
const (
	LightsPWM     = "pwm"
	LightsDigital = "digital"
	LightsSim     = "sim"
)

// Button input drivers.
const (
	ButtonsEdge = "edge"
	ButtonsPoll = "poll"
	ButtonsNone = "none"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config is the complete daemon configuration.
type Config struct {
	Durations DurationsConfig `toml:"durations" yaml:"durations"`
	Limits    LimitsConfig    `toml:"limits" yaml:"limits"`
	Control   ControlConfig   `toml:"control" yaml:"control"`
	GPIO      GPIOConfig      `toml:"gpio" yaml:"gpio"`
	Serial    SerialConfig    `toml:"serial" yaml:"serial"`
	MQTT      mqtt.Config     `toml:"mqtt" yaml:"mqtt"`
	HTTP      HTTPConfig      `toml:"http" yaml:"http"`
	Logging   logging.Config  `toml:"logging" yaml:"logging"`
}

// DurationsConfig holds the initial lamp hold times in milliseconds.
type DurationsConfig struct {
	RedMs    int `toml:"red_ms" yaml:"red_ms" env:"RED_MS"`
	YellowMs int `toml:"yellow_ms" yaml:"yellow_ms" env:"YELLOW_MS"`
	GreenMs  int `toml:"green_ms" yaml:"green_ms" env:"GREEN_MS"`
}

// LimitsConfig bounds the durations accepted from commands.
type LimitsConfig struct {
	RedMinMs    int `toml:"red_min_ms" yaml:"red_min_ms"`
	RedMaxMs    int `toml:"red_max_ms" yaml:"red_max_ms"`
	YellowMinMs int `toml:"yellow_min_ms" yaml:"yellow_min_ms"`
	YellowMaxMs int `toml:"yellow_max_ms" yaml:"yellow_max_ms"`
	GreenMinMs  int `toml:"green_min_ms" yaml:"green_min_ms"`
	GreenMaxMs  int `toml:"green_max_ms" yaml:"green_max_ms"`
}

// ControlConfig tunes the control loop.
type ControlConfig struct {
	AnalogMax    int   `toml:"analog_max" yaml:"analog_max" env:"ANALOG_MAX"`
	ButtonQueue  int   `toml:"button_queue" yaml:"button_queue"`
	CommandQueue int   `toml:"command_queue" yaml:"command_queue"`
	Notices      bool  `toml:"notices" yaml:"notices" env:"NOTICES"`
	HeartbeatMs  int64 `toml:"heartbeat_ms" yaml:"heartbeat_ms" env:"HEARTBEAT_MS"`
}

// GPIOConfig selects and configures the hardware drivers.
type GPIOConfig struct {
	Chip        string `toml:"chip" yaml:"chip" env:"GPIO_CHIP"`
	Lights      string `toml:"lights" yaml:"lights" env:"LIGHTS"`
	LampPins    []int  `toml:"lamp_pins" yaml:"lamp_pins" env:"LAMP_PINS"`
	PWMChip     string `toml:"pwm_chip" yaml:"pwm_chip" env:"PWM_CHIP"`
	PWMChannels []int  `toml:"pwm_channels" yaml:"pwm_channels" env:"PWM_CHANNELS"`
	PWMPeriodUs int    `toml:"pwm_period_us" yaml:"pwm_period_us"`
	Buttons     string `toml:"buttons" yaml:"buttons" env:"BUTTONS"`
	ButtonPins  []int  `toml:"button_pins" yaml:"button_pins" env:"BUTTON_PINS"`
	DebounceMs  int    `toml:"debounce_ms" yaml:"debounce_ms" env:"DEBOUNCE_MS"`
	PollMs      int    `toml:"poll_ms" yaml:"poll_ms"`
	AnalogPath  string `toml:"analog_path" yaml:"analog_path" env:"ANALOG_PATH"`
}

// SerialConfig is the command/status line.
type SerialConfig struct {
	Port string `toml:"port" yaml:"port" env:"SERIAL_PORT"`
	Baud int    `toml:"baud" yaml:"baud" env:"SERIAL_BAUD"`
}

// HTTPConfig configures the status server.
type HTTPConfig struct {
	Addr     string `toml:"addr" yaml:"addr" env:"HTTP_ADDR"`
	WSBroker string `toml:"ws_broker" yaml:"ws_broker" env:"WS_BROKER"`
}

// Default returns the built-in configuration.
func Default() Config {
	d := logic.DefaultDurations()
	l := logic.DefaultLimits()
	return Config{
		Durations: DurationsConfig{
			RedMs:    int(d.Red.Milliseconds()),
			YellowMs: int(d.Yellow.Milliseconds()),
			GreenMs:  int(d.Green.Milliseconds()),
		},
		Limits: LimitsConfig{
			RedMinMs:    int(l.Red.Min.Milliseconds()),
			RedMaxMs:    int(l.Red.Max.Milliseconds()),
			YellowMinMs: int(l.Yellow.Min.Milliseconds()),
			YellowMaxMs: int(l.Yellow.Max.Milliseconds()),
			GreenMinMs:  int(l.Green.Min.Milliseconds()),
			GreenMaxMs:  int(l.Green.Max.Milliseconds()),
		},
		Control: ControlConfig{
			AnalogMax:    logic.DefaultAnalogMax,
			ButtonQueue:  16,
			CommandQueue: 32,
			Notices:      true,
			HeartbeatMs:  (15 * time.Minute).Milliseconds(),
		},
		GPIO: GPIOConfig{
			Chip:        gpio.DefaultChip,
			Lights:      LightsPWM,
			LampPins:    append([]int(nil), gpio.DefaultLampPins[:]...),
			PWMChip:     gpio.DefaultPWMChip,
			PWMChannels: []int{0, 1, 2},
			PWMPeriodUs: int(gpio.DefaultPWMPeriod.Microseconds()),
			Buttons:     ButtonsEdge,
			ButtonPins:  append([]int(nil), gpio.DefaultButtonPins[:]...),
			DebounceMs:  50,
			PollMs:      10,
			AnalogPath:  gpio.DefaultAnalogPath,
		},
		Serial: SerialConfig{
			Port: "/dev/ttyAMA0",
			Baud: serialport.DefaultBaud,
		},
		MQTT: mqtt.Config{
			Broker:     "tcp://192.168.1.200:1883",
			ClientID:   "traffic-light",
			Prefix:     mqtt.DefaultPrefix,
			BufferSize: 100,
		},
		HTTP: HTTPConfig{
			Addr:     ":80",
			WSBroker: "=broker",
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load returns the defaults overlaid with the file at path (if any) and
// the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension (want .toml, .yaml or .yml)", path)
	}
	return nil
}

// ApplyEnv overrides every field carrying an env tag from lookup, using
// EnvPrefix + tag as the variable name. Int slices are comma-separated.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	return applyEnv(reflect.ValueOf(cfg).Elem(), lookup)
}

func applyEnv(v reflect.Value, lookup func(string) (string, bool)) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct {
			if err := applyEnv(field, lookup); err != nil {
				return err
			}
			continue
		}
		key := t.Field(i).Tag.Get("env")
		if key == "" {
			continue
		}
		value, ok := lookup(EnvPrefix + key)
		if !ok || value == "" {
			continue
		}
		if err := setFromString(field, value); err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
	}
	return nil
}

func setFromString(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.Int {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		ints, err := ParseInts(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(ints))
	default:
		return fmt.Errorf("unsupported type %s", field.Type())
	}
	return nil
}

// ParseInts parses a comma-separated list such as "17,27,22".
func ParseInts(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Validate checks the configuration for values the daemon cannot run with.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	switch c.GPIO.Lights {
	case LightsPWM, LightsDigital, LightsSim:
	default:
		bad("gpio.lights %q (want pwm, digital or sim)", c.GPIO.Lights)
	}
	switch c.GPIO.Buttons {
	case ButtonsEdge, ButtonsPoll, ButtonsNone:
	default:
		bad("gpio.buttons %q (want edge, poll or none)", c.GPIO.Buttons)
	}
	if len(c.GPIO.LampPins) != 3 {
		bad("gpio.lamp_pins needs 3 entries, got %d", len(c.GPIO.LampPins))
	}
	if len(c.GPIO.ButtonPins) != 3 {
		bad("gpio.button_pins needs 3 entries, got %d", len(c.GPIO.ButtonPins))
	}
	if len(c.GPIO.PWMChannels) != 3 {
		bad("gpio.pwm_channels needs 3 entries, got %d", len(c.GPIO.PWMChannels))
	}
	if c.GPIO.DebounceMs < 0 {
		bad("gpio.debounce_ms must not be negative")
	}
	if c.GPIO.Buttons == ButtonsPoll && c.GPIO.PollMs <= 0 {
		bad("gpio.poll_ms must be positive when polling buttons")
	}
	if c.Control.AnalogMax <= 0 {
		bad("control.analog_max must be positive")
	}
	if c.Control.HeartbeatMs < 0 {
		bad("control.heartbeat_ms must not be negative")
	}
	if c.Serial.Baud <= 0 {
		bad("serial.baud must be positive")
	}

	limits := c.LogicLimits()
	durations := c.LogicDurations()
	for _, col := range logic.Colors {
		r := limits.For(col)
		if r.Min <= 0 || r.Min > r.Max {
			bad("limits for %s: min %v max %v", col, r.Min, r.Max)
			continue
		}
		if d := durations.Get(col); !r.Contains(d) {
			bad("durations.%s_ms %d outside %d..%d", strings.ToLower(col.String()),
				d.Milliseconds(), r.Min.Milliseconds(), r.Max.Milliseconds())
		}
	}
	return errors.Join(errs...)
}

// LogicDurations converts the configured hold times.
func (c Config) LogicDurations() logic.Durations {
	return logic.Durations{
		Red:    ms(c.Durations.RedMs),
		Yellow: ms(c.Durations.YellowMs),
		Green:  ms(c.Durations.GreenMs),
	}
}

// LogicLimits converts the configured duration bounds.
func (c Config) LogicLimits() logic.Limits {
	return logic.Limits{
		Red:    logic.Range{Min: ms(c.Limits.RedMinMs), Max: ms(c.Limits.RedMaxMs)},
		Yellow: logic.Range{Min: ms(c.Limits.YellowMinMs), Max: ms(c.Limits.YellowMaxMs)},
		Green:  logic.Range{Min: ms(c.Limits.GreenMinMs), Max: ms(c.Limits.GreenMaxMs)},
	}
}

// Controller returns the controller configuration. The observer is left
// for the caller.
func (c Config) Controller() logic.Config {
	return logic.Config{
		Durations:        c.LogicDurations(),
		Limits:           c.LogicLimits(),
		AnalogMax:        c.Control.AnalogMax,
		ButtonQueueSize:  c.Control.ButtonQueue,
		CommandQueueSize: c.Control.CommandQueue,
	}
}

// DurationCommands returns the command lines that move a running controller
// from old's durations to next's, one per changed color.
func DurationCommands(old, next Config) []string {
	from, to := old.LogicDurations(), next.LogicDurations()
	var lines []string
	for _, col := range logic.Colors {
		if d := to.Get(col); d != from.Get(col) {
			cmd := logic.Command{Kind: logic.CommandSetDuration, Color: col, Duration: d}
			lines = append(lines, cmd.String())
		}
	}
	return lines
}

// Pins converts a validated three-entry slice.
func Pins(s []int) [3]int {
	var p [3]int
	copy(p[:], s)
	return p
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
