package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sweeney/traffic-light/internal/config"
	"github.com/sweeney/traffic-light/internal/events"
	"github.com/sweeney/traffic-light/internal/gpio"
	"github.com/sweeney/traffic-light/internal/logging"
	"github.com/sweeney/traffic-light/internal/logic"
	"github.com/sweeney/traffic-light/internal/metrics"
	"github.com/sweeney/traffic-light/internal/mqtt"
	"github.com/sweeney/traffic-light/internal/serialport"
	"github.com/sweeney/traffic-light/internal/status"
	"github.com/sweeney/traffic-light/internal/web"
)

// runFlags are the run command's overrides. Only flags the user set are
// applied, so they sit on top of the file and environment.
type runFlags struct {
	sim       bool
	simAnalog int
	lights    string
	buttons   string
	serial    string
	baud      int
	broker    string
	prefix    string
	httpAddr  string
	wsBroker  string
	heartbeat time.Duration
	analogMax int
	notices   bool
	logLevel  string
}

func buildRunCommand() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the traffic-light controller",
		Long: `Run the phase ring, the override modes and the brightness sampler,
reading commands from the serial line and MQTT and writing status lines back.

With --sim the lamps and the brightness sensor are simulated, commands are
read from stdin and status lines go to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			override := func(cfg *config.Config) { f.apply(cmd.Flags(), cfg) }
			cfg, err := loadConfig(override)
			if err != nil {
				return err
			}
			return runDaemon(cfg, override, f.simAnalog)
		},
	}

	f.register(cmd.Flags())
	return cmd
}

func (f *runFlags) register(fs *pflag.FlagSet) {
	fs.BoolVar(&f.sim, "sim", false, "Simulate lamps and sensor; commands on stdin, status on stdout")
	fs.IntVar(&f.simAnalog, "sim-analog", logic.DefaultAnalogMax, "Fixed brightness reading in simulation")
	fs.StringVar(&f.lights, "lights", config.LightsPWM, "Lamp driver: pwm, digital or sim")
	fs.StringVar(&f.buttons, "buttons", config.ButtonsEdge, "Button driver: edge, poll or none")
	fs.StringVar(&f.serial, "serial", "/dev/ttyAMA0", `Serial port for commands and status ("-" for stdio)`)
	fs.IntVar(&f.baud, "baud", serialport.DefaultBaud, "Serial baud rate")
	fs.StringVar(&f.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	fs.StringVar(&f.prefix, "prefix", mqtt.DefaultPrefix, "MQTT topic prefix")
	fs.StringVar(&f.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	fs.StringVar(&f.wsBroker, "ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)
	fs.DurationVar(&f.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	fs.IntVar(&f.analogMax, "analog-max", logic.DefaultAnalogMax, "Full-scale analog reading")
	fs.BoolVar(&f.notices, "notices", true, "Write stage and mode notices to the serial line")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
}

// apply copies every flag the user set onto cfg.
func (f *runFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("sim") && f.sim {
		cfg.GPIO.Lights = config.LightsSim
		cfg.GPIO.Buttons = config.ButtonsNone
		cfg.Serial.Port = serialport.Stdio
	}
	if fs.Changed("lights") {
		cfg.GPIO.Lights = f.lights
	}
	if fs.Changed("buttons") {
		cfg.GPIO.Buttons = f.buttons
	}
	if fs.Changed("serial") {
		cfg.Serial.Port = f.serial
	}
	if fs.Changed("baud") {
		cfg.Serial.Baud = f.baud
	}
	if fs.Changed("broker") {
		cfg.MQTT.Broker = f.broker
	}
	if fs.Changed("prefix") {
		cfg.MQTT.Prefix = f.prefix
	}
	if fs.Changed("http") {
		cfg.HTTP.Addr = f.httpAddr
	}
	if fs.Changed("ws-broker") {
		cfg.HTTP.WSBroker = f.wsBroker
	}
	if fs.Changed("heartbeat") {
		cfg.Control.HeartbeatMs = f.heartbeat.Milliseconds()
	}
	if fs.Changed("analog-max") {
		cfg.Control.AnalogMax = f.analogMax
	}
	if fs.Changed("notices") {
		cfg.Control.Notices = f.notices
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
}

// loadConfig loads the file named by --config, applies override and
// validates the result.
func loadConfig(override func(*config.Config)) (config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if override != nil {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runDaemon(cfg config.Config, override func(*config.Config), simAnalog int) error {
	logging.Initialize(cfg.Logging)
	wsBroker := resolveWSBroker(cfg.HTTP.WSBroker, cfg.MQTT.Broker)

	bus := events.New()
	defer bus.Close()

	// Serial line: commands in, status out.
	port, err := serialport.Open(serialport.Config{Port: cfg.Serial.Port, Baud: cfg.Serial.Baud})
	if err != nil {
		return fmt.Errorf("open serial: %w", err)
	}
	defer port.Close()
	bridge := events.NewBridge(bus, serialport.NewLineSink(port, cfg.Control.Notices), time.Now)

	lights, analog, err := openHardware(cfg, simAnalog)
	if err != nil {
		return err
	}
	defer analog.Close()
	defer func() {
		if err := lights.Close(); err != nil {
			log.Warn("Failed to release lamps", "error", err)
		}
	}()

	ctrlCfg := cfg.Controller()
	ctrlCfg.Observer = bridge
	ctrl := logic.NewController(time.Now, lights, analog, bridge, ctrlCfg)

	lp := &loop{
		ctrl:      ctrl,
		heartbeat: time.Duration(cfg.Control.HeartbeatMs) * time.Millisecond,
		notify:    sdNotify,
		now:       time.Now,
	}

	switch cfg.GPIO.Buttons {
	case config.ButtonsEdge:
		debounce := time.Duration(cfg.GPIO.DebounceMs) * time.Millisecond
		w, err := gpio.WatchButtons(cfg.GPIO.Chip, config.Pins(cfg.GPIO.ButtonPins), debounce, func(b logic.Button) {
			if !ctrl.Post(b) {
				log.Warn("Button queue full, dropping", "button", b)
			}
		})
		if err != nil {
			return fmt.Errorf("init buttons: %w", err)
		}
		defer w.Close()
	case config.ButtonsPoll:
		r, err := gpio.NewButtonReader(cfg.GPIO.Chip, config.Pins(cfg.GPIO.ButtonPins))
		if err != nil {
			return fmt.Errorf("init buttons: %w", err)
		}
		defer r.Close()
		lp.buttons = r
		lp.debouncer = logic.NewDebouncer(time.Duration(cfg.GPIO.DebounceMs) * time.Millisecond)
	}

	// Metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	lp.metrics = metrics.New(reg)
	defer lp.metrics.Subscribe(bus)()

	// Status tracker (before STARTUP so the snapshot is available).
	tracker := status.NewTracker(time.Now(), statusConfig(cfg, wsBroker))
	if net := status.ReadNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	lp.tracker = tracker

	// MQTT.
	if cfg.MQTT.Broker != "" {
		pub := mqtt.NewRealPublisher(cfg.MQTT)
		defer pub.Close()
		defer mqtt.ForwardStatus(bus, pub)()
		if err := pub.SubscribeCommands(func(line string) {
			if !ctrl.Submit(line) {
				log.Warn("Command queue full, dropping", "line", line, "source", "mqtt")
			}
		}); err != nil {
			log.Warn("Command subscription failed", "error", err)
		}
		lp.publisher = pub
		lp.mqttStatus = pub

		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := pub.PublishSystem(startup); err != nil {
			log.Warn("Startup publish failed", "error", err)
		} else {
			log.Info("Published startup event")
		}
	}

	// HTTP.
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, web.Options{
			Tracker:  tracker,
			Submit:   ctrl.Submit,
			Bus:      bus,
			Gatherer: reg,
		})
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("HTTP server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
	}

	// Serial commands.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		err := serialport.ReadLines(ctx, port, func(line string) {
			if !ctrl.Submit(line) {
				log.Warn("Command queue full, dropping", "line", line, "source", "serial")
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("Serial input stopped", "error", err)
		} else {
			log.Info("Serial input closed")
		}
	}()

	// Config reload: replay changed durations as commands.
	if configFile != "" {
		w := config.NewWatcher(configFile, 0)
		current := cfg
		w.OnReload(func(next config.Config) {
			override(&next)
			for _, line := range config.DurationCommands(current, next) {
				log.Info("Applying reloaded duration", "command", line)
				if !ctrl.Submit(line) {
					log.Warn("Command queue full, dropping", "line", line, "source", "config")
				}
			}
			logging.Initialize(next.Logging)
			tracker.SetConfig(statusConfig(next, resolveWSBroker(next.HTTP.WSBroker, next.MQTT.Broker)))
			current = next
		})
		if err := w.Start(); err != nil {
			log.Warn("Config watcher not started", "error", err)
		} else {
			defer w.Stop()
		}
	}

	if interval, err := daemon.SdWatchdogEnabled(false); err == nil && interval > 0 {
		lp.watchdog = interval / 2
	}

	log.Info("Started",
		"lights", cfg.GPIO.Lights,
		"buttons", cfg.GPIO.Buttons,
		"serial", cfg.Serial.Port,
		"broker", cfg.MQTT.Broker,
		"durations", ctrl.Durations(),
		"heartbeat", lp.heartbeat)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	idle := time.Duration(cfg.GPIO.PollMs) * time.Millisecond
	if idle <= 0 {
		idle = 10 * time.Millisecond
	}
	return lp.run(deadlineWait(time.Now, idle), sigCh)
}

// openHardware opens the lamp driver and the brightness sensor. A missing
// ADC is not fatal: the lamps then run at full brightness.
func openHardware(cfg config.Config, simAnalog int) (gpio.Lights, gpio.Analog, error) {
	var lights gpio.Lights
	switch cfg.GPIO.Lights {
	case config.LightsSim:
		return gpio.NewSimLights(), gpio.FixedAnalog(simAnalog), nil
	case config.LightsDigital:
		l, err := gpio.NewDigitalLights(cfg.GPIO.Chip, config.Pins(cfg.GPIO.LampPins))
		if err != nil {
			return nil, nil, fmt.Errorf("init lamps: %w", err)
		}
		lights = l
	default:
		period := time.Duration(cfg.GPIO.PWMPeriodUs) * time.Microsecond
		l, err := gpio.NewPWMLights(cfg.GPIO.PWMChip, config.Pins(cfg.GPIO.PWMChannels), period)
		if err != nil {
			return nil, nil, fmt.Errorf("init lamps: %w", err)
		}
		lights = l
	}

	analog, err := gpio.NewIIOAnalog(cfg.GPIO.AnalogPath)
	if err != nil {
		log.Warn("No brightness sensor, using full scale", "path", cfg.GPIO.AnalogPath, "error", err)
		return lights, gpio.FixedAnalog(cfg.Control.AnalogMax), nil
	}
	return lights, analog, nil
}

func statusConfig(cfg config.Config, wsBroker string) status.Config {
	return status.Config{
		Lights:      cfg.GPIO.Lights,
		Buttons:     cfg.GPIO.Buttons,
		SerialPort:  cfg.Serial.Port,
		Baud:        cfg.Serial.Baud,
		AnalogMax:   cfg.Control.AnalogMax,
		HeartbeatMs: cfg.Control.HeartbeatMs,
		Broker:      cfg.MQTT.Broker,
		Prefix:      cfg.MQTT.Prefix,
		HTTPAddr:    cfg.HTTP.Addr,
		WSBroker:    wsBroker,
		ConfigFile:  configFile,
	}
}

// resolveWSBroker converts the ws-broker setting into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; "off" or
// an empty broker disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" || ws == "" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	if broker == "" {
		return ""
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Warn("ws-broker: cannot parse broker", "broker", broker, "error", err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
