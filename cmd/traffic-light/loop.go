package main

import (
	"os"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/sweeney/traffic-light/internal/gpio"
	"github.com/sweeney/traffic-light/internal/logic"
	"github.com/sweeney/traffic-light/internal/metrics"
	"github.com/sweeney/traffic-light/internal/mqtt"
	"github.com/sweeney/traffic-light/internal/status"
)

// waitFunc returns a channel that fires when the loop should tick again,
// given the next task deadline (armed is false when no task is armed).
type waitFunc func(deadline time.Time, armed bool) <-chan time.Time

// deadlineWait sleeps until the next deadline but never longer than idle,
// so queued buttons and commands are picked up promptly.
func deadlineWait(now func() time.Time, idle time.Duration) waitFunc {
	return func(deadline time.Time, armed bool) <-chan time.Time {
		d := idle
		if armed {
			if until := deadline.Sub(now()); until < d {
				d = until
			}
		}
		if d < 0 {
			d = 0
		}
		return time.After(d)
	}
}

// loop owns the controller. Everything else talks to it through Post and
// Submit or reads the tracker.
type loop struct {
	ctrl       *logic.Controller
	publisher  mqtt.Publisher // nil when MQTT is disabled
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	metrics    *metrics.Metrics // optional

	// Poll-mode buttons; nil when the buttons deliver edge events or are absent.
	buttons   gpio.LevelReader
	debouncer *logic.Debouncer

	heartbeat time.Duration
	watchdog  time.Duration
	notify    func(state string)
	now       func() time.Time
}

func (l *loop) run(wait waitFunc, sig <-chan os.Signal) error {
	l.ctrl.Start()
	l.notify(daemon.SdNotifyReady)

	start := l.now()
	lastHeartbeat, lastWatchdog := start, start

	for {
		l.step()

		t := l.now()
		if l.heartbeat > 0 && t.Sub(lastHeartbeat) >= l.heartbeat {
			l.publishHeartbeat(t)
			lastHeartbeat = t
		}
		if l.watchdog > 0 && t.Sub(lastWatchdog) >= l.watchdog {
			l.notify(daemon.SdNotifyWatchdog)
			lastWatchdog = t
		}

		next, armed := l.ctrl.NextDeadline()
		select {
		case s := <-sig:
			l.notify(daemon.SdNotifyStopping)
			l.shutdown(s)
			return nil
		case <-wait(next, armed):
		}
	}
}

// step polls the buttons (poll mode), runs one controller tick and
// refreshes the tracker and metrics.
func (l *loop) step() {
	if l.buttons != nil {
		levels, err := l.buttons.Read()
		if err != nil {
			log.Warn("Button read failed", "error", err)
		} else {
			for _, b := range l.debouncer.Process(logic.ButtonSample{Pressed: levels, Time: l.now()}) {
				if !l.ctrl.Post(b) {
					log.Warn("Button queue full, dropping", "button", b)
				}
			}
		}
	}

	l.ctrl.Tick()

	snap := l.ctrl.Snapshot()
	l.tracker.Update(snap)
	connected := l.mqttStatus != nil && l.mqttStatus.IsConnected()
	l.tracker.SetMQTTConnected(connected)
	if l.metrics != nil {
		l.metrics.Observe(snap)
		l.metrics.SetMQTTConnected(connected)
	}
}

func (l *loop) publishHeartbeat(t time.Time) {
	if net := status.ReadNetworkInfo(); net != nil {
		l.tracker.SetNetwork(net)
	}
	snap := l.tracker.Snapshot()
	cs := snap.Controller
	log.Info("Heartbeat",
		"uptime", snap.Uptime().Truncate(time.Second),
		"mode", cs.State.Mode.String(),
		"cycles", cs.Counts.Cycles,
		"mode_changes", cs.Counts.ModeChanges,
		"commands", cs.Counts.CommandsApplied)

	if l.publisher == nil {
		return
	}
	event := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Warn("Heartbeat publish failed", "error", err)
	}
}

func (l *loop) shutdown(s os.Signal) {
	reason := signalName(s)
	log.Info("Shutting down", "signal", reason)
	if l.publisher == nil {
		return
	}

	snap := l.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  l.now(),
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		log.Warn("Shutdown publish failed", "error", err)
	} else {
		log.Info("Published shutdown event")
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// sdNotify reports state to systemd; outside systemd it does nothing.
func sdNotify(state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		log.Debug("sd_notify failed", "state", state, "error", err)
	}
}
