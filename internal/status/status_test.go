package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/traffic-light/internal/logic"
)

func sampleController() logic.Snapshot {
	return logic.Snapshot{
		State:      logic.State{Mode: logic.ModeNormal, Phase: logic.PhaseGreen},
		LED:        "Green",
		Brightness: 200,
		Duties:     [3]uint8{0, 0, 200},
		Durations:  logic.DefaultDurations(),
		Counts:     logic.Counts{Cycles: 4, ModeChanges: 2, CommandsApplied: 3, CommandsRejected: 1, ButtonsDropped: 5},
	}
}

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Lights: "pwm", Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.Lights != "pwm" {
		t.Errorf("Config.Lights: got %q, want pwm", snap.Config.Lights)
	}
	if snap.Running {
		t.Error("expected Running=false before the first update")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(sampleController())

	snap := tr.Snapshot()
	if !snap.Running {
		t.Error("expected Running=true")
	}
	if snap.Controller.State.Phase != logic.PhaseGreen {
		t.Errorf("Phase: got %s, want Green", snap.Controller.State.Phase)
	}
	if snap.Controller.Counts.Cycles != 4 {
		t.Errorf("Cycles: got %d, want 4", snap.Controller.Counts.Cycles)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetworkAndConfig(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})
	tr.SetConfig(Config{Prefix: "junction/1"})

	snap := tr.Snapshot()
	if snap.Network == nil || snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network: got %+v", snap.Network)
	}
	if snap.Config.Prefix != "junction/1" {
		t.Errorf("Config.Prefix: got %q", snap.Config.Prefix)
	}
}

func TestReadNetworkInfo(t *testing.T) {
	t.Setenv("NETWORK_STATUS", "")
	if ReadNetworkInfo() != nil {
		t.Error("expected nil without pi-helper env")
	}

	t.Setenv("NETWORK_STATUS", "connected")
	t.Setenv("NETWORK_TYPE", "wifi")
	t.Setenv("NETWORK_IP", "10.0.0.7")
	t.Setenv("NETWORK_WIFI_SSID", "Junction")

	info := ReadNetworkInfo()
	if info == nil {
		t.Fatal("expected network info")
	}
	if info.IP != "10.0.0.7" || info.SSID != "Junction" || info.Type != "wifi" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(sampleController())

	snap1 := tr.Snapshot()

	next := sampleController()
	next.State = logic.State{Mode: logic.ModePowerOff}
	tr.Update(next)

	if snap1.Controller.State.Mode != logic.ModeNormal {
		t.Error("snapshot should be a copy; mode was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Controller:    sampleController(),
		Running:       true,
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{Lights: "pwm", HeartbeatMs: 900000, Broker: "tcp://localhost:1883", HTTPAddr: ":80"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.Mode != "NORMAL" || s.Phase != "Green" || s.LED != "Green" {
		t.Errorf("state: got mode=%q phase=%q led=%q", s.Mode, s.Phase, s.LED)
	}
	if s.Line != "MODE:NORMAL, LED:Green, Brightness:200" {
		t.Errorf("Line: got %q", s.Line)
	}
	if s.Lamps.Green != 200 || s.Lamps.Red != 0 {
		t.Errorf("Lamps: got %+v", s.Lamps)
	}
	if s.Durations.Red != 2000 || s.Durations.Yellow != 500 {
		t.Errorf("Durations: got %+v", s.Durations)
	}
	if !s.Running {
		t.Error("expected Running=true")
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if !s.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if s.Counts.ButtonsDropped != 5 || s.Counts.CommandsRejected != 1 {
		t.Errorf("Counts: got %+v", s.Counts)
	}
	if s.Event != "" || s.Reason != "" {
		t.Errorf("expected no event/reason for web format, got %q/%q", s.Event, s.Reason)
	}
}

func TestFormatJSONBeforeFirstTick(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.LED != "OFF" {
		t.Errorf("LED: got %q, want OFF", parsed.Status.LED)
	}
	if parsed.Status.Phase != "None" {
		t.Errorf("Phase: got %q, want None", parsed.Status.Phase)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Controller: sampleController(),
		StartTime:  start,
		Now:        start.Add(30 * time.Minute),
		Config:     Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
	if parsed.Status.UptimeSeconds != 1800 {
		t.Errorf("UptimeSeconds: got %d, want 1800", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC),
		Network:   &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"},
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			cs := sampleController()
			cs.Counts.Cycles = i
			tr.Update(cs)
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
		}
	}()

	wg.Wait()
}
