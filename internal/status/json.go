package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/traffic-light/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Mode          string       `json:"mode" example:"NORMAL"`
	Phase         string       `json:"phase" example:"Red"`
	LED           string       `json:"led" example:"Red"`
	Brightness    uint8        `json:"brightness" example:"255"`
	Line          string       `json:"line" example:"MODE:NORMAL, LED:Red, Brightness:255" doc:"Status line as written to the serial port"`
	Lamps         LampsJSON    `json:"lamps"`
	Durations     LampsMsJSON  `json:"durations_ms"`
	Running       bool         `json:"running"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// LampsJSON holds one duty per lamp.
type LampsJSON struct {
	Red    uint8 `json:"red"`
	Yellow uint8 `json:"yellow"`
	Green  uint8 `json:"green"`
}

// LampsMsJSON holds one duration per lamp in milliseconds.
type LampsMsJSON struct {
	Red    int64 `json:"red"`
	Yellow int64 `json:"yellow"`
	Green  int64 `json:"green"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of controller counters.
type CountsJSON struct {
	Cycles           int    `json:"cycles"`
	ModeChanges      int    `json:"mode_changes"`
	CommandsApplied  int    `json:"commands_applied"`
	CommandsRejected int    `json:"commands_rejected"`
	ButtonsDropped   uint64 `json:"buttons_dropped"`
	SampleErrors     int    `json:"sample_errors"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Lights      string `json:"lights"`
	Buttons     string `json:"buttons"`
	SerialPort  string `json:"serial_port"`
	Baud        int    `json:"baud"`
	AnalogMax   int    `json:"analog_max"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	Prefix      string `json:"prefix"`
	HTTPAddr    string `json:"http_addr"`
	WSBroker    string `json:"ws_broker,omitempty"`
	ConfigFile  string `json:"config_file,omitempty"`
}

// Build converts a snapshot to its JSON form.
func Build(snap Snapshot) StatusInner {
	cs := snap.Controller
	st := logic.Status{Mode: cs.State.Mode, LED: cs.LED, Brightness: cs.Brightness}
	if st.LED == "" {
		st.LED = logic.LEDOff
	}

	inner := StatusInner{
		Mode:       cs.State.Mode.String(),
		Phase:      cs.State.Phase.String(),
		LED:        st.LED,
		Brightness: cs.Brightness,
		Line:       st.String(),
		Lamps: LampsJSON{
			Red:    cs.Duties[logic.Red],
			Yellow: cs.Duties[logic.Yellow],
			Green:  cs.Duties[logic.Green],
		},
		Durations: LampsMsJSON{
			Red:    cs.Durations.Red.Milliseconds(),
			Yellow: cs.Durations.Yellow.Milliseconds(),
			Green:  cs.Durations.Green.Milliseconds(),
		},
		Running:       snap.Running,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Cycles:           cs.Counts.Cycles,
			ModeChanges:      cs.Counts.ModeChanges,
			CommandsApplied:  cs.Counts.CommandsApplied,
			CommandsRejected: cs.Counts.CommandsRejected,
			ButtonsDropped:   cs.Counts.ButtonsDropped,
			SampleErrors:     cs.Counts.SampleErrors,
		},
		Config: ConfigJSON{
			Lights:      snap.Config.Lights,
			Buttons:     snap.Config.Buttons,
			SerialPort:  snap.Config.SerialPort,
			Baud:        snap.Config.Baud,
			AnalogMax:   snap.Config.AnalogMax,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			Prefix:      snap.Config.Prefix,
			HTTPAddr:    snap.Config.HTTPAddr,
			WSBroker:    snap.Config.WSBroker,
			ConfigFile:  snap.Config.ConfigFile,
		},
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: Build(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := Build(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
