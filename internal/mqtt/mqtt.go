// Package mqtt publishes controller status and lifecycle events to an MQTT
// broker and feeds command lines received from it back into the controller.
package mqtt

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/sweeney/traffic-light/internal/logging"
	"github.com/sweeney/traffic-light/internal/logic"
)

var log = logging.GetLogger("mqtt")

// DefaultPrefix is the topic prefix used unless configured otherwise.
const DefaultPrefix = "traffic/light"

// Topics are the three topics under a prefix.
type Topics struct {
	Status  string // status lines as JSON, QoS 0
	System  string // STARTUP/SHUTDOWN/HEARTBEAT/RECONNECTED, QoS 1, LWT
	Command string // subscribed; payload is one or more command lines
}

// TopicsFor returns the topics under prefix.
func TopicsFor(prefix string) Topics {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{
		Status:  prefix + "/status",
		System:  prefix + "/system",
		Command: prefix + "/command",
	}
}

// Publisher publishes to MQTT.
type Publisher interface {
	// PublishStatus sends one status line. Returns error if publishing fails
	// (should not crash the process).
	PublishStatus(st logic.Status, ts time.Time) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// CommandSource delivers command lines received from the broker.
type CommandSource interface {
	// SubscribeCommands calls handler for every command line received. It
	// stays subscribed across reconnects.
	SubscribeCommands(handler func(line string)) error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload is the status message payload.
type Payload struct {
	TrafficLight StatusPayload `json:"traffic_light"`
}

// StatusPayload contains one status emission.
type StatusPayload struct {
	Timestamp  string `json:"timestamp"`
	Mode       string `json:"mode"`
	LED        string `json:"led"`
	Brightness uint8  `json:"brightness"`
	Line       string `json:"line"`
}

// FormatStatusPayload creates the JSON payload for a status emission.
func FormatStatusPayload(st logic.Status, ts time.Time) ([]byte, error) {
	return json.Marshal(Payload{
		TrafficLight: StatusPayload{
			Timestamp:  ts.UTC().Format(time.RFC3339Nano),
			Mode:       st.Mode.String(),
			LED:        st.LED,
			Brightness: st.Brightness,
			Line:       st.String(),
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}

// commandJSON is the structured form of a command message.
type commandJSON struct {
	Line  string   `json:"line"`
	Lines []string `json:"lines"`
}

// ParseCommandPayload extracts command lines from a command message. The
// payload is either plain text, one command per line, or a JSON object
// {"line": "..."} / {"lines": [...]}. Blank lines are dropped; the lines are
// not validated here.
func ParseCommandPayload(payload []byte) []string {
	payload = bytes.TrimSpace(payload)
	var raw []string

	var cj commandJSON
	if len(payload) > 0 && payload[0] == '{' && json.Unmarshal(payload, &cj) == nil {
		if cj.Line != "" {
			raw = append(raw, cj.Line)
		}
		raw = append(raw, cj.Lines...)
	} else {
		raw = strings.Split(string(payload), "\n")
	}

	var lines []string
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
