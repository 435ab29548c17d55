package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/traffic-light/internal/logic"
)

// Config configures the broker connection.
type Config struct {
	Broker     string `toml:"broker" yaml:"broker"`
	ClientID   string `toml:"client_id" yaml:"client_id"`
	Prefix     string `toml:"prefix" yaml:"prefix"`
	Username   string `toml:"username" yaml:"username"`
	Password   string `toml:"password" yaml:"password"`
	BufferSize int    `toml:"buffer_size" yaml:"buffer_size"`
}

const (
	defaultClientID   = "traffic-light"
	defaultBufferSize = 100
	publishTimeout    = 5 * time.Second
)

// errNotConnected is returned for messages that were buffered or dropped
// because the broker is unreachable.
var errNotConnected = errors.New("mqtt: not connected")

// RealPublisher publishes to an actual MQTT broker. It connects in the
// background and keeps retrying, so a missing broker never blocks startup.
// System events published while offline are buffered and replayed on
// reconnect; status messages are dropped since a newer one always follows.
type RealPublisher struct {
	client paho.Client
	topics Topics

	mu      sync.Mutex
	buffer  *ringBuffer
	handler func(string)
	everUp  bool
	clock   func() time.Time
}

// NewRealPublisher creates a publisher for the configured broker. The
// retained LWT on the system topic reports OFFLINE if the process dies.
func NewRealPublisher(cfg Config) *RealPublisher {
	if cfg.ClientID == "" {
		cfg.ClientID = defaultClientID
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}

	p := &RealPublisher{
		topics: TopicsFor(cfg.Prefix),
		buffer: newRingBuffer(cfg.BufferSize),
		clock:  time.Now,
	}

	will, _ := FormatSystemPayload(SystemEvent{Timestamp: p.clock(), Event: "OFFLINE", Reason: "MQTT_DISCONNECT"})

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetMaxReconnectInterval(time.Minute).
		SetWill(p.topics.System, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn("Connection lost", "broker", cfg.Broker, "error", err)
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}

	p.client = paho.NewClient(opts)
	p.client.Connect()
	log.Info("Connecting", "broker", cfg.Broker, "client_id", cfg.ClientID, "prefix", cfg.Prefix)
	return p
}

// onConnect resubscribes, replays the offline buffer and, after a reconnect,
// announces RECONNECTED.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending := p.buffer.drainAll()
	handler := p.handler
	reconnect := p.everUp
	p.everUp = true
	p.mu.Unlock()

	log.Info("Connected to broker", "replay", len(pending))

	if handler != nil {
		p.subscribe(c, handler)
	}
	for _, m := range pending {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: p.clock(), Event: "RECONNECTED"})
		c.Publish(p.topics.System, 1, false, payload)
	}
}

func (p *RealPublisher) subscribe(c paho.Client, handler func(string)) paho.Token {
	return c.Subscribe(p.topics.Command, 1, func(_ paho.Client, msg paho.Message) {
		for _, line := range ParseCommandPayload(msg.Payload()) {
			handler(line)
		}
	})
}

// PublishStatus sends one status line, QoS 0, not retained.
func (p *RealPublisher) PublishStatus(st logic.Status, ts time.Time) error {
	if !p.client.IsConnectionOpen() {
		return errNotConnected
	}
	payload, err := FormatStatusPayload(st, ts)
	if err != nil {
		return fmt.Errorf("format status payload: %w", err)
	}
	return wait(p.client.Publish(p.topics.Status, 0, false, payload), "publish status")
}

// PublishSystem sends a system lifecycle event, QoS 1. While offline the
// event is buffered for replay.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.buffer.push(bufferedMsg{topic: p.topics.System, payload: payload, qos: 1, retained: event.Retained})
		p.mu.Unlock()
		return fmt.Errorf("%w: %s buffered", errNotConnected, event.Event)
	}
	return wait(p.client.Publish(p.topics.System, 1, event.Retained, payload), "publish system")
}

// SubscribeCommands implements CommandSource.
func (p *RealPublisher) SubscribeCommands(handler func(string)) error {
	p.mu.Lock()
	p.handler = handler
	p.mu.Unlock()

	if !p.client.IsConnectionOpen() {
		// onConnect subscribes once the connection is up.
		return nil
	}
	return wait(p.subscribe(p.client, handler), "subscribe "+p.topics.Command)
}

// IsConnected reports whether the connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

func wait(t paho.Token, what string) error {
	if !t.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%s: timeout", what)
	}
	if err := t.Error(); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}
