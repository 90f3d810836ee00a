package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout  = 10 * time.Second
	opTimeout       = 5 * time.Second
	pendingCapacity = 64
	eventBuffer     = 16
)

// Config holds broker connection settings.
type Config struct {
	Host      string
	Port      int
	ClientID  string
	KeepAlive time.Duration
}

// RealBus talks to an actual MQTT broker via paho.
type RealBus struct {
	client paho.Client
	events chan Event

	mu      sync.Mutex
	pending *pendingQueue
	subs    map[string]byte // replayed on reconnect
	closed  bool
}

// NewRealBus connects to the broker and blocks until the first
// connection succeeds or times out. After that, paho auto-reconnects;
// publishes attempted while disconnected are queued and replayed.
func NewRealBus(cfg Config) (*RealBus, error) {
	b := &RealBus{
		events:  make(chan Event, eventBuffer),
		pending: newPendingQueue(pendingCapacity),
		subs:    make(map[string]byte),
	}

	broker := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(cfg.ClientID).
		SetKeepAlive(cfg.KeepAlive).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(b.handleConnect).
		SetConnectionLostHandler(b.handleConnectionLost).
		SetDefaultPublishHandler(b.handleMessage)

	b.client = paho.NewClient(opts)
	token := b.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}

	return b, nil
}

// Publish sends payload to topic. While disconnected the message is
// queued for replay instead of failing: paho is reconnecting in the
// background and the retained state topic only needs the newest value.
func (b *RealBus) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if !b.client.IsConnected() {
		b.mu.Lock()
		b.pending.push(pendingMsg{topic: topic, qos: qos, retained: retained, payload: payload})
		n := b.pending.len()
		b.mu.Unlock()
		log.Printf("mqtt: disconnected, queued publish to %s (%d pending)", topic, n)
		return nil
	}

	token := b.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(opTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers interest in a topic. The subscription is
// remembered and re-established after a reconnect.
func (b *RealBus) Subscribe(topic string, qos byte) error {
	token := b.client.Subscribe(topic, qos, nil)
	if !token.WaitTimeout(opTimeout) {
		return fmt.Errorf("subscribe %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	b.mu.Lock()
	b.subs[topic] = qos
	b.mu.Unlock()
	return nil
}

// Events returns the inbound event channel.
func (b *RealBus) Events() <-chan Event {
	return b.events
}

// IsConnected reports whether the broker connection is up.
func (b *RealBus) IsConnected() bool {
	return b.client.IsConnected()
}

// Close disconnects from the broker and closes the event channel.
func (b *RealBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.client.Disconnect(1000) // milliseconds to flush in-flight work
	close(b.events)
	return nil
}

// forward delivers an event to the loop without ever blocking paho's
// callback goroutine.
func (b *RealBus) forward(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.events <- e:
	default:
		log.Printf("mqtt: event channel full, dropping event for %s", e.Topic)
	}
}

func (b *RealBus) handleMessage(_ paho.Client, msg paho.Message) {
	b.forward(Event{Topic: msg.Topic(), Payload: msg.Payload()})
}

func (b *RealBus) handleConnectionLost(_ paho.Client, err error) {
	log.Printf("mqtt: connection lost: %v", err)
	b.forward(Event{Err: err})
}

// handleConnect runs on every (re)connect: re-establish subscriptions,
// then flush publishes queued while disconnected.
func (b *RealBus) handleConnect(c paho.Client) {
	b.mu.Lock()
	subs := make(map[string]byte, len(b.subs))
	for topic, qos := range b.subs {
		subs[topic] = qos
	}
	msgs := b.pending.drain()
	b.mu.Unlock()

	for topic, qos := range subs {
		if token := c.Subscribe(topic, qos, nil); token.Wait() && token.Error() != nil {
			log.Printf("mqtt: resubscribe %s: %v", topic, token.Error())
		}
	}

	for _, m := range msgs {
		if token := c.Publish(m.topic, m.qos, m.retained, m.payload); token.Wait() && token.Error() != nil {
			log.Printf("mqtt: replay publish %s: %v", m.topic, token.Error())
		}
	}
	if len(msgs) > 0 {
		log.Printf("mqtt: replayed %d queued publishes", len(msgs))
	}
}
