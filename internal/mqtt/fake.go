package mqtt

import "sync"

// PublishRecord is one captured call to Publish.
type PublishRecord struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// FakeBus records publishes and subscriptions and lets tests inject
// inbound events. Safe for concurrent use: the reconciliation loop
// runs on its own goroutine in tests.
type FakeBus struct {
	mu        sync.Mutex
	publishes []PublishRecord
	subs      map[string]byte
	closed    bool
	connected bool

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// SubscribeError, if set, will be returned by Subscribe.
	SubscribeError error

	events    chan Event
	closeOnce sync.Once
}

// NewFakeBus creates a connected FakeBus.
func NewFakeBus() *FakeBus {
	return &FakeBus{
		subs:      make(map[string]byte),
		connected: true,
		events:    make(chan Event, 16),
	}
}

// Publish records the call.
func (f *FakeBus) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.publishes = append(f.publishes, PublishRecord{
		Topic:    topic,
		QoS:      qos,
		Retained: retained,
		Payload:  append([]byte(nil), payload...),
	})
	return nil
}

// Subscribe records the subscription.
func (f *FakeBus) Subscribe(topic string, qos byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	f.subs[topic] = qos
	return nil
}

// SetPublishError sets PublishError with locking, for use while
// another goroutine is publishing.
func (f *FakeBus) SetPublishError(err error) {
	f.mu.Lock()
	f.PublishError = err
	f.mu.Unlock()
}

// Events returns the inbound event channel.
func (f *FakeBus) Events() <-chan Event {
	return f.events
}

// Inject delivers an inbound event to the consumer.
func (f *FakeBus) Inject(e Event) {
	f.events <- e
}

// CloseEvents closes the event channel without marking the bus closed,
// simulating a dead connection stream.
func (f *FakeBus) CloseEvents() {
	f.closeOnce.Do(func() { close(f.events) })
}

// Close marks the bus closed and ends the event stream.
func (f *FakeBus) Close() error {
	f.mu.Lock()
	f.closed = true
	f.connected = false
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.events) })
	return nil
}

// Closed reports whether Close was called.
func (f *FakeBus) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// IsConnected reports the scripted connection state.
func (f *FakeBus) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// SetConnected scripts the connection state.
func (f *FakeBus) SetConnected(connected bool) {
	f.mu.Lock()
	f.connected = connected
	f.mu.Unlock()
}

// Publishes returns a copy of all recorded publishes, in order.
func (f *FakeBus) Publishes() []PublishRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]PublishRecord, len(f.publishes))
	copy(out, f.publishes)
	return out
}

// PublishesTo returns the recorded publishes for one topic.
func (f *FakeBus) PublishesTo(topic string) []PublishRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []PublishRecord
	for _, p := range f.publishes {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

// Subscriptions returns a copy of the recorded topic→QoS map.
func (f *FakeBus) Subscriptions() map[string]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]byte, len(f.subs))
	for t, q := range f.subs {
		out[t] = q
	}
	return out
}
