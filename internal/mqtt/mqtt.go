// Package mqtt provides the controller's MQTT bus with abstraction
// for testing.
package mqtt

import (
	"encoding/json"
	"strings"

	"github.com/sweeney/garage-door/internal/door"
)

// QoS levels used by the controller.
const (
	// QoSAtLeastOnce is used for state and discovery publishes: a
	// duplicate retained state is harmless.
	QoSAtLeastOnce byte = 1

	// QoSExactlyOnce is used for the command subscription so the
	// broker never replays a command after a reconnect.
	QoSExactlyOnce byte = 2
)

// Topics is the fixed topic set derived from one configured base path.
// Immutable for the process lifetime.
type Topics struct {
	Config  string // discovery descriptor, published once, not retained
	Command string // subscribed for OPEN/CLOSE
	State   string // retained state publishes
}

// NewTopics derives the topic set from a base path such as
// "home/garage/door".
func NewTopics(base string) Topics {
	base = strings.TrimSuffix(base, "/")
	return Topics{
		Config:  base + "/config",
		Command: base + "/command",
		State:   base + "/state",
	}
}

// Event is one inbound item from the bus: an incoming publish, or a
// transport error when Err is set.
type Event struct {
	Topic   string
	Payload []byte
	Err     error
}

// Bus is the controller's view of the MQTT connection.
type Bus interface {
	// Publish sends payload to topic. Returns an error if the broker
	// does not acknowledge in time.
	Publish(topic string, qos byte, retained bool, payload []byte) error

	// Subscribe registers interest in a topic. Incoming publishes are
	// delivered on Events.
	Subscribe(topic string, qos byte) error

	// Events yields incoming publishes and transport errors. The
	// channel is closed when the connection shuts down; consumers
	// treat that as terminal.
	Events() <-chan Event

	// Close disconnects from the broker and closes Events.
	Close() error
}

// ConnectionStatus reports whether the bus connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Discovery is the device descriptor advertised to the automation hub
// on the config topic at startup.
type Discovery struct {
	Name         string `json:"name"`
	UniqueID     string `json:"unique_id"`
	CommandTopic string `json:"command_topic"`
	PayloadClose string `json:"payload_close"`
	PayloadOpen  string `json:"payload_open"`
	StateTopic   string `json:"state_topic"`
	StateOpen    string `json:"state_open"`
	StateClosed  string `json:"state_closed"`
	DeviceClass  string `json:"device_class"`
}

// NewDiscovery builds the descriptor for a garage door cover.
func NewDiscovery(name, uniqueID string, topics Topics) Discovery {
	return Discovery{
		Name:         name,
		UniqueID:     uniqueID,
		CommandTopic: topics.Command,
		PayloadClose: string(door.CommandClose),
		PayloadOpen:  string(door.CommandOpen),
		StateTopic:   topics.State,
		StateOpen:    door.Open.String(),
		StateClosed:  door.Closed.String(),
		DeviceClass:  "garage",
	}
}

// FormatDiscovery creates the JSON payload for the descriptor.
func FormatDiscovery(d Discovery) ([]byte, error) {
	return json.Marshal(d)
}
