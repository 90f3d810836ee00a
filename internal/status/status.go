// Package status provides a thread-safe status tracker for the
// garage-door daemon. It is read by the HTTP status handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/garage-door/internal/door"
)

// Config contains daemon configuration for display.
type Config struct {
	Broker   string
	Base     string
	TickMs   int64
	HTTPAddr string
}

// Counts tracks controller activity since startup.
type Counts struct {
	Pulses           int
	CommandsAccepted int
	CommandsIgnored  int
	StatePublishes   int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Door          door.State // empty until the first publish
	LastChange    time.Time
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetDoorState records a published door state. LastChange only moves
// when the state actually changed, so periodic republishes don't
// disturb it.
func (t *Tracker) SetDoorState(s door.State) {
	t.mu.Lock()
	if t.snap.Door != s {
		t.snap.Door = s
		t.snap.LastChange = time.Now()
	}
	t.snap.Counts.StatePublishes++
	t.mu.Unlock()
}

// PulseStarted counts a relay pulse.
func (t *Tracker) PulseStarted() {
	t.mu.Lock()
	t.snap.Counts.Pulses++
	t.mu.Unlock()
}

// CommandAccepted counts a command that triggered a pulse.
func (t *Tracker) CommandAccepted() {
	t.mu.Lock()
	t.snap.Counts.CommandsAccepted++
	t.mu.Unlock()
}

// CommandIgnored counts a command rejected by parsing or the validity
// rule.
func (t *Tracker) CommandIgnored() {
	t.mu.Lock()
	t.snap.Counts.CommandsIgnored++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
