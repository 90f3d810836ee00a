// Package door contains the control logic for the garage door: the
// state and command types, the sensor decision table, the command
// validity rule, and the relay pulse sequence. Hardware is reached
// only through the gpio.Line interface and time only through an
// injectable sleep, so everything here is testable without a Pi.
package door

import (
	"errors"
	"fmt"

	"github.com/sweeney/garage-door/internal/gpio"
)

// State is the two-valued door position derived from the status line.
// It is always recomputed from the sensor, never stored independently.
type State string

const (
	Open   State = "open"
	Closed State = "closed"
)

// String returns the wire token published on the state topic.
func (s State) String() string {
	return string(s)
}

// StateFromValue maps a raw status-line value to a State. The sensor
// is normally closed: 0 means the circuit is broken and the door is
// open; any non-zero value means closed. This is fixed wiring, a
// decision table rather than a threshold.
func StateFromValue(v int) State {
	if v == 0 {
		return Open
	}
	return Closed
}

// ReadState reads the status line and maps its value to a State.
func ReadState(line gpio.Line) (State, error) {
	v, err := line.Value()
	if err != nil {
		return "", fmt.Errorf("read status line: %w", err)
	}
	return StateFromValue(v), nil
}

// Command is a requested door action parsed from a command payload.
type Command string

const (
	CommandOpen  Command = "OPEN"
	CommandClose Command = "CLOSE"
)

// ErrUnknownCommand reports a payload that is not an exact command token.
var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand parses a command payload. Matching is exact and
// case-sensitive; anything else is rejected.
func ParseCommand(payload []byte) (Command, error) {
	switch string(payload) {
	case string(CommandOpen):
		return CommandOpen, nil
	case string(CommandClose):
		return CommandClose, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, payload)
}

// WantsPulse reports whether executing c is valid given the current
// door state. The relay is a momentary contact with no direction, so
// a command may only act from the opposite state: pulsing while the
// door already matches the request would move it the wrong way.
func (c Command) WantsPulse(current State) bool {
	switch c {
	case CommandOpen:
		return current == Closed
	case CommandClose:
		return current == Open
	}
	return false
}
