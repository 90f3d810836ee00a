// Package gpio provides GPIO line access with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"fmt"
	"sync"
)

// Edge is a value-change notification from an input line.
// Value is the new raw level: 1 for a rising edge, 0 for a falling edge.
type Edge struct {
	Value int
}

// Line is a single GPIO line.
type Line interface {
	// Value returns the current raw level (0 or 1).
	Value() (int, error)

	// SetValue drives the line to the given level. Only valid on outputs.
	SetValue(value int) error

	// Close releases the line.
	Close() error
}

// Watcher is an input line that also delivers edge events.
// The events channel is closed when the line is closed or the
// underlying event stream ends; consumers treat that as terminal.
type Watcher interface {
	Line
	Events() <-chan Edge
}

// Default pin assignments (BCM numbering).
const (
	DefaultPinLed     = 27 // activity LED
	DefaultPinRelay   = 17 // opener relay
	DefaultPinStatus  = 26 // door position sensor
	DefaultPinTrigger = 16 // manual trigger button
)

// DefaultChip is the GPIO character device on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// Hardware aggregates the controller's GPIO lines.
//
// PulseMu must be held for the entire duration of a relay pulse,
// including the timed hold, so pulses can never overlap.
type Hardware struct {
	Led     Line // optional activity LED, may be nil
	Relay   Line
	Status  Watcher
	Trigger Watcher

	PulseMu sync.Mutex
}

// Close drives the outputs low and releases all lines. The relay is
// reset first so a shutdown mid-pulse cannot leave the contact
// energized.
func (h *Hardware) Close() error {
	var errs []error

	if h.Relay != nil {
		if err := h.Relay.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("reset relay: %w", err))
		}
		if err := h.Relay.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay: %w", err))
		}
	}
	if h.Led != nil {
		if err := h.Led.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("reset led: %w", err))
		}
		if err := h.Led.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led: %w", err))
		}
	}
	if h.Status != nil {
		if err := h.Status.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close status: %w", err))
		}
	}
	if h.Trigger != nil {
		if err := h.Trigger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trigger: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
