package door

import (
	"fmt"
	"time"

	"github.com/sweeney/garage-door/internal/gpio"
)

// pulseHold is how long the relay contact is held closed. It models
// the dwell time the opener input needs to register a press and is
// deliberately a constant, not a runtime setting.
const pulseHold = 200 * time.Millisecond

// Pulser drives the relay pulse sequence on a Hardware.
type Pulser struct {
	hw    *gpio.Hardware
	sleep func(time.Duration)
}

// NewPulser creates a Pulser. A nil sleep means time.Sleep; tests
// inject a recording or no-op function.
func NewPulser(hw *gpio.Hardware, sleep func(time.Duration)) *Pulser {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Pulser{hw: hw, sleep: sleep}
}

// Pulse energizes the relay for the hold duration, with the activity
// LED (if present) lit for the whole sequence. hw.PulseMu is held from
// first write to last, so concurrent pulses serialize rather than
// overlap or truncate each other.
//
// A failed write aborts the remainder of the sequence. The relay may
// then be left briefly energized; that is acceptable for a
// momentary-contact design, and Hardware.Close resets it anyway.
func (p *Pulser) Pulse() error {
	p.hw.PulseMu.Lock()
	defer p.hw.PulseMu.Unlock()

	if p.hw.Led != nil {
		if err := p.hw.Led.SetValue(1); err != nil {
			return fmt.Errorf("led on: %w", err)
		}
	}

	if err := p.hw.Relay.SetValue(1); err != nil {
		return fmt.Errorf("energize relay: %w", err)
	}

	p.sleep(pulseHold)

	if err := p.hw.Relay.SetValue(0); err != nil {
		return fmt.Errorf("de-energize relay: %w", err)
	}

	if p.hw.Led != nil {
		if err := p.hw.Led.SetValue(0); err != nil {
			return fmt.Errorf("led off: %w", err)
		}
	}

	return nil
}
