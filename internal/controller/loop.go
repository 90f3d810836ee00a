// Package controller implements the reconciliation loop that merges
// the controller's asynchronous event sources — periodic state polls,
// GPIO edge interrupts, and inbound bus commands — into one consistent
// view of door state and relay actuation.
package controller

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sweeney/garage-door/internal/door"
	"github.com/sweeney/garage-door/internal/gpio"
	"github.com/sweeney/garage-door/internal/mqtt"
	"github.com/sweeney/garage-door/internal/status"
)

// Loop owns the hardware and pulser and drives the bus. One instance
// runs for the process lifetime.
type Loop struct {
	hw      *gpio.Hardware
	bus     mqtt.Bus
	topics  mqtt.Topics
	pulser  *door.Pulser
	tracker *status.Tracker

	name     string
	uniqueID string

	// pulseDone carries results from pulse goroutines back into the
	// select. Buffered so a pulse finishing after the loop has exited
	// cannot leak its goroutine.
	pulseDone chan error
}

// New creates a Loop. All collaborators are injected; tests pass
// fakes. tracker must be non-nil.
func New(hw *gpio.Hardware, bus mqtt.Bus, topics mqtt.Topics, pulser *door.Pulser, tracker *status.Tracker, name, uniqueID string) *Loop {
	return &Loop{
		hw:        hw,
		bus:       bus,
		topics:    topics,
		pulser:    pulser,
		tracker:   tracker,
		name:      name,
		uniqueID:  uniqueID,
		pulseDone: make(chan error, 16),
	}
}

// Run publishes the discovery descriptor, subscribes to the command
// topic, publishes the initial door state, then services events until
// a shutdown signal, a closed stream, or a fatal error.
//
// tick may be nil to disable periodic reconciliation (a nil channel
// never fires in the select).
func (l *Loop) Run(tick <-chan time.Time, sig <-chan os.Signal) error {
	payload, err := mqtt.FormatDiscovery(mqtt.NewDiscovery(l.name, l.uniqueID, l.topics))
	if err != nil {
		return fmt.Errorf("format discovery: %w", err)
	}
	if err := l.bus.Publish(l.topics.Config, mqtt.QoSAtLeastOnce, false, payload); err != nil {
		return fmt.Errorf("publish discovery: %w", err)
	}
	log.Printf("published discovery descriptor to %s", l.topics.Config)

	if err := l.bus.Subscribe(l.topics.Command, mqtt.QoSExactlyOnce); err != nil {
		return fmt.Errorf("subscribe commands: %w", err)
	}
	log.Printf("subscribed to %s", l.topics.Command)

	// Retained initial publish establishes a default for new
	// subscribers before the first edge arrives.
	state, err := door.ReadState(l.hw.Status)
	if err != nil {
		return err
	}
	if err := l.publishState(state); err != nil {
		return err
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			return nil

		case <-tick:
			// Guards against a missed or stuck interrupt: re-read the
			// sensor and republish so the broker's cached state is
			// never staler than one tick.
			state, err := door.ReadState(l.hw.Status)
			if err != nil {
				return err
			}
			if err := l.publishState(state); err != nil {
				return err
			}

		case edge, ok := <-l.hw.Status.Events():
			if !ok {
				log.Printf("status event stream closed")
				return nil
			}
			if err := l.publishState(door.StateFromValue(edge.Value)); err != nil {
				return err
			}

		case edge, ok := <-l.hw.Trigger.Events():
			if !ok {
				log.Printf("trigger event stream closed")
				return nil
			}
			if edge.Value == 0 {
				// Line is requested rising-only; anything else is noise.
				continue
			}
			log.Printf("manual trigger pressed")
			l.startPulse()

		case ev, ok := <-l.bus.Events():
			if !ok {
				log.Printf("bus event stream closed")
				return nil
			}
			if err := l.handleBusEvent(ev); err != nil {
				return err
			}

		case err := <-l.pulseDone:
			if err != nil {
				return fmt.Errorf("pulse: %w", err)
			}
		}
	}
}

// handleBusEvent reacts to one inbound bus event. Bad external input
// is logged and ignored; only line I/O failure is returned, and is
// fatal to the loop.
func (l *Loop) handleBusEvent(ev mqtt.Event) error {
	if ev.Err != nil {
		log.Printf("bus error: %v", ev.Err)
		return nil
	}
	if ev.Topic != l.topics.Command {
		log.Printf("ignoring publish on unexpected topic %s", ev.Topic)
		return nil
	}

	cmd, err := door.ParseCommand(ev.Payload)
	if err != nil {
		log.Printf("ignoring command: %v", err)
		l.tracker.CommandIgnored()
		return nil
	}

	// Always re-read the sensor at decision time. A cached state could
	// desynchronize from the hardware, and the relay has no direction:
	// pulsing from the wrong state moves the door the wrong way.
	current, err := door.ReadState(l.hw.Status)
	if err != nil {
		return err
	}

	if !cmd.WantsPulse(current) {
		log.Printf("ignoring %s command: door already %s", cmd, current)
		l.tracker.CommandIgnored()
		return nil
	}

	log.Printf("executing %s command (door %s)", cmd, current)
	l.tracker.CommandAccepted()
	l.startPulse()
	return nil
}

// startPulse runs the relay pulse on its own goroutine so the loop
// keeps servicing events during the hold. PulseMu inside the pulser
// is the only exclusion: a second request arriving mid-pulse queues on
// the lock rather than overlapping or being dropped.
func (l *Loop) startPulse() {
	l.tracker.PulseStarted()
	go func() {
		l.pulseDone <- l.pulser.Pulse()
	}()
}

func (l *Loop) publishState(s door.State) error {
	log.Printf("door %s", s)
	if err := l.bus.Publish(l.topics.State, mqtt.QoSAtLeastOnce, true, []byte(s)); err != nil {
		return fmt.Errorf("publish state: %w", err)
	}
	l.tracker.SetDoorState(s)
	return nil
}
