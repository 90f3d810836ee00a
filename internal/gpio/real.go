//go:build linux

package gpio

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// triggerDebounce filters contact bounce on the manual trigger button.
const triggerDebounce = 10 * time.Millisecond

// realLine wraps a requested gpiocdev line. For inputs requested with
// an edge option it also carries the event channel.
type realLine struct {
	line      *gpiocdev.Line
	events    chan Edge
	closeOnce sync.Once
}

// Value returns the current raw level of the line.
func (l *realLine) Value() (int, error) {
	return l.line.Value()
}

// SetValue drives the line to the given level.
func (l *realLine) SetValue(value int) error {
	return l.line.SetValue(value)
}

// Events returns the edge event channel. Nil for output lines.
func (l *realLine) Events() <-chan Edge {
	return l.events
}

// Close releases the line. Inputs are left as requested; outputs are
// reconfigured to input first so external hardware sees a floating pin
// rather than a driven level after shutdown.
func (l *realLine) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.events == nil {
			if rerr := l.line.Reconfigure(gpiocdev.AsInput); rerr != nil {
				err = fmt.Errorf("reconfigure: %w", rerr)
			}
		}
		if cerr := l.line.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if l.events != nil {
			close(l.events)
		}
	})
	return err
}

// handleEvent runs on gpiocdev's event goroutine. It must not block:
// if the reconciliation loop is behind, the edge is dropped and the
// periodic re-read bounds the staleness.
func (l *realLine) handleEvent(evt gpiocdev.LineEvent) {
	v := 0
	if evt.Type == gpiocdev.LineEventRisingEdge {
		v = 1
	}
	select {
	case l.events <- Edge{Value: v}:
	default:
		log.Printf("gpio: event channel full, dropping edge on line %d", evt.Offset)
	}
}

// RequestHardware requests and configures all controller lines on the
// given chip. Pass a negative led offset to run without an LED. Any
// failure releases the lines already requested.
func RequestHardware(chip string, led, relay, status, trigger int) (*Hardware, error) {
	hw := &Hardware{}

	if led >= 0 {
		l, err := requestOutput(chip, led)
		if err != nil {
			return nil, fmt.Errorf("request led line %d: %w", led, err)
		}
		hw.Led = l
	}

	r, err := requestOutput(chip, relay)
	if err != nil {
		hw.Close()
		return nil, fmt.Errorf("request relay line %d: %w", relay, err)
	}
	hw.Relay = r

	s, err := requestInput(chip, status, gpiocdev.WithBothEdges)
	if err != nil {
		hw.Close()
		return nil, fmt.Errorf("request status line %d: %w", status, err)
	}
	hw.Status = s

	t, err := requestInput(chip, trigger,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithDebounce(triggerDebounce))
	if err != nil {
		hw.Close()
		return nil, fmt.Errorf("request trigger line %d: %w", trigger, err)
	}
	hw.Trigger = t

	return hw, nil
}

func requestOutput(chip string, offset int) (*realLine, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	return &realLine{line: line}, nil
}

func requestInput(chip string, offset int, opts ...gpiocdev.LineReqOption) (*realLine, error) {
	l := &realLine{events: make(chan Edge, 16)}

	reqOpts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithEventHandler(l.handleEvent),
	}
	reqOpts = append(reqOpts, opts...)

	line, err := gpiocdev.RequestLine(chip, offset, reqOpts...)
	if err != nil {
		return nil, err
	}
	l.line = line
	return l, nil
}
