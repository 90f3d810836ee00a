package gpio

import (
	"errors"
	"sync"
)

// FakeLine is a test double implementing Line and Watcher.
// Safe for concurrent use: the reconciliation loop runs on its own
// goroutine in tests.
type FakeLine struct {
	mu     sync.Mutex
	value  int
	writes []int
	closed bool

	// ValueError, if set, will be returned by Value.
	ValueError error

	// SetError, if set, will be returned by SetValue.
	SetError error

	events    chan Edge
	closeOnce sync.Once
}

// NewFakeLine creates a FakeLine reading the given initial value.
func NewFakeLine(value int) *FakeLine {
	return &FakeLine{
		value:  value,
		events: make(chan Edge, 16),
	}
}

// Value returns the current scripted value.
func (f *FakeLine) Value() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ValueError != nil {
		return 0, f.ValueError
	}
	return f.value, nil
}

// SetValue records the write and makes it the readable value.
func (f *FakeLine) SetValue(value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	if f.closed {
		return errors.New("line closed")
	}
	f.value = value
	f.writes = append(f.writes, value)
	return nil
}

// Set changes the value returned by Value without recording a write.
// Test helper for simulating sensor movement.
func (f *FakeLine) Set(value int) {
	f.mu.Lock()
	f.value = value
	f.mu.Unlock()
}

// SetValueError sets ValueError with locking, for use while another
// goroutine is reading the line.
func (f *FakeLine) SetValueError(err error) {
	f.mu.Lock()
	f.ValueError = err
	f.mu.Unlock()
}

// SetSetError sets SetError with locking.
func (f *FakeLine) SetSetError(err error) {
	f.mu.Lock()
	f.SetError = err
	f.mu.Unlock()
}

// Writes returns a copy of all values written so far, in order.
func (f *FakeLine) Writes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.writes))
	copy(out, f.writes)
	return out
}

// Events returns the edge event channel.
func (f *FakeLine) Events() <-chan Edge {
	return f.events
}

// Inject delivers an edge event and updates the readable value to
// match, the way real hardware would.
func (f *FakeLine) Inject(e Edge) {
	f.mu.Lock()
	f.value = e.Value
	f.mu.Unlock()
	f.events <- e
}

// CloseEvents closes the event channel without closing the line,
// simulating a dead event stream.
func (f *FakeLine) CloseEvents() {
	f.closeOnce.Do(func() { close(f.events) })
}

// Close marks the line as closed and ends the event stream.
func (f *FakeLine) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.events) })
	return nil
}

// Closed reports whether Close was called.
func (f *FakeLine) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
