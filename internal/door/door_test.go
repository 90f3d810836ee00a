package door

import (
	"errors"
	"testing"

	"github.com/sweeney/garage-door/internal/gpio"
)

func TestStateFromValue(t *testing.T) {
	// Decision table, not a threshold: 0 is open, everything else closed.
	tests := []struct {
		value int
		want  State
	}{
		{0, Open},
		{1, Closed},
		{2, Closed},
		{-1, Closed},
	}

	for _, tt := range tests {
		if got := StateFromValue(tt.value); got != tt.want {
			t.Errorf("StateFromValue(%d): got %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestStateString(t *testing.T) {
	if Open.String() != "open" {
		t.Errorf("Open: got %q, want %q", Open.String(), "open")
	}
	if Closed.String() != "closed" {
		t.Errorf("Closed: got %q, want %q", Closed.String(), "closed")
	}
}

func TestReadState(t *testing.T) {
	line := gpio.NewFakeLine(0)

	s, err := ReadState(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != Open {
		t.Errorf("value 0: got %s, want %s", s, Open)
	}

	line.Set(1)
	s, err = ReadState(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != Closed {
		t.Errorf("value 1: got %s, want %s", s, Closed)
	}
}

func TestReadStateError(t *testing.T) {
	line := gpio.NewFakeLine(0)
	line.ValueError = errors.New("simulated error")

	if _, err := ReadState(line); err == nil {
		t.Error("expected error to be returned")
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		payload string
		want    Command
		wantErr bool
	}{
		{"OPEN", CommandOpen, false},
		{"CLOSE", CommandClose, false},
		{"open", "", true}, // case-sensitive
		{"close", "", true},
		{"OPEN ", "", true}, // exact match, no trimming
		{" CLOSE", "", true},
		{"TOGGLE", "", true},
		{"", "", true},
		{"OPENCLOSE", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCommand([]byte(tt.payload))
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCommand(%q): expected error", tt.payload)
			}
			if !errors.Is(err, ErrUnknownCommand) {
				t.Errorf("ParseCommand(%q): error should wrap ErrUnknownCommand, got %v", tt.payload, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCommand(%q): unexpected error: %v", tt.payload, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCommand(%q): got %s, want %s", tt.payload, got, tt.want)
		}
	}
}

func TestWantsPulse(t *testing.T) {
	// Full truth table: only the two opposite-state pairings pulse.
	tests := []struct {
		cmd     Command
		current State
		want    bool
	}{
		{CommandOpen, Closed, true},
		{CommandClose, Open, true},
		{CommandOpen, Open, false},
		{CommandClose, Closed, false},
		{Command("TOGGLE"), Open, false},
		{Command("TOGGLE"), Closed, false},
	}

	for _, tt := range tests {
		if got := tt.cmd.WantsPulse(tt.current); got != tt.want {
			t.Errorf("%s.WantsPulse(%s): got %v, want %v", tt.cmd, tt.current, got, tt.want)
		}
	}
}
