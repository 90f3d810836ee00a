package mqtt

import (
	"encoding/json"
	"testing"
)

func TestNewTopics(t *testing.T) {
	topics := NewTopics("home/garage/door")

	if topics.Config != "home/garage/door/config" {
		t.Errorf("config topic: got %s", topics.Config)
	}
	if topics.Command != "home/garage/door/command" {
		t.Errorf("command topic: got %s", topics.Command)
	}
	if topics.State != "home/garage/door/state" {
		t.Errorf("state topic: got %s", topics.State)
	}
}

func TestNewTopicsTrailingSlash(t *testing.T) {
	topics := NewTopics("home/garage/door/")

	if topics.State != "home/garage/door/state" {
		t.Errorf("state topic: got %s", topics.State)
	}
}

func TestFormatDiscovery(t *testing.T) {
	topics := NewTopics("home/garage/door")
	d := NewDiscovery("Garage Door", "garage_door", topics)

	payload, err := FormatDiscovery(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The hub matches on exact key names; decode generically to pin them.
	var parsed map[string]string
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	want := map[string]string{
		"name":          "Garage Door",
		"unique_id":     "garage_door",
		"command_topic": "home/garage/door/command",
		"payload_close": "CLOSE",
		"payload_open":  "OPEN",
		"state_topic":   "home/garage/door/state",
		"state_open":    "open",
		"state_closed":  "closed",
		"device_class":  "garage",
	}

	if len(parsed) != len(want) {
		t.Errorf("expected %d keys, got %d: %v", len(want), len(parsed), parsed)
	}
	for key, wantVal := range want {
		got, ok := parsed[key]
		if !ok {
			t.Errorf("missing key %q", key)
			continue
		}
		if got != wantVal {
			t.Errorf("%s: got %q, want %q", key, got, wantVal)
		}
	}
}

func TestFakeBusRecordsPublishes(t *testing.T) {
	f := NewFakeBus()

	if err := f.Publish("a/state", QoSAtLeastOnce, true, []byte("open")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.Publish("a/config", QoSAtLeastOnce, false, []byte("{}")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all := f.Publishes()
	if len(all) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(all))
	}
	if all[0].Topic != "a/state" || !all[0].Retained || string(all[0].Payload) != "open" {
		t.Errorf("unexpected first publish: %+v", all[0])
	}

	states := f.PublishesTo("a/state")
	if len(states) != 1 {
		t.Errorf("expected 1 publish to a/state, got %d", len(states))
	}
}

func TestFakeBusSubscriptions(t *testing.T) {
	f := NewFakeBus()

	if err := f.Subscribe("a/command", QoSExactlyOnce); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	subs := f.Subscriptions()
	if qos, ok := subs["a/command"]; !ok || qos != QoSExactlyOnce {
		t.Errorf("expected subscription at QoS 2, got %v", subs)
	}
}

func TestFakeBusInject(t *testing.T) {
	f := NewFakeBus()

	f.Inject(Event{Topic: "a/command", Payload: []byte("OPEN")})

	select {
	case e := <-f.Events():
		if e.Topic != "a/command" || string(e.Payload) != "OPEN" {
			t.Errorf("unexpected event: %+v", e)
		}
	default:
		t.Fatal("expected an event")
	}
}

func TestFakeBusClose(t *testing.T) {
	f := NewFakeBus()

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed() {
		t.Error("should be closed after Close()")
	}
	if f.IsConnected() {
		t.Error("should not be connected after Close()")
	}
	if _, ok := <-f.Events(); ok {
		t.Error("expected closed events channel")
	}
}
