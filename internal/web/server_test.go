package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/garage-door/internal/door"
	"github.com/sweeney/garage-door/internal/status"
)

func newTestTracker() *status.Tracker {
	tr := status.NewTracker(time.Now(), status.Config{
		Broker:   "192.168.1.200:1883",
		Base:     "home/garage/door",
		TickMs:   60000,
		HTTPAddr: ":8080",
	})
	tr.SetDoorState(door.Closed)
	tr.SetMQTTConnected(true)
	return tr
}

func TestHandleIndex(t *testing.T) {
	srv := New(":0", newTestTracker())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type: got %s", ct)
	}

	body, _ := io.ReadAll(rec.Body)
	html := string(body)
	if !strings.Contains(html, "closed") {
		t.Error("page should show the door state")
	}
	if !strings.Contains(html, "home/garage/door") {
		t.Error("page should show the base topic")
	}
}

func TestHandleIndexNotFound(t *testing.T) {
	srv := New(":0", newTestTracker())

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestHandleJSON(t *testing.T) {
	tr := newTestTracker()
	tr.PulseStarted()
	tr.CommandAccepted()
	srv := New(":0", tr)

	req := httptest.NewRequest(http.MethodGet, "/index.json", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var parsed StatusJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Door != "closed" {
		t.Errorf("door: got %q, want %q", parsed.Status.Door, "closed")
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected MQTT connected")
	}
	if parsed.Status.Counts.Pulses != 1 {
		t.Errorf("pulses: got %d, want 1", parsed.Status.Counts.Pulses)
	}
	if parsed.Status.Config.Base != "home/garage/door" {
		t.Errorf("base: got %q", parsed.Status.Config.Base)
	}
}

func TestHandleJSONUnknownState(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{})
	srv := New(":0", tr)

	req := httptest.NewRequest(http.MethodGet, "/index.json", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	var parsed StatusJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Door != "unknown" {
		t.Errorf("door: got %q, want %q", parsed.Status.Door, "unknown")
	}
	if parsed.Status.LastChange != "" {
		t.Errorf("last_change should be omitted, got %q", parsed.Status.LastChange)
	}
}

func TestServeAndShutdown(t *testing.T) {
	srv := New(":0", newTestTracker())

	ts := httptest.NewServer(srv.httpServer.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
}
