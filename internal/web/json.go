package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/garage-door/internal/status"
)

// StatusJSON is the JSON representation of the daemon status.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Door          string     `json:"door"`
	LastChange    string     `json:"last_change,omitempty"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of activity counts.
type CountsJSON struct {
	Pulses           int `json:"pulses"`
	CommandsAccepted int `json:"commands_accepted"`
	CommandsIgnored  int `json:"commands_ignored"`
	StatePublishes   int `json:"state_publishes"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Broker   string `json:"broker"`
	Base     string `json:"base_topic"`
	TickMs   int64  `json:"tick_ms"`
	HTTPAddr string `json:"http_addr"`
}

func formatJSON(snap status.Snapshot) []byte {
	door := string(snap.Door)
	if door == "" {
		door = "unknown"
	}

	sj := StatusJSON{
		Status: StatusInner{
			Door:          door,
			UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
			StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
			Timestamp:     snap.Now.UTC().Format(time.RFC3339),
			MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
			Counts: CountsJSON{
				Pulses:           snap.Counts.Pulses,
				CommandsAccepted: snap.Counts.CommandsAccepted,
				CommandsIgnored:  snap.Counts.CommandsIgnored,
				StatePublishes:   snap.Counts.StatePublishes,
			},
			Config: ConfigJSON{
				Broker:   snap.Config.Broker,
				Base:     snap.Config.Base,
				TickMs:   snap.Config.TickMs,
				HTTPAddr: snap.Config.HTTPAddr,
			},
		},
	}

	if !snap.LastChange.IsZero() {
		sj.Status.LastChange = snap.LastChange.UTC().Format(time.RFC3339)
	}

	data, _ := json.MarshalIndent(sj, "", "  ")
	return data
}
