// Package config loads the optional YAML configuration file.
// Values from the file fill in any setting whose flag was left at its
// default; explicit flags always win.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File mirrors the command-line flags. Zero values mean "not set".
type File struct {
	Broker struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		ClientID  string `yaml:"client_id"`
		KeepAlive int    `yaml:"keep_alive_seconds"`
	} `yaml:"broker"`

	Device struct {
		Name     string `yaml:"name"`
		UniqueID string `yaml:"unique_id"`
		Base     string `yaml:"base_topic"`
	} `yaml:"device"`

	GPIO struct {
		Chip    string `yaml:"chip"`
		Led     *int   `yaml:"led"` // nil = flag default; negative disables
		Relay   *int   `yaml:"relay"`
		Status  *int   `yaml:"status"`
		Trigger *int   `yaml:"trigger"`
	} `yaml:"gpio"`

	TickSeconds *int    `yaml:"tick_seconds"` // 0 disables the periodic republish
	HTTPAddr    *string `yaml:"http_addr"`    // "" disables the status server
}

// Load reads and parses the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &f, nil
}
