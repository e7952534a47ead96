// If you are AI: This file defines the configuration structure for inlet.
// It uses strict YAML decoding and explicit defaults.

package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the complete server configuration.
// All fields must have explicit defaults or be required.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log,omitempty"`
	Pushes []PushConfig `yaml:"pushes,omitempty"`
}

// ServerConfig defines listener settings.
type ServerConfig struct {
	RTMPPort int `yaml:"rtmp_port"` // Port for the RTMP ingest listener
	HTTPPort int `yaml:"http_port"` // Port for health, API, HTTP-FLV and WS-FLV
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn or error
}

// PushConfig defines an SRT push task configuration.
type PushConfig struct {
	App        string `yaml:"app"`                 // Source application name
	Name       string `yaml:"name"`                // Source stream name
	RemoteAddr string `yaml:"remote_addr"`         // SRT endpoint, host:port
	StreamID   string `yaml:"stream_id,omitempty"` // SRT streamid for the remote endpoint
}

// Load reads configuration from a YAML file.
// Returns an error if the file cannot be read or decoded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields

	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Apply defaults
	cfg.setDefaults()

	return &cfg, nil
}

// setDefaults applies explicit default values to unset fields.
func (c *Config) setDefaults() {
	if c.Server.RTMPPort == 0 {
		c.Server.RTMPPort = 1935
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// RTMPAddr returns the RTMP listen address in host:port form.
func (c *Config) RTMPAddr() string {
	return fmt.Sprintf(":%d", c.Server.RTMPPort)
}

// HTTPAddr returns the HTTP listen address in host:port form.
func (c *Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.Server.HTTPPort)
}
