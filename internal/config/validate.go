// If you are AI: This file validates configuration values and returns descriptive errors.

package config

import (
	"fmt"
)

// Validate checks that all configuration values are within acceptable ranges.
// Returns an error describing the first validation failure found.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	for i := range c.Pushes {
		if err := c.Pushes[i].Validate(); err != nil {
			return fmt.Errorf("push config %d: %w", i, err)
		}
	}
	return nil
}

// Validate checks server configuration values.
func (s *ServerConfig) Validate() error {
	if s.RTMPPort <= 0 || s.RTMPPort > 65535 {
		return fmt.Errorf("rtmp_port must be between 1 and 65535, got %d", s.RTMPPort)
	}
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be between 1 and 65535, got %d", s.HTTPPort)
	}
	if s.RTMPPort == s.HTTPPort {
		return fmt.Errorf("rtmp_port and http_port must be different, both are %d", s.RTMPPort)
	}
	return nil
}

// Validate checks log configuration values.
func (l *LogConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("level must be debug, info, warn or error, got %q", l.Level)
	}
}

// Validate checks push task configuration values.
func (p *PushConfig) Validate() error {
	if p.App == "" {
		return fmt.Errorf("app must not be empty")
	}
	if p.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if p.RemoteAddr == "" {
		return fmt.Errorf("remote_addr must not be empty")
	}
	return nil
}
