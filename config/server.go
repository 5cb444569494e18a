package config

import (
	"fmt"
	"time"
)

// ServerConfig configures the web front end.
type ServerConfig struct {
	Address string `json:"address"`
	// SessionIdleMinutes evicts form sessions unused for this long.
	// Zero keeps sessions for the life of the process.
	SessionIdleMinutes int `json:"session_idle_minutes"`
	// ShutdownTimeoutSeconds bounds the graceful shutdown.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds"`
}

// SetDefaults applies defaults for unset fields.
func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.ShutdownTimeoutSeconds == 0 {
		c.ShutdownTimeoutSeconds = 5
	}
}

// Validate checks the server settings.
func (c ServerConfig) Validate() error {
	if c.SessionIdleMinutes < 0 {
		return fmt.Errorf("session_idle_minutes must not be negative")
	}
	if c.ShutdownTimeoutSeconds < 0 {
		return fmt.Errorf("shutdown_timeout_seconds must not be negative")
	}
	return nil
}

// SessionIdle returns the idle eviction delay.
func (c ServerConfig) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// ShutdownTimeout returns the graceful shutdown delay.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
