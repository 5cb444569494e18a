package predictor

import (
	"fmt"
	"net/url"
	"time"
)

// Config defines how the remote prediction endpoint is reached.
type Config struct {
	// URL receives the POST with the form body.
	URL string `json:"url"`
	// TimeoutSeconds bounds a whole request. Zero means no timeout; the
	// caller's context still applies.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies the public endpoint when none is configured.
func (c *Config) SetDefaults() {
	if c.URL == "" {
		c.URL = DefaultURL
	}
}

// Validate checks the endpoint.
func (c Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("predictor url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("predictor url must be http or https: %q", c.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("predictor url has no host: %q", c.URL)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("predictor timeout_seconds must not be negative")
	}
	return nil
}

// Timeout returns the configured request timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultURL is the hosted prediction service.
const DefaultURL = "https://healthpredictorbackend.onrender.com"
