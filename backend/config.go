package backend

import (
	"fmt"

	"github.com/kilianp07/healthpredictor/core/model"
)

// Modes of the mock backend.
const (
	ModeModel = "model"
	ModeFixed = "fixed"
	ModeError = "error"
)

// Config controls the mock prediction backend.
type Config struct {
	Address string `json:"address"`
	// Mode is one of "model", "fixed" or "error".
	Mode          string  `json:"mode"`
	FixedScore    float64 `json:"fixed_score"`
	FixedCategory string  `json:"fixed_category"`
	ErrorMessage  string  `json:"error_message"`
	// PercentScore sends the score as a "NN.N%" string instead of a number.
	PercentScore bool `json:"percent_score"`
}

// SetDefaults applies defaults for unset fields.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8000"
	}
	if c.Mode == "" {
		c.Mode = ModeModel
	}
	if c.Mode == ModeFixed && c.FixedCategory == "" {
		c.FixedCategory = model.RiskHealthy.String()
	}
	if c.Mode == ModeError && c.ErrorMessage == "" {
		c.ErrorMessage = "model unavailable"
	}
}

// Validate checks the mode and the fixed answer.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeModel, ModeError:
	case ModeFixed:
		if c.FixedScore < 0 || c.FixedScore > 100 {
			return fmt.Errorf("mock fixed_score must be within 0-100, got %v", c.FixedScore)
		}
	default:
		return fmt.Errorf("unknown mock mode %q", c.Mode)
	}
	return nil
}
