package form

import (
	"fmt"
	"time"

	"github.com/kilianp07/healthpredictor/core/model"
)

// Phase is the state of the submit cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

// String returns a lower-case name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	for _, c := range []Phase{PhaseIdle, PhaseSubmitting, PhaseSucceeded, PhaseFailed} {
		if c.String() == string(b) {
			*p = c
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// Snapshot is an immutable copy of the controller state. Result and Error are
// never both set.
type Snapshot struct {
	SessionID string          `json:"session_id"`
	Input     model.FormInput `json:"input"`
	Result    *model.Result   `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	InFlight  bool            `json:"in_flight"`
	Phase     Phase           `json:"phase"`
	// Submissions counts submit calls since the controller was created.
	Submissions uint64 `json:"submissions"`
}

// Transition is published whenever the phase changes.
type Transition struct {
	SessionID string
	From      Phase
	To        Phase
	Snapshot  Snapshot
	// Cause is the underlying prediction error of a Failed transition.
	Cause error
	Time  time.Time
}

// Publisher receives transitions. *eventbus.TypedBus[Transition] satisfies it.
type Publisher interface {
	Publish(Transition)
}
