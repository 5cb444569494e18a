package metrics

import (
	"time"

	"github.com/kilianp07/healthpredictor/core/model"
)

// Outcome classifies how a prediction request ended.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeApplicationError Outcome = "application_error"
	OutcomeTransportError   Outcome = "transport_error"
)

// PredictionEvent describes one completed prediction request.
type PredictionEvent struct {
	SessionID string
	Outcome   Outcome
	// Score and Category are set only for OutcomeSuccess.
	Score    float64
	Category model.RiskCategory
	Latency  time.Duration
	Time     time.Time
}

// PredictionRecorder records prediction events for observability purposes.
type PredictionRecorder interface {
	RecordPrediction(ev PredictionEvent) error
}

// SessionRecorder is implemented by sinks tracking the number of live form
// sessions.
type SessionRecorder interface {
	RecordActiveSessions(n int) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPrediction(PredictionEvent) error { return nil }
func (NopSink) RecordActiveSessions(int) error         { return nil }
