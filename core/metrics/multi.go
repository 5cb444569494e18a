package metrics

import "errors"

// MultiSink fans out events to multiple sinks.
type MultiSink struct {
	Sinks []PredictionRecorder
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...PredictionRecorder) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPrediction forwards the event to every sink. A failing sink does not
// stop the others; all errors are joined.
func (m *MultiSink) RecordPrediction(ev PredictionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordPrediction(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordActiveSessions forwards the session count to sinks that support it.
func (m *MultiSink) RecordActiveSessions(n int) error {
	var errs []error
	for _, s := range m.Sinks {
		if sr, ok := s.(SessionRecorder); ok {
			if err := sr.RecordActiveSessions(n); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
