package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/healthpredictor/core/metrics"
)

// PromSink records prediction events in Prometheus metrics.
type PromSink struct {
	predictions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	scores      prometheus.Histogram
	sessions    prometheus.Gauge
}

// NewPromSink registers prediction metrics on the default Prometheus registerer.
// The metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	predictions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "predictions_total",
		Help: "Total number of prediction submissions by outcome and risk category",
	}, []string{"outcome", "category"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prediction_latency_seconds",
		Help:    "Time between submission and outcome",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	scores := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "prediction_health_score",
		Help:    "Distribution of predicted health scores",
		Buckets: prometheus.LinearBuckets(10, 10, 10),
	})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "form_sessions_active",
		Help: "Number of live form sessions",
	})

	if err := reg.Register(predictions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			predictions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(scores); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			scores = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(sessions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			sessions = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{predictions: predictions, latency: latency, scores: scores, sessions: sessions}, nil
}

// RecordPrediction counts the event and observes its latency. Scores are
// observed for successful predictions only.
func (s *PromSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	category := "none"
	if ev.Outcome == coremetrics.OutcomeSuccess {
		category = ev.Category.String()
		s.scores.Observe(ev.Score)
	}
	s.predictions.WithLabelValues(string(ev.Outcome), category).Inc()
	s.latency.WithLabelValues(string(ev.Outcome)).Observe(ev.Latency.Seconds())
	return nil
}

// RecordActiveSessions sets the session gauge.
func (s *PromSink) RecordActiveSessions(n int) error {
	if s.sessions != nil {
		s.sessions.Set(float64(n))
	}
	return nil
}
