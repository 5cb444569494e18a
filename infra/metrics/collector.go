package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/healthpredictor/core/form"
	"github.com/kilianp07/healthpredictor/internal/eventbus"
)

// TransitionCollector turns form phase transitions into Prometheus series.
type TransitionCollector struct {
	transitions *prometheus.CounterVec
	inFlight    prometheus.Gauge
}

// NewTransitionCollector registers the collector metrics on reg. A nil
// registerer defaults to the global Prometheus registerer.
func NewTransitionCollector(reg prometheus.Registerer) (*TransitionCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "form_transitions_total",
		Help: "Form phase transitions by target phase",
	}, []string{"from", "to"})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "form_submissions_in_flight",
		Help: "Forms currently waiting for a prediction",
	})
	if err := reg.Register(transitions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			transitions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(inFlight); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			inFlight = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	return &TransitionCollector{transitions: transitions, inFlight: inFlight}, nil
}

// Observe records a single transition.
func (c *TransitionCollector) Observe(t form.Transition) {
	c.transitions.WithLabelValues(t.From.String(), t.To.String()).Inc()
	switch {
	case t.To == form.PhaseSubmitting && t.From != form.PhaseSubmitting:
		c.inFlight.Inc()
	case t.From == form.PhaseSubmitting && t.To != form.PhaseSubmitting:
		c.inFlight.Dec()
	}
}

// StartEventCollector subscribes to the bus and records every transition.
// It stops when the context is canceled or the bus is closed; the returned
// channel is closed at that point.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[form.Transition], c *TransitionCollector) <-chan struct{} {
	if bus == nil || c == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return bus.Start(ctx, c.Observe)
}
