package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/healthpredictor/api/assessment"
	"github.com/kilianp07/healthpredictor/config"
	coremetrics "github.com/kilianp07/healthpredictor/core/metrics"
	"github.com/kilianp07/healthpredictor/core/form"
	"github.com/kilianp07/healthpredictor/infra/logger"
	"github.com/kilianp07/healthpredictor/infra/metrics"
	"github.com/kilianp07/healthpredictor/infra/mqtt"
	"github.com/kilianp07/healthpredictor/infra/predictor"
	"github.com/kilianp07/healthpredictor/internal/eventbus"
)

const sweepInterval = time.Minute

// Service wires the prediction client, the form sessions and their
// observers.
type Service struct {
	cfg       *config.Config
	log       logger.Logger
	client    *predictor.HTTPClient
	recorder  coremetrics.PredictionRecorder
	bus       *eventbus.TypedBus[form.Transition]
	collector *metrics.TransitionCollector
	publisher *mqtt.PahoPublisher
	store     *assessment.SessionStore
	handler   *assessment.Handler

	mu        sync.Mutex
	ln        net.Listener
	consumers []<-chan struct{}
	closeOnce sync.Once
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logg := logger.New("service")

	client := predictor.NewHTTPClient(cfg.Predictor)
	recorder, err := coremetrics.NewPredictionRecorder(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}
	collector, err := metrics.NewTransitionCollector(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("transition collector: %w", err)
	}

	svc := &Service{
		cfg:       cfg,
		log:       logg,
		client:    client,
		recorder:  recorder,
		bus:       eventbus.NewTypedWithBuffer[form.Transition](64),
		collector: collector,
	}

	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
	}

	svc.store = assessment.NewSessionStore(svc.NewController, cfg.Server.SessionIdle())
	if sr, ok := recorder.(coremetrics.SessionRecorder); ok {
		svc.store.SetRecorder(sr)
	}
	svc.handler, err = assessment.NewHandler(svc.store, assessment.WithPinger(client))
	if err != nil {
		return nil, fmt.Errorf("assessment handler: %w", err)
	}
	return svc, nil
}

// NewController returns a form controller bound to the service's predictor,
// recorder and transition bus.
func (s *Service) NewController(sessionID string) *form.Controller {
	return form.NewController(s.client,
		form.WithSessionID(sessionID),
		form.WithLogger(logger.New("form")),
		form.WithRecorder(s.recorder),
		form.WithPublisher(s.bus),
	)
}

// Handler returns the web front end.
func (s *Service) Handler() http.Handler { return s.handler }

// Sessions returns the live session store.
func (s *Service) Sessions() *assessment.SessionStore { return s.store }

// Start launches the transition consumers. It returns immediately; the
// consumers stop when ctx is done or the service is closed.
func (s *Service) Start(ctx context.Context) {
	done := []<-chan struct{}{
		metrics.StartEventCollector(ctx, s.bus, s.collector),
		s.bus.Start(ctx, s.logTransition),
	}
	if s.publisher != nil {
		done = append(done, s.publisher.Start(ctx, s.bus))
	}
	s.mu.Lock()
	s.consumers = append(s.consumers, done...)
	s.mu.Unlock()
}

func (s *Service) logTransition(t form.Transition) {
	if t.Cause != nil {
		s.log.Debugf("session %s: %s -> %s: %v", t.SessionID, t.From, t.To, t.Cause)
		return
	}
	s.log.Debugf("session %s: %s -> %s", t.SessionID, t.From, t.To)
}

// Listen binds the web server address. Run calls it when needed.
func (s *Service) Listen() (net.Addr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr(), nil
	}
	ln, err := net.Listen("tcp", s.cfg.Server.Address)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", s.cfg.Server.Address, err)
	}
	s.ln = ln
	return ln.Addr(), nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	addr, err := s.Listen()
	if err != nil {
		return err
	}
	s.Start(ctx)

	go s.store.Run(ctx, sweepInterval)
	if s.cfg.Metrics.PrometheusAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("serving health predictor on http://%s (backend %s)", addr, s.client.URL())
		if err := srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close stops the transition consumers once they have drained the bus and
// releases the broker connection and metrics writers.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.bus.Close()
		s.mu.Lock()
		consumers := s.consumers
		s.mu.Unlock()
		for _, done := range consumers {
			<-done
		}
		if s.publisher != nil {
			s.publisher.Disconnect()
		}
		closeRecorder(s.recorder)
	})
	return nil
}

func closeRecorder(r coremetrics.PredictionRecorder) {
	switch v := r.(type) {
	case interface{ Close() }:
		v.Close()
	case *coremetrics.MultiSink:
		for _, sink := range v.Sinks {
			closeRecorder(sink)
		}
	}
}
