// Package backend implements a local stand-in for the remote prediction
// service.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/healthpredictor/core/model"
	"github.com/kilianp07/healthpredictor/infra/logger"
)

// StatusMessage is returned by GET /.
const StatusMessage = "Smart Health Predictor API is running!"

// Server exposes the prediction endpoints over HTTP.
type Server struct {
	cfg    Config
	log    logger.Logger
	total  *prometheus.CounterVec
	failed prometheus.Counter

	mu   sync.Mutex
	addr string
	srv  *http.Server
}

// NewServer creates a mock backend using the default Prometheus registerer.
func NewServer(cfg Config) *Server {
	return NewServerWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewServerWithRegistry creates a mock backend and registers metrics on the
// provided registerer. If reg is nil the default registerer is used.
func NewServerWithRegistry(cfg Config, reg prometheus.Registerer) *Server {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cfg.SetDefaults()
	log := logger.New("mock-backend")

	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mock_predictions_total",
		Help: "Predictions served by the mock backend",
	}, []string{"category"})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mock_predictions_failed",
		Help: "Prediction requests answered with an error",
	})

	if err := reg.Register(total); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				total = exist
			} else {
				log.Errorf("existing collector for mock_predictions_total has wrong type %T", are.ExistingCollector)
			}
		}
	}
	if err := reg.Register(failed); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(prometheus.Counter); ok {
				failed = exist
			} else {
				log.Errorf("existing collector for mock_predictions_failed has wrong type %T", are.ExistingCollector)
			}
		}
	}

	return &Server{cfg: cfg, addr: cfg.Address, log: log, total: total, failed: failed}
}

// Handler returns the HTTP routes of the mock backend.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleStatus)
	mux.HandleFunc("POST /{$}", s.handlePredict)
	mux.HandleFunc("POST /predict", s.handlePredict)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": StatusMessage})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Mode == ModeError {
		s.fail(w, http.StatusInternalServerError, s.cfg.ErrorMessage)
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		s.fail(w, http.StatusBadRequest, err.Error())
		return
	}
	var in model.FormInput
	if err := json.Unmarshal(data, &in); err != nil {
		s.fail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		s.fail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	score := s.cfg.FixedScore
	label := s.cfg.FixedCategory
	if s.cfg.Mode == ModeModel {
		p := Probability(in)
		score = HealthScore(p)
		label = Classify(p).String()
	}
	s.total.WithLabelValues(label).Inc()
	s.log.Debugw("prediction served", map[string]any{"score": score, "category": label})

	var scoreValue any = score
	if s.cfg.PercentScore {
		scoreValue = strconv.FormatFloat(score, 'f', -1, 64) + "%"
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		model.KeyScore:    scoreValue,
		model.KeyCategory: label,
	})
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string) {
	s.failed.Inc()
	s.log.Warnf("prediction rejected: %s", msg)
	s.writeJSON(w, status, map[string]string{model.KeyError: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorf("write response: %v", err)
	}
}

// Addr returns the listening address once Start has been called.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Start runs the HTTP server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln until the context is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.srv = srv
	s.mu.Unlock()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("shutdown server: %v", err)
		}
		cancel()
	}()
	s.log.Infof("mock backend listening on %s (mode %s)", ln.Addr(), s.cfg.Mode)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
