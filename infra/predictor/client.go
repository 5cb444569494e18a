// Package predictor implements prediction.Predictor over HTTP.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/healthpredictor/core/model"
	"github.com/kilianp07/healthpredictor/core/prediction"
	"github.com/kilianp07/healthpredictor/infra/logger"
)

// maxBody caps the response size read from the backend.
const maxBody = 1 << 20

// HTTPClient posts forms to the remote prediction endpoint.
type HTTPClient struct {
	url      string
	client   *http.Client
	log      logger.Logger
	requests *prometheus.CounterVec
	latency  prometheus.Histogram
}

// NewHTTPClient creates a client registering its metrics on the default
// Prometheus registerer.
func NewHTTPClient(cfg Config) *HTTPClient {
	return NewHTTPClientWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewHTTPClientWithRegistry creates a client and registers metrics on reg. If
// reg is nil the default registerer is used.
func NewHTTPClientWithRegistry(cfg Config, reg prometheus.Registerer) *HTTPClient {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cfg.SetDefaults()
	log := logger.New("predictor-client")

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "predictor_requests_total",
		Help: "Prediction requests sent to the backend by outcome",
	}, []string{"outcome"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "predictor_request_duration_seconds",
		Help:    "Round-trip time of prediction requests",
		Buckets: prometheus.DefBuckets,
	})
	if err := reg.Register(requests); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				requests = exist
			} else {
				log.Errorf("existing collector for predictor_requests_total has wrong type %T", are.ExistingCollector)
			}
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				latency = exist
			} else {
				log.Errorf("existing collector for predictor_request_duration_seconds has wrong type %T", are.ExistingCollector)
			}
		}
	}

	return &HTTPClient{
		url:      cfg.URL,
		client:   &http.Client{Timeout: cfg.Timeout()},
		log:      log,
		requests: requests,
		latency:  latency,
	}
}

// URL returns the endpoint the client posts to.
func (c *HTTPClient) URL() string { return c.url }

// Predict sends in as JSON and classifies the answer. A body carrying an
// "error" key is an *prediction.ApplicationError whatever the status code;
// anything else that does not hold both a score and a category is a
// *prediction.TransportError.
func (c *HTTPClient) Predict(ctx context.Context, in model.FormInput) (model.Result, error) {
	start := time.Now()
	res, err := c.do(ctx, in)
	c.latency.Observe(time.Since(start).Seconds())
	var ae *prediction.ApplicationError
	switch {
	case err == nil:
		c.requests.WithLabelValues("success").Inc()
	case errors.As(err, &ae):
		c.requests.WithLabelValues("application_error").Inc()
	default:
		c.requests.WithLabelValues("transport_error").Inc()
	}
	return res, err
}

func (c *HTTPClient) do(ctx context.Context, in model.FormInput) (model.Result, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return model.Result{}, &prediction.TransportError{Op: "encode", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return model.Result{}, &prediction.TransportError{Op: "request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return model.Result{}, &prediction.TransportError{Op: "request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return model.Result{}, &prediction.TransportError{Op: "read", Err: err}
	}
	c.log.Debugw("prediction response", map[string]any{"status": resp.StatusCode, "bytes": len(data)})
	return decodeResponse(resp.StatusCode, data)
}

func decodeResponse(status int, data []byte) (model.Result, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return model.Result{}, &prediction.TransportError{Op: "decode", Err: fmt.Errorf("status %d: %w", status, err)}
	}
	if raw, ok := fields[model.KeyError]; ok {
		if msg, set := errorText(raw); set {
			return model.Result{}, &prediction.ApplicationError{Message: msg}
		}
	}
	rawScore, okScore := fields[model.KeyScore]
	rawCat, okCat := fields[model.KeyCategory]
	if !okScore || !okCat {
		return model.Result{}, &prediction.TransportError{Op: "decode", Err: fmt.Errorf("status %d: response lacks %q or %q", status, model.KeyScore, model.KeyCategory)}
	}
	score, err := model.ParseScore(rawScore)
	if err != nil {
		return model.Result{}, &prediction.TransportError{Op: "decode", Err: err}
	}
	var label *string
	if err := json.Unmarshal(rawCat, &label); err != nil {
		return model.Result{}, &prediction.TransportError{Op: "decode", Err: fmt.Errorf("risk category: %w", err)}
	}
	if label == nil {
		return model.Result{}, &prediction.TransportError{Op: "decode", Err: fmt.Errorf("risk category is null")}
	}
	return model.NewResult(score, *label), nil
}

// errorText renders the "error" value and reports whether it is set. null,
// "", false and 0 count as unset; other non-string values are shown as JSON.
func errorText(raw json.RawMessage) (string, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw), true
	}
	switch e := v.(type) {
	case nil:
		return "", false
	case string:
		return e, e != ""
	case bool:
		if !e {
			return "", false
		}
	case float64:
		if e == 0 {
			return "", false
		}
	}
	return string(bytes.TrimSpace(raw)), true
}

// Ping issues a GET on the root of the endpoint's host and reports whether
// the service answered with a 2xx status.
func (c *HTTPClient) Ping(ctx context.Context) error {
	u, err := url.Parse(c.url)
	if err != nil {
		return err
	}
	u.Path = "/"
	u.RawQuery = ""
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", u.Host, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ping %s: status %d", u.Host, resp.StatusCode)
	}
	return nil
}

var _ prediction.Predictor = (*HTTPClient)(nil)
