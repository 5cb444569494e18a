package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/healthpredictor/backend"
	"github.com/kilianp07/healthpredictor/config"
	"github.com/kilianp07/healthpredictor/core/factory"
	"github.com/kilianp07/healthpredictor/core/form"
	_ "github.com/kilianp07/healthpredictor/infra/metrics"
)

func newBackend(t *testing.T, cfg backend.Config) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(backend.NewServerWithRegistry(cfg, prometheus.NewRegistry()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(backendURL string) *config.Config {
	cfg := config.Default()
	cfg.Server.Address = "127.0.0.1:0"
	cfg.Predictor.URL = backendURL
	cfg.Logging.Level = "error"
	return cfg
}

func TestServiceServesPredictions(t *testing.T) {
	be := newBackend(t, backend.Config{Mode: backend.ModeFixed, FixedScore: 85, FixedCategory: "Healthy"})
	svc, err := New(testConfig(be.URL))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	web := httptest.NewServer(svc.Handler())
	defer web.Close()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	cli := &http.Client{Jar: jar}

	resp, err := cli.Post(web.URL+"/api/predict", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap form.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, form.PhaseSucceeded, snap.Phase)
	require.NotNil(t, snap.Result)
	assert.Equal(t, 85.0, snap.Result.Score)
	assert.Equal(t, "Healthy", snap.Result.Label)
	assert.Equal(t, 1, svc.Sessions().Len())
}

func TestServiceControllerReportsBackendError(t *testing.T) {
	be := newBackend(t, backend.Config{Mode: backend.ModeError, ErrorMessage: "model offline"})
	svc, err := New(testConfig(be.URL))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	s := svc.NewController("cli").Submit(context.Background())
	assert.Equal(t, form.PhaseFailed, s.Phase)
	assert.Equal(t, "model offline", s.Error)
}

func TestServiceRunAndShutdown(t *testing.T) {
	be := newBackend(t, backend.Config{})
	svc, err := New(testConfig(be.URL))
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	addr, err := svc.Listen()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	resp, err := http.Get("http://" + addr.String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"backend":"up"`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestNewRejectsUnknownSink(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "statsd"}}
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestCloseStopsConsumers(t *testing.T) {
	be := newBackend(t, backend.Config{})
	svc, err := New(testConfig(be.URL))
	require.NoError(t, err)

	svc.Start(context.Background())
	assert.Equal(t, 2, svc.bus.Subscribers())

	svc.NewController("s1").Submit(context.Background())
	require.NoError(t, svc.Close())
	require.NoError(t, svc.Close())
	assert.Equal(t, 0, svc.bus.Subscribers())
}
