package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/healthpredictor/core/form"
	"github.com/kilianp07/healthpredictor/core/model"
	"github.com/kilianp07/healthpredictor/core/prediction"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestServer(t *testing.T, pred prediction.Predictor, opts ...Option) (*httptest.Server, *http.Client, *SessionStore) {
	t.Helper()
	store := NewSessionStore(func(id string) *form.Controller {
		return form.NewController(pred, form.WithSessionID(id))
	}, 0)
	h, err := NewHandler(store, opts...)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return srv, &http.Client{Jar: jar}, store
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestIndexCreatesSessionAndRendersDefaults(t *testing.T) {
	srv, cli, store := newTestServer(t, &prediction.MockPredictor{})

	resp, err := cli.Get(srv.URL + "/")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="age"`)
	assert.Contains(t, body, `value="50"`)
	assert.Contains(t, body, "Predict Health Risk")
	assert.NotContains(t, body, `id="results"`)
	assert.NotContains(t, body, `id="error"`)

	u, _ := url.Parse(srv.URL)
	cookies := cli.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)

	resp, err = cli.Get(srv.URL + "/")
	require.NoError(t, err)
	_ = readBody(t, resp)
	assert.Equal(t, 1, store.Len())
}

func TestSubmitFormRendersResults(t *testing.T) {
	pred := &prediction.MockPredictor{Result: model.NewResult(85, "Healthy")}
	srv, cli, _ := newTestServer(t, pred)

	resp, err := cli.PostForm(srv.URL+"/", url.Values{"age": {"63"}, "chol": {"245"}})
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `id="results"`)
	assert.Contains(t, body, "Healthy")
	assert.Contains(t, body, "#10B981")
	assert.Contains(t, body, "good condition")

	calls := pred.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 63.0, calls[0].Get(model.FieldAge))
	assert.Equal(t, 245.0, calls[0].Get(model.FieldCholesterol))
}

func TestSubmitFormRejectsInvalidField(t *testing.T) {
	pred := &prediction.MockPredictor{Result: model.NewResult(85, "Healthy")}
	srv, cli, _ := newTestServer(t, pred)

	resp, err := cli.PostForm(srv.URL+"/", url.Values{"age": {"300"}})
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "field-error")
	assert.Empty(t, pred.Calls())
}

func TestSubmitFormShowsError(t *testing.T) {
	pred := &prediction.MockPredictor{Err: &prediction.TransportError{Op: "request", Err: errors.New("refused")}}
	srv, cli, _ := newTestServer(t, pred)

	resp, err := cli.PostForm(srv.URL+"/", url.Values{})
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Contains(t, body, `id="error"`)
	assert.Contains(t, body, "Error predicting. Check backend server.")
	assert.NotContains(t, body, `id="results"`)
}

func TestAPIFieldAndPredict(t *testing.T) {
	pred := &prediction.MockPredictor{Result: model.NewResult(62, "Mild Risk")}
	srv, cli, _ := newTestServer(t, pred)

	resp, err := cli.Post(srv.URL+"/api/field", "application/json", strings.NewReader(`{"name":"oldpeak","value":2.5}`))
	require.NoError(t, err)
	var snap form.Snapshot
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &snap))
	assert.Equal(t, 2.5, snap.Input.Get(model.FieldOldpeak))

	resp, err = cli.Post(srv.URL+"/api/field", "application/json", strings.NewReader(`{"name":"sex","value":"1"}`))
	require.NoError(t, err)
	_ = readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = cli.Post(srv.URL+"/api/predict", "application/json", nil)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &out))
	assert.Equal(t, "succeeded", out["phase"])
	result, ok := out["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 62.0, result["score"])
	assert.Equal(t, "Mild Risk", result["category"])

	calls := pred.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 1.0, calls[0].Get(model.FieldSex))
}

func TestAPIFieldRejections(t *testing.T) {
	srv, cli, _ := newTestServer(t, &prediction.MockPredictor{})
	cases := []string{
		`{"name":"weight","value":80}`,
		`{"name":"age","value":"old"}`,
		`{"name":"thal","value":0}`,
		`not json`,
	}
	for _, body := range cases {
		resp, err := cli.Post(srv.URL+"/api/field", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		var out map[string]string
		require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &out), body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.NotEmpty(t, out["error"], body)
	}

	resp, err := cli.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	var st stateResponse
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &st))
	assert.Equal(t, model.DefaultInput(), st.Snapshot.Input)
}

func TestAPIStateIncludesView(t *testing.T) {
	srv, cli, _ := newTestServer(t, &prediction.MockPredictor{Err: &prediction.ApplicationError{Message: "invalid age"}})

	resp, err := cli.Post(srv.URL+"/api/predict", "application/json", nil)
	require.NoError(t, err)
	_ = readBody(t, resp)

	resp, err = cli.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	var out struct {
		View struct {
			Region string `json:"region"`
			Error  string `json:"error"`
		} `json:"view"`
	}
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &out))
	assert.Equal(t, "error", out.View.Region)
	assert.Equal(t, "invalid age", out.View.Error)
}

func TestSessionsAreIsolated(t *testing.T) {
	srv, cliA, store := newTestServer(t, &prediction.MockPredictor{})
	jar, _ := cookiejar.New(nil)
	cliB := &http.Client{Jar: jar}

	resp, err := cliA.Post(srv.URL+"/api/field", "application/json", strings.NewReader(`{"name":"age","value":70}`))
	require.NoError(t, err)
	_ = readBody(t, resp)

	resp, err = cliB.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	var st stateResponse
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &st))
	assert.Equal(t, 50.0, st.Snapshot.Input.Get(model.FieldAge))
	assert.Equal(t, 2, store.Len())
}

func TestHealthz(t *testing.T) {
	srv, cli, _ := newTestServer(t, &prediction.MockPredictor{}, WithPinger(stubPinger{err: errors.New("down")}))
	resp, err := cli.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(readBody(t, resp)), &out))
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "down", out["backend"])

	u, _ := url.Parse(srv.URL)
	assert.Empty(t, cli.Jar.Cookies(u))
}

type countRecorder struct{ last int }

func (c *countRecorder) RecordActiveSessions(n int) error { c.last = n; return nil }

func TestSessionStoreSweep(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore(func(id string) *form.Controller {
		return form.NewController(&prediction.MockPredictor{}, form.WithSessionID(id))
	}, 10*time.Minute)
	store.now = func() time.Time { return now }
	rec := &countRecorder{}
	store.SetRecorder(rec)

	a := store.Create()
	b := store.Create()
	assert.Equal(t, 2, rec.last)

	now = now.Add(6 * time.Minute)
	_, ok := store.Get(a.SessionID())
	require.True(t, ok)

	now = now.Add(6 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	_, ok = store.Get(b.SessionID())
	assert.False(t, ok)
	_, ok = store.Get(a.SessionID())
	assert.True(t, ok)
	assert.Equal(t, 1, rec.last)
}
