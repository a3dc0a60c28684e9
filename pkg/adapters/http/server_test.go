package http_test

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/vestibule"
	vhttp "github.com/aretw0/vestibule/pkg/adapters/http"
	"github.com/aretw0/vestibule/pkg/adapters/memory"
	"github.com/aretw0/vestibule/pkg/clock"
	"github.com/aretw0/vestibule/pkg/domain"
	"github.com/aretw0/vestibule/pkg/metrics"
)

type fixture struct {
	clock   *clock.Manual
	app     *vestibule.App
	handler http.Handler
}

func newFixture(t *testing.T, opts ...vhttp.Option) *fixture {
	t.Helper()
	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	app, err := vestibule.New(vestibule.WithClock(clk), vestibule.WithScene(memory.NewScene(clk)))
	require.NoError(t, err)
	require.NoError(t, app.Start("/"))
	clk.Advance(2 * time.Second)
	return &fixture{clock: clk, app: app, handler: vhttp.NewHandler(app, opts...)}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, vhttp.Result) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	var res vhttp.Result
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	}
	return w, res
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w, _ := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestState(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, domain.Idle, snap.Phase)
	assert.True(t, snap.Interactive)
}

func TestMenuCommands(t *testing.T) {
	f := newFixture(t)

	w, res := f.do(t, http.MethodPost, "/menu/open", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, res.Accepted)
	assert.Equal(t, domain.MenuOpening, res.State.Phase)

	w, res = f.do(t, http.MethodPost, "/menu/open", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, res.Accepted)
	assert.NotEmpty(t, res.Error)

	f.clock.Advance(2 * time.Second)
	w, res = f.do(t, http.MethodPost, "/menu/close", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.MenuClosing, res.State.Phase)
}

func TestTransition(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodPost, "/transition", `{"phase":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, res := f.do(t, http.MethodPost, "/transition", `{"phase":"subpage"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.Subpage, res.State.Phase)

	w, res = f.do(t, http.MethodPost, "/transition", `{"phase":"Idle"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, domain.Subpage, res.State.Phase)
}

func TestKeysAndClick(t *testing.T) {
	f := newFixture(t)

	w, res := f.do(t, http.MethodPost, "/keys/x", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, res.Accepted)

	_, res = f.do(t, http.MethodPost, "/keys/space", "")
	assert.True(t, res.Accepted)
	assert.Equal(t, domain.MenuOpening, res.State.Phase)

	_, res = f.do(t, http.MethodPost, "/click", "")
	assert.False(t, res.Accepted)
}

func TestNavigationHooks(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodPost, "/routes/before", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, res := f.do(t, http.MethodPost, "/routes/before", `{"route":"/photos"}`)
	assert.Equal(t, domain.TransitioningToSubpage, res.State.Phase)

	_, res = f.do(t, http.MethodPost, "/routes/after", "")
	assert.Equal(t, domain.Subpage, res.State.Phase)
	assert.Equal(t, "/photos", res.State.Route)

	w, _ = f.do(t, http.MethodPost, "/routes/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	_, res = f.do(t, http.MethodPost, "/enforce", "")
	assert.Equal(t, domain.Subpage, res.State.Phase)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(metrics.New("")))
	f := newFixture(t, vhttp.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEvents(t *testing.T) {
	streams := vhttp.NewStreamManager()
	f := newFixture(t, vhttp.WithStreams(streams))
	_, err := f.app.Subscribe(domain.AnyPhase, domain.AnyPhase, streams.Publish)
	require.NoError(t, err)

	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	require.True(t, f.app.OpenMenu())

	var data string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			data = strings.TrimPrefix(lines.Text(), "data: ")
			break
		}
	}
	var rec domain.TransitionRecord
	require.NoError(t, json.Unmarshal([]byte(data), &rec))
	assert.Equal(t, domain.Idle, rec.From)
	assert.Equal(t, domain.MenuOpening, rec.To)
}

func TestStreamManager_SlowClientDoesNotBlock(t *testing.T) {
	sm := vhttp.NewStreamManager()
	_, cancel := sm.Subscribe()
	defer cancel()
	assert.Equal(t, 1, sm.Len())

	for range 100 {
		sm.Broadcast("x")
	}
	cancel()
	cancel()
	assert.Zero(t, sm.Len())
}
