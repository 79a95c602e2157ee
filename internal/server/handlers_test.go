package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse/brandpulse/internal/config"
	"github.com/brandpulse/brandpulse/internal/domain"
	"github.com/brandpulse/brandpulse/internal/pipeline"
)

type stubStats struct {
	snapshot pipeline.Stats
}

func (s *stubStats) Stats() pipeline.Stats { return s.snapshot }

type stubAlertHistory struct {
	alerts    []domain.Alert
	lastLimit int
}

func (s *stubAlertHistory) History(limit int) []domain.Alert {
	s.lastLimit = limit
	return s.alerts
}

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(context.Context) error { return s.err }

func newTestServer(stats *stubStats, alerts *stubAlertHistory, ping pinger) *Server {
	cfg := &config.Config{Port: "8080"}
	if stats == nil {
		stats = &stubStats{}
	}
	if alerts == nil {
		alerts = &stubAlertHistory{}
	}
	return NewServer(cfg, stats, alerts, ping)
}

func TestHandleHealth_OK(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	require.NoError(t, srv.handleHealth(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleHealth_StoreDown(t *testing.T) {
	srv := newTestServer(nil, nil, &stubPinger{err: errors.New("connection refused")})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	require.NoError(t, srv.handleHealth(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "store", body["failed_check"])
}

func TestHandleStats_ReturnsSnapshot(t *testing.T) {
	stats := &stubStats{snapshot: pipeline.Stats{
		State:         pipeline.StateRunning,
		PostsReceived: 42,
		PostsOutput:   40,
	}}
	srv := newTestServer(stats, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	require.NoError(t, srv.handleStats(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body pipeline.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, pipeline.StateRunning, body.State)
	assert.Equal(t, int64(42), body.PostsReceived)
}

func TestHandleAlerts_DefaultLimit(t *testing.T) {
	history := &stubAlertHistory{alerts: []domain.Alert{{ID: "a1", Type: domain.AlertNegativeSpike}}}
	srv := newTestServer(nil, history, nil)
	req := httptest.NewRequest(http.MethodGet, "/alerts", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	require.NoError(t, srv.handleAlerts(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultAlertHistoryLimit, history.lastLimit)

	var body []domain.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "a1", body[0].ID)
}

func TestHandleAlerts_InvalidLimit(t *testing.T) {
	srv := newTestServer(nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/alerts?limit=abc", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	require.NoError(t, srv.handleAlerts(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
