package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lhu-dashboard-api/internal/service"
)

func TestMetricsHandlerReady(t *testing.T) {
	handler := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"schedules": func(context.Context) error { return nil },
	}, func() bool { return false })

	c, rec := newStudentContext(http.MethodGet, "/ready", nil)
	handler.Ready(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["upstreamOnline"])
}

func TestMetricsHandlerReadyDegraded(t *testing.T) {
	handler := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"schedules": func(context.Context) error { return errors.New("database is locked") },
	}, nil)

	c, rec := newStudentContext(http.MethodGet, "/ready", nil)
	handler.Ready(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database is locked")
}

func TestMetricsHandlerPrometheusAndSnapshot(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordCacheLookup("schedules", "hit")
	handler := NewMetricsHandler(metrics, nil, nil)

	c, rec := newStudentContext(http.MethodGet, "/metrics", nil)
	handler.Prometheus(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "cache_lookups_total"))

	c, rec = newStudentContext(http.MethodGet, "/metrics/snapshot", nil)
	handler.Snapshot(c)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(1), envelope.Data["cacheHits"])

	disabled := NewMetricsHandler(nil, nil, nil)
	c, rec = newStudentContext(http.MethodGet, "/metrics", nil)
	disabled.Prometheus(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
