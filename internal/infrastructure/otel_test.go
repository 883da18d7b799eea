package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yeogiro/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeOTel_MetricsOnly(t *testing.T) {
	cfg := config.Default().Telemetry

	providers, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	require.NotNil(t, providers.MeterProvider)
	require.NotNil(t, providers.MetricsHandler)

	metrics, err := NewMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordStoreTransition(context.Background(), "map", "open", 20*time.Millisecond, nil)
	metrics.RecordStoreReady(context.Background(), "map", 1)

	rec := httptest.NewRecorder()
	providers.MetricsHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "store_transition_duration_seconds")
	assert.Contains(t, body, "store_ready")
	assert.Contains(t, body, "go_goroutines")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestInitializeOTel_TwiceInOneProcess(t *testing.T) {
	cfg := config.Default().Telemetry

	first, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)
	second, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)

	assert.NotSame(t, first.Registry, second.Registry)
	assert.NoError(t, first.Shutdown(context.Background()))
	assert.NoError(t, second.Shutdown(context.Background()))
}

func TestInitializeOTel_Disabled(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.MetricsEnabled = false
	cfg.TracingEnabled = false

	providers, err := InitializeOTel(cfg, discardLogger())
	require.NoError(t, err)
	assert.Nil(t, providers.MetricsHandler)
	assert.Nil(t, providers.MeterProvider)

	// noop meter still yields usable instruments
	metrics, err := NewMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordStoreReady(context.Background(), "path", 1)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	cfg := config.Default().Telemetry
	cfg.TracingEnabled = true
	cfg.TracingExporter = "jaeger"

	_, err := InitializeOTel(cfg, discardLogger())
	assert.Error(t, err)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordStoreTransition(context.Background(), "map", "close", time.Second, nil)
	m.RecordStoreReady(context.Background(), "map", -1)
}
