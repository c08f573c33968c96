package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	for _, cfg := range []*Config{nil, {Enabled: false}} {
		tel, err := New(context.Background(), cfg)
		require.NoError(t, err)
		require.NotNil(t, tel)

		assert.IsType(t, tracenoop.TracerProvider{}, tel.TracerProvider())
		assert.IsType(t, metricnoop.MeterProvider{}, tel.MeterProvider())
		assert.Nil(t, tel.MetricsHandler())
		assert.NoError(t, tel.Shutdown(context.Background()))
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), &Config{
		Enabled: true,
		Tracing: &TracingConfig{Enabled: true, Sampling: 4},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid telemetry configuration")
}

func TestNew_EnabledWithoutSignals(t *testing.T) {
	t.Parallel()

	// Enabled globally but with no signal turned on yields no-op providers
	tel, err := New(context.Background(), &Config{Enabled: true})
	require.NoError(t, err)

	assert.IsType(t, tracenoop.TracerProvider{}, tel.TracerProvider())
	assert.IsType(t, metricnoop.MeterProvider{}, tel.MeterProvider())
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNoOp_PipelineMetrics(t *testing.T) {
	t.Parallel()

	metrics, err := NewPipelineMetrics(NewNoOp().MeterProvider())
	require.NoError(t, err)
	require.NotNil(t, metrics)

	metrics.RecordFetchAttempt(context.Background(), "systemd", OutcomeSuccess)
}

func TestNew_PrometheusHandler(t *testing.T) {
	t.Parallel()

	tel, err := New(context.Background(), &Config{
		Enabled:  true,
		Endpoint: "127.0.0.1:1",
		Insecure: true,
		Metrics:  &MetricsConfig{Enabled: true, Prometheus: true},
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		// The OTLP reader cannot reach the collector; only the scrape path matters here
		_ = tel.Shutdown(ctx)
	})

	handler := tel.MetricsHandler()
	require.NotNil(t, handler)

	metrics, err := NewPipelineMetrics(tel.MeterProvider())
	require.NoError(t, err)
	metrics.RecordFetchAttempt(context.Background(), "systemd", OutcomeSuccess)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "usb_ids_fetch_attempts")
	assert.Contains(t, rr.Body.String(), `source="systemd"`)
}
