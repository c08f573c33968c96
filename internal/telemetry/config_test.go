package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, DefaultServiceName, cfg.GetServiceName())
	assert.Equal(t, "unknown", cfg.GetServiceVersion())
	assert.Equal(t, DefaultEndpoint, cfg.GetEndpoint())

	cfg = &Config{ServiceName: "usb-ids-ci", ServiceVersion: "v1.2.3", Endpoint: "collector:4318"}
	assert.Equal(t, "usb-ids-ci", cfg.GetServiceName())
	assert.Equal(t, "v1.2.3", cfg.GetServiceVersion())
	assert.Equal(t, "collector:4318", cfg.GetEndpoint())
}

func TestTracingConfig_GetSampling(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultSampling, (&TracingConfig{}).GetSampling())
	assert.Equal(t, 0.5, (&TracingConfig{Sampling: 0.5}).GetSampling())
}

func TestMetricsConfig_GetInterval(t *testing.T) {
	t.Parallel()

	var nilCfg *MetricsConfig
	assert.Equal(t, DefaultMetricsInterval, nilCfg.GetInterval())
	assert.Equal(t, DefaultMetricsInterval, (&MetricsConfig{}).GetInterval())
	assert.Equal(t, DefaultMetricsInterval, (&MetricsConfig{Interval: "bogus"}).GetInterval())
	assert.Equal(t, 15*time.Second, (&MetricsConfig{Interval: "15s"}).GetInterval())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{name: "nil config", cfg: nil},
		{name: "disabled ignores bad values", cfg: &Config{Tracing: &TracingConfig{Enabled: true, Sampling: 3}}},
		{name: "valid", cfg: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true, Sampling: 1},
			Metrics: &MetricsConfig{Enabled: true, Interval: "30s"},
		}},
		{
			name:    "sampling above one",
			cfg:     &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 1.5}},
			wantErr: "tracing: sampling must be between 0.0 and 1.0",
		},
		{
			name:    "negative sampling",
			cfg:     &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: -0.1}},
			wantErr: "sampling must be between",
		},
		{
			name:    "bad metrics interval",
			cfg:     &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true, Interval: "soon"}},
			wantErr: "metrics: interval must be a valid duration",
		},
		{
			name:    "zero metrics interval",
			cfg:     &Config{Enabled: true, Metrics: &MetricsConfig{Enabled: true, Interval: "0s"}},
			wantErr: "interval must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
