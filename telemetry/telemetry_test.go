package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
)

//nolint:paralleltest // t.Setenv
func TestLoadConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("KUBERNETES_SERVICE_HOST", "")

	config, err := LoadConfigFromEnv()
	require.NoError(t, err)

	assert.False(t, config.Enabled)
	assert.Equal(t, "fsm", config.ServiceName)
	assert.Equal(t, "1.0.0", config.ServiceVersion)
	assert.Empty(t, config.TracesEndpoint)
	assert.Empty(t, config.LogsEndpoint)
}

//nolint:paralleltest // t.Setenv
func TestLoadConfigFromEnvKubernetes(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		custom   string
		expected string
	}{
		{name: "in cluster", host: "10.0.0.1", expected: kubernetesCollectorEndpoint},
		{name: "outside cluster", expected: ""},
		{name: "custom endpoint wins", host: "10.0.0.1", custom: "http://collector:4318", expected: "http://collector:4318"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KUBERNETES_SERVICE_HOST", tt.host)
			t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", tt.custom)

			config, err := LoadConfigFromEnv()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, config.TracesEndpoint)
		})
	}
}

//nolint:paralleltest // t.Setenv
func TestLoadConfigFromEnvInvalid(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_TIMEOUT", "soon")

	_, err := LoadConfigFromEnv()
	assert.Error(t, err)
}

func TestInitializeDisabled(t *testing.T) {
	t.Parallel()

	tel, err := Initialize(t.Context(), &Config{Enabled: false})
	require.NoError(t, err)

	assert.False(t, tel.TracingEnabled())
	assert.Nil(t, tel.LogHandler())
	require.NoError(t, tel.Shutdown(t.Context()))

	tel, err = Initialize(t.Context(), &Config{Enabled: true})
	require.NoError(t, err)
	assert.False(t, tel.TracingEnabled())

	var nilTel *Telemetry
	require.NoError(t, nilTel.Shutdown(t.Context()))
}

// The exporters connect lazily, so nothing needs to listen on the endpoints.
//
//nolint:paralleltest // Test modifies global OTEL providers
func TestInitializeEnabled(t *testing.T) {
	oldTracer := otel.GetTracerProvider()
	oldLogger := global.GetLoggerProvider()

	t.Cleanup(func() {
		otel.SetTracerProvider(oldTracer)
		global.SetLoggerProvider(oldLogger)
	})

	tel, err := Initialize(t.Context(), &Config{
		Enabled:        true,
		ServiceName:    "fsm-test",
		ServiceVersion: "0.0.1",
		Environment:    "test",
		TracesEndpoint: "http://127.0.0.1:4318/v1/traces",
		LogsEndpoint:   "http://127.0.0.1:4318/v1/logs",
		Timeout:        100 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.True(t, tel.TracingEnabled())
	assert.NotNil(t, tel.LogHandler())
	assert.Same(t, tel.tracerProvider, otel.GetTracerProvider())

	require.NoError(t, tel.Shutdown(t.Context()))
}
