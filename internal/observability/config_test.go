package observability

import (
	"testing"

	"github.com/smallbiznis/dunning/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DEPLOYMENT_ENV", "")
	t.Setenv("OTEL_SAMPLING_RATIO", "")
	t.Setenv("OTEL_SPAN_WORKSPACE_ID", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SERVICE_VERSION", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	got := LoadConfig(config.Config{Environment: "production", AppVersion: "1.2.0", OTLPEndpoint: "collector:4317"})
	assert.Equal(t, "dunning", got.ServiceName)
	assert.Equal(t, "1.2.0", got.Version)
	assert.Equal(t, "collector:4317", got.OtelExporterEndpoint)
	assert.Equal(t, 0.1, got.OtelSamplingRatio)
	assert.True(t, got.SpanWorkspaceIDs)
	assert.False(t, got.Debug())
}

func TestLoadConfigDevelopmentSamplesEverything(t *testing.T) {
	t.Setenv("DEPLOYMENT_ENV", "")
	t.Setenv("OTEL_SAMPLING_RATIO", "")

	got := LoadConfig(config.Config{Environment: "development"})
	assert.Equal(t, 1.0, got.OtelSamplingRatio)
	assert.True(t, got.Debug())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DEPLOYMENT_ENV", "staging")
	t.Setenv("OTEL_SAMPLING_RATIO", "4")
	t.Setenv("OTEL_SPAN_WORKSPACE_ID", "off")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", " HTTP ")

	got := LoadConfig(config.Config{Environment: "production"})
	assert.Equal(t, "staging", got.Environment)
	assert.Equal(t, 1.0, got.OtelSamplingRatio)
	assert.Equal(t, "http", got.OtelExporterProtocol)
	assert.False(t, got.SpanWorkspaceIDs)
}
