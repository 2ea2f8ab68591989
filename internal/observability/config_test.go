package observability

import (
	"testing"

	"github.com/smallbiznis/studiobooks/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigNormalizesTelemetry(t *testing.T) {
	cfg := LoadConfig(config.Config{
		Environment: "production",
		AppVersion:  "1.2.3",
		Telemetry: config.TelemetryConfig{
			LogLevel:      "info",
			OTLPEnabled:   true,
			OTLPEndpoint:  "collector:4317",
			OTLPProtocol:  "thrift",
			SamplingRatio: 4,
		},
	})

	assert.Equal(t, defaultServiceName, cfg.ServiceName)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.Equal(t, 1.0, cfg.OtelSamplingRatio)
	assert.True(t, cfg.OtelEnabled)
	assert.False(t, cfg.Debug())
}

func TestDebugFollowsLevelAndEnvironment(t *testing.T) {
	assert.True(t, Config{LogLevel: "DEBUG", Environment: "production"}.Debug())
	assert.True(t, Config{LogLevel: "info", Environment: "Development"}.Debug())
	assert.False(t, Config{LogLevel: "warn", Environment: "staging"}.Debug())
}
