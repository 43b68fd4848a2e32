package observability

import (
	"testing"

	"github.com/smallbiznis/roomwatt/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigQuietRoutes(t *testing.T) {
	t.Setenv("LOG_QUIET_ROUTES", "")
	cfg := LoadConfig(config.Config{Environment: "production"})
	assert.Equal(t, defaultQuietRoutes, cfg.QuietRoutes)
	assert.Equal(t, "roomwatt", cfg.ServiceName)

	t.Setenv("LOG_QUIET_ROUTES", " /health , ,/ready")
	cfg = LoadConfig(config.Config{})
	assert.Equal(t, []string{"/health", "/ready"}, cfg.QuietRoutes)
}

func TestRequestLogConfig(t *testing.T) {
	cfg := Config{Environment: "production", LogLevel: "info", QuietRoutes: []string{"/health"}}
	classify := func(error) (string, string) { return "internal", "boom" }

	mw := cfg.RequestLogConfig(classify)
	assert.False(t, mw.Debug)
	assert.Equal(t, []string{"/health"}, mw.QuietRoutes)
	assert.NotNil(t, mw.ErrorClassifier)

	cfg.LogLevel = "debug"
	assert.True(t, cfg.RequestLogConfig(classify).Debug)
}
