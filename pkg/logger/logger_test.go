package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meglermonitor/backend/pkg/config"
)

func TestNew(t *testing.T) {
	cfg := &config.Config{Env: "development", LogLevel: "debug", LogFormat: "json"}
	log := New(cfg)
	assert.NotNil(t, log)

	// Derived loggers share the base but carry their fields.
	withField := log.WithField("component", "test")
	assert.NotNil(t, withField)
	assert.NotSame(t, log, withField)

	withErr := log.WithError(errors.New("boom"))
	assert.NotNil(t, withErr)
}

func TestRequestScopedFields(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{Env: "development", LogLevel: "info", LogFormat: "json"}
	log := NewWithWriter(cfg, &buf)

	log.WithComponent("api").
		WithRequest("GET", "/health").
		WithDuration(42 * time.Millisecond).
		Info("Request handled")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "api", entry["component"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/health", entry["path"])
	assert.Equal(t, "Request handled", entry["message"])
	assert.Contains(t, entry, "duration")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"WARN", "warn"},
		{"warning", "warn"},
		{"error", "error"},
		{"bogus", "info"},
		{"", "info"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.input).String(), "input %q", tt.input)
	}
}
