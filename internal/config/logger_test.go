package config

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_ProductionIsJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production", "")

	logger.Debug("hidden")
	logger.Info("cycle", "camera_id", "gate-1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "cycle", rec["msg"])
	assert.Equal(t, "gate-1", rec["camera_id"])
	assert.Equal(t, "workforce", rec["service"])
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		env       string
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"development defaults to debug", "development", "", true, true},
		{"staging defaults to debug", "staging", "", true, true},
		{"production defaults to info", "production", "", false, true},
		{"override to warn", "development", "warn", false, false},
		{"override to debug in production", "production", "DEBUG", true, true},
		{"unparsable override ignored", "production", "loud", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.env, tt.level)

			logger.Debug("debug line")
			assert.Equal(t, tt.wantDebug, strings.Contains(buf.String(), "debug line"))

			logger.Info("info line")
			assert.Equal(t, tt.wantInfo, strings.Contains(buf.String(), "info line"))
		})
	}
}
