package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", true)
	log.Debug().Str("trip", "t1").Msg("trip saved")

	var payload map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &payload))
	assert.Equal(t, "debug", payload["level"])
	assert.Equal(t, "wanderplan", payload["service"])
	assert.Equal(t, "t1", payload["trip"])
	assert.Equal(t, "trip saved", payload["message"])
	assert.Contains(t, payload, "time")
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
	}{
		{"debug", true, true},
		{"INFO", false, true},
		{"warn", false, false},
		{"", false, true},
		{"chatty", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(&buf, tt.level, true)
			log.Debug().Msg("d")
			log.Info().Msg("i")

			out := buf.String()
			assert.Equal(t, tt.wantDebug, strings.Contains(out, `"message":"d"`))
			assert.Equal(t, tt.wantInfo, strings.Contains(out, `"message":"i"`))
		})
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", false)
	log.Info().Str("trip", "t1").Msg("trip created")

	out := buf.String()
	assert.Contains(t, out, "trip created")
	assert.Contains(t, out, "trip=t1")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
