package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureSetsServiceField(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "testsvc"})

	logger := WithComponent("poller")
	logger.Info().Str("event", "test").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "testsvc", entry["service"])
	assert.Equal(t, "poller", entry["component"])
	assert.Equal(t, "hello", entry["message"])
}

func TestConfigureInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "nonsense", Output: &buf})

	logger := Base()
	logger.Debug().Msg("should be suppressed")
	assert.Empty(t, buf.String())

	logger.Info().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}
