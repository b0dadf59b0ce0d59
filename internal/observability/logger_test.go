// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/dkharel/meroflow/internal/config"
)

// initWithBuffer initializes the global logger against an in-memory sink and
// guarantees isolation from other tests.
func initWithBuffer(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

func TestInitializeConsoleLogger(t *testing.T) {
	buf := initWithBuffer(t, config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "meroflow-test",
	})

	GetLogger().Info("Session created.")

	output := buf.String()
	assert.Contains(t, output, "INFO")
	assert.Contains(t, output, "Session created.")
	assert.Contains(t, output, "meroflow-test.")
}

func TestInitializeJSONLogger(t *testing.T) {
	buf := initWithBuffer(t, config.LoggerConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "meroflow-test",
	})

	GetLogger().Warn("Submit tier not actionable.")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "Submit tier not actionable.", entry["msg"])
}

func TestLevelFiltering(t *testing.T) {
	buf := initWithBuffer(t, config.LoggerConfig{
		Level:  "warn",
		Format: "json",
	})

	GetLogger().Info("quiet")
	GetLogger().Warn("loud")

	output := buf.String()
	assert.NotContains(t, output, "quiet")
	assert.Contains(t, output, "loud")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	buf := initWithBuffer(t, config.LoggerConfig{
		Level:  "shouting",
		Format: "json",
	})

	GetLogger().Debug("hidden")
	GetLogger().Info("shown")

	output := buf.String()
	assert.NotContains(t, output, "hidden")
	assert.Contains(t, output, "shown")
}

func TestFileSinkWritesJSON(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "meroflow.log")
	initWithBuffer(t, config.LoggerConfig{
		Level:   "info",
		Format:  "console",
		LogFile: logFile,
	})

	GetLogger().Info("Run complete.")
	Sync()

	raw, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &entry))
	assert.Equal(t, "Run complete.", entry["msg"])
}

func TestGetLoggerBeforeInitializationFallsBack(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	assert.NotNil(t, GetLogger())
}
