package common

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syllabus-tracker/constants"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, constants.MaxInputChars, cfg.Extraction.MaxInputChars)
	assert.Equal(t, constants.ExtractionMethod, cfg.Extraction.Method)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Equal(t, 100, cfg.Queue.Size)
	assert.Equal(t, 30*time.Second, cfg.Queue.ProcessTimeout)
	assert.Equal(t, ":8080", cfg.Server.GRPCAddr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := []byte(`
database:
  dsn: "file:syllabi.db"
queue:
  workers: 2
  process_timeout: 5s
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, yml, 0o600))
	t.Setenv("SYLLABUS_QUEUE_WORKERS", "8")
	t.Setenv("SYLLABUS_EXTRACTION_MAX_INPUT_CHARS", "500")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "file:syllabi.db", cfg.Database.DSN)
	assert.Equal(t, 8, cfg.Queue.Workers)
	assert.Equal(t, 5*time.Second, cfg.Queue.ProcessTimeout)
	assert.Equal(t, 500, cfg.Extraction.MaxInputChars)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.RequireDatabase())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"negative cap", "SYLLABUS_EXTRACTION_MAX_INPUT_CHARS", "-1"},
		{"bad level", "SYLLABUS_LOG_LEVEL", "loud"},
		{"bad format", "SYLLABUS_LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := LoadConfig("")
			require.Error(t, err)

			var appErr *AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, "CONFIG_ERROR", appErr.Code)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRequireDatabase(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.RequireDatabase(), ErrInvalidInput)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "queue.workers", envKey("SYLLABUS_QUEUE_WORKERS"))
	assert.Equal(t, "server.grpc_addr", envKey("SYLLABUS_SERVER_GRPC_ADDR"))
	assert.Equal(t, "database.max_conn_idle_time", envKey("SYLLABUS_DATABASE_MAX_CONN_IDLE_TIME"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	l.Info("hidden")
	l.Warn("shown", "syllabus_id", "abc")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"syllabus_id":"abc"`)
	assert.True(t, l.Enabled(t.Context(), slog.LevelWarn))
}
