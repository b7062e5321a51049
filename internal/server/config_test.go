package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "127.0.0.1:8888", cfg.ListenAddr())
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTPAddr)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := NewConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, *NewConfig(), *cfg)
}

func TestNewConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("LINECHAT_HOST", "0.0.0.0")
	t.Setenv("LINECHAT_PORT", "9999")
	t.Setenv("LINECHAT_HTTP_ADDR", "")
	t.Setenv("LINECHAT_ALLOWED_ORIGINS", "http://a.example, https://b.example")
	t.Setenv("LINECHAT_HISTORY_LIMIT", "5")
	t.Setenv("LINECHAT_SHUTDOWN_TIMEOUT", "2s")
	t.Setenv("LINECHAT_LOG_LEVEL", "DEBUG")
	t.Setenv("LINECHAT_LOG_FORMAT", "json")

	cfg, err := NewConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.ListenAddr())
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, []string{"http://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 5, cfg.HistoryLimit)
	assert.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestNewConfigFromEnv_Invalid(t *testing.T) {
	t.Run("unparseable port", func(t *testing.T) {
		t.Setenv("LINECHAT_PORT", "eighty")
		_, err := NewConfigFromEnv()
		assert.Error(t, err)
	})

	t.Run("unknown log level", func(t *testing.T) {
		t.Setenv("LINECHAT_LOG_LEVEL", "verbose")
		_, err := NewConfigFromEnv()
		assert.Error(t, err)
	})

	t.Run("malformed gateway address", func(t *testing.T) {
		t.Setenv("LINECHAT_HTTP_ADDR", "not an address")
		_, err := NewConfigFromEnv()
		assert.Error(t, err)
	})
}

func TestSanitized_FillsZeroValues(t *testing.T) {
	cfg := Config{
		Port:           -1,
		AllowedOrigins: []string{" http://x.example ", "", "  "},
	}.Sanitized()

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8888, cfg.Port)
	assert.Equal(t, int64(64*1024), cfg.MaxMessageSize)
	assert.Equal(t, 256, cfg.SendBufferSize)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, []string{"http://x.example"}, cfg.AllowedOrigins)
}
