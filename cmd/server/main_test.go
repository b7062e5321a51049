package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/linechat/internal/server"
)

func TestApplyFlags_OnlyChangedFlagsOverride(t *testing.T) {
	cmd := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{
		"--port", "7777",
		"--http-addr", "",
		"--history", "3",
		"--shutdown-timeout", "1s",
	}))

	f := cmd.Flags()
	var flags server.Config
	var err error
	flags.Port, err = f.GetInt("port")
	require.NoError(t, err)
	flags.HTTPAddr, err = f.GetString("http-addr")
	require.NoError(t, err)
	flags.HistoryLimit, err = f.GetInt("history")
	require.NoError(t, err)
	flags.ShutdownTimeout, err = f.GetDuration("shutdown-timeout")
	require.NoError(t, err)

	cfg := server.NewConfig()
	cfg.Host = "10.0.0.1"
	cfg.LogLevel = "debug"

	applyFlags(cmd, cfg, flags)

	assert.Equal(t, "10.0.0.1", cfg.Host, "unset flag keeps the environment value")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 7777, cfg.Port)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, 3, cfg.HistoryLimit)
	assert.Equal(t, time.Second, cfg.ShutdownTimeout)
	require.NoError(t, cfg.Validate())
}

func TestRootCommand_Flags(t *testing.T) {
	cmd := newRootCommand()

	for _, name := range []string{
		"host", "port", "http-addr", "allowed-origins", "history",
		"shutdown-timeout", "log-level", "log-format",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestRootCommand_FailsOnBadConfig(t *testing.T) {
	t.Setenv("LINECHAT_LOG_FORMAT", "xml")

	cmd := newRootCommand()
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute())
}
