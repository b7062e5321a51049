// Package server provides configuration helpers that define runtime defaults,
// validation, and environment loading for the LineChat service.
package server

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// EnvPrefix is prepended to every environment variable read by NewConfigFromEnv.
const EnvPrefix = "LINECHAT"

// Config holds the server configuration settings.
type Config struct {
	Host            string        `split_words:"true" default:"127.0.0.1" validate:"required"`
	Port            int           `split_words:"true" default:"8888" validate:"min=0,max=65535"`
	HTTPAddr        string        `split_words:"true" default:"127.0.0.1:8080" validate:"omitempty,hostname_port"`
	AllowedOrigins  []string      `split_words:"true" default:"http://localhost:8080"`
	MaxMessageSize  int64         `split_words:"true" default:"65536" validate:"gt=0"`
	SendBufferSize  int           `split_words:"true" default:"256" validate:"gt=0"`
	HistoryLimit    int           `split_words:"true" default:"10" validate:"gt=0"`
	ShutdownTimeout time.Duration `split_words:"true" default:"5s" validate:"gt=0"`
	LogLevel        string        `split_words:"true" default:"info" validate:"oneof=trace debug info warn error"`
	LogFormat       string        `split_words:"true" default:"console" validate:"oneof=console json"`
}

var validate = validator.New()

func defaultConfig() Config {
	return Config{
		Host:     "127.0.0.1",
		Port:     8888,
		HTTPAddr: "127.0.0.1:8080",
		AllowedOrigins: []string{
			"http://localhost:8080",
		},
		MaxMessageSize:  64 * 1024,
		SendBufferSize:  256,
		HistoryLimit:    10,
		ShutdownTimeout: 5 * time.Second,
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// sanitizeConfig replaces unset or out-of-range values with defaults.
func sanitizeConfig(cfg Config) Config {
	def := defaultConfig()

	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = def.Host
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		cfg.Port = def.Port
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = def.SendBufferSize
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = def.HistoryLimit
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if cfg.LogFormat == "" {
		cfg.LogFormat = def.LogFormat
	}

	cfg.AllowedOrigins = lo.Compact(lo.Map(cfg.AllowedOrigins, func(origin string, _ int) string {
		return strings.TrimSpace(origin)
	}))

	return cfg
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config from LINECHAT_* environment variables,
// loading a .env file from the working directory first when one exists.
// Unset variables fall back to defaults.
func NewConfigFromEnv() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, errors.Wrap(err, "load config from environment")
	}

	cfg = sanitizeConfig(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration against its declared constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

// ListenAddr returns the host:port the chat listener binds to.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Sanitized returns a copy of c with defaults applied to unset fields.
func (c Config) Sanitized() Config {
	cp := c
	cp.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	return sanitizeConfig(cp)
}
