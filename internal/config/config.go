package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/CloudNativeWorks/fillfetch/internal/fill"
	"github.com/CloudNativeWorks/fillfetch/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "FILLFETCH"
	defaultContact = "https://github.com/CloudNativeWorks/fillfetch"
)

// Config holds all application configuration
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Download DownloadConfig `mapstructure:"download"`
	Verify   VerifyConfig   `mapstructure:"verify"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// APIConfig holds build index connection settings
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// UserAgent overrides the generated "fillfetch/<version> (<contact>)" value.
	UserAgent string        `mapstructure:"user_agent"`
	Contact   string        `mapstructure:"contact"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
}

// RetryConfig bounds retries of index requests. One attempt means no retry.
type RetryConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Backoff  time.Duration `mapstructure:"backoff"`
}

// DownloadConfig holds artifact download settings. Timeout bounds the whole
// transfer and is independent of api.timeout; zero means no limit.
type DownloadConfig struct {
	Dir      string        `mapstructure:"dir"`
	Artifact string        `mapstructure:"artifact"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type VerifyConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Algorithm string `mapstructure:"algorithm"`
	// AllowUnverified keeps artifacts whose descriptor has no checksum.
	AllowUnverified bool `mapstructure:"allow_unverified"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", fill.DefaultBaseURL)
	v.SetDefault("api.user_agent", "")
	v.SetDefault("api.contact", defaultContact)
	v.SetDefault("api.timeout", "0s")
	v.SetDefault("api.rate_limit", 0)

	v.SetDefault("retry.attempts", 1)
	v.SetDefault("retry.backoff", "1s")

	v.SetDefault("download.dir", ".")
	v.SetDefault("download.artifact", fill.DefaultArtifact)
	v.SetDefault("download.timeout", "0s")

	v.SetDefault("verify.enabled", true)
	v.SetDefault("verify.algorithm", "sha256")
	v.SetDefault("verify.allow_unverified", false)

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
}

// LoadConfig loads configuration from path, or from fillfetch.yaml in the usual
// places when path is empty. A .env file in the working directory is loaded
// first; FILLFETCH_* environment variables override file values.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fillfetch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/fillfetch")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: fill.DefaultBaseURL,
			Contact: defaultContact,
		},
		Retry: RetryConfig{
			Attempts: 1,
			Backoff:  time.Second,
		},
		Download: DownloadConfig{
			Dir:      ".",
			Artifact: fill.DefaultArtifact,
		},
		Verify: VerifyConfig{
			Enabled:   true,
			Algorithm: "sha256",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL)
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1, got %d", c.Retry.Attempts)
	}
	if c.API.Timeout < 0 || c.Download.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// UserAgent returns the client identification sent with every request.
func (c *Config) UserAgent(version string) string {
	if c.API.UserAgent != "" {
		return c.API.UserAgent
	}
	return fmt.Sprintf("fillfetch/%s (%s)", version, c.API.Contact)
}

// FillConfig converts the settings into index client configuration.
func (c *Config) FillConfig(version string) fill.Config {
	return fill.Config{
		BaseURL:       c.API.BaseURL,
		UserAgent:     c.UserAgent(version),
		RateLimit:     c.API.RateLimit,
		RetryAttempts: c.Retry.Attempts,
		RetryBackoff:  c.Retry.Backoff,
		Timeout:       c.API.Timeout,
	}
}

// LoggerConfig converts the settings into logger configuration.
func (c *Config) LoggerConfig(module string) logger.Config {
	return logger.Config{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		Module:     module,
		File:       c.Logging.File,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     30,
	}
}
