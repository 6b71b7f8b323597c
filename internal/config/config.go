package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Prefix is prepended to every environment variable name.
const Prefix = "SHAKAL"

// Backends for the JPEG codec and the blur/resize filters.
const (
	CodecStd    = "std"
	CodecOpenCV = "opencv"
)

// Log formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config holds all application configuration.
type Config struct {
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string        `envconfig:"LOG_FORMAT" default:"json"`
	Debounce     time.Duration `envconfig:"DEBOUNCE" default:"100ms"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"16ms"`
	JPEGCodec    string        `envconfig:"JPEG_CODEC" default:"std"`
	Filters      string        `envconfig:"FILTERS" default:"std"`
	GPUEmulation bool          `envconfig:"GPU_EMULATION" default:"false"`
	HistorySize  int           `envconfig:"HISTORY_SIZE" default:"10"`
}

// Load loads configuration from SHAKAL_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    FormatJSON,
		Debounce:     100 * time.Millisecond,
		PollInterval: 16 * time.Millisecond,
		JPEGCodec:    CodecStd,
		Filters:      CodecStd,
		GPUEmulation: false,
		HistorySize:  10,
	}
}

// Validate checks the enumerated and positive fields.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	switch c.LogFormat {
	case FormatJSON, FormatText:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	switch c.JPEGCodec {
	case CodecStd, CodecOpenCV:
	default:
		errs = append(errs, fmt.Errorf("unknown jpeg codec %q", c.JPEGCodec))
	}
	switch c.Filters {
	case CodecStd, CodecOpenCV:
	default:
		errs = append(errs, fmt.Errorf("unknown filters backend %q", c.Filters))
	}
	if c.Debounce < 0 {
		errs = append(errs, errors.New("debounce must not be negative"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll interval must be positive"))
	}
	if c.HistorySize <= 0 {
		errs = append(errs, errors.New("history size must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
