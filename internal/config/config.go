// Package config loads ppersist settings: defaults, then an optional YAML
// file, then PPERSIST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	env "github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/ppersist/internal/core/observability/log"
)

const EnvPrefix = "PPERSIST_"

const (
	DefaultLogLevel     = "info"
	DefaultLogEncoding  = "console"
	DefaultMaxDepth     = 256
	DefaultMaxBlobSize  = 256 << 20
	DefaultFetchTimeout = 30 * time.Second
	DefaultFetchBytes   = 64 << 20
	DefaultUserAgent    = "ppersist/1"
)

// Config holds the complete application configuration
type Config struct {
	Log    LogConfig    `yaml:"log"    envPrefix:"LOG_"`
	Decode DecodeConfig `yaml:"decode" envPrefix:"DECODE_"`
	Fetch  FetchConfig  `yaml:"fetch"  envPrefix:"FETCH_"`
}

type LogConfig struct {
	Level    string `yaml:"level"    env:"LEVEL"`
	Encoding string `yaml:"encoding" env:"ENCODING"`
}

type DecodeConfig struct {
	MaxDepth    int   `yaml:"max_depth"     env:"MAX_DEPTH"`
	MaxBlobSize int64 `yaml:"max_blob_size" env:"MAX_BLOB_SIZE"`
}

// FetchConfig bounds the single HTTP request made by a remote load.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"    env:"TIMEOUT"`
	MaxBytes  int64         `yaml:"max_bytes"  env:"MAX_BYTES"`
	UserAgent string        `yaml:"user_agent" env:"USER_AGENT"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:    DefaultLogLevel,
			Encoding: DefaultLogEncoding,
		},
		Decode: DecodeConfig{
			MaxDepth:    DefaultMaxDepth,
			MaxBlobSize: DefaultMaxBlobSize,
		},
		Fetch: FetchConfig{
			Timeout:   DefaultFetchTimeout,
			MaxBytes:  DefaultFetchBytes,
			UserAgent: DefaultUserAgent,
		},
	}
}

// Load applies the YAML file at path (skipped when path is empty) and then
// the environment on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()

		if err := cfg.decodeYAML(f); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeYAML(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error", "none", "off":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("log.encoding: unknown encoding %q", c.Log.Encoding)
	}
	if c.Decode.MaxDepth <= 0 {
		return fmt.Errorf("decode.max_depth must be positive, got %d", c.Decode.MaxDepth)
	}
	if c.Decode.MaxBlobSize <= 0 {
		return fmt.Errorf("decode.max_blob_size must be positive, got %d", c.Decode.MaxBlobSize)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout)
	}
	if c.Fetch.MaxBytes <= 0 {
		return fmt.Errorf("fetch.max_bytes must be positive, got %d", c.Fetch.MaxBytes)
	}
	return nil
}

// Logger builds the process logger described by the log section.
func (c *Config) Logger() *log.Logger {
	return log.NewWithEncoding(log.ParseLevel(c.Log.Level), c.Log.Encoding)
}
