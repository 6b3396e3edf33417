// Package config loads the companyfacts YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/findrum/companyfacts/config"
)

// Config represents the complete application configuration.
type Config struct {
	// Source configures archive retrieval.
	Source SourceConfig `yaml:"source"`

	// Processor configures flattening.
	Processor ProcessorConfig `yaml:"processor"`

	// Sink configures Parquet output.
	Sink SinkConfig `yaml:"sink"`

	// Storage selects the storage client backend.
	Storage StorageConfig `yaml:"storage"`

	// Pipeline configures execution.
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Logging configures the global logger.
	Logging LoggingConfig `yaml:"logging"`
}

// SourceConfig configures archive retrieval.
type SourceConfig struct {
	// URL is the archive download location.
	URL string `yaml:"url"`

	// Email is the contact address sent in the User-Agent header.
	// Falls back to $COMPANYFACTS_EMAIL.
	Email string `yaml:"email"`

	// ArchivePath reads a local archive instead of downloading.
	ArchivePath string `yaml:"archive_path"`

	// Timeout bounds a single download attempt.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries after a retriable failure.
	MaxRetries int `yaml:"max_retries"`

	// RetryBackoff is the delay before the first retry.
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// ProcessorConfig configures flattening.
type ProcessorConfig struct {
	// FramePrefix selects which records become rows.
	FramePrefix string `yaml:"frame_prefix"`
}

// SinkConfig configures Parquet output.
type SinkConfig struct {
	// Path is the output file (single) or directory prefix (partitioned).
	Path string `yaml:"path"`

	// Mode is single or partitioned.
	Mode string `yaml:"mode"`

	// Compression is the codec: none, snappy, zstd, lz4, gzip.
	Compression string `yaml:"compression"`
}

// StorageConfig selects the storage client backend.
type StorageConfig struct {
	// Backend is local, badger or memory.
	Backend string `yaml:"backend"`

	// Root prefixes relative paths for the local backend.
	Root string `yaml:"root"`

	// BadgerDir is the database directory for the badger backend.
	BadgerDir string `yaml:"badger_dir"`
}

// PipelineConfig configures execution.
type PipelineConfig struct {
	// Workers > 1 flattens documents concurrently.
	Workers int `yaml:"workers"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is auto, json or text.
	Format string `yaml:"format"`
}

// Load loads configuration from a YAML file on top of the defaults. An empty
// path returns the defaults. The email environment variable is applied before
// validation.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv fills unset values from the environment.
func (c *Config) ApplyEnv() {
	if c.Source.Email == "" {
		c.Source.Email = os.Getenv(config.EmailEnv)
	}
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			URL:          config.DefaultSourceURL,
			Timeout:      config.DefaultFetchTimeout,
			MaxRetries:   config.DefaultFetchRetries,
			RetryBackoff: config.DefaultRetryBackoff,
		},
		Processor: ProcessorConfig{
			FramePrefix: config.DefaultFramePrefix,
		},
		Sink: SinkConfig{
			Path:        config.DefaultSinkPath,
			Mode:        config.DefaultSinkMode,
			Compression: config.DefaultCompression,
		},
		Storage: StorageConfig{
			Backend: config.DefaultStorageBackend,
		},
		Pipeline: PipelineConfig{
			Workers: config.DefaultWorkers,
		},
		Logging: LoggingConfig{
			Level:  config.DefaultLogLevel,
			Format: config.DefaultLogFormat,
		},
	}
}
