package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/findrum/companyfacts/config"
	"github.com/findrum/companyfacts/internal/constants"
	cferrors "github.com/findrum/companyfacts/internal/errors"
	"github.com/findrum/companyfacts/internal/validation"
)

// Validate checks the configuration for errors. The returned error matches
// errors.ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Source.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("source: %w", err))
	}

	if err := c.Processor.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("processor: %w", err))
	}

	if err := c.Sink.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sink: %w", err))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}

	if err := c.Pipeline.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("pipeline: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{cferrors.ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// Validate checks the source configuration. The email is not required here;
// only commands that download enforce it.
func (c *SourceConfig) Validate() error {
	var errs []error

	if c.URL == "" && c.ArchivePath == "" {
		errs = append(errs, errors.New("url or archive_path is required"))
	}

	if c.Email != "" {
		if err := validation.ValidateEmail(c.Email); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}

	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("max_retries must be non-negative"))
	}

	if c.RetryBackoff < 0 {
		errs = append(errs, errors.New("retry_backoff must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the processor configuration.
func (c *ProcessorConfig) Validate() error {
	if err := validation.ValidateFramePrefix(c.FramePrefix); err != nil {
		return fmt.Errorf("frame_prefix: %w", err)
	}
	return nil
}

// Validate checks the sink configuration.
func (c *SinkConfig) Validate() error {
	var errs []error

	if c.Path == "" {
		errs = append(errs, errors.New("path is required"))
	}

	if !constants.IsValidMode(c.Mode) {
		errs = append(errs, fmt.Errorf("mode must be one of: %s", strings.Join(constants.ValidModes, ", ")))
	}

	if !constants.IsValidCompression(c.Compression) {
		errs = append(errs, fmt.Errorf("%w %q: must be one of: %s", cferrors.ErrInvalidCompression, c.Compression, strings.Join(constants.ValidCompressions, ", ")))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the storage configuration.
func (c *StorageConfig) Validate() error {
	if !constants.IsValidBackend(c.Backend) {
		return fmt.Errorf("backend must be one of: %s (got %q)", strings.Join(constants.ValidBackends, ", "), c.Backend)
	}
	if c.Backend == constants.BackendBadger && c.BadgerDir == "" {
		return errors.New("badger_dir is required for the badger backend")
	}
	return nil
}

// Validate checks the pipeline configuration.
func (c *PipelineConfig) Validate() error {
	if c.Workers < 1 || c.Workers > config.MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d", config.MaxWorkers)
	}
	return nil
}

// Validate checks the logging configuration.
func (c *LoggingConfig) Validate() error {
	var errs []error

	if !constants.IsValidLogLevel(c.Level) {
		errs = append(errs, fmt.Errorf("level must be one of: %s", strings.Join(constants.ValidLogLevels, ", ")))
	}

	if !constants.IsValidLogFormat(c.Format) {
		errs = append(errs, fmt.Errorf("format must be one of: %s", strings.Join(constants.ValidLogFormats, ", ")))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
