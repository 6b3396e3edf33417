// Package config provides configuration defaults for the companyfacts
// application.
//
// This package defines all configurable constants with documented defaults.
// Users can override these values via config.yaml, flags or environment
// variables.
package config

import "time"

// =============================================================================
// Source Defaults
// =============================================================================

const (
	// DefaultSourceURL is the SEC bulk companyfacts archive.
	// Override via config: source.url
	DefaultSourceURL = "https://www.sec.gov/Archives/edgar/daily-index/xbrl/companyfacts.zip"

	// DefaultFetchTimeout bounds a single download attempt.
	// Override via config: source.timeout
	DefaultFetchTimeout = 30 * time.Second

	// DefaultFetchRetries is the number of retries after a transport error,
	// 429 or 5xx response.
	// Override via config: source.max_retries
	DefaultFetchRetries = 3

	// DefaultRetryBackoff is the delay before the first retry. It doubles on
	// each subsequent attempt.
	// Override via config: source.retry_backoff
	DefaultRetryBackoff = time.Second

	// EmailEnv supplies source.email when the config leaves it empty.
	EmailEnv = "COMPANYFACTS_EMAIL"
)

// =============================================================================
// Processor Defaults
// =============================================================================

const (
	// DefaultFramePrefix keeps calendar-year frames such as CY2020 and
	// CY2020Q4I.
	// Override via config: processor.frame_prefix
	DefaultFramePrefix = "CY"
)

// =============================================================================
// Sink Defaults
// =============================================================================

const (
	// DefaultSinkPath is the output file in single mode, or the directory
	// prefix in partitioned mode.
	// Override via config: sink.path
	DefaultSinkPath = "companyfacts.parquet"

	// DefaultSinkMode writes one file containing every row.
	// Override via config: sink.mode
	DefaultSinkMode = "single"

	// DefaultCompression is the Parquet codec.
	// Override via config: sink.compression
	DefaultCompression = "zstd"
)

// =============================================================================
// Storage Defaults
// =============================================================================

const (
	// DefaultStorageBackend writes to the local filesystem.
	// Override via config: storage.backend
	DefaultStorageBackend = "local"
)

// =============================================================================
// Pipeline Defaults
// =============================================================================

const (
	// DefaultWorkers flattens documents on the collecting goroutine.
	// Override via config: pipeline.workers
	DefaultWorkers = 1

	// MaxWorkers caps pipeline.workers.
	MaxWorkers = 256
)

// =============================================================================
// Logging Defaults
// =============================================================================

const (
	// DefaultLogLevel is the minimum level emitted.
	// Override via config: logging.level
	DefaultLogLevel = "info"

	// DefaultLogFormat selects JSON when stderr is not a terminal.
	// Override via config: logging.format
	DefaultLogFormat = "auto"
)

// =============================================================================
// Inspect Defaults
// =============================================================================

const (
	// DefaultTopTags is the number of tags listed by the inspect command.
	DefaultTopTags = 10

	// DefaultQueryMemoryLimit is the DuckDB memory limit for inspect.
	DefaultQueryMemoryLimit = "1GB"
)
