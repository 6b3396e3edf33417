// Package constants provides centralized domain-specific constants
// for the companyfacts application.
//
// This file consolidates the enumerated string values accepted by the
// configuration and the command line.
package constants

import "slices"

// =============================================================================
// Output Modes - Sink file layout
// =============================================================================

const (
	// ModeSingle writes every row into one file
	ModeSingle = "single"

	// ModePartitioned writes one file per entity
	ModePartitioned = "partitioned"
)

// ValidModes contains all valid output modes
var ValidModes = []string{ModeSingle, ModePartitioned}

// IsValidMode checks if a mode is valid. Empty selects ModeSingle.
func IsValidMode(mode string) bool {
	return mode == "" || slices.Contains(ValidModes, mode)
}

// =============================================================================
// Storage Backends
// =============================================================================

const (
	// BackendLocal stores objects as files under a root directory
	BackendLocal = "local"

	// BackendBadger stores objects in a badger key-value database
	BackendBadger = "badger"

	// BackendMemory keeps objects in process memory
	BackendMemory = "memory"
)

// ValidBackends contains all valid storage backends
var ValidBackends = []string{BackendLocal, BackendBadger, BackendMemory}

// IsValidBackend checks if a backend is valid. Empty selects BackendLocal.
func IsValidBackend(backend string) bool {
	return backend == "" || slices.Contains(ValidBackends, backend)
}

// =============================================================================
// Compression Codecs - Parquet page compression
// =============================================================================

const (
	CompressionNone   = "none"
	CompressionSnappy = "snappy"
	CompressionZstd   = "zstd"
	CompressionLZ4    = "lz4"
	CompressionGzip   = "gzip"
)

// ValidCompressions contains all valid codec names
var ValidCompressions = []string{CompressionNone, CompressionSnappy, CompressionZstd, CompressionLZ4, CompressionGzip}

// IsValidCompression checks if a codec name is valid. Empty means none.
func IsValidCompression(name string) bool {
	return name == "" || slices.Contains(ValidCompressions, name)
}

// =============================================================================
// Logging
// =============================================================================

const (
	LogFormatAuto = "auto"
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// ValidLogFormats contains all valid log formats
var ValidLogFormats = []string{LogFormatAuto, LogFormatJSON, LogFormatText}

// ValidLogLevels contains all valid log levels
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// IsValidLogFormat checks if a log format is valid. Empty selects auto.
func IsValidLogFormat(format string) bool {
	return format == "" || slices.Contains(ValidLogFormats, format)
}

// IsValidLogLevel checks if a log level is valid. Empty selects info.
func IsValidLogLevel(level string) bool {
	return level == "" || slices.Contains(ValidLogLevels, level)
}

// =============================================================================
// Content Types
// =============================================================================

const (
	// ContentTypeParquet is sent with every Parquet object
	ContentTypeParquet = "application/octet-stream"

	// ContentTypeJSONLines marks JSON Lines input tables
	ContentTypeJSONLines = "application/x-ndjson"
)
