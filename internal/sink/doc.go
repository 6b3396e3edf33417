// Package sink writes flat fact rows as Parquet through a storage client.
//
// The package provides:
//   - ParquetWriter, which serializes rows in memory and delegates the bytes
//     to a client.Client
//   - ReadRows/ReadSchema/Load for reading a written file back
//   - Support for multiple compression algorithms (snappy, zstd, lz4, gzip)
package sink
