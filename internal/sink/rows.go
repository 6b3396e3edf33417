package sink

import (
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"

	"github.com/findrum/companyfacts/internal/constants"
	"github.com/findrum/companyfacts/internal/facts"
)

// CompressionType represents a Parquet compression algorithm.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionSnappy
	CompressionZstd
	CompressionLZ4
	CompressionGzip
)

// ParseCompressionType parses a compression type string.
func ParseCompressionType(s string) CompressionType {
	switch s {
	case constants.CompressionSnappy:
		return CompressionSnappy
	case constants.CompressionZstd:
		return CompressionZstd
	case constants.CompressionLZ4:
		return CompressionLZ4
	case constants.CompressionGzip:
		return CompressionGzip
	case constants.CompressionNone, "":
		return CompressionNone
	default:
		return CompressionZstd
	}
}

// String returns the config name of the compression type.
func (c CompressionType) String() string {
	switch c {
	case CompressionSnappy:
		return constants.CompressionSnappy
	case CompressionZstd:
		return constants.CompressionZstd
	case CompressionLZ4:
		return constants.CompressionLZ4
	case CompressionGzip:
		return constants.CompressionGzip
	default:
		return constants.CompressionNone
	}
}

// getCompression returns the parquet-go compression codec.
func getCompression(ct CompressionType) compress.Codec {
	switch ct {
	case CompressionSnappy:
		return &parquet.Snappy
	case CompressionZstd:
		return &parquet.Zstd
	case CompressionLZ4:
		return &parquet.Lz4Raw
	case CompressionGzip:
		return &parquet.Gzip
	default:
		return &parquet.Uncompressed
	}
}

// ParquetRow is the on-disk schema. Field order is the column order of
// facts.Columns; pointer fields are nullable columns.
type ParquetRow struct {
	EntityID   string   `parquet:"entity_id"`
	EntityName *string  `parquet:"entity_name"`
	Frame      string   `parquet:"frame"`
	Tag        string   `parquet:"tag"`
	Unit       string   `parquet:"unit"`
	Start      *string  `parquet:"start"`
	End        *string  `parquet:"end"`
	Val        *float64 `parquet:"val"`
	Accn       *string  `parquet:"accn"`
	FY         *int64   `parquet:"fy"`
	FP         *string  `parquet:"fp"`
	Form       *string  `parquet:"form"`
	Filed      *string  `parquet:"filed"`
}

// RowToParquet converts a FlatRow to a ParquetRow.
func RowToParquet(r *facts.FlatRow) ParquetRow {
	return ParquetRow{
		EntityID:   r.EntityID,
		EntityName: r.EntityName,
		Frame:      r.Frame,
		Tag:        r.Tag,
		Unit:       r.Unit,
		Start:      r.Start,
		End:        r.End,
		Val:        r.Val,
		Accn:       r.Accn,
		FY:         r.FY,
		FP:         r.FP,
		Form:       r.Form,
		Filed:      r.Filed,
	}
}

// ParquetToRow converts a ParquetRow to a FlatRow.
func ParquetToRow(p *ParquetRow) facts.FlatRow {
	return facts.FlatRow{
		EntityID:   p.EntityID,
		EntityName: p.EntityName,
		Frame:      p.Frame,
		Tag:        p.Tag,
		Unit:       p.Unit,
		Start:      p.Start,
		End:        p.End,
		Val:        p.Val,
		Accn:       p.Accn,
		FY:         p.FY,
		FP:         p.FP,
		Form:       p.Form,
		Filed:      p.Filed,
	}
}
