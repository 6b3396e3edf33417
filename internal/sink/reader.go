package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/findrum/companyfacts/internal/client"
	"github.com/findrum/companyfacts/internal/errors"
	"github.com/findrum/companyfacts/internal/facts"
)

// ReadRows decodes every row of a Parquet file written by ParquetWriter.
func ReadRows(r io.ReaderAt, size int64) ([]facts.FlatRow, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[ParquetRow](f)
	defer reader.Close()

	numRows := reader.NumRows()
	buf := make([]ParquetRow, numRows)

	n := 0
	for n < len(buf) {
		count, err := reader.Read(buf[n:])
		n += count
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read rows: %w", err)
		}
		if count == 0 {
			break
		}
	}

	rows := make([]facts.FlatRow, n)
	for i := 0; i < n; i++ {
		rows[i] = ParquetToRow(&buf[i])
	}
	return rows, nil
}

// ReadSchema returns the column names of a Parquet file in order.
func ReadSchema(r io.ReaderAt, size int64) ([]string, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	fields := f.Schema().Fields()
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name()
	}
	return names, nil
}

// Load fetches path through c and decodes its rows.
func Load(ctx context.Context, c client.Client, path string) ([]facts.FlatRow, error) {
	data, err := client.ReadAll(ctx, c, path)
	if err != nil {
		return nil, err
	}
	rows, err := ReadRows(bytes.NewReader(data), int64(len(data)))
	return rows, errors.Wrapf(err, "load %s", path)
}
