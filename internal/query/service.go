// Package query inspects written Parquet output with DuckDB.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/findrum/companyfacts/internal/errors"
	"github.com/findrum/companyfacts/internal/validation"
)

// DefaultTopTags is the number of tags reported by Summarize when the caller
// passes zero.
const DefaultTopTags = 10

// Options configures the query service.
type Options struct {
	// MemoryLimit is passed to DuckDB's memory_limit setting, e.g. "1GB".
	MemoryLimit string

	// Threads caps DuckDB worker threads. Zero keeps the DuckDB default.
	Threads int
}

// Service runs queries over Parquet files.
type Service struct {
	db *sql.DB

	queries atomic.Int64
	failed  atomic.Int64
}

// TagCount is the number of rows for one tag.
type TagCount struct {
	Tag  string
	Rows int64
}

// Summary describes the contents of one or more output files.
type Summary struct {
	Rows     int64
	Entities int64
	Frames   int64
	Tags     int64
	TopTags  []TagCount
}

// ServiceStats holds service statistics.
type ServiceStats struct {
	QueriesExecuted int64
	Errors          int64
}

// New opens an in-memory DuckDB database.
func New(opts Options) (*Service, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	if opts.MemoryLimit != "" {
		if _, err := db.Exec(fmt.Sprintf("SET memory_limit='%s'", validation.EscapeLiteral(opts.MemoryLimit))); err != nil {
			db.Close()
			return nil, fmt.Errorf("set memory limit: %w", err)
		}
	}
	if opts.Threads > 0 {
		if _, err := db.Exec(fmt.Sprintf("SET threads=%d", opts.Threads)); err != nil {
			db.Close()
			return nil, fmt.Errorf("set threads: %w", err)
		}
	}

	return &Service{db: db}, nil
}

// Close closes the database.
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Summarize reports row, entity, frame and tag counts for the Parquet files
// matching pattern (a path or glob), plus the topN tags by row count.
func (s *Service) Summarize(ctx context.Context, pattern string, topN int) (*Summary, error) {
	if pattern == "" {
		return nil, errors.NewMissingField("path")
	}
	if topN <= 0 {
		topN = DefaultTopTags
	}

	sum := &Summary{}

	row := s.db.QueryRowContext(ctx, `
		SELECT
			count(*),
			count(DISTINCT entity_id),
			count(DISTINCT frame),
			count(DISTINCT tag)
		FROM read_parquet($1)
	`, pattern)
	if err := row.Scan(&sum.Rows, &sum.Entities, &sum.Frames, &sum.Tags); err != nil {
		s.failed.Add(1)
		return nil, fmt.Errorf("summarize %s: %w", pattern, err)
	}
	s.queries.Add(1)

	rows, err := s.db.QueryContext(ctx, `
		SELECT tag, count(*) AS n
		FROM read_parquet($1)
		GROUP BY tag
		ORDER BY n DESC, tag
		LIMIT $2
	`, pattern, topN)
	if err != nil {
		s.failed.Add(1)
		return nil, fmt.Errorf("top tags %s: %w", pattern, err)
	}
	defer rows.Close()
	s.queries.Add(1)

	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Rows); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		sum.TopTags = append(sum.TopTags, tc)
	}

	return sum, rows.Err()
}

// ExecuteSQL runs a raw query and returns each row as a column -> value map.
func (s *Service) ExecuteSQL(ctx context.Context, query string) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		s.failed.Add(1)
		return nil, err
	}
	defer rows.Close()
	s.queries.Add(1)

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		m := make(map[string]any, len(columns))
		for i, col := range columns {
			m[col] = values[i]
		}
		results = append(results, m)
	}

	return results, rows.Err()
}

// Stats returns query statistics.
func (s *Service) Stats() ServiceStats {
	return ServiceStats{
		QueriesExecuted: s.queries.Load(),
		Errors:          s.failed.Load(),
	}
}
