package pivot

import (
	"context"
	"fmt"
)

// RowSource executes query text and returns the result rows keyed by column
// name. Databases implement it, and so does MemorySource for callers that
// already hold their rows.
type RowSource interface {
	Query(ctx context.Context, sql string) ([]Record, error)
}

// Load runs sql against src, files every row into t and sorts it.
func Load(ctx context.Context, t *Table, src RowSource, sql string) error {
	rows, err := src.Query(ctx, sql)
	if err != nil {
		return fmt.Errorf("failed to query pivot rows: %w", err)
	}
	for _, r := range rows {
		t.PutRecord(r)
	}
	t.Sort()
	return nil
}

// MemorySource is a RowSource returning fixed rows, whatever the query.
type MemorySource []Record

func (m MemorySource) Query(ctx context.Context, _ string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// Build creates a sorted table from in-memory records.
func Build(rowFields, columnFields []string, valueField string, records []Record) *Table {
	t := NewTable(rowFields, columnFields, valueField)
	for _, r := range records {
		t.PutRecord(r)
	}
	t.Sort()
	return t
}
