package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"smart_edgar/pkg/core/pivot"
	"smart_edgar/pkg/core/xbrl"
)

// SQLite is an embedded store for the reporting tables.
type SQLite struct {
	db  *sql.DB
	log *slog.Logger
}

var _ pivot.RowSource = (*SQLite)(nil)

// OpenSQLite opens or creates the database at path (":memory:" for a
// private in-memory database) and creates the reporting tables.
func OpenSQLite(ctx context.Context, path string, log *slog.Logger) (*SQLite, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, log: log.With("store", "sqlite")}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate(ctx context.Context) error {
	for _, stmt := range ddl("REAL") {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying handle.
func (s *SQLite) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Query runs query text and returns the rows keyed by column name.
func (s *SQLite) Query(ctx context.Context, query string) ([]pivot.Record, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite columns: %w", err)
	}
	var out []pivot.Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}
		rec := make(pivot.Record, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				rec[c] = string(b)
			} else {
				rec[c] = vals[i]
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite rows: %w", err)
	}
	s.log.Debug("query done", "rows", len(out))
	return out, nil
}

func sqlitePlaceholder(int) string { return "?" }

// SaveRecords inserts extracted values in one transaction.
func (s *SQLite) SaveRecords(ctx context.Context, records []xbrl.ValueRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO fact_values ("+strings.Join(valueColumns, ", ")+
		") VALUES ("+placeholders(len(valueColumns), sqlitePlaceholder)+")")
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, valueArgs(r)...); err != nil {
			return 0, fmt.Errorf("insert value: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return int64(len(records)), nil
}

// SaveMappings inserts or replaces parameter mappings.
func (s *SQLite) SaveMappings(ctx context.Context, mappings []Mapping) error {
	for _, m := range mappings {
		_, err := s.db.ExecContext(ctx, `INSERT INTO mappings (parameterName, standardParameter, priority) VALUES (?, ?, ?)
ON CONFLICT (parameterName) DO UPDATE SET standardParameter = excluded.standardParameter, priority = excluded.priority`,
			m.ParameterName, m.StandardParameter, m.Priority)
		if err != nil {
			return fmt.Errorf("save mapping %s: %w", m.ParameterName, err)
		}
	}
	return nil
}

// SaveCompanies inserts or replaces company metadata.
func (s *SQLite) SaveCompanies(ctx context.Context, companies []Company) error {
	for _, c := range companies {
		_, err := s.db.ExecContext(ctx, "INSERT OR REPLACE INTO company ("+strings.Join(companyColumns, ", ")+
			") VALUES ("+placeholders(len(companyColumns), sqlitePlaceholder)+")", companyArgs(c)...)
		if err != nil {
			return fmt.Errorf("save company %s: %w", c.Identifier, err)
		}
	}
	return nil
}

func valueArgs(r xbrl.ValueRecord) []any {
	return []any{
		r.Identifier, r.Date, r.NumberOfMonths, r.ParameterName, r.Value, r.UnitRef,
		r.Segment, r.SegmentDimension, r.Prefix, r.Form, r.File,
	}
}

func pgPlaceholder(i int) string { return "$" + strconv.Itoa(i) }
