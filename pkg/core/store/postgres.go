package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"smart_edgar/pkg/core/pivot"
	"smart_edgar/pkg/core/xbrl"
)

// PGSource executes synthesized queries on PostgreSQL.
type PGSource struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

var _ pivot.RowSource = (*PGSource)(nil)

// NewPGSource wraps p, or the shared pool when p is nil.
func NewPGSource(p *pgxpool.Pool, log *slog.Logger) *PGSource {
	if p == nil {
		p = GetPool()
	}
	if log == nil {
		log = slog.Default()
	}
	return &PGSource{pool: p, log: log.With("store", "postgres")}
}

func (s *PGSource) ready() error {
	if s.pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	return nil
}

// Migrate creates the reporting tables.
func (s *PGSource) Migrate(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, stmt := range ddl("DOUBLE PRECISION") {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Query runs query text and returns the rows keyed by column name.
func (s *PGSource) Query(ctx context.Context, query string) ([]pivot.Record, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []pivot.Record
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rec := make(pivot.Record, len(fields))
		for i, fd := range fields {
			rec[fd.Name] = normalize(vals[i])
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return out, nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case time.Time:
		return x.Format("2006-01-02")
	case int32:
		return int64(x)
	default:
		return v
	}
}

// SaveRecords bulk loads extracted values with the COPY protocol.
func (s *PGSource) SaveRecords(ctx context.Context, records []xbrl.ValueRecord) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	// COPY quotes column names, unquoted DDL folds them to lower case
	cols := make([]string, len(valueColumns))
	for i, c := range valueColumns {
		cols[i] = strings.ToLower(c)
	}
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{"fact_values"}, cols,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			return valueArgs(records[i]), nil
		}))
	if err != nil {
		return 0, fmt.Errorf("failed to copy values: %w", err)
	}
	s.log.Info("values loaded", "rows", n)
	return n, nil
}

// SaveMappings upserts parameter mappings in one batch.
func (s *PGSource) SaveMappings(ctx context.Context, mappings []Mapping) error {
	if err := s.ready(); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, m := range mappings {
		batch.Queue(`
			INSERT INTO mappings (parameterName, standardParameter, priority)
			VALUES ($1, $2, $3)
			ON CONFLICT (parameterName)
			DO UPDATE SET
				standardParameter = EXCLUDED.standardParameter,
				priority = EXCLUDED.priority`,
			m.ParameterName, m.StandardParameter, m.Priority)
	}
	return s.sendBatch(ctx, batch, len(mappings), "mapping")
}

// SaveCompanies upserts company metadata in one batch.
func (s *PGSource) SaveCompanies(ctx context.Context, companies []Company) error {
	if err := s.ready(); err != nil {
		return err
	}
	var set []string
	for _, c := range companyColumns[1:] {
		set = append(set, c+" = EXCLUDED."+c)
	}
	query := "INSERT INTO company (" + strings.Join(companyColumns, ", ") + ") VALUES (" +
		placeholders(len(companyColumns), pgPlaceholder) + ") ON CONFLICT (identifier) DO UPDATE SET " +
		strings.Join(set, ", ")

	batch := &pgx.Batch{}
	for _, c := range companies {
		batch.Queue(query, companyArgs(c)...)
	}
	return s.sendBatch(ctx, batch, len(companies), "company")
}

func (s *PGSource) sendBatch(ctx context.Context, batch *pgx.Batch, n int, what string) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to save %s: %w", what, err)
		}
	}
	return nil
}
