package export

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/synthgen/internal/domain"
)

// PostgresSink writes records into a Postgres table, one table per schema.
// It accepts a database handle that should be opened and managed by the
// caller (the pgx stdlib driver in cmd wiring). An existing table for the
// schema is dropped and recreated on each write.
type PostgresSink struct {
	db     *sql.DB
	dest   string
	logger *slog.Logger
}

// NewPostgresSink creates a Postgres sink over db. dest is a human-readable
// destination label used for job reporting (e.g. the database URL with
// credentials stripped). If logger is nil, a default logger will be used.
func NewPostgresSink(db *sql.DB, dest string, logger *slog.Logger) *PostgresSink {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSink{
		db:     db,
		dest:   dest,
		logger: logger.With(slog.String("component", "postgres_sink")),
	}
}

var _ Sink = (*PostgresSink)(nil)

// Destination implements Sink.Destination.
func (s *PostgresSink) Destination() string {
	return s.dest
}

// Write implements Sink.Write. Records are validated before any statement
// executes; the drop, create, and inserts run in one transaction.
func (s *PostgresSink) Write(ctx context.Context, schema *domain.Schema, records []*domain.Record) error {
	rows, err := sqlRows(schema, records, postgresValue)
	if err != nil {
		return err
	}

	table := tableForSchema(schema)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, postgresCreate(table, schema)); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	insert := postgresInsert(table, schema)
	for i, row := range rows {
		if _, err := tx.ExecContext(ctx, insert, row...); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.InfoContext(ctx, "wrote postgres table",
		"table", table,
		"rows", len(rows))
	return nil
}

// postgresValue maps a non-nil field value to its driver representation.
// Lists become JSONB text; scalars pass through (the driver handles
// time.Time and bool natively).
func postgresValue(f domain.Field, v any) (any, error) {
	if f.List {
		return listJSON(v)
	}
	return v, nil
}

func postgresColumnType(f domain.Field) string {
	if f.List {
		return "JSONB"
	}
	switch f.Kind {
	case domain.KindNumber:
		return "DOUBLE PRECISION"
	case domain.KindBool:
		return "BOOLEAN"
	case domain.KindTime:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

func postgresCreate(table string, schema *domain.Schema) string {
	cols := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		def := quoteIdent(f.Name) + " " + postgresColumnType(f)
		if !f.Optional {
			def += " NOT NULL"
		}
		cols[i] = def
	}
	return "CREATE TABLE " + quoteIdent(table) + " (" + strings.Join(cols, ", ") + ")"
}

func postgresInsert(table string, schema *domain.Schema) string {
	cols := make([]string, len(schema.Fields))
	marks := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		cols[i] = quoteIdent(f.Name)
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	return "INSERT INTO " + quoteIdent(table) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
}
