package export

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/phrazzld/synthgen/internal/domain"
)

// SQLiteSink writes records into a table of a SQLite database file, one
// table per schema. An existing table for the schema is dropped and
// recreated on each write.
type SQLiteSink struct {
	path   string
	logger *slog.Logger
}

// NewSQLiteSink creates a SQLite sink writing to the database file at path.
// If logger is nil, the default logger is used.
func NewSQLiteSink(path string, logger *slog.Logger) *SQLiteSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteSink{
		path:   path,
		logger: logger.With(slog.String("component", "sqlite_sink")),
	}
}

var _ Sink = (*SQLiteSink)(nil)

// Destination implements Sink.Destination.
func (s *SQLiteSink) Destination() string {
	return s.path
}

// Write implements Sink.Write. Records are validated before the database is
// opened; the drop, create, and inserts run in one transaction.
func (s *SQLiteSink) Write(ctx context.Context, schema *domain.Schema, records []*domain.Record) error {
	rows, err := sqlRows(schema, records, sqliteValue)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", s.path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	defer func() {
		if cerr := db.Close(); cerr != nil {
			s.logger.Warn("failed to close sqlite database", "error", cerr)
		}
	}()

	table := tableForSchema(schema)
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, sqliteCreate(table, schema)); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	insert := sqliteInsert(table, schema)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.InfoContext(ctx, "wrote sqlite table",
		"path", s.path,
		"table", table,
		"rows", len(rows))
	return nil
}

// sqliteValue maps a non-nil field value to its driver representation:
// lists become JSON text, timestamps RFC 3339 text, booleans integers.
func sqliteValue(f domain.Field, v any) (any, error) {
	if f.List {
		return listJSON(v)
	}

	switch f.Kind {
	case domain.KindString:
		return v, nil
	case domain.KindNumber:
		return v, nil
	case domain.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: expected bool, got %T", ErrRender, v)
		}
		return b, nil
	case domain.KindTime:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("%w: expected timestamp, got %T", ErrRender, v)
		}
		return t.UTC().Format(time.RFC3339), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrSchemaUnknownKind, f.Kind)
}

func sqliteColumnType(f domain.Field) string {
	if f.List {
		return "TEXT" // JSON array
	}
	switch f.Kind {
	case domain.KindNumber:
		return "REAL"
	case domain.KindBool:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

func sqliteCreate(table string, schema *domain.Schema) string {
	cols := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		def := quoteIdent(f.Name) + " " + sqliteColumnType(f)
		if !f.Optional {
			def += " NOT NULL"
		}
		cols[i] = def
	}
	return "CREATE TABLE " + quoteIdent(table) + " (" + strings.Join(cols, ", ") + ")"
}

func sqliteInsert(table string, schema *domain.Schema) string {
	cols := make([]string, len(schema.Fields))
	marks := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		cols[i] = quoteIdent(f.Name)
		marks[i] = "?"
	}
	return "INSERT INTO " + quoteIdent(table) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
}
