package export

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/synthgen/internal/domain"
)

func TestSQLiteSinkWrite(t *testing.T) {
	schema := testSchema(t)
	path := filepath.Join(t.TempDir(), "out.db")
	sink := NewSQLiteSink(path, nil)

	records := []*domain.Record{
		employeeRecord(t, schema, "Ana", []any{"go", "sql"}),
		employeeRecord(t, schema, "Ben", nil),
	}
	require.NoError(t, sink.Write(context.Background(), schema, records))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "employee"`).Scan(&count))
	assert.Equal(t, 2, count)

	var name, hired string
	var salary float64
	var skills sql.NullString
	row := db.QueryRow(`SELECT "name", "salary", "hired_at", "skills" FROM "employee" WHERE "name" = 'Ana'`)
	require.NoError(t, row.Scan(&name, &salary, &hired, &skills))

	assert.Equal(t, "Ana", name)
	assert.Equal(t, 52000.5, salary)
	assert.Equal(t, "2023-06-15T09:00:00Z", hired)
	require.True(t, skills.Valid)
	assert.JSONEq(t, `["go","sql"]`, skills.String)

	// Absent optional value is stored as NULL.
	row = db.QueryRow(`SELECT "skills" FROM "employee" WHERE "name" = 'Ben'`)
	require.NoError(t, row.Scan(&skills))
	assert.False(t, skills.Valid)
}

func TestSQLiteSinkOverwrites(t *testing.T) {
	schema := testSchema(t)
	path := filepath.Join(t.TempDir(), "out.db")
	sink := NewSQLiteSink(path, nil)

	ctx := context.Background()
	require.NoError(t, sink.Write(ctx, schema, []*domain.Record{
		employeeRecord(t, schema, "Ana", nil),
		employeeRecord(t, schema, "Ben", nil),
	}))
	require.NoError(t, sink.Write(ctx, schema, []*domain.Record{
		employeeRecord(t, schema, "Cem", nil),
	}))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "employee"`).Scan(&count))
	assert.Equal(t, 1, count, "second write replaces the table")
}

func TestSQLiteSinkSchemaMismatch(t *testing.T) {
	fullSchema := testSchema(t)
	narrow := &domain.Schema{
		Name:   "employee",
		Fields: []domain.Field{{Name: "name", Kind: domain.KindString}},
	}
	require.NoError(t, narrow.Validate())
	rec := mustRecord(t, narrow, map[string]any{"name": "Ana"})

	sink := NewSQLiteSink(filepath.Join(t.TempDir(), "out.db"), nil)
	err := sink.Write(context.Background(), fullSchema, []*domain.Record{rec})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestTableForSchema(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"employee", "employee"},
		{"Medical Record", "medical_record"},
		{"device-telemetry v2", "device_telemetry_v2"},
		{"???", "dataset"},
	}
	for _, tt := range tests {
		got := tableForSchema(&domain.Schema{Name: tt.in})
		assert.Equal(t, tt.want, got, "schema name %q", tt.in)
	}
}
