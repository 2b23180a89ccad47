package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/synthgen/internal/domain"
)

func testSchema(t *testing.T) *domain.Schema {
	t.Helper()
	s := &domain.Schema{
		Name: "employee",
		Fields: []domain.Field{
			{Name: "name", Kind: domain.KindString},
			{Name: "salary", Kind: domain.KindNumber},
			{Name: "remote", Kind: domain.KindBool},
			{Name: "hired_at", Kind: domain.KindTime},
			{Name: "skills", Kind: domain.KindString, List: true, Optional: true},
		},
	}
	require.NoError(t, s.Validate())
	return s
}

func mustRecord(t *testing.T, schema *domain.Schema, values map[string]any) *domain.Record {
	t.Helper()
	rec, err := domain.NewRecord(schema, values)
	require.NoError(t, err)
	return rec
}

func employeeRecord(t *testing.T, schema *domain.Schema, name string, skills any) *domain.Record {
	t.Helper()
	return mustRecord(t, schema, map[string]any{
		"name":     name,
		"salary":   52000.5,
		"remote":   true,
		"hired_at": "2023-06-15T09:00:00Z",
		"skills":   skills,
	})
}

func TestRenderRowsHeaderAndCount(t *testing.T) {
	schema := testSchema(t)

	tests := []struct {
		name    string
		records []*domain.Record
	}{
		{name: "empty_sequence_is_header_only", records: nil},
		{name: "one_record", records: []*domain.Record{
			employeeRecord(t, schema, "Ana", []any{"go"}),
		}},
		{name: "three_records", records: []*domain.Record{
			employeeRecord(t, schema, "Ana", []any{"go"}),
			employeeRecord(t, schema, "Ben", []any{}),
			employeeRecord(t, schema, "Cem", nil),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := RenderRows(schema, tt.records)
			require.NoError(t, err)

			// Row count = record count + header.
			assert.Len(t, rows, len(tt.records)+1)

			// Header equals schema field order, regardless of record content.
			assert.Equal(t, []string{"name", "salary", "remote", "hired_at", "skills"}, rows[0])
		})
	}
}

func TestRenderRowsValueForms(t *testing.T) {
	schema := testSchema(t)
	rec := employeeRecord(t, schema, "Ana", []any{"go", "sql"})

	rows, err := RenderRows(schema, []*domain.Record{rec})
	require.NoError(t, err)

	row := rows[1]
	assert.Equal(t, "Ana", row[0])
	assert.Equal(t, "52000.5", row[1], "numbers use shortest exact form")
	assert.Equal(t, "true", row[2])
	assert.Equal(t, "2023-06-15T09:00:00Z", row[3], "timestamps are RFC 3339 UTC")
	assert.Equal(t, "go, sql", row[4], "lists join on the fixed separator")
}

func TestRenderRowsNullSentinelVsEmptyList(t *testing.T) {
	schema := testSchema(t)

	withEmpty := employeeRecord(t, schema, "Ana", []any{})
	withAbsent := employeeRecord(t, schema, "Ana", nil)

	rows, err := RenderRows(schema, []*domain.Record{withEmpty, withAbsent})
	require.NoError(t, err)

	assert.Equal(t, "", rows[1][4], "empty list renders as empty string")
	assert.Equal(t, NullSentinel, rows[2][4], "absent value renders as the sentinel")
	assert.NotEqual(t, rows[1][4], rows[2][4])
}

func TestWriteTableEscaping(t *testing.T) {
	schema := testSchema(t)
	rec := employeeRecord(t, schema, `Main St, Apt "4"`, []any{"go, the language", "sql"})

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, schema, []*domain.Record{rec}))

	// A standard CSV reader recovers the values verbatim.
	parsed, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, 2)

	assert.Equal(t, `Main St, Apt "4"`, parsed[1][0])
	assert.Equal(t, "go, the language, sql", parsed[1][4])
}

func TestWriteTableRoundTrip(t *testing.T) {
	schema := testSchema(t)
	records := []*domain.Record{
		employeeRecord(t, schema, "Ana", []any{"go", "sql", "k8s"}),
		employeeRecord(t, schema, "Ben", []any{"rust"}),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, schema, records))

	parsed, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	require.NoError(t, err)
	require.Len(t, parsed, 3)

	// Re-splitting list cells on the fixed separator reconstructs the
	// original elements, order preserved.
	assert.Equal(t, []string{"go", "sql", "k8s"}, strings.Split(parsed[1][4], ListSeparator))
	assert.Equal(t, []string{"rust"}, strings.Split(parsed[2][4], ListSeparator))
}

func TestWriteTableIdempotent(t *testing.T) {
	schema := testSchema(t)
	records := []*domain.Record{
		employeeRecord(t, schema, "Ana", []any{"go"}),
		employeeRecord(t, schema, "Ben", nil),
	}

	var first, second bytes.Buffer
	require.NoError(t, WriteTable(&first, schema, records))
	require.NoError(t, WriteTable(&second, schema, records))

	assert.Equal(t, first.Bytes(), second.Bytes(), "identical inputs produce byte-identical output")
}

func TestCSVSinkWrite(t *testing.T) {
	schema := testSchema(t)
	path := filepath.Join(t.TempDir(), "employees.csv")
	sink := NewCSVSink(path, nil)

	records := []*domain.Record{employeeRecord(t, schema, "Ana", []any{"go"})}
	require.NoError(t, sink.Write(context.Background(), schema, records))
	assert.Equal(t, path, sink.Destination())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	parsed, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, parsed, 2)
}

func TestCSVSinkOverwrites(t *testing.T) {
	schema := testSchema(t)
	path := filepath.Join(t.TempDir(), "employees.csv")
	sink := NewCSVSink(path, nil)

	big := []*domain.Record{
		employeeRecord(t, schema, "Ana", nil),
		employeeRecord(t, schema, "Ben", nil),
		employeeRecord(t, schema, "Cem", nil),
	}
	require.NoError(t, sink.Write(context.Background(), schema, big))

	small := big[:1]
	require.NoError(t, sink.Write(context.Background(), schema, small))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	parsed, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, parsed, 2, "second write replaces, never appends")
}

func TestCSVSinkSchemaMismatchLeavesNoFile(t *testing.T) {
	fullSchema := testSchema(t)

	// Build a record against a narrower schema so it misses declared fields.
	narrow := &domain.Schema{
		Name: "employee",
		Fields: []domain.Field{
			{Name: "name", Kind: domain.KindString},
		},
	}
	require.NoError(t, narrow.Validate())
	rec := mustRecord(t, narrow, map[string]any{"name": "Ana"})

	path := filepath.Join(t.TempDir(), "employees.csv")
	sink := NewCSVSink(path, nil)

	err := sink.Write(context.Background(), fullSchema, []*domain.Record{rec})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "record 0", "error locates the offending record")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no partial file at the destination")
}

func TestCSVSinkExtraFieldIsMismatch(t *testing.T) {
	schema := testSchema(t)

	wide := &domain.Schema{
		Name: "employee",
		Fields: append([]domain.Field{}, append(schema.Fields,
			domain.Field{Name: "badge", Kind: domain.KindString})...),
	}
	require.NoError(t, wide.Validate())

	rec := mustRecord(t, wide, map[string]any{
		"name":     "Ana",
		"salary":   1.0,
		"remote":   false,
		"hired_at": "2023-06-15T09:00:00Z",
		"skills":   nil,
		"badge":    "B-1",
	})

	_, err := RenderRows(schema, []*domain.Record{rec})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestCSVSinkUnwritableDestination(t *testing.T) {
	schema := testSchema(t)

	// A regular file where a directory is needed makes the write fail.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	sink := NewCSVSink(filepath.Join(blocker, "out.csv"), nil)

	err := sink.Write(context.Background(), schema, nil)
	require.Error(t, err)
}

func TestCSVSinkCreatesParentDirectory(t *testing.T) {
	schema := testSchema(t)
	path := filepath.Join(t.TempDir(), "out", "employee.csv")
	sink := NewCSVSink(path, nil)

	require.NoError(t, sink.Write(context.Background(), schema, nil))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
