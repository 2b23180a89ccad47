package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/synthgen/internal/domain"
)

// sqlConvert maps one field value to its driver-level representation.
type sqlConvert func(f domain.Field, v any) (any, error)

// tableForSchema derives a safe table name from the schema name: lowercased,
// with runs of non-alphanumeric characters collapsed to underscores.
func tableForSchema(schema *domain.Schema) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(schema.Name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	name := strings.TrimSuffix(b.String(), "_")
	if name == "" {
		name = "dataset"
	}
	return name
}

// quoteIdent double-quotes an identifier, doubling embedded quotes. Both
// SQLite and Postgres accept this form.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sqlRows performs the same conformance pass as the CSV renderer, producing
// one driver-value row per record in schema field order. A schema mismatch
// is detected before any statement executes.
func sqlRows(schema *domain.Schema, records []*domain.Record, conv sqlConvert) ([][]any, error) {
	if schema == nil {
		return nil, ErrNoSchema
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	rows := make([][]any, 0, len(records))
	for i, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("record %d: %w: record is nil", i, ErrSchemaMismatch)
		}
		if extra := len(rec.Map()) - len(schema.Fields); extra > 0 {
			return nil, fmt.Errorf("record %d: %w: %d undeclared field(s)", i, ErrSchemaMismatch, extra)
		}

		row := make([]any, len(schema.Fields))
		for j, f := range schema.Fields {
			v, ok := rec.Value(f.Name)
			if !ok {
				return nil, fmt.Errorf("record %d: %w: missing field %q", i, ErrSchemaMismatch, f.Name)
			}

			if v == nil {
				row[j] = nil
				continue
			}

			dv, err := conv(f, v)
			if err != nil {
				return nil, fmt.Errorf("record %d: field %q: %w", i, f.Name, err)
			}
			row[j] = dv
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// listJSON serializes a list value to a JSON array string for storage in a
// single column.
func listJSON(v any) (string, error) {
	list, ok := v.([]any)
	if !ok {
		return "", fmt.Errorf("%w: expected list, got %T", ErrRender, v)
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	return string(data), nil
}
