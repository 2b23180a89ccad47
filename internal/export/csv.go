package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/synthgen/internal/domain"
)

// Rendering constants for the flattening serializer.
const (
	// NullSentinel is the textual form of an absent value. It is deliberately
	// distinct from the empty string an empty list renders to, so downstream
	// parsers can tell the two apart.
	NullSentinel = "None"

	// ListSeparator joins the elements of a list-valued field into a single
	// cell. Cells containing it are quoted by the CSV layer, so embedded
	// separators survive a round trip.
	ListSeparator = ", "
)

// renderFunc converts one field value to its canonical textual form.
type renderFunc func(v any) (string, error)

// fieldRenderer pairs a declared field with its renderer, resolved once
// against the schema so per-record rendering is total.
type fieldRenderer struct {
	name   string
	render renderFunc
}

// CSVSink writes records as a UTF-8 comma-separated table: a header row of
// field names in schema order, then one row per record. The destination file
// is created or truncated on each write.
type CSVSink struct {
	path   string
	logger *slog.Logger
}

// NewCSVSink creates a CSV sink writing to path. If logger is nil, the
// default logger is used.
func NewCSVSink(path string, logger *slog.Logger) *CSVSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVSink{
		path:   path,
		logger: logger.With(slog.String("component", "csv_sink")),
	}
}

// Ensure CSVSink implements the Sink interface.
var _ Sink = (*CSVSink)(nil)

// Destination implements Sink.Destination.
func (s *CSVSink) Destination() string {
	return s.path
}

// Write implements Sink.Write. Every row is rendered and validated before
// the destination is opened, so a schema mismatch or render failure leaves
// no partial file behind.
func (s *CSVSink) Write(ctx context.Context, schema *domain.Schema, records []*domain.Record) error {
	rows, err := RenderRows(schema, records)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", s.path, err)
	}

	if err := writeRows(f, rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", s.path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", s.path, err)
	}

	s.logger.InfoContext(ctx, "wrote CSV table",
		"path", s.path,
		"schema", schema.Name,
		"rows", len(records))
	return nil
}

// WriteTable renders the records and writes the complete table to w.
// It is the io.Writer-level form of the sink, used by the CLI for stdout
// output and by tests.
func WriteTable(w io.Writer, schema *domain.Schema, records []*domain.Record) error {
	rows, err := RenderRows(schema, records)
	if err != nil {
		return err
	}
	return writeRows(w, rows)
}

// RenderRows flattens the records into textual rows, header first. Column
// order equals schema field order for every row. Rendering is deterministic:
// the same inputs always produce the same rows.
func RenderRows(schema *domain.Schema, records []*domain.Record) ([][]string, error) {
	if schema == nil {
		return nil, ErrNoSchema
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	renderers := buildRenderers(schema)

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, schema.FieldNames())

	for i, rec := range records {
		row, err := renderRecord(renderers, rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func renderRecord(renderers []fieldRenderer, rec *domain.Record) ([]string, error) {
	if rec == nil {
		return nil, fmt.Errorf("%w: record is nil", ErrSchemaMismatch)
	}
	if extra := len(rec.Map()) - len(renderers); extra > 0 {
		return nil, fmt.Errorf("%w: %d undeclared field(s)", ErrSchemaMismatch, extra)
	}

	row := make([]string, len(renderers))
	for i, fr := range renderers {
		v, ok := rec.Value(fr.name)
		if !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrSchemaMismatch, fr.name)
		}

		cell, err := fr.render(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fr.name, err)
		}
		row[i] = cell
	}
	return row, nil
}

func writeRows(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// buildRenderers resolves one renderer per declared field, in schema order.
// Absence handling is uniform: nil renders as the null sentinel, which the
// constructor only permits for optional fields.
func buildRenderers(schema *domain.Schema) []fieldRenderer {
	renderers := make([]fieldRenderer, len(schema.Fields))
	for i, f := range schema.Fields {
		scalar := scalarRenderer(f.Kind)

		render := scalar
		if f.List {
			render = listRenderer(scalar)
		}

		renderers[i] = fieldRenderer{name: f.Name, render: nullable(render)}
	}
	return renderers
}

func nullable(render renderFunc) renderFunc {
	return func(v any) (string, error) {
		if v == nil {
			return NullSentinel, nil
		}
		return render(v)
	}
}

// listRenderer joins the rendered elements with the fixed separator,
// preserving element order. An empty list renders as an empty string.
func listRenderer(scalar renderFunc) renderFunc {
	return func(v any) (string, error) {
		list, ok := v.([]any)
		if !ok {
			return "", fmt.Errorf("%w: expected list, got %T", ErrRender, v)
		}

		parts := make([]string, len(list))
		for i, el := range list {
			s, err := scalar(el)
			if err != nil {
				return "", fmt.Errorf("element %d: %w", i, err)
			}
			parts[i] = s
		}
		return strings.Join(parts, ListSeparator), nil
	}
}

func scalarRenderer(kind domain.Kind) renderFunc {
	switch kind {
	case domain.KindString:
		return func(v any) (string, error) {
			s, ok := v.(string)
			if !ok {
				return "", fmt.Errorf("%w: expected string, got %T", ErrRender, v)
			}
			return s, nil
		}

	case domain.KindNumber:
		return func(v any) (string, error) {
			n, ok := v.(float64)
			if !ok {
				return "", fmt.Errorf("%w: expected number, got %T", ErrRender, v)
			}
			// Shortest exact decimal form, no exponent artifacts.
			return strconv.FormatFloat(n, 'f', -1, 64), nil
		}

	case domain.KindBool:
		return func(v any) (string, error) {
			b, ok := v.(bool)
			if !ok {
				return "", fmt.Errorf("%w: expected bool, got %T", ErrRender, v)
			}
			return strconv.FormatBool(b), nil
		}

	case domain.KindTime:
		return func(v any) (string, error) {
			t, ok := v.(time.Time)
			if !ok {
				return "", fmt.Errorf("%w: expected timestamp, got %T", ErrRender, v)
			}
			return t.UTC().Format(time.RFC3339), nil
		}
	}

	return func(v any) (string, error) {
		return "", fmt.Errorf("%w: %q", domain.ErrSchemaUnknownKind, kind)
	}
}
