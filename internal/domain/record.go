package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Record-specific validation errors
var (
	// ErrFieldMissing is returned when a record omits a declared field entirely.
	ErrFieldMissing = errors.New("record is missing a declared field")

	// ErrFieldUnknown is returned when a record carries a field the schema
	// does not declare.
	ErrFieldUnknown = errors.New("record contains an undeclared field")

	// ErrFieldRequired is returned when a non-optional field is absent.
	ErrFieldRequired = errors.New("required field is absent")

	// ErrValueKind is returned when a field value's runtime type disagrees
	// with its declared kind.
	ErrValueKind = errors.New("field value does not match declared kind")
)

// Record is one schema-conforming data instance: exactly one value per
// declared field, where nil marks an absent optional value. Records are
// immutable once constructed; all mutation-shaped accessors return copies.
type Record struct {
	values map[string]any
}

// NewRecord builds a Record from raw field values, validating conformance
// against the schema: the field set must match exactly, absent values are
// only legal for optional fields, and every present value must coerce to its
// declared kind. Numbers normalize to float64, timestamps to time.Time in
// UTC, lists to []any of coerced scalars.
func NewRecord(schema *Schema, values map[string]any) (*Record, error) {
	if schema == nil {
		return nil, errors.New("schema cannot be nil")
	}

	for name := range values {
		if _, ok := schema.Field(name); !ok {
			return nil, fmt.Errorf("%w: %q", ErrFieldUnknown, name)
		}
	}

	coerced := make(map[string]any, len(schema.Fields))
	for _, f := range schema.Fields {
		raw, ok := values[f.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrFieldMissing, f.Name)
		}

		if raw == nil {
			if !f.Optional {
				return nil, fmt.Errorf("%w: %q", ErrFieldRequired, f.Name)
			}
			coerced[f.Name] = nil
			continue
		}

		v, err := coerceValue(f, raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		coerced[f.Name] = v
	}

	return &Record{values: coerced}, nil
}

// Value returns the stored value for the named field and whether the record
// holds that field at all. An absent optional value is (nil, true).
func (r *Record) Value(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Map returns a copy of the record's values, suitable for handing to
// constraint evaluation. List values are copied so callers cannot mutate
// the record through the returned map.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		if list, ok := v.([]any); ok {
			cp := make([]any, len(list))
			copy(cp, list)
			m[k] = cp
			continue
		}
		m[k] = v
	}
	return m
}

// coerceValue normalizes a raw value to the field's declared kind,
// distinguishing list and scalar fields.
func coerceValue(f Field, raw any) (any, error) {
	if f.List {
		list, ok := asList(raw)
		if !ok {
			return nil, fmt.Errorf("%w: expected list of %s, got %T", ErrValueKind, f.Kind, raw)
		}
		out := make([]any, len(list))
		for i, el := range list {
			v, err := coerceScalar(f.Kind, el)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	}

	return coerceScalar(f.Kind, raw)
}

// asList widens the slice types that show up in decoded JSON and hand-built
// test fixtures to []any.
func asList(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

func coerceScalar(kind Kind, raw any) (any, error) {
	switch kind {
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string, got %T", ErrValueKind, raw)
		}
		return s, nil

	case KindNumber:
		switch n := raw.(type) {
		case float64:
			return n, nil
		case float32:
			return float64(n), nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrValueKind, err)
			}
			return f, nil
		}
		return nil, fmt.Errorf("%w: expected number, got %T", ErrValueKind, raw)

	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: expected bool, got %T", ErrValueKind, raw)
		}
		return b, nil

	case KindTime:
		switch t := raw.(type) {
		case time.Time:
			return t.UTC(), nil
		case string:
			return parseTime(t)
		}
		return nil, fmt.Errorf("%w: expected timestamp, got %T", ErrValueKind, raw)
	}

	return nil, fmt.Errorf("%w: %q", ErrSchemaUnknownKind, kind)
}

// parseTime accepts RFC 3339 timestamps and plain dates, the two textual
// forms models reliably produce.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse %q as timestamp", ErrValueKind, s)
}
