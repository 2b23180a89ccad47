package domain

import (
	"errors"
	"fmt"
)

// Schema-specific validation errors
var (
	// ErrSchemaNameEmpty is returned when a schema has no name.
	ErrSchemaNameEmpty = errors.New("schema name cannot be empty")

	// ErrSchemaNoFields is returned when a schema declares no fields.
	ErrSchemaNoFields = errors.New("schema must declare at least one field")

	// ErrSchemaDuplicateField is returned when two fields share a name.
	ErrSchemaDuplicateField = errors.New("schema field names must be unique")

	// ErrSchemaUnknownKind is returned when a field declares an unknown kind.
	ErrSchemaUnknownKind = errors.New("unknown field kind")
)

// Kind identifies the scalar type of a field's values.
type Kind string

// Supported scalar kinds.
const (
	KindString Kind = "string"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindTime   Kind = "time"
)

// Valid reports whether k is one of the supported scalar kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindNumber, KindBool, KindTime:
		return true
	}
	return false
}

// Field declares one column of a schema: its name, scalar kind, whether it
// holds an ordered list of scalars rather than a single one, and whether the
// value may be absent. Description feeds the generation prompt; Constraint is
// an optional CEL expression evaluated against generated records.
type Field struct {
	Name        string `json:"name"                  mapstructure:"name"`
	Kind        Kind   `json:"kind"                  mapstructure:"kind"`
	List        bool   `json:"list,omitempty"        mapstructure:"list"`
	Optional    bool   `json:"optional,omitempty"    mapstructure:"optional"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	Constraint  string `json:"constraint,omitempty"  mapstructure:"constraint"`
}

// Schema is the ordered declaration of a record type. Field order is the
// single source of truth for output column order; it is never inferred from
// data instances. Examples are few-shot seed rows handed to the generator
// verbatim.
type Schema struct {
	Name     string   `json:"name"               mapstructure:"name"`
	Fields   []Field  `json:"fields"             mapstructure:"fields"`
	Examples []string `json:"examples,omitempty" mapstructure:"examples"`
}

// Validate checks the schema declaration itself: a name, at least one field,
// unique field names, and a known kind per field.
func (s *Schema) Validate() error {
	if s.Name == "" {
		return ErrSchemaNameEmpty
	}

	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: schema %q", ErrSchemaNoFields, s.Name)
	}

	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema %q: field name cannot be empty", s.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: %q", ErrSchemaDuplicateField, f.Name)
		}
		seen[f.Name] = struct{}{}

		if !f.Kind.Valid() {
			return fmt.Errorf("%w: field %q declares kind %q", ErrSchemaUnknownKind, f.Name, f.Kind)
		}
	}

	return nil
}

// FieldNames returns the declared field names in schema order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the declaration for the named field, or false if the schema
// does not declare it.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
