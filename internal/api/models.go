package api

import (
	"time"

	"github.com/phrazzld/synthgen/internal/domain"
)

// FieldResponse describes one schema field in API responses.
type FieldResponse struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	List        bool   `json:"list,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
	Description string `json:"description,omitempty"`
	Constraint  string `json:"constraint,omitempty"`
}

// SchemaResponse is the full schema representation.
type SchemaResponse struct {
	Name   string          `json:"name"`
	Fields []FieldResponse `json:"fields"`
}

// SchemaSummary is the list-view representation of a schema.
type SchemaSummary struct {
	Name       string `json:"name"`
	FieldCount int    `json:"field_count"`
}

// DatasetResponse represents a generation job.
type DatasetResponse struct {
	ID          string    `json:"id"`
	Schema      string    `json:"schema"`
	Count       int       `json:"count"`
	Accepted    int       `json:"accepted"`
	Rejected    int       `json:"rejected"`
	Destination string    `json:"destination,omitempty"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func schemaToResponse(s *domain.Schema) SchemaResponse {
	fields := make([]FieldResponse, 0, len(s.Fields))
	for _, f := range s.Fields {
		fields = append(fields, FieldResponse{
			Name:        f.Name,
			Kind:        string(f.Kind),
			List:        f.List,
			Optional:    f.Optional,
			Description: f.Description,
			Constraint:  f.Constraint,
		})
	}
	return SchemaResponse{Name: s.Name, Fields: fields}
}

func datasetToResponse(d domain.Dataset) DatasetResponse {
	return DatasetResponse{
		ID:          d.ID.String(),
		Schema:      d.SchemaName,
		Count:       d.Count,
		Accepted:    d.Accepted,
		Rejected:    d.Rejected,
		Destination: d.Destination,
		Status:      string(d.Status),
		Error:       d.Error,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
