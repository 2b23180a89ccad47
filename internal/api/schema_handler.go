package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/synthgen/internal/api/shared"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/registry"
)

// SchemaDirectory exposes the registered schemas. The registry implements it.
type SchemaDirectory interface {
	Get(name string) (registry.Entry, error)
	List() []*domain.Schema
}

// SchemaHandler handles schema-related HTTP requests
type SchemaHandler struct {
	schemas SchemaDirectory
}

// NewSchemaHandler creates a new SchemaHandler
func NewSchemaHandler(schemas SchemaDirectory) *SchemaHandler {
	return &SchemaHandler{schemas: schemas}
}

// ListSchemas handles GET /api/schemas requests
func (h *SchemaHandler) ListSchemas(w http.ResponseWriter, r *http.Request) {
	all := h.schemas.List()
	summaries := make([]SchemaSummary, 0, len(all))
	for _, s := range all {
		summaries = append(summaries, SchemaSummary{
			Name:       s.Name,
			FieldCount: len(s.Fields),
		})
	}
	shared.RespondWithJSON(w, r, http.StatusOK, summaries)
}

// GetSchema handles GET /api/schemas/{name} requests
func (h *SchemaHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Schema name is required")
		return
	}

	entry, err := h.schemas.Get(name)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, schemaToResponse(entry.Schema))
}
