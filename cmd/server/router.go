package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/synthgen/internal/api"
	apiMiddleware "github.com/phrazzld/synthgen/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	schemaHandler := api.NewSchemaHandler(app.registry)
	datasetHandler := api.NewDatasetHandler(
		app.registry,
		app.jobs,
		app.runner,
		app.service,
		app.logger,
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/schemas", schemaHandler.ListSchemas)
		r.Get("/schemas/{name}", schemaHandler.GetSchema)

		r.Post("/datasets", datasetHandler.CreateDataset)
		r.Get("/datasets/{id}", datasetHandler.GetDataset)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
