package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phrazzld/synthgen/internal/api/shared"
	"github.com/phrazzld/synthgen/internal/domain"
	"github.com/phrazzld/synthgen/internal/task"
)

// CreateDatasetRequest represents the request body for starting a
// generation job.
type CreateDatasetRequest struct {
	Schema       string `json:"schema"       validate:"required"`
	Count        int    `json:"count"        validate:"required,min=1,max=10000"`
	Instructions string `json:"instructions" validate:"max=2000"`
}

// TaskSubmitter enqueues background tasks. The task runner implements it.
type TaskSubmitter interface {
	Submit(t task.Task) error
}

// DatasetHandler handles dataset generation HTTP requests
type DatasetHandler struct {
	schemas   SchemaDirectory
	jobs      *task.JobStore
	submitter TaskSubmitter
	runner    task.DatasetRunner
	validator *validator.Validate
	logger    *slog.Logger
}

// NewDatasetHandler creates a new DatasetHandler
func NewDatasetHandler(
	schemas SchemaDirectory,
	jobs *task.JobStore,
	submitter TaskSubmitter,
	runner task.DatasetRunner,
	logger *slog.Logger,
) *DatasetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetHandler{
		schemas:   schemas,
		jobs:      jobs,
		submitter: submitter,
		runner:    runner,
		validator: validator.New(),
		logger:    logger.With(slog.String("component", "dataset_handler")),
	}
}

// CreateDataset handles POST /api/datasets requests. It validates the
// request, registers a pending job, and enqueues it for background
// generation, responding with 202 Accepted.
func (h *DatasetHandler) CreateDataset(w http.ResponseWriter, r *http.Request) {
	var req CreateDatasetRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	// Reject unknown schemas before a job is registered.
	if _, err := h.schemas.Get(req.Schema); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	dataset, err := domain.NewDataset(req.Schema, req.Count)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	genTask, err := task.NewDatasetGenerationTask(dataset, req.Instructions, h.runner, h.jobs, h.logger)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	h.jobs.Put(dataset)

	// Snapshot the response before Submit: once the task is queued a worker
	// may start mutating the dataset's result fields.
	resp := datasetToResponse(*dataset)

	if err := h.submitter.Submit(genTask); err != nil {
		if serr := h.jobs.SetStatus(dataset.ID, domain.DatasetStatusFailed, "queue unavailable"); serr != nil {
			h.logger.Error("failed to mark unqueued job as failed",
				"dataset_id", dataset.ID.String(),
				"error", serr)
		}
		HandleAPIError(w, r, err, "")
		return
	}

	h.logger.Info("dataset generation job accepted",
		"dataset_id", resp.ID,
		"schema", req.Schema,
		"count", req.Count)

	shared.RespondWithJSON(w, r, http.StatusAccepted, resp)
}

// GetDataset handles GET /api/datasets/{id} requests
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	id, err := datasetIDFromPath(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	dataset, err := h.jobs.Get(id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, datasetToResponse(dataset))
}

func datasetIDFromPath(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		return uuid.Nil, domain.ErrInvalidID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidID
	}
	return id, nil
}
