package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/docsmith-ai/docsmith/internal/api"
	"github.com/docsmith-ai/docsmith/internal/domain"
	"github.com/docsmith-ai/docsmith/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// IngestRunner defines the service interface for synchronous ingestion
type IngestRunner interface {
	Ingest(ctx context.Context, repository string) (*service.IngestResult, error)
}

// IngestJobStore defines the repository interface for queued ingestion
type IngestJobStore interface {
	Create(ctx context.Context, job *domain.IngestJob) error
	GetByID(ctx context.Context, id string) (*domain.IngestJob, error)
}

// IngestHandler handles ingestion endpoints
type IngestHandler struct {
	runner IngestRunner
	jobs   IngestJobStore
}

// NewIngestHandler creates a new IngestHandler instance
func NewIngestHandler(runner IngestRunner, jobs IngestJobStore) *IngestHandler {
	return &IngestHandler{
		runner: runner,
		jobs:   jobs,
	}
}

type ingestRequest struct {
	Repository string `json:"repository"`
}

type IngestJobResponse struct {
	ID           string `json:"id"`
	Repository   string `json:"repository"`
	Status       string `json:"status"`
	Retries      int32  `json:"retries"`
	ChunksStored int32  `json:"chunks_stored"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
	ProcessedAt  string `json:"processed_at,omitempty"`
}

func ingestJobToResponse(job *domain.IngestJob) *IngestJobResponse {
	resp := &IngestJobResponse{
		ID:           job.ID,
		Repository:   job.Repository,
		Status:       string(job.Status),
		Retries:      job.Retries,
		ChunksStored: job.ChunksStored,
		Error:        job.Error,
		CreatedAt:    job.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if job.ProcessedAt != nil {
		resp.ProcessedAt = job.ProcessedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

// Ingest handles POST /ingest: run the full pipeline synchronously and
// report what was stored.
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.runner.Ingest(r.Context(), req.Repository)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}

// CreateJob handles POST /ingest/jobs: enqueue an ingestion run for the
// background worker.
func (h *IngestHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job := domain.NewIngestJob(uuid.NewString(), req.Repository, time.Now().UTC())
	if err := h.jobs.Create(r.Context(), job); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusAccepted, ingestJobToResponse(job))
}

// GetJob handles GET /ingest/jobs/{id}
func (h *IngestHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ingestJobToResponse(job))
}
