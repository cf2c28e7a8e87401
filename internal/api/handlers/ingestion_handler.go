package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tessera-hq/tessera/internal/core"
	"github.com/tessera-hq/tessera/internal/models"
	"github.com/tessera-hq/tessera/internal/services"
)

// IngestionHandler exposes the retry command and the operational job query
// surface.
type IngestionHandler struct {
	jobs     core.JobRepository
	commands *services.CommandService
	logger   *slog.Logger
}

func NewIngestionHandler(jobs core.JobRepository, commands *services.CommandService, logger *slog.Logger) *IngestionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestionHandler{jobs: jobs, commands: commands, logger: logger}
}

// RetryIngestion re-queues a FAILED job for the document in the URL.
func (h *IngestionHandler) RetryIngestion(w http.ResponseWriter, r *http.Request) {
	documentID, err := uuid.Parse(chi.URLParam(r, "documentID"))
	if err != nil {
		http.Error(w, "invalid document id", http.StatusBadRequest)
		return
	}

	job, err := h.commands.RetryIngestionJob(r.Context(), documentID)
	switch {
	case errors.Is(err, core.ErrJobNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, core.ErrRetryConflict):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		h.logger.Error("api.retry.failed", "document_id", documentID, "err", err)
		http.Error(w, "retry failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// GetJob returns the ingestion job for a document id.
func (h *IngestionHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	documentID, err := uuid.Parse(chi.URLParam(r, "documentID"))
	if err != nil {
		http.Error(w, "invalid document id", http.StatusBadRequest)
		return
	}

	job, err := h.jobs.GetByDocumentID(r.Context(), documentID)
	if err != nil {
		h.logger.Error("api.job_get.failed", "document_id", documentID, "err", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	if job == nil {
		http.Error(w, "ingestion job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// ListJobs returns jobs filtered by workspace and status, newest first.
func (h *IngestionHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	filter := core.JobFilter{Limit: 50}

	if raw := r.URL.Query().Get("workspace_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid workspace_id", http.StatusBadRequest)
			return
		}
		filter.WorkspaceID = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		filter.Status = models.JobStatus(raw)
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			filter.Limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	jobs, err := h.jobs.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("api.job_list.failed", "err", err)
		http.Error(w, "listing failed", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []models.IngestionJob{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
