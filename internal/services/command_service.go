package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tessera-hq/tessera/internal/core"
	"github.com/tessera-hq/tessera/internal/models"
)

// CommandService is the public entry point for starting and retrying
// ingestion jobs.
type CommandService struct {
	registry core.DocumentRegistry
	jobs     core.JobRepository
	uploads  core.DocumentUploadedPort
	logger   *slog.Logger
}

func NewCommandService(registry core.DocumentRegistry, jobs core.JobRepository, uploads core.DocumentUploadedPort, logger *slog.Logger) *CommandService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandService{registry: registry, jobs: jobs, uploads: uploads, logger: logger}
}

// StartIngestionJob looks the document up in the registry and publishes the
// upload event that triggers the pipeline.
func (s *CommandService) StartIngestionJob(ctx context.Context, documentID uuid.UUID) error {
	doc, err := s.registry.GetDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("registry lookup: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("document %s: %w", documentID, core.ErrDocumentNotFound)
	}

	ev := models.DocumentUploadedEvent{
		DocumentID:  doc.ID,
		WorkspaceID: doc.WorkspaceID,
		ProjectID:   doc.ProjectID,
		StorageKey:  doc.StorageKey,
		MimeType:    doc.MimeType,
	}
	if err := s.uploads.PublishDocumentUploaded(ctx, ev); err != nil {
		return fmt.Errorf("publish uploaded event: %w", err)
	}
	s.logger.Info("command.start.published", "document_id", documentID)
	return nil
}

// RetryIngestionJob re-queues a FAILED job and re-emits its upload event.
// Only FAILED jobs are retryable; anything else is a conflict and no write
// is performed.
func (s *CommandService) RetryIngestionJob(ctx context.Context, documentID uuid.UUID) (models.IngestionJob, error) {
	job, err := s.jobs.GetByDocumentID(ctx, documentID)
	if err != nil {
		return models.IngestionJob{}, fmt.Errorf("lookup job: %w", err)
	}
	if job == nil {
		return models.IngestionJob{}, fmt.Errorf("document %s: %w", documentID, core.ErrJobNotFound)
	}
	if job.Status != models.JobStatusFailed {
		return models.IngestionJob{}, fmt.Errorf("document %s in status %s: %w", documentID, job.Status, core.ErrRetryConflict)
	}

	updated, err := s.jobs.Update(ctx, job.ResetForRetry())
	if err != nil {
		return models.IngestionJob{}, fmt.Errorf("requeue job: %w", err)
	}

	ev := models.DocumentUploadedEvent{
		DocumentID:  updated.DocumentID,
		WorkspaceID: updated.WorkspaceID,
		ProjectID:   updated.ProjectID,
		StorageKey:  updated.StorageKey,
		MimeType:    updated.MimeType,
	}
	if err := s.uploads.PublishDocumentUploaded(ctx, ev); err != nil {
		return models.IngestionJob{}, fmt.Errorf("publish uploaded event: %w", err)
	}
	s.logger.Info("command.retry.published",
		"document_id", documentID, "job_id", updated.ID, "retry_count", updated.RetryCount)
	return updated, nil
}
