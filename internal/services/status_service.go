package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tessera-hq/tessera/internal/core"
	"github.com/tessera-hq/tessera/internal/models"
)

// StatusOrchestrator reacts to completion signals from the downstream
// embedding stage and finalizes jobs.
type StatusOrchestrator struct {
	jobs      core.JobRepository
	completed core.IngestionCompletedPort
	logger    *slog.Logger
}

func NewStatusOrchestrator(jobs core.JobRepository, completed core.IngestionCompletedPort, logger *slog.Logger) *StatusOrchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusOrchestrator{jobs: jobs, completed: completed, logger: logger}
}

// Run consumes completion signals until the context ends.
func (s *StatusOrchestrator) Run(ctx context.Context, events <-chan models.VectorProcessingCompletedEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.HandleVectorProcessingCompleted(ctx, ev.IngestionJobID); err != nil {
				s.logger.Error("status.complete.failed", "job_id", ev.IngestionJobID, "err", err)
			}
		}
	}
}

// HandleVectorProcessingCompleted finalizes the job for a completion signal.
// Unknown job ids are a no-op so late or duplicate signals stay harmless.
// The completed event is emitted before the final persist so the downstream
// notification cannot be lost to a failing save.
func (s *StatusOrchestrator) HandleVectorProcessingCompleted(ctx context.Context, jobID uuid.UUID) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("lookup job: %w", err)
	}
	if job == nil {
		s.logger.Info("status.complete.unknown_job", "job_id", jobID)
		return nil
	}

	if err := s.completed.PublishDocumentIngestionCompleted(ctx, models.DocumentIngestionCompletedEvent{
		DocumentID:  job.DocumentID,
		WorkspaceID: job.WorkspaceID,
		ProjectID:   job.ProjectID,
	}); err != nil {
		return fmt.Errorf("publish completed event: %w", err)
	}

	if _, err := s.jobs.Update(ctx, job.MarkCompleted()); err != nil {
		return fmt.Errorf("finalize job: %w", err)
	}
	s.logger.Info("status.complete.ok", "job_id", jobID, "document_id", job.DocumentID)
	return nil
}
