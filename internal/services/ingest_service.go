package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/tessera-hq/tessera/internal/core"
	"github.com/tessera-hq/tessera/internal/models"
)

// errJobCompleted halts processing when a concurrent writer already
// finalized the job. Never surfaced to callers.
var errJobCompleted = errors.New("ingestion job already completed")

// IngestionService drives an uploaded document through the
// fetch, parse, chunk, embed pipeline and owns every job transition.
//
// Failure handling is deliberately asymmetric: fetch failures are transient
// infrastructure faults, so they bubble out of Process and the transport
// decides about redelivery. Parse and chunk failures are permanent for the
// document, so they are absorbed into the job record instead of causing
// redelivery loops.
type IngestionService struct {
	jobs       core.JobRepository
	fetcher    core.BlobFetcher
	extraction core.ExtractionService
	chunker    core.Chunker
	requests   core.VectorRequestPort
	logger     *slog.Logger
}

func NewIngestionService(
	jobs core.JobRepository,
	fetcher core.BlobFetcher,
	extraction core.ExtractionService,
	chunker core.Chunker,
	requests core.VectorRequestPort,
	logger *slog.Logger,
) *IngestionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestionService{
		jobs:       jobs,
		fetcher:    fetcher,
		extraction: extraction,
		chunker:    chunker,
		requests:   requests,
		logger:     logger,
	}
}

// Run consumes upload events until the context ends, handling each event to
// completion on one of numWorkers workers.
func (s *IngestionService) Run(ctx context.Context, events <-chan models.DocumentUploadedEvent, numWorkers int) error {
	if numWorkers < 1 {
		numWorkers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					if err := s.Process(gctx, ev); err != nil {
						s.logger.Error("ingest.process.failed", "document_id", ev.DocumentID, "err", err)
					}
				}
			}
		})
	}
	return g.Wait()
}

// Process runs the pipeline for one upload event. A returned error means the
// run aborted on a transient fault and the trigger should be redelivered;
// content failures return nil after recording FAILED state on the job.
func (s *IngestionService) Process(ctx context.Context, ev models.DocumentUploadedEvent) error {
	job, err := s.lookupOrCreate(ctx, ev)
	if err != nil {
		return err
	}
	// COMPLETED is terminal: duplicate triggers for a finished document do
	// nothing, fetch no bytes, and emit no messages.
	if job.Status == models.JobStatusCompleted {
		s.logger.Info("ingest.skip.completed", "document_id", ev.DocumentID, "job_id", job.ID)
		return nil
	}

	job, err = s.persist(ctx, job, models.IngestionJob.MarkProcessing)
	if errors.Is(err, errJobCompleted) {
		return nil
	}
	if err != nil {
		return err
	}

	// FETCH
	data, err := s.fetcher.Fetch(ctx, job.StorageKey)
	if err != nil {
		msg := err.Error()
		if _, perr := s.persist(ctx, job, func(j models.IngestionJob) models.IngestionJob {
			return j.RecordFetchFailure(msg)
		}); perr != nil && !errors.Is(perr, errJobCompleted) {
			s.logger.Error("ingest.fetch.record_failed", "job_id", job.ID, "err", perr)
		}
		return fmt.Errorf("fetch %s: %w", job.StorageKey, err)
	}

	// PARSE
	extracted, err := s.extraction.Extract(data, job.MimeType)
	if err != nil || extracted == nil {
		msg := "extraction returned no document"
		if err != nil {
			msg = err.Error()
		}
		s.failStage(ctx, job, models.JobStageParse, msg)
		return nil
	}

	// CHUNK
	chunks, err := s.chunker.ChunkDocument(extracted, job.DocumentID)
	if err != nil {
		s.failStage(ctx, job, models.JobStageChunk, err.Error())
		return nil
	}

	// EMBED hand-off; an empty chunk list is forwarded, not treated as failure.
	job, err = s.persist(ctx, job, func(j models.IngestionJob) models.IngestionJob {
		return j.MarkStage(models.JobStageEmbed)
	})
	if errors.Is(err, errJobCompleted) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.requests.PublishVectorProcessingRequest(ctx, models.VectorProcessingRequestEvent{
		DocumentID:     job.DocumentID,
		ProjectID:      job.ProjectID,
		WorkspaceID:    job.WorkspaceID,
		IngestionJobID: job.ID,
		Chunks:         chunks,
	}); err != nil {
		return fmt.Errorf("publish vector request: %w", err)
	}

	s.logger.Info("ingest.embed.requested",
		"document_id", job.DocumentID, "job_id", job.ID, "chunks", len(chunks))
	return nil
}

func (s *IngestionService) lookupOrCreate(ctx context.Context, ev models.DocumentUploadedEvent) (models.IngestionJob, error) {
	existing, err := s.jobs.GetByDocumentID(ctx, ev.DocumentID)
	if err != nil {
		return models.IngestionJob{}, fmt.Errorf("lookup job: %w", err)
	}
	if existing != nil {
		return *existing, nil
	}

	job, created, err := s.jobs.CreateOrGet(ctx,
		models.NewIngestionJob(ev.DocumentID, ev.WorkspaceID, ev.ProjectID, ev.StorageKey, ev.MimeType))
	if err != nil {
		return models.IngestionJob{}, fmt.Errorf("create job: %w", err)
	}
	if created {
		s.logger.Info("ingest.job.created", "document_id", ev.DocumentID, "job_id", job.ID)
	}
	return job, nil
}

// failStage records a permanent content failure. Retry counting is reserved
// for fetch attempts and explicit retries.
func (s *IngestionService) failStage(ctx context.Context, job models.IngestionJob, stage models.JobStage, msg string) {
	if _, err := s.persist(ctx, job, func(j models.IngestionJob) models.IngestionJob {
		return j.MarkFailed(stage, msg)
	}); err != nil && !errors.Is(err, errJobCompleted) {
		s.logger.Error("ingest.fail.record_failed", "job_id", job.ID, "stage", stage, "err", err)
	}
	s.logger.Warn("ingest.stage.failed", "job_id", job.ID, "stage", stage, "error", msg)
}

// persist applies a transition and saves it with compare-and-swap semantics.
// On a version conflict the row is reloaded and the transition reapplied, up
// to three attempts; a reload that finds a COMPLETED job wins outright.
func (s *IngestionService) persist(ctx context.Context, job models.IngestionJob, apply func(models.IngestionJob) models.IngestionJob) (models.IngestionJob, error) {
	for attempt := 0; ; attempt++ {
		updated, err := s.jobs.Update(ctx, apply(job))
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, core.ErrVersionConflict) || attempt >= 2 {
			return models.IngestionJob{}, err
		}
		fresh, lerr := s.jobs.GetByID(ctx, job.ID)
		if lerr != nil {
			return models.IngestionJob{}, lerr
		}
		if fresh == nil {
			return models.IngestionJob{}, fmt.Errorf("job %s: %w", job.ID, core.ErrJobNotFound)
		}
		if fresh.Status == models.JobStatusCompleted {
			return *fresh, errJobCompleted
		}
		job = *fresh
	}
}
