package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-hq/tessera/internal/core"
	"github.com/tessera-hq/tessera/internal/models"
)

func uploadEvent() models.DocumentUploadedEvent {
	return models.DocumentUploadedEvent{
		DocumentID:  uuid.New(),
		WorkspaceID: uuid.New(),
		ProjectID:   uuid.New(),
		StorageKey:  "workspaces/w/documents/d/report.pdf",
		MimeType:    "application/pdf",
	}
}

func newIngestion(repo *fakeJobRepo, fetcher *fakeFetcher, extraction *fakeExtraction, chunker *fakeChunker, ports *fakePorts) *IngestionService {
	return NewIngestionService(repo, fetcher, extraction, chunker, ports, nil)
}

func TestProcessSuccessFlow(t *testing.T) {
	ev := uploadEvent()
	repo := newFakeJobRepo()
	fetcher := &fakeFetcher{data: []byte("%PDF...")}
	extraction := &fakeExtraction{doc: &models.ExtractedDocument{Text: "body"}}
	chunks := []models.Chunk{
		{DocumentID: ev.DocumentID, Page: 1, StartOffset: 0, EndOffset: 4, Text: "body", Order: 0},
	}
	chunker := &fakeChunker{chunks: chunks}
	ports := &fakePorts{}

	err := newIngestion(repo, fetcher, extraction, chunker, ports).Process(context.Background(), ev)
	require.NoError(t, err)

	job := repo.current(repo.history[0].ID)
	assert.Equal(t, models.JobStatusProcessing, job.Status)
	assert.Equal(t, models.JobStageEmbed, job.Stage)
	assert.Zero(t, job.RetryCount)

	// PROCESSING was persisted before the stage advance.
	require.Len(t, repo.history, 2)
	assert.Equal(t, models.JobStatusProcessing, repo.history[0].Status)
	assert.Equal(t, models.JobStageEmbed, repo.history[1].Stage)

	require.Len(t, ports.requests, 1)
	req := ports.requests[0]
	assert.Equal(t, ev.DocumentID, req.DocumentID)
	assert.Equal(t, ev.WorkspaceID, req.WorkspaceID)
	assert.Equal(t, ev.ProjectID, req.ProjectID)
	assert.Equal(t, job.ID, req.IngestionJobID)
	assert.Equal(t, chunks, req.Chunks)
}

func TestProcessEmptyChunkListIsForwarded(t *testing.T) {
	ev := uploadEvent()
	repo := newFakeJobRepo()
	ports := &fakePorts{}
	svc := newIngestion(repo, &fakeFetcher{data: []byte(" ")},
		&fakeExtraction{doc: &models.ExtractedDocument{}}, &fakeChunker{chunks: nil}, ports)

	require.NoError(t, svc.Process(context.Background(), ev))

	require.Len(t, ports.requests, 1)
	assert.Empty(t, ports.requests[0].Chunks)
	assert.Equal(t, models.JobStageEmbed, repo.current(repo.history[0].ID).Stage)
}

func TestProcessCompletedJobIsNoOp(t *testing.T) {
	ev := uploadEvent()
	repo := newFakeJobRepo()
	repo.seed(models.NewIngestionJob(ev.DocumentID, ev.WorkspaceID, ev.ProjectID, ev.StorageKey, ev.MimeType).
		MarkProcessing().MarkStage(models.JobStageEmbed).MarkCompleted())
	fetcher := &fakeFetcher{data: []byte("x")}
	extraction := &fakeExtraction{doc: &models.ExtractedDocument{}}
	chunker := &fakeChunker{}
	ports := &fakePorts{}

	err := newIngestion(repo, fetcher, extraction, chunker, ports).Process(context.Background(), ev)
	require.NoError(t, err)

	assert.Zero(t, fetcher.calls)
	assert.Zero(t, extraction.calls)
	assert.Zero(t, chunker.calls)
	assert.Empty(t, ports.requests)
	assert.Empty(t, repo.history, "terminal jobs are never written")
}

func TestProcessFetchFailurePropagatesAndCounts(t *testing.T) {
	ev := uploadEvent()
	repo := newFakeJobRepo()
	fetchErr := errors.New("connection refused")
	ports := &fakePorts{}
	svc := newIngestion(repo, &fakeFetcher{err: fetchErr}, &fakeExtraction{}, &fakeChunker{}, ports)

	err := svc.Process(context.Background(), ev)
	require.Error(t, err)
	assert.ErrorIs(t, err, fetchErr)

	job := repo.current(repo.history[0].ID)
	assert.Equal(t, models.JobStatusProcessing, job.Status, "fetch failures stay retryable")
	assert.Equal(t, models.JobStageFetch, job.Stage)
	assert.Equal(t, 1, job.RetryCount)
	assert.Equal(t, "connection refused", job.LastError)
	assert.Empty(t, ports.requests)
}

func TestProcessParseFailureIsAbsorbed(t *testing.T) {
	ev := uploadEvent()
	repo := newFakeJobRepo()
	ports := &fakePorts{}
	svc := newIngestion(repo, &fakeFetcher{data: []byte("x")},
		&fakeExtraction{err: errors.New("parse pdf: bad xref")}, &fakeChunker{}, ports)

	require.NoError(t, svc.Process(context.Background(), ev))

	job := repo.current(repo.history[0].ID)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, models.JobStageParse, job.Stage)
	assert.Equal(t, "parse pdf: bad xref", job.LastError)
	assert.Zero(t, job.RetryCount, "content failures do not consume retries")
	assert.Empty(t, ports.requests)
}

func TestProcessNilExtractionResultFailsParseStage(t *testing.T) {
	ev := uploadEvent()
	repo := newFakeJobRepo()
	svc := newIngestion(repo, &fakeFetcher{data: []byte("x")},
		&fakeExtraction{doc: nil}, &fakeChunker{}, &fakePorts{})

	require.NoError(t, svc.Process(context.Background(), ev))

	job := repo.current(repo.history[0].ID)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, models.JobStageParse, job.Stage)
	assert.Equal(t, "extraction returned no document", job.LastError)
}

func TestProcessChunkFailureIsAbsorbed(t *testing.T) {
	ev := uploadEvent()
	repo := newFakeJobRepo()
	ports := &fakePorts{}
	svc := newIngestion(repo, &fakeFetcher{data: []byte("x")},
		&fakeExtraction{doc: &models.ExtractedDocument{}},
		&fakeChunker{err: errors.New("nil document")}, ports)

	require.NoError(t, svc.Process(context.Background(), ev))

	job := repo.current(repo.history[0].ID)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, models.JobStageChunk, job.Stage)
	assert.Empty(t, ports.requests)
}

func TestProcessReusesExistingJob(t *testing.T) {
	ev := uploadEvent()
	repo := newFakeJobRepo()
	seeded := repo.seed(models.NewIngestionJob(ev.DocumentID, ev.WorkspaceID, ev.ProjectID, ev.StorageKey, ev.MimeType).
		MarkProcessing().MarkFailed(models.JobStageParse, "boom").ResetForRetry())
	ports := &fakePorts{}
	svc := newIngestion(repo, &fakeFetcher{data: []byte("x")},
		&fakeExtraction{doc: &models.ExtractedDocument{}}, &fakeChunker{}, ports)

	require.NoError(t, svc.Process(context.Background(), ev))

	job := repo.current(seeded.ID)
	assert.Equal(t, seeded.ID, job.ID, "no second job row for the document")
	assert.Equal(t, models.JobStageEmbed, job.Stage)
	assert.Equal(t, 1, job.RetryCount, "retry count carries across re-runs")
	require.Len(t, ports.requests, 1)
	assert.Equal(t, seeded.ID, ports.requests[0].IngestionJobID)
}

func TestPersistRetriesVersionConflict(t *testing.T) {
	ev := uploadEvent()
	repo := newFakeJobRepo()
	repo.seed(models.NewIngestionJob(ev.DocumentID, ev.WorkspaceID, ev.ProjectID, ev.StorageKey, ev.MimeType))
	repo.failNext = core.ErrVersionConflict
	ports := &fakePorts{}
	svc := newIngestion(repo, &fakeFetcher{data: []byte("x")},
		&fakeExtraction{doc: &models.ExtractedDocument{}}, &fakeChunker{}, ports)

	require.NoError(t, svc.Process(context.Background(), ev))

	assert.Equal(t, models.JobStageEmbed, repo.current(repo.history[0].ID).Stage)
	assert.Len(t, ports.requests, 1)
}

func TestPersistHaltsWhenReloadFindsCompleted(t *testing.T) {
	ev := uploadEvent()
	repo := newFakeJobRepo()
	seeded := repo.seed(models.NewIngestionJob(ev.DocumentID, ev.WorkspaceID, ev.ProjectID, ev.StorageKey, ev.MimeType))
	// A concurrent writer finalizes the row while our first write conflicts.
	repo.failNext = core.ErrVersionConflict
	repo.onFail = func(rows map[uuid.UUID]models.IngestionJob) {
		row := rows[seeded.ID]
		row = row.MarkCompleted()
		row.Version++
		rows[seeded.ID] = row
	}
	fetcher := &fakeFetcher{data: []byte("x")}
	ports := &fakePorts{}

	svc := newIngestion(repo, fetcher, &fakeExtraction{doc: &models.ExtractedDocument{}}, &fakeChunker{}, ports)
	require.NoError(t, svc.Process(context.Background(), ev))

	assert.Zero(t, fetcher.calls, "a finalized job fetches nothing")
	assert.Empty(t, ports.requests)
	assert.Equal(t, models.JobStatusCompleted, repo.current(seeded.ID).Status)
}

func TestRunProcessesUntilChannelCloses(t *testing.T) {
	ev := uploadEvent()
	repo := newFakeJobRepo()
	ports := &fakePorts{}
	svc := newIngestion(repo, &fakeFetcher{data: []byte("x")},
		&fakeExtraction{doc: &models.ExtractedDocument{}}, &fakeChunker{}, ports)

	events := make(chan models.DocumentUploadedEvent, 1)
	events <- ev
	close(events)

	require.NoError(t, svc.Run(context.Background(), events, 2))
	assert.Len(t, ports.requests, 1)
}
