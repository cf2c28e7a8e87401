package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/tessera-hq/tessera/internal/core"
	"github.com/tessera-hq/tessera/internal/models"
)

// fakeJobRepo is an in-memory JobRepository with the same compare-and-swap
// semantics as the postgres store. failNext injects a one-shot Update error;
// onWrite observes every successful write for ordering assertions.
type fakeJobRepo struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]models.IngestionJob
	history  []models.IngestionJob
	failNext error
	// onFail runs under the lock when failNext fires, to model a concurrent
	// writer mutating the row between the conflict and the reload.
	onFail  func(rows map[uuid.UUID]models.IngestionJob)
	onWrite func(models.IngestionJob)
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{rows: map[uuid.UUID]models.IngestionJob{}}
}

func (r *fakeJobRepo) seed(job models.IngestionJob) models.IngestionJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job.Version == 0 {
		job.Version = 1
	}
	r.rows[job.ID] = job
	return job
}

func (r *fakeJobRepo) CreateOrGet(ctx context.Context, job models.IngestionJob) (models.IngestionJob, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.DocumentID == job.DocumentID {
			return row, false, nil
		}
	}
	job.Version = 1
	r.rows[job.ID] = job
	return job, true, nil
}

func (r *fakeJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.IngestionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *fakeJobRepo) GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.IngestionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.DocumentID == documentID {
			return &row, nil
		}
	}
	return nil, nil
}

func (r *fakeJobRepo) Update(ctx context.Context, job models.IngestionJob) (models.IngestionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		if r.onFail != nil {
			r.onFail(r.rows)
		}
		return models.IngestionJob{}, err
	}
	stored, ok := r.rows[job.ID]
	if !ok {
		return models.IngestionJob{}, core.ErrJobNotFound
	}
	if stored.Version != job.Version {
		return models.IngestionJob{}, core.ErrVersionConflict
	}
	job.Version++
	r.rows[job.ID] = job
	r.history = append(r.history, job)
	if r.onWrite != nil {
		r.onWrite(job)
	}
	return job, nil
}

func (r *fakeJobRepo) List(ctx context.Context, filter core.JobFilter) ([]models.IngestionJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.IngestionJob
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *fakeJobRepo) current(id uuid.UUID) models.IngestionJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

type fakeFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, storageKey string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type fakeExtraction struct {
	doc   *models.ExtractedDocument
	err   error
	calls int
}

func (f *fakeExtraction) Extract(data []byte, mimeType string) (*models.ExtractedDocument, error) {
	f.calls++
	return f.doc, f.err
}

type fakeChunker struct {
	chunks []models.Chunk
	err    error
	calls  int
}

func (f *fakeChunker) ChunkDocument(doc *models.ExtractedDocument, documentID uuid.UUID) ([]models.Chunk, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

// fakePorts records every published event; err fails all publishes.
type fakePorts struct {
	mu        sync.Mutex
	uploaded  []models.DocumentUploadedEvent
	requests  []models.VectorProcessingRequestEvent
	completed []models.DocumentIngestionCompletedEvent
	err       error
	onPublish func()
}

func (p *fakePorts) PublishDocumentUploaded(ctx context.Context, ev models.DocumentUploadedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.uploaded = append(p.uploaded, ev)
	return nil
}

func (p *fakePorts) PublishVectorProcessingRequest(ctx context.Context, ev models.VectorProcessingRequestEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.requests = append(p.requests, ev)
	return nil
}

func (p *fakePorts) PublishDocumentIngestionCompleted(ctx context.Context, ev models.DocumentIngestionCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.completed = append(p.completed, ev)
	if p.onPublish != nil {
		p.onPublish()
	}
	return nil
}

type fakeRegistry struct {
	docs map[uuid.UUID]*models.Document
}

func (r *fakeRegistry) CreateDocument(ctx context.Context, doc *models.Document) error {
	if r.docs == nil {
		r.docs = map[uuid.UUID]*models.Document{}
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeRegistry) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	return r.docs[id], nil
}
