package core

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/tessera-hq/tessera/internal/models"
)

// JobFilter narrows job listings for the operational query surface.
type JobFilter struct {
	WorkspaceID *uuid.UUID
	Status      models.JobStatus
	Limit       int
	Offset      int
}

// JobRepository persists ingestion job snapshots. Update performs a
// compare-and-swap on the Version field and returns ErrVersionConflict when
// the snapshot is stale.
type JobRepository interface {
	// CreateOrGet inserts the job unless a row for its document already
	// exists, in which case the existing row is returned. The second result
	// reports whether a new row was created. Safe under concurrent delivery
	// of the same upload event.
	CreateOrGet(ctx context.Context, job models.IngestionJob) (models.IngestionJob, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.IngestionJob, error)
	GetByDocumentID(ctx context.Context, documentID uuid.UUID) (*models.IngestionJob, error)
	Update(ctx context.Context, job models.IngestionJob) (models.IngestionJob, error)
	List(ctx context.Context, filter JobFilter) ([]models.IngestionJob, error)
}

// DocumentRegistry exposes the document metadata the command service needs.
// GetDocument returns (nil, nil) when no row exists.
type DocumentRegistry interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
	GetFile(ctx context.Context, key string) ([]byte, error)
	DeleteFile(ctx context.Context, key string) error
}

// BlobFetcher retrieves the raw bytes for a storage key. A missing key yields
// an error wrapping ErrObjectNotFound; anything else is transient.
type BlobFetcher interface {
	Fetch(ctx context.Context, storageKey string) ([]byte, error)
}

// DocumentUploadedPort publishes the trigger event for the ingestion pipeline.
type DocumentUploadedPort interface {
	PublishDocumentUploaded(ctx context.Context, ev models.DocumentUploadedEvent) error
}

// VectorRequestPort hands chunked documents to the embedding stage.
type VectorRequestPort interface {
	PublishVectorProcessingRequest(ctx context.Context, ev models.VectorProcessingRequestEvent) error
}

// IngestionCompletedPort announces fully ingested documents.
type IngestionCompletedPort interface {
	PublishDocumentIngestionCompleted(ctx context.Context, ev models.DocumentIngestionCompletedEvent) error
}
