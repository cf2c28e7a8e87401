package models

import "github.com/google/uuid"

// DocumentUploadedEvent triggers ingestion of a freshly uploaded document.
type DocumentUploadedEvent struct {
	DocumentID  uuid.UUID `json:"document_id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	ProjectID   uuid.UUID `json:"project_id"`
	StorageKey  string    `json:"storage_key"`
	MimeType    string    `json:"mime_type"`
}

// VectorProcessingRequestEvent hands the chunked document to the downstream
// embedding stage. Chunks may be empty; that is forwarded as-is.
type VectorProcessingRequestEvent struct {
	DocumentID     uuid.UUID `json:"document_id"`
	ProjectID      uuid.UUID `json:"project_id"`
	WorkspaceID    uuid.UUID `json:"workspace_id"`
	IngestionJobID uuid.UUID `json:"ingestion_job_id"`
	Chunks         []Chunk   `json:"chunks"`
}

// VectorProcessingCompletedEvent is the embedding stage's completion signal.
type VectorProcessingCompletedEvent struct {
	IngestionJobID uuid.UUID `json:"ingestion_job_id"`
}

// DocumentIngestionCompletedEvent announces that a document finished the whole
// pipeline, embedding included.
type DocumentIngestionCompletedEvent struct {
	DocumentID  uuid.UUID `json:"document_id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	ProjectID   uuid.UUID `json:"project_id"`
}
