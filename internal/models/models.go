package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the coarse lifecycle state of an ingestion job.
type JobStatus string

// Stable values (these exact strings are stored in the DB).
const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// JobStage is the pipeline phase a job is currently performing or last attempted.
type JobStage string

const (
	JobStageQueued JobStage = "QUEUED"
	JobStageFetch  JobStage = "FETCH"
	JobStageParse  JobStage = "PARSE"
	JobStageChunk  JobStage = "CHUNK"
	JobStageEmbed  JobStage = "EMBED"
)

// IngestionJob is the durable state record of one document's processing
// lifecycle, unique per DocumentID. It is treated as an immutable snapshot:
// transitions return a new value, and the repository persists them with a
// compare-and-swap on Version.
type IngestionJob struct {
	ID          uuid.UUID `json:"id"`
	DocumentID  uuid.UUID `json:"document_id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	ProjectID   uuid.UUID `json:"project_id"`
	StorageKey  string    `json:"storage_key"`
	MimeType    string    `json:"mime_type"`
	Status      JobStatus `json:"status"`
	Stage       JobStage  `json:"stage"`
	RetryCount  int       `json:"retry_count"`
	LastError   string    `json:"last_error,omitempty"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewIngestionJob builds a fresh QUEUED/QUEUED job for an uploaded document.
func NewIngestionJob(documentID, workspaceID, projectID uuid.UUID, storageKey, mimeType string) IngestionJob {
	return IngestionJob{
		ID:          uuid.New(),
		DocumentID:  documentID,
		WorkspaceID: workspaceID,
		ProjectID:   projectID,
		StorageKey:  storageKey,
		MimeType:    mimeType,
		Status:      JobStatusQueued,
		Stage:       JobStageQueued,
	}
}

// MarkProcessing transitions the job into the active state.
func (j IngestionJob) MarkProcessing() IngestionJob {
	j.Status = JobStatusProcessing
	return j
}

// MarkStage records the pipeline phase the job is entering.
func (j IngestionJob) MarkStage(stage JobStage) IngestionJob {
	j.Stage = stage
	return j
}

// MarkFailed records a permanent content failure at the given stage.
// The retry counter is untouched: it tracks fetch attempts and explicit
// retries, not content failures.
func (j IngestionJob) MarkFailed(stage JobStage, message string) IngestionJob {
	j.Status = JobStatusFailed
	j.Stage = stage
	j.LastError = message
	return j
}

// RecordFetchFailure notes a failed fetch attempt. The job stays PROCESSING so
// a redelivered trigger can run it again; the counter and error are what an
// operator inspects in the meantime.
func (j IngestionJob) RecordFetchFailure(message string) IngestionJob {
	j.Stage = JobStageFetch
	j.RetryCount++
	j.LastError = message
	return j
}

// MarkCompleted finalizes the job. COMPLETED is terminal.
func (j IngestionJob) MarkCompleted() IngestionJob {
	j.Status = JobStatusCompleted
	return j
}

// ResetForRetry re-queues a FAILED job. Each retry bumps RetryCount rather
// than resetting it; the previous error is cleared.
func (j IngestionJob) ResetForRetry() IngestionJob {
	j.Status = JobStatusQueued
	j.Stage = JobStageQueued
	j.RetryCount++
	j.LastError = ""
	return j
}

// Document is a row in the document registry: the metadata the command
// service needs to kick off ingestion for an uploaded file.
type Document struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	ProjectID   uuid.UUID `json:"project_id"`
	FileName    string    `json:"file_name"`
	StorageKey  string    `json:"storage_key"`
	MimeType    string    `json:"mime_type"`
	Status      string    `json:"status"` // uploaded | processing | ready | failed
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DocumentSection is one structural unit of an extracted document: a page, a
// slide, or the whole body, depending on the source format.
type DocumentSection struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Order   int    `json:"order"`
	Content string `json:"content"`
}

// ExtractedDocument is the format-independent result of text extraction.
type ExtractedDocument struct {
	Text     string            `json:"text"`
	Sections []DocumentSection `json:"sections"`
	Metadata map[string]any    `json:"metadata"`
}

// Chunk is a bounded span of extracted text prepared for downstream
// embedding. Chunks are transient: they travel on the vector processing
// request and are never persisted by this service.
type Chunk struct {
	DocumentID  uuid.UUID `json:"document_id"`
	Page        int       `json:"page"`
	StartOffset int       `json:"start_offset"`
	EndOffset   int       `json:"end_offset"`
	Text        string    `json:"text"`
	Order       int       `json:"order"`
}
