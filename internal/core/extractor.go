package core

import (
	"github.com/google/uuid"

	"github.com/tessera-hq/tessera/internal/core/doctype"
	"github.com/tessera-hq/tessera/internal/models"
)

// Extractor converts raw document bytes into an ExtractedDocument. Selection
// is capability-based: Supports decides dispatch, and the mimeType passed to
// Extract is recorded verbatim in metadata, never re-validated.
type Extractor interface {
	Supports(t doctype.Type) bool
	Extract(data []byte, mimeType string) (*models.ExtractedDocument, error)
}

// ExtractionService resolves a MIME type and dispatches to the first
// supporting extractor.
type ExtractionService interface {
	Extract(data []byte, mimeType string) (*models.ExtractedDocument, error)
}

// Chunker splits an extracted document into retrievable chunks. An empty
// result is valid; only an error marks the chunk stage failed.
type Chunker interface {
	ChunkDocument(doc *models.ExtractedDocument, documentID uuid.UUID) ([]models.Chunk, error)
}
