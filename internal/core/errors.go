package core

import "errors"

// Sentinel errors shared across the ingestion pipeline.
var (
	// ErrObjectNotFound is returned by a blob fetch when the storage key does
	// not exist (as opposed to a transient storage failure).
	ErrObjectNotFound = errors.New("object not found")

	// ErrDocumentNotFound is returned when the document registry has no row
	// for the requested document id.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrJobNotFound is returned when no ingestion job exists for the lookup.
	ErrJobNotFound = errors.New("ingestion job not found")

	// ErrRetryConflict is returned when a retry is requested on a job that is
	// not in the FAILED state.
	ErrRetryConflict = errors.New("ingestion job is not in a failed state")

	// ErrVersionConflict is returned by the job repository when a write is
	// based on a stale version of the row.
	ErrVersionConflict = errors.New("stale ingestion job version")

	// ErrUnsupportedType is returned by extraction dispatch when no extractor
	// supports the resolved document type.
	ErrUnsupportedType = errors.New("no extractor for document type")
)
