// Package bus is an in-memory message transport: one bounded channel per
// event type, publish with backpressure, consume by ranging over the
// subscription channel. Swappable for a broker without touching the
// orchestrators, which depend only on the core ports.
package bus

import (
	"context"

	"github.com/tessera-hq/tessera/internal/models"
)

const defaultBuffer = 64

// MessageBus carries the four ingestion pipeline events.
type MessageBus struct {
	uploads            chan models.DocumentUploadedEvent
	vectorRequests     chan models.VectorProcessingRequestEvent
	vectorCompletions  chan models.VectorProcessingCompletedEvent
	ingestionCompleted chan models.DocumentIngestionCompletedEvent
}

func New(buffer int) *MessageBus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &MessageBus{
		uploads:            make(chan models.DocumentUploadedEvent, buffer),
		vectorRequests:     make(chan models.VectorProcessingRequestEvent, buffer),
		vectorCompletions:  make(chan models.VectorProcessingCompletedEvent, buffer),
		ingestionCompleted: make(chan models.DocumentIngestionCompletedEvent, buffer),
	}
}

func (b *MessageBus) PublishDocumentUploaded(ctx context.Context, ev models.DocumentUploadedEvent) error {
	return publish(ctx, b.uploads, ev)
}

func (b *MessageBus) PublishVectorProcessingRequest(ctx context.Context, ev models.VectorProcessingRequestEvent) error {
	return publish(ctx, b.vectorRequests, ev)
}

func (b *MessageBus) PublishVectorProcessingCompleted(ctx context.Context, ev models.VectorProcessingCompletedEvent) error {
	return publish(ctx, b.vectorCompletions, ev)
}

func (b *MessageBus) PublishDocumentIngestionCompleted(ctx context.Context, ev models.DocumentIngestionCompletedEvent) error {
	return publish(ctx, b.ingestionCompleted, ev)
}

// DocumentUploads is the inbound channel for the ingestion service.
func (b *MessageBus) DocumentUploads() <-chan models.DocumentUploadedEvent { return b.uploads }

// VectorProcessingRequests is consumed by the downstream embedding stage.
func (b *MessageBus) VectorProcessingRequests() <-chan models.VectorProcessingRequestEvent {
	return b.vectorRequests
}

// VectorProcessingCompletions is the inbound channel for the status orchestrator.
func (b *MessageBus) VectorProcessingCompletions() <-chan models.VectorProcessingCompletedEvent {
	return b.vectorCompletions
}

// IngestionCompletions announces documents that finished the whole pipeline.
func (b *MessageBus) IngestionCompletions() <-chan models.DocumentIngestionCompletedEvent {
	return b.ingestionCompleted
}

func publish[T any](ctx context.Context, ch chan T, ev T) error {
	select {
	case ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
