package bus

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-hq/tessera/internal/models"
)

func TestPublishAndConsume(t *testing.T) {
	b := New(4)
	ctx := context.Background()

	ev := models.DocumentUploadedEvent{
		DocumentID:  uuid.New(),
		WorkspaceID: uuid.New(),
		StorageKey:  "workspaces/x/documents/y/report.pdf",
		MimeType:    "application/pdf",
	}
	require.NoError(t, b.PublishDocumentUploaded(ctx, ev))

	got := <-b.DocumentUploads()
	assert.Equal(t, ev, got)
}

func TestChannelsAreIndependent(t *testing.T) {
	b := New(4)
	ctx := context.Background()

	docID := uuid.New()
	require.NoError(t, b.PublishVectorProcessingRequest(ctx, models.VectorProcessingRequestEvent{DocumentID: docID}))
	require.NoError(t, b.PublishDocumentIngestionCompleted(ctx, models.DocumentIngestionCompletedEvent{DocumentID: docID}))

	select {
	case got := <-b.VectorProcessingRequests():
		assert.Equal(t, docID, got.DocumentID)
	default:
		t.Fatal("vector request not delivered")
	}
	select {
	case got := <-b.IngestionCompletions():
		assert.Equal(t, docID, got.DocumentID)
	default:
		t.Fatal("completion not delivered")
	}
}

func TestPublishHonorsContextWhenFull(t *testing.T) {
	b := New(1)
	ctx := context.Background()
	require.NoError(t, b.PublishVectorProcessingCompleted(ctx, models.VectorProcessingCompletedEvent{}))

	cancelled, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err := b.PublishVectorProcessingCompleted(cancelled, models.VectorProcessingCompletedEvent{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestZeroBufferFallsBackToDefault(t *testing.T) {
	b := New(0)
	// A default-sized buffer accepts a publish without a consumer.
	assert.NoError(t, b.PublishDocumentUploaded(context.Background(), models.DocumentUploadedEvent{}))
}
