package chunker

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-hq/tessera/internal/models"
)

func TestChunkDocumentNilDocument(t *testing.T) {
	_, err := NewSectionChunker(0, 0).ChunkDocument(nil, uuid.New())
	assert.Error(t, err)
}

func TestChunkDocumentEmptyDocument(t *testing.T) {
	chunks, err := NewSectionChunker(0, 0).ChunkDocument(&models.ExtractedDocument{}, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkDocumentSingleSmallSection(t *testing.T) {
	docID := uuid.New()
	doc := &models.ExtractedDocument{
		Sections: []models.DocumentSection{
			{ID: "page-1", Title: "Page 1", Order: 0, Content: "one short line"},
		},
	}

	chunks, err := NewSectionChunker(100, 10).ChunkDocument(doc, docID)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	c := chunks[0]
	assert.Equal(t, docID, c.DocumentID)
	assert.Equal(t, 1, c.Page)
	assert.Equal(t, 0, c.StartOffset)
	assert.Equal(t, len([]rune("one short line")), c.EndOffset)
	assert.Equal(t, "one short line", c.Text)
	assert.Equal(t, 0, c.Order)
}

func TestChunkDocumentSplitsLargeSection(t *testing.T) {
	lines := make([]string, 30)
	for i := range lines {
		lines[i] = strings.Repeat("word ", 10)
	}
	doc := &models.ExtractedDocument{
		Sections: []models.DocumentSection{
			{ID: "page-1", Order: 0, Content: strings.Join(lines, "\n")},
		},
	}

	chunks, err := NewSectionChunker(50, 10).ChunkDocument(doc, uuid.New())
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.Equal(t, i, c.Order)
		assert.Less(t, c.StartOffset, c.EndOffset)
	}
	// Overlap seeds each following chunk, so its window starts before the
	// previous one ended.
	for i := 1; i < len(chunks); i++ {
		assert.Less(t, chunks[i].StartOffset, chunks[i-1].EndOffset)
		assert.Greater(t, chunks[i].EndOffset, chunks[i-1].EndOffset)
	}
}

func TestChunkDocumentPageFollowsSectionOrder(t *testing.T) {
	doc := &models.ExtractedDocument{
		Sections: []models.DocumentSection{
			{ID: "slide-1", Order: 0, Content: "alpha"},
			{ID: "slide-2", Order: 1, Content: "beta"},
			{ID: "slide-3", Order: 2, Content: ""},
		},
	}

	chunks, err := NewSectionChunker(100, 0).ChunkDocument(doc, uuid.New())
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].Page)
	assert.Equal(t, 2, chunks[1].Page)
	assert.Equal(t, []int{0, 1}, []int{chunks[0].Order, chunks[1].Order})
}

func TestChunkDocumentSkipsBlankLines(t *testing.T) {
	doc := &models.ExtractedDocument{
		Sections: []models.DocumentSection{
			{ID: "section-0", Order: 0, Content: "first\n\n\nsecond"},
		},
	}

	chunks, err := NewSectionChunker(100, 0).ChunkDocument(doc, uuid.New())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "first\nsecond", chunks[0].Text)
	// Offsets still index into the original content.
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, len([]rune("first\n\n\nsecond")), chunks[0].EndOffset)
}
