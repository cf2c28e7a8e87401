package extractors

import (
	"unicode/utf8"

	"github.com/tessera-hq/tessera/internal/core/doctype"
	"github.com/tessera-hq/tessera/internal/models"
)

// TextExtractor passes plain text through as a single section.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor { return &TextExtractor{} }

func (e *TextExtractor) Supports(t doctype.Type) bool { return t == doctype.Text }

func (e *TextExtractor) Extract(data []byte, mimeType string) (*models.ExtractedDocument, error) {
	text := string(data)
	return &models.ExtractedDocument{
		Text: text,
		Sections: []models.DocumentSection{
			{ID: "section-0", Title: "Document body", Order: 0, Content: text},
		},
		Metadata: map[string]any{
			"mimeType": mimeType,
			"length":   utf8.RuneCountInString(text),
		},
	}, nil
}
