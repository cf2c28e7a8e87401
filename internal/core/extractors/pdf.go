package extractors

import (
	"bytes"
	"fmt"
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/tessera-hq/tessera/internal/core/doctype"
	"github.com/tessera-hq/tessera/internal/models"
)

// PDFExtractor emits one section per page. A zero-page document is a valid,
// empty result; undecodable bytes are a parse failure.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

func (e *PDFExtractor) Supports(t doctype.Type) bool { return t == doctype.PDF }

func (e *PDFExtractor) Extract(data []byte, mimeType string) (doc *models.ExtractedDocument, err error) {
	// The pdf parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	total := reader.NumPage()
	sections := make([]models.DocumentSection, 0, total)
	var pageTexts []string
	for i := 1; i <= total; i++ {
		var content string
		page := reader.Page(i)
		if !page.V.IsNull() {
			if txt, err := page.GetPlainText(nil); err == nil {
				content = strings.TrimSpace(txt)
			}
		}
		sections = append(sections, models.DocumentSection{
			ID:      fmt.Sprintf("page-%d", i),
			Title:   fmt.Sprintf("Page %d", i),
			Order:   i - 1,
			Content: content,
		})
		if content != "" {
			pageTexts = append(pageTexts, content)
		}
	}

	return &models.ExtractedDocument{
		Text:     strings.Join(pageTexts, "\n\n"),
		Sections: sections,
		Metadata: map[string]any{
			"mimeType":  mimeType,
			"pageCount": total,
		},
	}, nil
}
