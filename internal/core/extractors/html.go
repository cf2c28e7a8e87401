package extractors

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/tessera-hq/tessera/internal/core/doctype"
	"github.com/tessera-hq/tessera/internal/models"
)

// HTMLExtractor pulls the <title> and the body's rendered text out of an HTML
// document. The underlying parser repairs malformed markup, so extraction is
// best-effort rather than strict.
type HTMLExtractor struct{}

func NewHTMLExtractor() *HTMLExtractor { return &HTMLExtractor{} }

func (e *HTMLExtractor) Supports(t doctype.Type) bool { return t == doctype.HTML }

func (e *HTMLExtractor) Extract(data []byte, mimeType string) (*models.ExtractedDocument, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, noscript, template").Remove()
	body := collapseBlankLines(doc.Find("body").Text())

	return &models.ExtractedDocument{
		Text: body,
		Sections: []models.DocumentSection{
			{ID: "section-0", Title: title, Order: 0, Content: body},
		},
		Metadata: map[string]any{
			"mimeType":   mimeType,
			"title":      title,
			"rawLength":  utf8.RuneCount(data),
			"textLength": utf8.RuneCountInString(body),
		},
	}, nil
}

// collapseBlankLines trims indentation and drops empty lines left behind by
// removed tags.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
