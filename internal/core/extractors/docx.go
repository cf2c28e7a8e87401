package extractors

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tessera-hq/tessera/internal/core/doctype"
	"github.com/tessera-hq/tessera/internal/models"
)

// DOCXExtractor reads word/document.xml and joins the non-blank paragraphs
// into one section covering the whole document.
type DOCXExtractor struct{}

func NewDOCXExtractor() *DOCXExtractor { return &DOCXExtractor{} }

func (e *DOCXExtractor) Supports(t doctype.Type) bool { return t == doctype.DOCX }

func (e *DOCXExtractor) Extract(data []byte, mimeType string) (*models.ExtractedDocument, error) {
	zr, err := openArchive(data)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	raw, err := readArchiveFile(zr, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	paragraphs, err := wordParagraphs(raw)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	text := strings.Join(paragraphs, "\n")
	return &models.ExtractedDocument{
		Text: text,
		Sections: []models.DocumentSection{
			{ID: "section-0", Title: "DOCX Document", Order: 0, Content: text},
		},
		Metadata: map[string]any{
			"mimeType":       mimeType,
			"paragraphCount": len(paragraphs),
		},
	}, nil
}

// wordParagraphs collects the text runs of each <w:p>, skipping blank
// paragraphs so they contribute no extra separators.
func wordParagraphs(raw []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))

	var (
		paragraphs  []string
		current     strings.Builder
		inParagraph bool
		inText      bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				current.Reset()
			case "t":
				inText = true
			case "tab":
				if inParagraph {
					current.WriteByte('\t')
				}
			case "br":
				if inParagraph {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if s := strings.TrimSpace(current.String()); s != "" {
					paragraphs = append(paragraphs, s)
				}
				inParagraph = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inParagraph && inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}
