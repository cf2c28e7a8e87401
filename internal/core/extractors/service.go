// Package extractors converts raw document bytes into structured text, one
// extractor per source format, dispatched by resolved document type.
package extractors

import (
	"fmt"

	"github.com/tessera-hq/tessera/internal/core"
	"github.com/tessera-hq/tessera/internal/core/doctype"
	"github.com/tessera-hq/tessera/internal/models"
)

// Service resolves the MIME type and scans its extractor list in declaration
// order, invoking the first extractor that supports the resolved type.
type Service struct {
	extractors []core.Extractor
}

func NewService(extractors ...core.Extractor) *Service {
	return &Service{extractors: extractors}
}

// DefaultService wires the full extractor set.
func DefaultService() *Service {
	return NewService(
		NewPDFExtractor(),
		NewTextExtractor(),
		NewMarkdownExtractor(),
		NewHTMLExtractor(),
		NewDOCXExtractor(),
		NewPPTXExtractor(),
	)
}

// Extract dispatches to the first supporting extractor. Extractor errors
// propagate unwrapped; a type with no match is a dispatch error naming the
// offending type.
func (s *Service) Extract(data []byte, mimeType string) (*models.ExtractedDocument, error) {
	t := doctype.Resolve(mimeType)
	for _, ex := range s.extractors {
		if ex.Supports(t) {
			return ex.Extract(data, mimeType)
		}
	}
	return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedType, t)
}
