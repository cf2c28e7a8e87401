// Package doctype maps MIME type strings to the document type tags the
// extraction layer dispatches on.
package doctype

import "strings"

// Type tags the document formats the pipeline knows how to extract.
type Type string

const (
	PDF      Type = "pdf"
	Text     Type = "text"
	Markdown Type = "markdown"
	HTML     Type = "html"
	DOCX     Type = "docx"
	PPTX     Type = "pptx"
	Unknown  Type = "unknown"
)

// Resolve maps a MIME type string to a Type. Matching is case-insensitive and
// ignores parameters ("text/html; charset=utf-8"). Empty or unrecognized
// input resolves to Unknown; that is a valid dispatch outcome, not an error.
func Resolve(mimeType string) Type {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	switch mt {
	case "application/pdf", "application/x-pdf":
		return PDF
	case "text/plain":
		return Text
	case "text/markdown", "text/x-markdown":
		return Markdown
	case "text/html", "application/xhtml+xml":
		return HTML
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return DOCX
	case "application/vnd.openxmlformats-officedocument.presentationml.presentation":
		return PPTX
	default:
		return Unknown
	}
}
