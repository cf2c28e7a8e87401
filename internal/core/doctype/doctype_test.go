package doctype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		want     Type
	}{
		{"pdf", "application/pdf", PDF},
		{"pdf uppercase", "APPLICATION/PDF", PDF},
		{"plain text", "text/plain", Text},
		{"markdown", "text/markdown", Markdown},
		{"markdown variant", "text/x-markdown", Markdown},
		{"html", "text/html", HTML},
		{"html with charset", "text/html; charset=utf-8", HTML},
		{"xhtml", "application/xhtml+xml", HTML},
		{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", DOCX},
		{"pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation", PPTX},
		{"empty", "", Unknown},
		{"whitespace", "   ", Unknown},
		{"unrecognized", "application/zip", Unknown},
		{"padded", "  text/plain  ", Text},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.mimeType))
		})
	}
}
