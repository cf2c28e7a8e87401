package extractors

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/tessera-hq/tessera/internal/core/doctype"
	"github.com/tessera-hq/tessera/internal/models"
)

// MarkdownExtractor strips Markdown syntax down to readable prose: heading
// and list markers disappear, inline and fenced code keep their content but
// lose the delimiters.
type MarkdownExtractor struct {
	md goldmark.Markdown
}

func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{md: goldmark.New()}
}

func (e *MarkdownExtractor) Supports(t doctype.Type) bool { return t == doctype.Markdown }

func (e *MarkdownExtractor) Extract(data []byte, mimeType string) (*models.ExtractedDocument, error) {
	root := e.md.Parser().Parse(gmtext.NewReader(data))

	var b strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(node.Segment.Value(data))
				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteByte('\n')
				}
			}
		case *ast.AutoLink:
			if entering {
				b.Write(node.URL(data))
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(data))
				}
				endBlock(&b)
			}
		default:
			if !entering && n.Type() == ast.TypeBlock {
				endBlock(&b)
			}
		}
		return ast.WalkContinue, nil
	})

	clean := strings.TrimSpace(b.String())
	return &models.ExtractedDocument{
		Text: clean,
		Sections: []models.DocumentSection{
			{ID: "section-0", Title: "Markdown Body", Order: 0, Content: clean},
		},
		Metadata: map[string]any{
			"mimeType":    mimeType,
			"rawLength":   utf8.RuneCount(data),
			"cleanLength": utf8.RuneCountInString(clean),
		},
	}, nil
}

func endBlock(b *strings.Builder) {
	if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteByte('\n')
	}
}
