package extractors

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tessera-hq/tessera/internal/core/doctype"
	"github.com/tessera-hq/tessera/internal/models"
)

var slidePartPattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// PPTXExtractor emits one section per slide. The slide's first text shape
// becomes the section title; the remaining shapes become its content. The
// global text wraps each slide title in [...] markers.
type PPTXExtractor struct{}

func NewPPTXExtractor() *PPTXExtractor { return &PPTXExtractor{} }

func (e *PPTXExtractor) Supports(t doctype.Type) bool { return t == doctype.PPTX }

func (e *PPTXExtractor) Extract(data []byte, mimeType string) (*models.ExtractedDocument, error) {
	zr, err := openArchive(data)
	if err != nil {
		return nil, fmt.Errorf("parse pptx: %w", err)
	}

	type slidePart struct {
		num  int
		file *zip.File
	}
	var parts []slidePart
	for _, f := range zr.File {
		m := slidePartPattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		parts = append(parts, slidePart{num: num, file: f})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].num < parts[j].num })

	sections := make([]models.DocumentSection, 0, len(parts))
	formatted := make([]string, 0, len(parts))
	for idx, part := range parts {
		rc, err := part.file.Open()
		if err != nil {
			return nil, fmt.Errorf("parse pptx: %w", err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("parse pptx: %w", err)
		}
		shapes, err := slideShapes(raw)
		if err != nil {
			return nil, fmt.Errorf("parse pptx: %w", err)
		}

		var title, content string
		if len(shapes) > 0 {
			title = shapes[0]
			content = strings.Join(shapes[1:], "\n")
		}
		sections = append(sections, models.DocumentSection{
			ID:      fmt.Sprintf("slide-%d", idx+1),
			Title:   title,
			Order:   idx,
			Content: content,
		})

		entry := "[" + title + "]"
		if content != "" {
			entry += "\n" + content
		}
		formatted = append(formatted, entry)
	}

	return &models.ExtractedDocument{
		Text:     strings.Join(formatted, "\n\n"),
		Sections: sections,
		Metadata: map[string]any{
			"mimeType":   mimeType,
			"slideCount": len(parts),
		},
	}, nil
}

// slideShapes returns the text of each <p:sp> shape on a slide, paragraphs
// joined by newlines, shapes without text omitted.
func slideShapes(raw []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))

	var (
		shapes  []string
		shape   strings.Builder
		para    strings.Builder
		spDepth int
		inText  bool
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
			case "sp":
				spDepth++
				if spDepth == 1 {
					shape.Reset()
				}
			case "p":
				if spDepth > 0 {
					para.Reset()
				}
			case "t":
				if spDepth > 0 {
					inText = true
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "sp":
				if spDepth > 0 {
					spDepth--
					if spDepth == 0 {
						if s := strings.TrimSpace(shape.String()); s != "" {
							shapes = append(shapes, s)
						}
					}
				}
			case "p":
				if spDepth > 0 {
					if s := strings.TrimSpace(para.String()); s != "" {
						if shape.Len() > 0 {
							shape.WriteByte('\n')
						}
						shape.WriteString(s)
					}
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if spDepth > 0 && inText {
				para.Write(t)
			}
		}
	}
	return shapes, nil
}
