// Package chunker splits extracted documents into bounded spans of text for
// downstream embedding.
package chunker

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/tessera-hq/tessera/internal/models"
)

const (
	defaultTargetTokens  = 400
	defaultOverlapTokens = 40
)

// SectionChunker walks each section line by line, accumulating lines until
// the token estimate reaches TargetTokens, then emits a chunk. A token tail
// of the previous chunk seeds the next one so context bleeds across
// boundaries. Offsets are rune positions within the section's content.
type SectionChunker struct {
	targetTokens  int
	overlapTokens int
}

func NewSectionChunker(targetTokens, overlapTokens int) *SectionChunker {
	if targetTokens <= 0 {
		targetTokens = defaultTargetTokens
	}
	if overlapTokens < 0 {
		overlapTokens = defaultOverlapTokens
	}
	return &SectionChunker{targetTokens: targetTokens, overlapTokens: overlapTokens}
}

type line struct {
	text  string
	start int
	end   int
}

// ChunkDocument produces ordered chunks across all sections. A document with
// no text yields no chunks; that is a valid result, not an error.
func (c *SectionChunker) ChunkDocument(doc *models.ExtractedDocument, documentID uuid.UUID) ([]models.Chunk, error) {
	if doc == nil {
		return nil, errors.New("nil extracted document")
	}

	var chunks []models.Chunk
	order := 0
	for _, sec := range doc.Sections {
		var (
			buf    []line
			tokSum int
			fresh  int
		)

		flush := func() {
			if len(buf) == 0 || fresh == 0 {
				return
			}
			texts := make([]string, len(buf))
			for i, ln := range buf {
				texts[i] = ln.text
			}
			chunks = append(chunks, models.Chunk{
				DocumentID:  documentID,
				Page:        sec.Order + 1,
				StartOffset: buf[0].start,
				EndOffset:   buf[len(buf)-1].end,
				Text:        strings.Join(texts, "\n"),
				Order:       order,
			})
			order++
			fresh = 0

			// Keep a tail whose token sum approximates the overlap budget.
			if c.overlapTokens > 0 {
				var keep []line
				remain := c.overlapTokens
				for j := len(buf) - 1; j >= 0 && remain > 0; j-- {
					keep = append([]line{buf[j]}, keep...)
					remain -= approxTokens(buf[j].text)
				}
				buf = keep
				tokSum = 0
				for _, ln := range buf {
					tokSum += approxTokens(ln.text)
				}
			} else {
				buf = buf[:0]
				tokSum = 0
			}
		}

		for _, ln := range sectionLines(sec.Content) {
			buf = append(buf, ln)
			tokSum += approxTokens(ln.text)
			fresh++
			if tokSum >= c.targetTokens {
				flush()
			}
		}
		flush()
	}
	return chunks, nil
}

// sectionLines splits content into non-blank lines annotated with their rune
// offsets inside the section.
func sectionLines(content string) []line {
	if content == "" {
		return nil
	}
	var out []line
	offset := 0
	for _, raw := range strings.Split(content, "\n") {
		length := len([]rune(raw))
		if strings.TrimSpace(raw) != "" {
			out = append(out, line{text: raw, start: offset, end: offset + length})
		}
		offset += length + 1 // the split newline
	}
	return out
}

// approxTokens is a cheap token estimator (~4 chars per token).
func approxTokens(s string) int {
	n := len([]rune(s))
	if n <= 0 {
		return 0
	}
	return (n + 3) / 4
}
