// Package chunker splits parsed documents into bounded chunks of text, one per
// language-model call.
package chunker

import (
	"fmt"
	"unicode/utf8"

	"github.com/jingkaihe/distill/pkg/types/distill"
)

const (
	// DefaultMinSectionLength is the content length a section must exceed to become a chunk
	DefaultMinSectionLength = 100
	// DefaultChunkSize is the window size used when no section qualifies
	DefaultChunkSize = 3000
)

// Chunker turns a Document into chunks. The zero value uses the defaults.
type Chunker struct {
	MinSectionLength int
	ChunkSize        int
}

// New creates a Chunker with the default thresholds
func New() *Chunker {
	return &Chunker{
		MinSectionLength: DefaultMinSectionLength,
		ChunkSize:        DefaultChunkSize,
	}
}

// Chunk emits one "# title" prefixed chunk per qualifying section, walking
// subsections depth-first. When no section qualifies the content is cut
// into fixed windows without overlap.
func (c *Chunker) Chunk(doc *distill.Document) []string {
	if doc == nil {
		return nil
	}

	minLen := c.MinSectionLength
	if minLen <= 0 {
		minLen = DefaultMinSectionLength
	}

	var chunks []string
	var walk func(sections []distill.Section)
	walk = func(sections []distill.Section) {
		for _, s := range sections {
			if utf8.RuneCountInString(s.Content) > minLen {
				chunks = append(chunks, FormatSection(s))
			}
			walk(s.Subsections)
		}
	}
	walk(doc.Structure)

	if len(chunks) > 0 {
		return chunks
	}
	return c.windows(doc.Content)
}

// FormatSection renders a section as a chunk
func FormatSection(s distill.Section) string {
	return fmt.Sprintf("# %s\n\n%s", s.Title, s.Content)
}

// windows slices content into ChunkSize pieces on rune boundaries
func (c *Chunker) windows(content string) []string {
	size := c.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	runes := []rune(content)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out
}
