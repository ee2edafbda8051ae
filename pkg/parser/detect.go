package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jingkaihe/distill/pkg/types/distill"
)

// SectionDetector segments extracted text into heading-delimited sections
type SectionDetector interface {
	DetectSections(text string) []distill.Section
}

// DetectorFor returns the section detector used for a text-based source kind
func DetectorFor(sourceType distill.SourceType) SectionDetector {
	switch sourceType {
	case distill.SourceMarkdown:
		return MarkdownDetector{}
	case distill.SourcePDF:
		return PDFHeadingDetector{}
	default:
		return PlainDetector{}
	}
}

// detectStructure runs the detector and guarantees a non-empty structure
func detectStructure(d SectionDetector, text string) []distill.Section {
	sections := d.DetectSections(text)
	if len(sections) == 0 {
		return fallbackStructure(text)
	}
	return sections
}

func fallbackStructure(text string) []distill.Section {
	return []distill.Section{{
		Title:   distill.FallbackSectionTitle,
		Content: text,
		Level:   1,
	}}
}

var atxHeadingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// MarkdownDetector splits on ATX headings. Text before the first heading is not part of any section.
type MarkdownDetector struct{}

// DetectSections implements SectionDetector
func (MarkdownDetector) DetectSections(text string) []distill.Section {
	var (
		sections []distill.Section
		current  *distill.Section
		body     []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(body, "\n"))
		sections = append(sections, *current)
	}

	for _, line := range strings.Split(text, "\n") {
		m := atxHeadingRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			body = append(body, line)
			continue
		}
		flush()
		current = &distill.Section{
			Title: strings.TrimSpace(m[2]),
			Level: len(m[1]),
		}
		body = nil
	}
	flush()

	return sections
}

var numberedHeadingRe = regexp.MustCompile(`^\d+\.?\s+[A-Z]`)

// PDFHeadingDetector applies the line heuristic used for PDF text. Every heading is level 1.
type PDFHeadingDetector struct{}

// DetectSections implements SectionDetector
func (PDFHeadingDetector) DetectSections(text string) []distill.Section {
	var (
		sections []distill.Section
		current  *distill.Section
		body     []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.Join(body, "\n")
		sections = append(sections, *current)
	}

	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if !IsLikelyHeading(stripped) {
			body = append(body, line)
			continue
		}
		flush()
		current = &distill.Section{Title: stripped, Level: 1}
		body = nil
	}
	flush()

	return sections
}

// IsLikelyHeading reports whether a trimmed line of PDF text looks like a heading
func IsLikelyHeading(line string) bool {
	if line == "" {
		return false
	}
	n := len([]rune(line))
	if n < 100 && (isUpper(line) || isTitle(line)) {
		return true
	}
	if strings.HasSuffix(line, ":") && n < 80 {
		return true
	}
	return numberedHeadingRe.MatchString(line)
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}

// isUpper is true when there is at least one cased rune and none are lowercase
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if isCased(r) {
			cased = true
		}
	}
	return cased
}

// isTitle is true when every cased word starts upper and continues lower
func isTitle(s string) bool {
	cased := false
	prevCased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased = true
			cased = true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased = true
			cased = true
		default:
			prevCased = false
		}
	}
	return cased
}

// PlainDetector never finds headings, so the whole text becomes one section
type PlainDetector struct{}

// DetectSections implements SectionDetector
func (PlainDetector) DetectSections(string) []distill.Section {
	return nil
}
