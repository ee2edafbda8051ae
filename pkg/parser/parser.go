// Package parser converts raw sources (PDF, Markdown, plain text and web pages)
// into a distill.Document: the full extracted text plus a best-effort section
// structure.
package parser

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jingkaihe/distill/pkg/logger"
	"github.com/jingkaihe/distill/pkg/types/distill"
	"github.com/jingkaihe/distill/pkg/utils"
)

var urlSchemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Parser dispatches a source to the strategy for its kind
type Parser struct {
	fetcher Fetcher
	filter  *utils.DomainFilter
}

// Option configures a Parser
type Option func(*Parser)

// WithFetcher sets the fetcher used for web sources
func WithFetcher(f Fetcher) Option {
	return func(p *Parser) {
		p.fetcher = f
	}
}

// WithDomainFilter restricts web sources to the filter's allow-list
func WithDomainFilter(df *utils.DomainFilter) Option {
	return func(p *Parser) {
		p.filter = df
	}
}

// New creates a Parser. Without WithFetcher it fetches with an HTTPFetcher using
// DefaultFetchTimeout that applies the parser's domain filter to redirects.
func New(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	if p.fetcher == nil {
		p.fetcher = NewHTTPFetcher(DefaultFetchTimeout, WithRedirectFilter(p.filter))
	}
	return p
}

// SourceTypeOf reports the kind a source would be parsed as, or an UnsupportedFormat error
func SourceTypeOf(source string) (distill.SourceType, error) {
	if urlSchemeRe.MatchString(source) {
		return distill.SourceWeb, nil
	}
	switch ext := strings.ToLower(filepath.Ext(source)); ext {
	case ".pdf":
		return distill.SourcePDF, nil
	case ".md", ".markdown":
		return distill.SourceMarkdown, nil
	case ".txt", "":
		return distill.SourceText, nil
	default:
		return "", distill.UnsupportedFormat(source, "unsupported extension "+ext)
	}
}

// Parse converts source into a Document. Errors are classified *distill.Error values.
func (p *Parser) Parse(ctx context.Context, source string) (*distill.Document, error) {
	if !urlSchemeRe.MatchString(source) {
		if _, err := os.Stat(source); os.IsNotExist(err) {
			return nil, distill.NotFound(source, err)
		}
	}

	sourceType, err := SourceTypeOf(source)
	if err != nil {
		return nil, err
	}

	log := logger.G(ctx).WithField("source_type", sourceType)

	var doc *distill.Document
	switch sourceType {
	case distill.SourceWeb:
		doc, err = p.parseWeb(ctx, source)
	default:
		doc, err = p.parseFile(source, sourceType)
	}
	if err != nil {
		return nil, err
	}

	log.WithField("sections", len(doc.Structure)).
		WithField("chars", len(doc.Content)).
		Debug("parsed document")
	return doc, nil
}

func (p *Parser) parseFile(path string, sourceType distill.SourceType) (*distill.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, distill.NotFound(path, err)
		}
		return nil, distill.ParseFailure(path, "cannot access input", err)
	}
	if info.IsDir() {
		return nil, distill.UnsupportedFormat(path, "input is a directory")
	}

	if sourceType == distill.SourcePDF {
		return parsePDF(path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, distill.ParseFailure(path, "failed to read input", err)
	}
	content := string(raw)

	return &distill.Document{
		Content:    content,
		Structure:  detectStructure(DetectorFor(sourceType), content),
		Metadata:   map[string]any{},
		SourceType: sourceType,
		SourcePath: path,
	}, nil
}

func parsePDF(path string) (*distill.Document, error) {
	pages, err := extractPDFPages(path)
	if err != nil {
		return nil, distill.ParseFailure(path, "failed to parse PDF (possibly corrupted)", err)
	}

	var b strings.Builder
	for _, page := range pages {
		b.WriteString(page)
		b.WriteByte('\n')
	}
	content := b.String()
	if strings.TrimSpace(content) == "" {
		return nil, distill.ParseFailure(path, "no extractable text in PDF (it may be scanned images)", nil)
	}

	return &distill.Document{
		Content:    content,
		Structure:  detectStructure(PDFHeadingDetector{}, content),
		Metadata:   map[string]any{"page_count": len(pages)},
		SourceType: distill.SourcePDF,
		SourcePath: path,
	}, nil
}

func (p *Parser) parseWeb(ctx context.Context, rawURL string) (*distill.Document, error) {
	if _, err := validateWebURL(rawURL); err != nil {
		return nil, err
	}

	if err := checkAllowedDomain(p.filter, rawURL); err != nil {
		return nil, err
	}

	status, html, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if distill.KindOf(err) == distill.KindUnknown {
			return nil, classifyFetchError(rawURL, err)
		}
		return nil, err
	}
	if status != 0 && (status < 200 || status >= 300) {
		return nil, distill.NetworkFailure(rawURL, distill.NetworkHTTPStatus, status, nil)
	}

	doc, err := htmlToDocument(ctx, rawURL, html)
	if err != nil {
		return nil, err
	}
	doc.Metadata["status_code"] = status
	return doc, nil
}
