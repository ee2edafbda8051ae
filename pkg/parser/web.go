package parser

import (
	"context"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"

	"github.com/jingkaihe/distill/pkg/logger"
	"github.com/jingkaihe/distill/pkg/types/distill"
)

const (
	headingSelector     = "h1, h2, h3, h4, h5, h6"
	boilerplateSelector = "nav, script, style, aside, header, footer"
)

var contentClassRe = regexp.MustCompile(`(?i)content|article|post`)

// htmlToDocument builds a web Document from fetched HTML. Content and section
// bodies are Markdown rendered from the sanitized main content node.
func htmlToDocument(ctx context.Context, rawURL, html string) (*distill.Document, error) {
	dom, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, distill.ParseFailure(rawURL, "failed to parse HTML", err)
	}

	title := strings.TrimSpace(dom.Find("title").First().Text())
	dom.Find(boilerplateSelector).Remove()

	main := findMainContent(dom)
	conv := newHTMLConverter()

	var content string
	if main.Length() > 0 {
		content = conv.fragment(ctx, main)
	} else {
		content = conv.fragment(ctx, dom.Selection)
	}

	structure := htmlSections(ctx, conv, main)
	if len(structure) == 0 {
		structure = fallbackStructure(content)
	}

	return &distill.Document{
		Content:    content,
		Structure:  structure,
		Metadata:   map[string]any{"url": rawURL, "title": title},
		SourceType: distill.SourceWeb,
		SourcePath: rawURL,
	}, nil
}

// findMainContent picks main, then article, then a content-like div, then body
func findMainContent(dom *goquery.Document) *goquery.Selection {
	if sel := dom.Find("main").First(); sel.Length() > 0 {
		return sel
	}
	if sel := dom.Find("article").First(); sel.Length() > 0 {
		return sel
	}
	if sel := dom.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, ok := s.Attr("class")
		return ok && contentClassRe.MatchString(class)
	}).First(); sel.Length() > 0 {
		return sel
	}
	return dom.Find("body").First()
}

// htmlSections emits one section per heading with the Markdown of its
// following siblings up to the next heading
func htmlSections(ctx context.Context, conv *htmlConverter, root *goquery.Selection) []distill.Section {
	if root == nil || root.Length() == 0 {
		return nil
	}

	var sections []distill.Section
	root.Find(headingSelector).Each(func(_ int, heading *goquery.Selection) {
		level := int(goquery.NodeName(heading)[1] - '0')

		var parts []string
		for sib := heading.Next(); sib.Length() > 0; sib = sib.Next() {
			if sib.Is(headingSelector) {
				break
			}
			if text := conv.fragment(ctx, sib); text != "" {
				parts = append(parts, text)
			}
		}

		sections = append(sections, distill.Section{
			Title:   strings.Join(strings.Fields(heading.Text()), " "),
			Content: strings.Join(parts, "\n"),
			Level:   level,
		})
	})

	return sections
}

type htmlConverter struct {
	policy *bluemonday.Policy
	md     *md.Converter
}

func newHTMLConverter() *htmlConverter {
	return &htmlConverter{
		policy: bluemonday.UGCPolicy(),
		md:     md.NewConverter("", true, nil),
	}
}

// fragment sanitizes the outer HTML of sel and renders it as Markdown
func (c *htmlConverter) fragment(ctx context.Context, sel *goquery.Selection) string {
	raw, err := goquery.OuterHtml(sel)
	if err != nil {
		logger.G(ctx).WithError(err).Debug("failed to render HTML fragment")
		return strings.TrimSpace(sel.Text())
	}

	clean := c.policy.Sanitize(raw)
	markdown, err := c.md.ConvertString(clean)
	if err != nil {
		logger.G(ctx).WithError(errors.WithStack(err)).Warn("failed to convert HTML to Markdown, using plain text")
		return strings.TrimSpace(sel.Text())
	}
	return strings.TrimSpace(markdown)
}
