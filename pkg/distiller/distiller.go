// Package distiller implements the three language-model passes that turn
// document chunks into validated skill descriptors: candidate extraction,
// enrichment and validation with deduplication.
package distiller

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/distill/pkg/chunker"
	"github.com/jingkaihe/distill/pkg/llm"
	"github.com/jingkaihe/distill/pkg/logger"
	"github.com/jingkaihe/distill/pkg/telemetry"
	"github.com/jingkaihe/distill/pkg/types/distill"
)

const (
	// DefaultExtractPrefix bounds the chunk text sent to the extraction pass
	DefaultExtractPrefix = 2000
	// DefaultEnrichExcerpt bounds the source excerpt sent to the enrichment pass
	DefaultEnrichExcerpt = 1500
	// CandidateConfidence is assigned to every extracted candidate
	CandidateConfidence = 0.8
)

// Distiller runs the passes against a language-model Completer
type Distiller struct {
	completer     llm.Completer
	chunker       *chunker.Chunker
	prompts       *PromptRenderer
	concurrency   int
	extractPrefix int
	enrichExcerpt int
}

// Option configures a Distiller
type Option func(*Distiller)

// WithConcurrency sets how many language-model calls a pass may have in
// flight. Values below 1 mean sequential.
func WithConcurrency(n int) Option {
	return func(d *Distiller) {
		d.concurrency = n
	}
}

// WithChunker replaces the default chunker
func WithChunker(c *chunker.Chunker) Option {
	return func(d *Distiller) {
		if c != nil {
			d.chunker = c
		}
	}
}

// WithExtractPrefix sets how many characters of each chunk the extraction prompt carries
func WithExtractPrefix(n int) Option {
	return func(d *Distiller) {
		if n > 0 {
			d.extractPrefix = n
		}
	}
}

// WithEnrichExcerpt sets how many characters of source context the enrichment prompt carries
func WithEnrichExcerpt(n int) Option {
	return func(d *Distiller) {
		if n > 0 {
			d.enrichExcerpt = n
		}
	}
}

// WithPrompts replaces the embedded prompt templates
func WithPrompts(r *PromptRenderer) Option {
	return func(d *Distiller) {
		if r != nil {
			d.prompts = r
		}
	}
}

// New creates a Distiller
func New(completer llm.Completer, opts ...Option) *Distiller {
	d := &Distiller{
		completer:     completer,
		chunker:       chunker.New(),
		prompts:       defaultPrompts,
		concurrency:   1,
		extractPrefix: DefaultExtractPrefix,
		enrichExcerpt: DefaultEnrichExcerpt,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.concurrency < 1 {
		d.concurrency = 1
	}
	return d
}

// Report counts what each pass produced for one document
type Report struct {
	Chunks             int
	Candidates         int
	Enriched           int
	Skills             int
	DegradedChunks     int
	DegradedCandidates int
}

// Distill chunks doc and runs the three passes in order. Units whose
// completion fails or cannot be parsed contribute nothing. A fatal provider
// error aborts the document and is returned with the partial report.
func (d *Distiller) Distill(ctx context.Context, doc *distill.Document) ([]distill.SkillDescriptor, Report, error) {
	var report Report
	var skills []distill.SkillDescriptor

	err := telemetry.WithSpan(ctx, "distill.document", func(ctx context.Context) error {
		chunks := d.chunker.Chunk(doc)
		report.Chunks = len(chunks)
		logger.G(ctx).WithField("chunks", len(chunks)).Debug("document chunked")

		candidates, degraded, err := d.extract(ctx, chunks)
		report.Candidates = len(candidates)
		report.DegradedChunks = degraded
		if err != nil {
			return err
		}

		descriptors, degraded, err := d.enrich(ctx, candidates)
		report.Enriched = len(descriptors)
		report.DegradedCandidates = degraded
		if err != nil {
			return err
		}

		skills = Validate(descriptors)
		report.Skills = len(skills)
		telemetry.SetAttributes(ctx,
			telemetry.AttrChunks.Int(report.Chunks),
			telemetry.AttrCandidates.Int(report.Candidates),
			telemetry.AttrSkills.Int(report.Skills),
		)
		logger.G(ctx).WithFields(map[string]any{
			"candidates": report.Candidates,
			"enriched":   report.Enriched,
			"skills":     report.Skills,
		}).Info("document distilled")
		return nil
	}, attribute.String("distill.source_path", sourcePath(doc)))

	return skills, report, err
}

// Extract runs the candidate pass over chunks
func (d *Distiller) Extract(ctx context.Context, chunks []string) ([]distill.SkillCandidate, error) {
	candidates, _, err := d.extract(ctx, chunks)
	return candidates, err
}

// Enrich runs the enrichment pass over candidates
func (d *Distiller) Enrich(ctx context.Context, candidates []distill.SkillCandidate) ([]distill.SkillDescriptor, error) {
	descriptors, _, err := d.enrich(ctx, candidates)
	return descriptors, err
}

func sourcePath(doc *distill.Document) string {
	if doc == nil {
		return ""
	}
	return doc.SourcePath
}

// abort wraps a fatal provider error for the named pass
func abort(pass string, err error) error {
	return errors.Wrapf(err, "%s pass aborted", pass)
}
