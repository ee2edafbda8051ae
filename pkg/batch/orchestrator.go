// Package batch drives the distillation pipeline over many sources, isolating
// per-source failures and aggregating a run summary.
package batch

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jingkaihe/distill/pkg/distiller"
	"github.com/jingkaihe/distill/pkg/logger"
	"github.com/jingkaihe/distill/pkg/render"
	"github.com/jingkaihe/distill/pkg/telemetry"
	"github.com/jingkaihe/distill/pkg/types/distill"
)

// ZeroSkillsWarning is recorded for a source that yields no validated skills
const ZeroSkillsWarning = "no skills extracted; check that the document contains actionable content, " +
	"try a different source, or inspect the extraction with --output-json"

// Parser turns a source into a Document
type Parser interface {
	Parse(ctx context.Context, source string) (*distill.Document, error)
}

// Distiller runs the language-model passes over a Document
type Distiller interface {
	Distill(ctx context.Context, doc *distill.Document) ([]distill.SkillDescriptor, distiller.Report, error)
}

// Observer is notified as sources are processed
type Observer interface {
	SourceStarted(source string, index, total int)
	SourceFinished(result distill.BatchResult)
}

// Orchestrator processes sources one after another
type Orchestrator struct {
	parser    Parser
	distiller Distiller
	outputs   []Output
	observers []Observer
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithOutputs sets the outputs every successful source is written to
func WithOutputs(outputs ...Output) Option {
	return func(o *Orchestrator) {
		o.outputs = append(o.outputs, outputs...)
	}
}

// WithObserver registers an observer
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// New creates an Orchestrator
func New(p Parser, d Distiller, opts ...Option) *Orchestrator {
	o := &Orchestrator{parser: p, distiller: d}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes every source and returns the summary. The error is non-nil
// only when there is nothing to process; per-source failures live in the
// summary.
func (o *Orchestrator) Run(ctx context.Context, sources []string) (*Summary, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	summary := &Summary{RunID: uuid.NewString()}
	ctx = logger.WithField(ctx, "run_id", summary.RunID)
	log := logger.G(ctx)
	multi := len(sources) > 1
	stems := render.SourceStems(sources)

	log.WithField("sources", len(sources)).Info("starting distillation run")
	for i, source := range sources {
		for _, obs := range o.observers {
			obs.SourceStarted(source, i, len(sources))
		}

		result, skills := o.processSource(ctx, Unit{Source: source, Stem: stems[i], Multi: multi})
		summary.add(result, skills)

		for _, obs := range o.observers {
			obs.SourceFinished(result)
		}
	}
	log.WithFields(map[string]any{
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"skills":    len(summary.Skills),
	}).Info("distillation run finished")

	return summary, nil
}

// processSource runs the full pipeline for one source. It never panics and
// never returns an error: every outcome is a BatchResult.
func (o *Orchestrator) processSource(ctx context.Context, unit Unit) (result distill.BatchResult, skills []distill.SkillDescriptor) {
	source := unit.Source
	start := time.Now()
	ctx = logger.WithField(ctx, "source", source)
	log := logger.G(ctx)
	result = distill.BatchResult{Source: source}

	fail := func(err error) {
		result.Succeeded = false
		result.SkillCount = 0
		result.Error = distill.RecordOf(err)
		skills = nil
		log.WithError(err).WithField("kind", result.Error.Kind).Error("source failed")
	}

	defer func() {
		if r := recover(); r != nil {
			log.WithField("stack", string(debug.Stack())).Error("panic while processing source")
			fail(errors.Errorf("unexpected panic: %v", r))
		}
		result.DurationMS = time.Since(start).Milliseconds()
	}()

	err := telemetry.WithSpan(ctx, "distill.source", func(ctx context.Context) error {
		var err error
		skills, err = o.pipeline(ctx, source)
		if err != nil {
			telemetry.SetAttributes(ctx, telemetry.AttrErrorKind.String(string(distill.KindOf(err))))
			return err
		}
		telemetry.SetAttributes(ctx, telemetry.AttrSkills.Int(len(skills)))

		if len(skills) == 0 {
			result.Warning = ZeroSkillsWarning
			log.Warn("no skills extracted")
			return nil
		}

		artifacts, err := o.write(unit, skills)
		result.Artifacts = artifacts
		return err
	}, telemetry.AttrSource.String(source), attribute.Bool("distill.multi", unit.Multi))

	if err != nil {
		fail(err)
		return result, nil
	}

	result.Succeeded = true
	result.SkillCount = len(skills)
	log.WithField("skills", len(skills)).Info("source distilled")
	return result, skills
}

func (o *Orchestrator) pipeline(ctx context.Context, source string) ([]distill.SkillDescriptor, error) {
	doc, err := o.parser.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	telemetry.SetAttributes(ctx, telemetry.AttrSourceType.String(string(doc.SourceType)))
	logger.G(ctx).WithFields(map[string]any{
		"source_type": doc.SourceType,
		"sections":    len(doc.Structure),
	}).Debug("source parsed")

	skills, report, err := o.distiller.Distill(ctx, doc)
	if report.DegradedChunks > 0 || report.DegradedCandidates > 0 {
		logger.G(ctx).WithFields(map[string]any{
			"degraded_chunks":     report.DegradedChunks,
			"degraded_candidates": report.DegradedCandidates,
		}).Warn("some language model units produced no output")
	}
	if err != nil {
		return nil, err
	}
	return skills, nil
}

// write hands the skills to every output. All outputs are attempted and
// their failures combined into one output_failure.
func (o *Orchestrator) write(unit Unit, skills []distill.SkillDescriptor) ([]string, error) {
	var artifacts []string
	var errs []error
	for _, out := range o.outputs {
		paths, err := out.Write(unit, skills)
		artifacts = append(artifacts, paths...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if err := joinErrors(errs); err != nil {
		return artifacts, distill.NewError(distill.KindOutputFailure, unit.Source,
			fmt.Sprintf("%d output(s) failed", len(errs)), err)
	}
	return artifacts, nil
}
