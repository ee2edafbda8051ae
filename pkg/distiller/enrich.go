package distiller

import (
	"context"

	"github.com/jingkaihe/distill/pkg/logger"
	"github.com/jingkaihe/distill/pkg/telemetry"
	"github.com/jingkaihe/distill/pkg/types/distill"
)

func (d *Distiller) enrich(ctx context.Context, candidates []distill.SkillCandidate) ([]distill.SkillDescriptor, int, error) {
	var descriptors []distill.SkillDescriptor
	degraded := 0

	err := telemetry.WithSpan(ctx, "distill.pass.enrich", func(ctx context.Context) error {
		results, failed, err := forEach(ctx, d.concurrency, candidates, func(ctx context.Context, i int, c distill.SkillCandidate) (*distill.SkillDescriptor, error) {
			log := logger.G(ctx).WithField("pass", "enrich").WithField("candidate", c.Name)

			prompt, err := d.prompts.Render(EnrichTemplate, PromptData{
				Name:        c.Name,
				Description: c.Description,
				Text:        truncate(c.SourceSection, d.enrichExcerpt),
			})
			if err != nil {
				return nil, err
			}
			text, err := d.completer.Complete(ctx, prompt)
			if err != nil {
				return nil, err
			}

			skill, ok := parseSkill(text)
			if !ok {
				log.Warn("failed to parse skill from completion")
				return nil, errUnparsable
			}
			log.Debug("candidate enriched")
			return &skill, nil
		})
		degraded = failed
		if err != nil {
			return abort("enrich", err)
		}
		for _, r := range results {
			if r != nil {
				descriptors = append(descriptors, *r)
			}
		}
		telemetry.SetAttributes(ctx, telemetry.AttrPass.String("enrich"), telemetry.AttrSkills.Int(len(descriptors)))
		return nil
	})
	return descriptors, degraded, err
}

// parseSkill reads the first JSON object in text. Missing or mistyped fields
// take their zero value, including step order, action and reasoning.
func parseSkill(text string) (distill.SkillDescriptor, bool) {
	var w wireSkill
	if !decodeFirst(text, '{', &w) {
		return distill.SkillDescriptor{}, false
	}
	return w.descriptor(), true
}
