package distiller

import (
	"context"
	"encoding/json"

	"github.com/jingkaihe/distill/pkg/logger"
	"github.com/jingkaihe/distill/pkg/telemetry"
	"github.com/jingkaihe/distill/pkg/types/distill"
)

func (d *Distiller) extract(ctx context.Context, chunks []string) ([]distill.SkillCandidate, int, error) {
	var candidates []distill.SkillCandidate
	degraded := 0

	err := telemetry.WithSpan(ctx, "distill.pass.extract", func(ctx context.Context) error {
		results, failed, err := forEach(ctx, d.concurrency, chunks, func(ctx context.Context, i int, chunk string) ([]distill.SkillCandidate, error) {
			log := logger.G(ctx).WithField("pass", "extract").WithField("chunk", i)

			prompt, err := d.prompts.Render(ExtractTemplate, PromptData{Text: truncate(chunk, d.extractPrefix)})
			if err != nil {
				return nil, err
			}
			text, err := d.completer.Complete(ctx, prompt)
			if err != nil {
				return nil, err
			}

			found, ok := parseCandidates(text, chunk)
			if !ok {
				log.Warn("failed to parse candidates from completion")
				return nil, errUnparsable
			}
			log.WithField("candidates", len(found)).Debug("chunk processed")
			return found, nil
		})
		degraded = failed
		if err != nil {
			return abort("extract", err)
		}
		for _, r := range results {
			candidates = append(candidates, r...)
		}
		telemetry.SetAttributes(ctx, telemetry.AttrPass.String("extract"), telemetry.AttrCandidates.Int(len(candidates)))
		return nil
	})
	return candidates, degraded, err
}

// parseCandidates reads the first JSON array in text. Items that are not
// objects or carry no name are dropped. ok is false when no array decodes.
func parseCandidates(text, chunk string) ([]distill.SkillCandidate, bool) {
	var items []json.RawMessage
	if !decodeFirst(text, '[', &items) {
		return nil, false
	}

	candidates := make([]distill.SkillCandidate, 0, len(items))
	for _, raw := range items {
		var item wireCandidate
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		if item.Name == nil || *item.Name == "" {
			continue
		}
		candidates = append(candidates, distill.SkillCandidate{
			Name:          string(*item.Name),
			Description:   string(item.Description),
			SourceSection: chunk,
			Confidence:    CandidateConfidence,
		})
	}
	return candidates, true
}
