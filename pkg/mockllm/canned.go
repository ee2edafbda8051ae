package mockllm

import (
	"encoding/json"

	"github.com/jingkaihe/distill/pkg/types/distill"
)

// CannedSkill is the skill every canned response describes
func CannedSkill(provider string) distill.SkillDescriptor {
	name := "mock-" + provider + "-skill"
	if provider == "openai" {
		name = "mock-skill"
	}
	return distill.SkillDescriptor{
		Name:        name,
		Description: "A mock skill extracted by the " + provider + " mock server.",
		What:        "Demonstrate that the " + provider + " mock server works",
		Why:         "To test the pipeline without spending money",
		How: []distill.Step{
			{Order: 1, Action: "Start the mock server", Reasoning: "The pipeline needs an endpoint to call"},
			{Order: 2, Action: "Run distill against it", Reasoning: "Exercises every pass end to end"},
		},
		When:        []string{"Testing", "Development"},
		Examples:    []string{"distill run --input notes.md --output-json out.json --provider " + provider},
		Constraints: []string{"Responses ignore the prompt"},
	}
}

// CannedResponder answers every prompt with a JSON array holding CannedSkill.
// The array satisfies the candidate pass and its single object the enrichment pass.
func CannedResponder(provider, _ string) string {
	b, _ := json.Marshal([]distill.SkillDescriptor{CannedSkill(provider)})
	return string(b)
}
