package distiller

import "github.com/jingkaihe/distill/pkg/types/distill"

// Validate keeps the first descriptor of each name, then drops descriptors
// missing a name, description, what, why or at least one step. Input order
// is preserved.
func Validate(descriptors []distill.SkillDescriptor) []distill.SkillDescriptor {
	seen := make(map[string]struct{}, len(descriptors))
	out := make([]distill.SkillDescriptor, 0, len(descriptors))

	for _, d := range descriptors {
		if _, dup := seen[d.Name]; dup {
			continue
		}
		seen[d.Name] = struct{}{}
		if d.IsComplete() {
			out = append(out, d)
		}
	}
	return out
}
