package render

import (
	"fmt"
	"strings"

	"github.com/jingkaihe/distill/pkg/types/distill"
)

// SlashCommandRenderer writes a skill as an invokable slash command markdown file
type SlashCommandRenderer struct{}

// Render writes <target>.md
func (SlashCommandRenderer) Render(skill distill.SkillDescriptor, target string) (string, error) {
	path := withExt(target, ".md")
	content, err := SlashCommand(skill)
	if err != nil {
		return "", outputError(path, err)
	}
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return "", outputError(path, err)
	}
	return path, nil
}

// SlashCommand returns the slash command markdown for skill
func SlashCommand(skill distill.SkillDescriptor) (string, error) {
	fm, err := frontmatter{Name: skill.Name, Description: skill.Description, Invokable: true}.String()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(fm)
	fmt.Fprintf(&b, "\n# Task@WHAT\n\n%s\n\n**When to use this skill:**\n", skill.What)
	if len(skill.When) == 0 {
		b.WriteString("- When applicable to your task\n")
	}
	for _, c := range skill.When {
		fmt.Fprintf(&b, "- %s\n", c)
	}

	fmt.Fprintf(&b, "\n## Purpose@WHY\n\n%s\n\n", skill.Why)
	if len(skill.Constraints) > 0 {
		b.WriteString("**Important considerations:**\n")
		for _, c := range skill.Constraints {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Steps@HOW\n\nFollow these steps systematically:\n\n")
	for _, s := range skill.How {
		fmt.Fprintf(&b, "### Step %d: %s\n\n**Reasoning:** %s\n\n", s.Order, s.Action, s.Reasoning)
	}

	if len(skill.Examples) > 0 {
		b.WriteString("## Examples\n\n")
		for i, e := range skill.Examples {
			fmt.Fprintf(&b, "### Example %d\n\n%s\n\n", i+1, e)
		}
	}

	b.WriteString(`## One-More-Thing

**STOP and verify** if you encounter:
- Any confusion or ambiguity in the requirements
- Missing information needed to complete the task
- Potential conflicts with existing code or patterns

Ask the user to clarify before proceeding with execution.
`)
	return b.String(), nil
}
