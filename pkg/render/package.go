package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/jingkaihe/distill/pkg/types/distill"
)

// Files inside a skill package
const (
	SkillFile        = "SKILL.md"
	PromptFile       = "prompt.xml"
	InstructionsFile = "instructions.md"
	ExamplesDir      = "examples"
)

// SkillPackageRenderer writes a skill as a zip package holding SKILL.md,
// prompt.xml, instructions.md and one file per example
type SkillPackageRenderer struct{}

// Render writes <target>.zip
func (SkillPackageRenderer) Render(skill distill.SkillDescriptor, target string) (string, error) {
	path := withExt(target, ".zip")
	data, err := Package(skill)
	if err != nil {
		return "", outputError(path, err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", outputError(path, err)
	}
	return path, nil
}

type packageFile struct {
	name    string
	content string
}

// Package returns the zip archive bytes of a skill package
func Package(skill distill.SkillDescriptor) ([]byte, error) {
	instructions := Instructions(skill)
	fm, err := frontmatter{Name: skill.Name, Description: skill.Description}.String()
	if err != nil {
		return nil, err
	}
	prompt, err := PromptXML(skill)
	if err != nil {
		return nil, err
	}

	files := []packageFile{
		{SkillFile, fm + "\n" + instructions},
		{PromptFile, prompt},
		{InstructionsFile, instructions},
	}
	for i, e := range skill.Examples {
		files = append(files, packageFile{fmt.Sprintf("%s/example_%d.md", ExamplesDir, i+1), e})
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.name, Method: zip.Deflate})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to add %s", f.name)
		}
		if _, err := w.Write([]byte(f.content)); err != nil {
			return nil, errors.Wrapf(err, "failed to write %s", f.name)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finish zip archive")
	}
	return buf.Bytes(), nil
}

// Instructions returns the markdown instructions of a skill package
func Instructions(skill distill.SkillDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n## What\n\n%s\n\n## Why\n\n%s\n\n## How\n\n",
		skill.Name, skill.Description, skill.What, skill.Why)
	for _, s := range skill.How {
		fmt.Fprintf(&b, "%d. **%s**\n   - Reasoning: %s\n\n", s.Order, s.Action, s.Reasoning)
	}
	if len(skill.When) > 0 {
		b.WriteString("## When to Use\n\n")
		for _, c := range skill.When {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}
	if len(skill.Examples) > 0 {
		b.WriteString("## Examples\n\nSee the `examples/` directory for detailed examples.\n\n")
	}
	if len(skill.Constraints) > 0 {
		b.WriteString("## Constraints & Preconditions\n\n")
		for _, c := range skill.Constraints {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}
	return b.String()
}

type xmlPrompt struct {
	XMLName      xml.Name     `xml:"prompt"`
	Metadata     xmlMetadata  `xml:"metadata"`
	Instructions []xmlSection `xml:"instructions>section"`
}

type xmlMetadata struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
}

type xmlSection struct {
	Name        string    `xml:"name,attr"`
	Text        string    `xml:",chardata"`
	Steps       []xmlStep `xml:"steps>step,omitempty"`
	Contexts    []string  `xml:"context,omitempty"`
	Constraints []string  `xml:"constraint,omitempty"`
}

type xmlStep struct {
	Order     int    `xml:"order,attr"`
	Action    string `xml:"action"`
	Reasoning string `xml:"reasoning"`
}

// PromptXML returns the prompt.xml document of a skill package
func PromptXML(skill distill.SkillDescriptor) (string, error) {
	steps := make([]xmlStep, len(skill.How))
	for i, s := range skill.How {
		steps[i] = xmlStep{Order: s.Order, Action: s.Action, Reasoning: s.Reasoning}
	}

	p := xmlPrompt{
		Metadata: xmlMetadata{Name: skill.Name, Description: skill.Description},
		Instructions: []xmlSection{
			{Name: "what", Text: skill.What},
			{Name: "why", Text: skill.Why},
			{Name: "how", Steps: steps},
		},
	}
	if len(skill.When) > 0 {
		p.Instructions = append(p.Instructions, xmlSection{Name: "when", Contexts: skill.When})
	}
	if len(skill.Constraints) > 0 {
		p.Instructions = append(p.Instructions, xmlSection{Name: "constraints", Constraints: skill.Constraints})
	}

	out, err := xml.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal prompt.xml")
	}
	return xml.Header + string(out) + "\n", nil
}
