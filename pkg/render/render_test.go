package render

import (
	"archive/zip"
	"encoding/json"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/distill/pkg/types/distill"
)

func sampleSkill() distill.SkillDescriptor {
	return distill.SkillDescriptor{
		Name:        "write-tests",
		Description: "Write focused unit tests: one behaviour each",
		What:        "Cover a unit with tests",
		Why:         "Catch regressions <early> & cheaply",
		How: []distill.Step{
			{Order: 1, Action: "List behaviours", Reasoning: "Know what to cover"},
			{Order: 2, Action: "Write one test per behaviour", Reasoning: "Failures point at one cause"},
		},
		When:        []string{"Adding a feature"},
		Examples:    []string{"go test ./pkg/...", "Table-driven test"},
		Constraints: []string{"Tests must be deterministic"},
	}
}

func TestTargets(t *testing.T) {
	one := []distill.SkillDescriptor{{Name: "a"}}
	two := []distill.SkillDescriptor{{Name: "a"}, {Name: "b"}}

	assert.Equal(t, []string{"out/guide"}, Targets("out/guide", one))
	assert.Equal(t, []string{"out/guide-a", "out/guide-b"}, Targets("out/guide", two))
	assert.Equal(t, []string{"cmd-a.md", "cmd-b.md"}, Targets("cmd.md", two))
	assert.Empty(t, Targets("x", nil))
}

func TestTargets_UnsafeSkillNames(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "guide.zip")
	skills := []distill.SkillDescriptor{
		{Name: "a/b"},
		{Name: "a/../../escaped"},
		{Name: `..\..\win`},
		{Name: "A B"},
		{Name: "a-b"},
		{Name: "///"},
	}

	targets := Targets(base, skills)
	require.Len(t, targets, len(skills))
	for _, target := range targets {
		assert.Equal(t, dir, filepath.Dir(target), target)
		assert.True(t, strings.HasPrefix(filepath.Base(target), "guide-"), target)
	}
	assert.Equal(t, []string{
		filepath.Join(dir, "guide-a-b.zip"),
		filepath.Join(dir, "guide-a-escaped.zip"),
		filepath.Join(dir, "guide-win.zip"),
		filepath.Join(dir, "guide-a-b-2.zip"),
		filepath.Join(dir, "guide-a-b-3.zip"),
		filepath.Join(dir, "guide-skill.zip"),
	}, targets)

	for i, target := range targets {
		path, err := (SkillPackageRenderer{}).Render(skills[i], target)
		require.NoError(t, err)
		assert.Equal(t, dir, filepath.Dir(path))
	}
	_, err := os.Stat(filepath.Join(filepath.Dir(dir), "escaped.zip"))
	assert.True(t, os.IsNotExist(err))
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"write-tests":        "write-tests",
		"Write Tests":        "write-tests",
		"  --deploy__app-- ": "deploy-app",
		"../etc/passwd":      "etc-passwd",
		"":                   "skill",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slug(in), in)
	}
}

func TestSourceStems(t *testing.T) {
	stems := SourceStems([]string{
		"docs/a/README.md",
		"docs/b/README.md",
		"docs/c/readme.txt",
		"https://example.com/guide",
		"docs/guide.md",
	})
	assert.Equal(t, []string{"README", "README-2", "readme-3", "guide", "guide-2"}, stems)
}

func TestSourceStem(t *testing.T) {
	tests := map[string]string{
		"docs/guide.md":                      "guide",
		"/abs/path/manual.pdf":               "manual",
		"notes":                              "notes",
		"https://example.com/blog/post.html": "post",
		"https://example.com/":               "example",
		"https://example.com/a/b?x=1":        "b",
		"":                                   "skills",
	}
	for in, want := range tests {
		assert.Equal(t, want, SourceStem(in), in)
	}
}

func TestSlashCommand(t *testing.T) {
	out, err := SlashCommand(sampleSkill())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "---\nname: write-tests\n"))
	var fm frontmatter
	parts := strings.SplitN(out, "---\n", 3)
	require.Len(t, parts, 3)
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	assert.Equal(t, frontmatter{Name: "write-tests", Description: "Write focused unit tests: one behaviour each", Invokable: true}, fm)
	assert.Contains(t, out, "invokable: true\n---\n\n# Task@WHAT\n\nCover a unit with tests\n")
	assert.Contains(t, out, "**When to use this skill:**\n- Adding a feature\n")
	assert.Contains(t, out, "## Purpose@WHY\n\nCatch regressions <early> & cheaply\n")
	assert.Contains(t, out, "**Important considerations:**\n- Tests must be deterministic\n")
	assert.Contains(t, out, "### Step 2: Write one test per behaviour\n\n**Reasoning:** Failures point at one cause\n")
	assert.Contains(t, out, "### Example 2\n\nTable-driven test\n")
	assert.True(t, strings.HasSuffix(out, "Ask the user to clarify before proceeding with execution.\n"))
}

func TestSlashCommandWithoutOptionalSections(t *testing.T) {
	skill := sampleSkill()
	skill.When = nil
	skill.Examples = nil
	skill.Constraints = nil

	out, err := SlashCommand(skill)
	require.NoError(t, err)
	assert.Contains(t, out, "- When applicable to your task\n")
	assert.NotContains(t, out, "## Examples")
	assert.NotContains(t, out, "Important considerations")
}

func TestSlashCommandRenderer(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "write-tests")
	path, err := SlashCommandRenderer{}.Render(sampleSkill(), target)
	require.NoError(t, err)
	assert.Equal(t, target+".md", path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Task@WHAT")

	path, err = SlashCommandRenderer{}.Render(sampleSkill(), target+".md")
	require.NoError(t, err)
	assert.Equal(t, target+".md", path)
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		files[f.Name] = string(b)
	}
	return files
}

func TestSkillPackageRenderer(t *testing.T) {
	target := filepath.Join(t.TempDir(), "write-tests")
	path, err := SkillPackageRenderer{}.Render(sampleSkill(), target)
	require.NoError(t, err)
	assert.Equal(t, target+".zip", path)

	files := readZip(t, path)
	assert.Len(t, files, 5)

	assert.True(t, strings.HasPrefix(files[SkillFile], "---\nname: write-tests\n"))
	assert.Contains(t, files[SkillFile], "---\n\n# write-tests\n")
	assert.Contains(t, files[InstructionsFile], "1. **List behaviours**\n   - Reasoning: Know what to cover\n")
	assert.Contains(t, files[InstructionsFile], "## When to Use\n\n- Adding a feature\n")
	assert.Contains(t, files[InstructionsFile], "## Constraints & Preconditions\n\n- Tests must be deterministic\n")
	assert.Equal(t, "go test ./pkg/...", files["examples/example_1.md"])
	assert.Equal(t, "Table-driven test", files["examples/example_2.md"])

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestPromptXML(t *testing.T) {
	out, err := PromptXML(sampleSkill())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, "<name>write-tests</name>")
	assert.Contains(t, out, `<section name="why">Catch regressions &lt;early&gt; &amp; cheaply</section>`)
	assert.Contains(t, out, `<step order="2">`)
	assert.Contains(t, out, "<context>Adding a feature</context>")
	assert.Contains(t, out, "<constraint>Tests must be deterministic</constraint>")

	var parsed xmlPrompt
	require.NoError(t, xmlUnmarshal(out, &parsed))
	require.Len(t, parsed.Instructions, 5)
	assert.Len(t, parsed.Instructions[2].Steps, 2)
	assert.Equal(t, "Failures point at one cause", parsed.Instructions[2].Steps[1].Reasoning)
}

func TestSaveAndLoadJSON(t *testing.T) {
	skills := []distill.SkillDescriptor{sampleSkill(), {
		Name:        "second",
		Description: "d",
		What:        "w",
		Why:         "y",
		How:         []distill.Step{{Order: 1, Action: "a", Reasoning: "r"}},
		When:        []string{},
		Examples:    []string{},
		Constraints: []string{},
	}}

	target := filepath.Join(t.TempDir(), "out", "skills")
	path, err := SaveJSON(skills, target)
	require.NoError(t, err)
	assert.Equal(t, target+".json", path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n    \"name\": \"write-tests\""))
	assert.Contains(t, string(data), "<early> & cheaply")

	loaded, err := LoadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, skills, loaded)
}

func TestSaveJSONEmpty(t *testing.T) {
	path, err := SaveJSON(nil, filepath.Join(t.TempDir(), "empty.json"))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestLoadJSONErrors(t *testing.T) {
	_, err := LoadJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, distill.KindNotFound, distill.KindOf(err))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = LoadJSON(bad)
	assert.Equal(t, distill.KindParseFailure, distill.KindOf(err))
}

func TestRenderToUnwritableTarget(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := SkillPackageRenderer{}.Render(sampleSkill(), filepath.Join(blocker, "skill"))
	require.Error(t, err)
	assert.Equal(t, distill.KindOutputFailure, distill.KindOf(err))
}

func TestSchema(t *testing.T) {
	b, err := Schema()
	require.NoError(t, err)

	var s map[string]any
	require.NoError(t, json.Unmarshal(b, &s))
	assert.Equal(t, "array", s["type"])
	items, ok := s["items"].(map[string]any)
	require.True(t, ok)
	props, ok := items["properties"].(map[string]any)
	require.True(t, ok)
	for _, field := range []string{"name", "description", "what", "why", "how", "when", "examples", "constraints"} {
		assert.Contains(t, props, field)
	}
}

func TestRendererFunc(t *testing.T) {
	var r Renderer = RendererFunc(func(skill distill.SkillDescriptor, target string) (string, error) {
		return target + "/" + skill.Name, nil
	})
	out, err := r.Render(distill.SkillDescriptor{Name: "x"}, "dir")
	require.NoError(t, err)
	assert.Equal(t, "dir/x", out)
}

func xmlUnmarshal(s string, v any) error {
	return xml.Unmarshal([]byte(s), v)
}
