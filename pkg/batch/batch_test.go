package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/distill/pkg/distiller"
	"github.com/jingkaihe/distill/pkg/llm"
	"github.com/jingkaihe/distill/pkg/parser"
	"github.com/jingkaihe/distill/pkg/render"
	"github.com/jingkaihe/distill/pkg/types/distill"
)

const skillJSON = `{"name": "%s", "description": "d", "what": "w", "why": "y",
 "how": [{"order": 1, "action": "a", "reasoning": "r"}], "when": [], "examples": [], "constraints": []}`

// scripted answers extraction prompts with one candidate named after the
// first section title it sees and enrichment prompts with a complete skill
func scripted() llm.Completer {
	return llm.CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		if strings.HasPrefix(prompt, `For the skill "`) {
			name := strings.TrimPrefix(prompt, `For the skill "`)
			name = name[:strings.Index(name, `"`)]
			return strings.Replace(skillJSON, "%s", name, 1), nil
		}
		i := strings.Index(prompt, "\n# ")
		title := strings.Fields(prompt[i+3:])[0]
		return `[{"name": "` + strings.ToLower(title) + `-skill", "description": "d"}]`, nil
	})
}

func writeDoc(t *testing.T, dir, name, title string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	body := "# " + title + "\n\n" + strings.Repeat("Actionable guidance for the reader. ", 10) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

type recorder struct {
	started  []string
	finished []distill.BatchResult
}

func (r *recorder) SourceStarted(source string, _, _ int) { r.started = append(r.started, source) }
func (r *recorder) SourceFinished(res distill.BatchResult) {
	r.finished = append(r.finished, res)
}

func TestBatchIsolation(t *testing.T) {
	dir := t.TempDir()
	valid := writeDoc(t, dir, "valid.md", "Testing")
	missing := filepath.Join(dir, "missing.pdf")

	rec := &recorder{}
	o := New(parser.New(), distiller.New(scripted()), WithObserver(rec))
	summary, err := o.Run(context.Background(), []string{valid, missing})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.NotEmpty(t, summary.RunID)
	require.Len(t, summary.Skills, 1)
	assert.Equal(t, "testing-skill", summary.Skills[0].Name)

	require.Len(t, summary.Results, 2)
	assert.True(t, summary.Results[0].Succeeded)
	assert.Equal(t, 1, summary.Results[0].SkillCount)
	assert.False(t, summary.Results[1].Succeeded)
	require.NotNil(t, summary.Results[1].Error)
	assert.Equal(t, distill.KindNotFound, summary.Results[1].Error.Kind)
	assert.NotEmpty(t, summary.Results[1].Error.Hint)

	assert.Equal(t, []string{valid, missing}, rec.started)
	assert.Len(t, rec.finished, 2)

	err = summary.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), missing)
}

func TestRunWithoutSources(t *testing.T) {
	_, err := New(parser.New(), distiller.New(scripted())).Run(context.Background(), nil)
	assert.Equal(t, ErrNoSources, err)
}

func TestZeroSkillsIsAWarning(t *testing.T) {
	dir := t.TempDir()
	src := writeDoc(t, dir, "empty.md", "Nothing")
	noSkills := llm.CompleterFunc(func(context.Context, string) (string, error) {
		return "no skills here", nil
	})

	out := JSONOutput{Destination: Destination{Target: filepath.Join(dir, "out.json")}}
	summary, err := New(parser.New(), distiller.New(noSkills), WithOutputs(out)).Run(context.Background(), []string{src})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Warnings)
	assert.Equal(t, ZeroSkillsWarning, summary.Results[0].Warning)
	assert.NoError(t, summary.Err())
	assert.NoFileExists(t, filepath.Join(dir, "out.json"))
}

func TestFatalProviderFailsOnlyThatSource(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.md", "Alpha")
	b := writeDoc(t, dir, "b.md", "Beta")

	calls := 0
	flaky := llm.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		if strings.Contains(prompt, "# Alpha") {
			return "", &llm.ProviderError{Provider: "openai", StatusCode: 401, Fatal: true, Err: errors.New("bad key")}
		}
		return scripted().Complete(ctx, prompt)
	})

	summary, err := New(parser.New(), distiller.New(flaky)).Run(context.Background(), []string{a, b})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, distill.KindProviderFailure, summary.Results[0].Error.Kind)
	assert.Equal(t, 3, calls)
}

func TestOutputsAreWrittenPerSource(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	a := writeDoc(t, dir, "alpha.md", "Alpha")
	b := writeDoc(t, dir, "beta.md", "Beta")

	o := New(parser.New(), distiller.New(scripted()), WithOutputs(
		RendererOutput{Renderer: render.SkillPackageRenderer{}, Destination: Destination{Dir: outDir}},
		RendererOutput{Renderer: render.SlashCommandRenderer{}, Destination: Destination{Target: "ignored.md", Dir: outDir, Suffix: "-slash"}},
		JSONOutput{Destination: Destination{Target: "ignored.json", Dir: outDir}},
	))
	summary, err := o.Run(context.Background(), []string{a, b})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Succeeded)

	assert.Equal(t, []string{
		filepath.Join(outDir, "alpha.zip"),
		filepath.Join(outDir, "alpha-slash.md"),
		filepath.Join(outDir, "alpha.json"),
	}, summary.Results[0].Artifacts)
	for _, r := range summary.Results {
		for _, path := range r.Artifacts {
			assert.FileExists(t, path)
		}
	}

	loaded, err := render.LoadJSON(filepath.Join(outDir, "beta.json"))
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "beta-skill", loaded[0].Name)
}

type failingRenderer struct{}

func (failingRenderer) Render(distill.SkillDescriptor, string) (string, error) {
	return "", errors.New("disk full")
}

func TestOutputFailure(t *testing.T) {
	dir := t.TempDir()
	src := writeDoc(t, dir, "doc.md", "Doc")

	o := New(parser.New(), distiller.New(scripted()), WithOutputs(
		RendererOutput{Renderer: failingRenderer{}, Destination: Destination{Dir: dir}},
		JSONOutput{Destination: Destination{Target: filepath.Join(dir, "skills.json")}},
	))
	summary, err := o.Run(context.Background(), []string{src})
	require.NoError(t, err)

	require.Equal(t, 1, summary.Failed)
	res := summary.Results[0]
	assert.Equal(t, distill.KindOutputFailure, res.Error.Kind)
	assert.Contains(t, res.Error.Message, "disk full")
	assert.Equal(t, []string{filepath.Join(dir, "skills.json")}, res.Artifacts)
	assert.Empty(t, summary.Skills)
}

type panickingParser struct{}

func (panickingParser) Parse(context.Context, string) (*distill.Document, error) {
	panic("boom")
}

func TestPanicIsContained(t *testing.T) {
	summary, err := New(panickingParser{}, distiller.New(scripted())).Run(context.Background(), []string{"a.md", "b.md"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, distill.KindUnknown, summary.Results[0].Error.Kind)
	assert.Contains(t, summary.Results[0].Error.Message, "boom")
}

func TestDestinationBase(t *testing.T) {
	d := Destination{Target: "custom", Dir: "out", Suffix: "-slash"}
	assert.Equal(t, "custom", d.Base(NewUnit("docs/guide.md")))
	assert.Equal(t, filepath.Join("out", "guide-slash"), d.Base(Unit{Source: "docs/guide.md", Stem: "guide", Multi: true}))
	assert.Equal(t, filepath.Join("out", "guide-2-slash"), d.Base(Unit{Source: "docs/b/guide.md", Stem: "guide-2", Multi: true}))
	assert.Equal(t, filepath.Join("out", "guide"), Destination{Dir: "out"}.Base(Unit{Source: "docs/guide.md"}))
}

func TestSameFileNameInDifferentDirectories(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0o755))
	a := writeDoc(t, filepath.Join(dir, "a"), "README.md", "Alpha")
	b := writeDoc(t, filepath.Join(dir, "b"), "README.md", "Beta")

	o := New(parser.New(), distiller.New(scripted()), WithOutputs(
		RendererOutput{Renderer: render.SkillPackageRenderer{}, Destination: Destination{Dir: outDir}},
		JSONOutput{Destination: Destination{Dir: outDir}},
	))
	summary, err := o.Run(context.Background(), []string{a, b})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Succeeded)

	assert.Equal(t, []string{
		filepath.Join(outDir, "README.zip"),
		filepath.Join(outDir, "README.json"),
	}, summary.Results[0].Artifacts)
	assert.Equal(t, []string{
		filepath.Join(outDir, "README-2.zip"),
		filepath.Join(outDir, "README-2.json"),
	}, summary.Results[1].Artifacts)

	first, err := render.LoadJSON(filepath.Join(outDir, "README.json"))
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "alpha-skill", first[0].Name)

	second, err := render.LoadJSON(filepath.Join(outDir, "README-2.json"))
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "beta-skill", second[0].Name)
}

func TestRendererOutputKeepsArtifactsInDir(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	skills := []distill.SkillDescriptor{
		{Name: "../../escaped", Description: "d", What: "w", Why: "y"},
		{Name: "nested/name", Description: "d", What: "w", Why: "y"},
	}

	out := RendererOutput{Renderer: render.SlashCommandRenderer{}, Destination: Destination{Dir: outDir}}
	paths, err := out.Write(Unit{Source: "guide.md", Stem: "guide", Multi: true}, skills)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(outDir, "guide-escaped.md"),
		filepath.Join(outDir, "guide-nested-name.md"),
	}, paths)
	assert.NoFileExists(t, filepath.Join(dir, "escaped.md"))
}
