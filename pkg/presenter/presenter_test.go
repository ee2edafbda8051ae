package presenter

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jingkaihe/distill/pkg/llm"
	"github.com/jingkaihe/distill/pkg/types/distill"
)

func newTestPresenter() (*TerminalPresenter, *bytes.Buffer, *bytes.Buffer) {
	var output, errorOutput bytes.Buffer
	return NewWithOptions(&output, &errorOutput, ColorNever), &output, &errorOutput
}

func TestNew(t *testing.T) {
	presenter := New()
	assert.NotNil(t, presenter)
	assert.Equal(t, os.Stdout, presenter.output)
	assert.Equal(t, os.Stderr, presenter.errorOutput)
	assert.False(t, presenter.quiet)
}

func TestDetectColorMode(t *testing.T) {
	tests := []struct {
		name         string
		noColor      string
		distillColor string
		expected     ColorMode
	}{
		{"NO_COLOR set", "1", "", ColorNever},
		{"DISTILL_COLOR always", "", "always", ColorAlways},
		{"DISTILL_COLOR force", "", "force", ColorAlways},
		{"DISTILL_COLOR never", "", "never", ColorNever},
		{"DISTILL_COLOR off", "", "off", ColorNever},
		{"DISTILL_COLOR auto", "", "auto", ColorAuto},
		{"default", "", "", ColorAuto},
		{"invalid value", "", "invalid", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", tt.noColor)
			t.Setenv("DISTILL_COLOR", tt.distillColor)
			assert.Equal(t, tt.expected, detectColorMode())
		})
	}
}

func TestError(t *testing.T) {
	presenter, _, errorOutput := newTestPresenter()

	presenter.Error(errors.New("test error"), "test context")
	assert.Equal(t, "[ERROR] test context: test error\n", errorOutput.String())

	errorOutput.Reset()
	presenter.Error(nil, "context")
	assert.Empty(t, errorOutput.String())
}

func TestErrorWithHint(t *testing.T) {
	presenter, _, errorOutput := newTestPresenter()

	presenter.Error(distill.NotFound("docs/missing.pdf", nil), "")
	out := errorOutput.String()
	assert.Contains(t, out, "[ERROR] not_found: input does not exist (source: docs/missing.pdf)")
	assert.Contains(t, out, "Suggestion: "+distill.DefaultHint(distill.KindNotFound))
}

func TestQuietMode(t *testing.T) {
	presenter, output, errorOutput := newTestPresenter()
	presenter.SetQuiet(true)
	assert.True(t, presenter.IsQuiet())

	presenter.Success("ok")
	presenter.Info("info")
	presenter.Warning("warn")
	presenter.Section("Title")
	presenter.Separator()
	presenter.Stats(&UsageStats{Calls: 1})
	presenter.Summary(1, 0)
	assert.Empty(t, output.String())
	assert.Empty(t, errorOutput.String())

	presenter.Error(errors.New("still shown"), "")
	assert.Contains(t, errorOutput.String(), "still shown")
}

func TestSection(t *testing.T) {
	presenter, output, _ := newTestPresenter()
	presenter.Section("Skills")
	assert.Equal(t, "Skills\n------\n", output.String())
}

func TestStats(t *testing.T) {
	presenter, output, _ := newTestPresenter()

	presenter.Stats(nil)
	presenter.Stats(&UsageStats{})
	assert.Empty(t, output.String())

	presenter.Stats(ConvertUsage(llm.Usage{Calls: 4, Failures: 1, InputTokens: 300, OutputTokens: 150}))
	assert.Equal(t, "[Usage Stats] Calls: 4 | Failed: 1 | Input tokens: 300 | Output tokens: 150 | Total: 450\n", output.String())
}

func TestSourceFinishedSuccess(t *testing.T) {
	presenter, output, _ := newTestPresenter()
	presenter.SourceFinished(distill.BatchResult{
		Source:     "guide.md",
		Succeeded:  true,
		SkillCount: 2,
		Artifacts:  []string{"out/guide.zip", "out/guide.json"},
	})
	assert.Equal(t, "✓ guide.md: 2 skills extracted\n    out/guide.zip\n    out/guide.json\n", output.String())
}

func TestSourceFinishedWarning(t *testing.T) {
	presenter, _, errorOutput := newTestPresenter()
	presenter.SourceFinished(distill.BatchResult{Source: "empty.md", Succeeded: true, Warning: "no skills"})
	assert.Equal(t, "⚠ No skills extracted from empty.md\n", errorOutput.String())

	errorOutput.Reset()
	presenter.SetVerbose(true)
	presenter.SourceFinished(distill.BatchResult{Source: "empty.md", Succeeded: true, Warning: "no skills"})
	assert.Contains(t, errorOutput.String(), "Review extraction with --output-json")
}

func TestSourceFinishedFailure(t *testing.T) {
	presenter, output, errorOutput := newTestPresenter()
	presenter.SourceFinished(distill.BatchResult{
		Source: "https://example.com/x",
		Error: &distill.ErrorRecord{
			Kind:         distill.KindNetworkFailure,
			Message:      "fetch failed with HTTP status 404",
			Hint:         "the page was not found; check the URL",
			NetworkCause: distill.NetworkHTTPStatus,
			StatusCode:   404,
		},
	})

	assert.Empty(t, output.String())
	assert.Equal(t, "[ERROR] https://example.com/x: network error (http_status)\n"+
		"  fetch failed with HTTP status 404\n"+
		"Suggestion: the page was not found; check the URL\n", errorOutput.String())
}

func TestSourceStartedVerboseOnly(t *testing.T) {
	presenter, output, _ := newTestPresenter()
	presenter.SourceStarted("a.md", 0, 2)
	assert.Empty(t, output.String())

	presenter.SetVerbose(true)
	presenter.SourceStarted("a.md", 0, 2)
	assert.Contains(t, output.String(), "Processing: a.md")
}

func TestSummary(t *testing.T) {
	presenter, output, _ := newTestPresenter()
	presenter.Summary(1, 1)
	assert.Contains(t, output.String(), "Summary: 1 succeeded, 1 failed\n")
}
