// Package presenter provides consistent CLI output for distill runs: per-source
// results, errors with a concrete next step, warnings, the batch summary and
// language-model usage, with color support and quiet mode.
package presenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/jingkaihe/distill/pkg/llm"
	"github.com/jingkaihe/distill/pkg/types/distill"
)

// UsageStats represents language-model usage over a run
type UsageStats struct {
	Calls        int
	Failures     int
	InputTokens  int64
	OutputTokens int64
}

// Presenter defines the interface for consistent CLI output
type Presenter interface {
	Error(err error, context string)
	Success(message string)
	Warning(message string)
	Info(message string)
	Section(title string)
	Stats(usage *UsageStats)
	Separator()
	SourceStarted(source string, index, total int)
	SourceFinished(result distill.BatchResult)
	Summary(succeeded, failed int)
	SetQuiet(quiet bool)
	IsQuiet() bool
	SetVerbose(verbose bool)
}

// TerminalPresenter implements Presenter for terminal output
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	colorMode   ColorMode
	quiet       bool
	verbose     bool
}

// ColorMode represents different color output modes
type ColorMode int

const (
	// ColorAuto automatically detects whether to use colored output based on terminal capabilities
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output regardless of terminal capabilities
	ColorAlways
	// ColorNever disables colored output regardless of terminal capabilities
	ColorNever
)

// New creates a new TerminalPresenter with default settings
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a TerminalPresenter with custom settings
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}

	return &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
		colorMode:   colorMode,
	}
}

// detectColorMode reads NO_COLOR and DISTILL_COLOR
func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	switch os.Getenv("DISTILL_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// Error displays an error message to stderr. Classified errors are followed
// by their hint.
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	errorColor := color.New(color.FgRed, color.Bold)
	if context != "" {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
	} else {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
	}

	if record := distill.RecordOf(err); record.Kind != distill.KindUnknown && record.Hint != "" {
		p.suggest(record.Hint)
	}
}

func (p *TerminalPresenter) suggest(hint string) {
	color.New(color.FgYellow).Fprintf(p.errorOutput, "Suggestion: %s\n", hint)
}

// Success displays a success message
func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}

	color.New(color.FgGreen, color.Bold).Fprintf(p.output, "✓ %s\n", message)
}

// Warning displays a warning message to stderr
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}

	color.New(color.FgYellow, color.Bold).Fprintf(p.errorOutput, "⚠ %s\n", message)
}

// Info displays an informational message
func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}

	fmt.Fprintf(p.output, "%s\n", message)
}

// Section displays a section header with consistent formatting
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}

	headerColor := color.New(color.Bold)
	headerColor.Fprintf(p.output, "%s\n", title)
	headerColor.Fprintf(p.output, "%s\n", strings.Repeat("-", len(title)))
}

// Stats displays language-model usage
func (p *TerminalPresenter) Stats(usage *UsageStats) {
	if p.quiet || usage == nil || usage.Calls == 0 {
		return
	}

	color.New(color.FgCyan, color.Bold).Fprintf(p.output,
		"[Usage Stats] Calls: %d | Failed: %d | Input tokens: %d | Output tokens: %d | Total: %d\n",
		usage.Calls, usage.Failures, usage.InputTokens, usage.OutputTokens, usage.InputTokens+usage.OutputTokens)
}

// Separator displays a visual separator
func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}

	color.New(color.Faint).Fprintf(p.output, "%s\n", strings.Repeat("=", 60))
}

// SourceStarted announces a source in verbose mode
func (p *TerminalPresenter) SourceStarted(source string, _, _ int) {
	if !p.verbose || p.quiet {
		return
	}

	p.Separator()
	p.Info("Processing: " + source)
	p.Separator()
}

// SourceFinished reports the outcome of one source
func (p *TerminalPresenter) SourceFinished(result distill.BatchResult) {
	switch {
	case !result.Succeeded:
		p.sourceError(result)
	case result.Warning != "":
		p.Warning("No skills extracted from " + result.Source)
		if p.verbose && !p.quiet {
			fmt.Fprintf(p.errorOutput, "  Suggestions:\n")
			fmt.Fprintf(p.errorOutput, "    • Check if document contains actionable content\n")
			fmt.Fprintf(p.errorOutput, "    • Try a different source document\n")
			fmt.Fprintf(p.errorOutput, "    • Review extraction with --output-json\n")
		}
	default:
		p.Success(fmt.Sprintf("%s: %d skills extracted", result.Source, result.SkillCount))
		if !p.quiet {
			for _, a := range result.Artifacts {
				fmt.Fprintf(p.output, "    %s\n", a)
			}
		}
	}
}

func (p *TerminalPresenter) sourceError(result distill.BatchResult) {
	errorColor := color.New(color.FgRed, color.Bold)
	if result.Error == nil {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %s: failed\n", result.Source)
		return
	}

	errorColor.Fprintf(p.errorOutput, "[ERROR] %s: %s\n", result.Source, kindLabel(result.Error))
	fmt.Fprintf(p.errorOutput, "  %s\n", result.Error.Message)
	if result.Error.Hint != "" {
		p.suggest(result.Error.Hint)
	}
}

func kindLabel(r *distill.ErrorRecord) string {
	label := map[distill.ErrorKind]string{
		distill.KindNotFound:          "file not found",
		distill.KindUnsupportedFormat: "unsupported format",
		distill.KindParseFailure:      "could not extract text",
		distill.KindNetworkFailure:    "network error",
		distill.KindProviderFailure:   "language model provider failure",
		distill.KindOutputFailure:     "could not write output",
	}[r.Kind]
	if label == "" {
		label = "unexpected error"
	}
	if r.NetworkCause != "" {
		label += " (" + string(r.NetworkCause) + ")"
	}
	return label
}

// Summary prints the batch totals
func (p *TerminalPresenter) Summary(succeeded, failed int) {
	if p.quiet {
		return
	}

	fmt.Fprintln(p.output)
	p.Separator()
	summaryColor := color.New(color.Bold)
	if failed > 0 {
		summaryColor = color.New(color.FgRed, color.Bold)
	}
	summaryColor.Fprintf(p.output, "Summary: %d succeeded, %d failed\n", succeeded, failed)
	p.Separator()
}

// SetQuiet enables or disables quiet mode
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// IsQuiet returns whether quiet mode is enabled
func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}

// SetVerbose enables per-source headers and suggestions
func (p *TerminalPresenter) SetVerbose(verbose bool) {
	p.verbose = verbose
}

// ConvertUsage converts llm.Usage to presenter.UsageStats
func ConvertUsage(u llm.Usage) *UsageStats {
	return &UsageStats{
		Calls:        u.Calls,
		Failures:     u.Failures,
		InputTokens:  u.InputTokens,
		OutputTokens: u.OutputTokens,
	}
}

// Global presenter instance for convenience
var defaultPresenter = New()

// Default returns the global presenter
func Default() *TerminalPresenter {
	return defaultPresenter
}

// Error displays an error message using the default presenter instance.
func Error(err error, context string) {
	defaultPresenter.Error(err, context)
}

// Success displays a success message using the default presenter instance.
func Success(message string) {
	defaultPresenter.Success(message)
}

// Warning displays a warning message using the default presenter instance.
func Warning(message string) {
	defaultPresenter.Warning(message)
}

// Info displays an informational message using the default presenter instance.
func Info(message string) {
	defaultPresenter.Info(message)
}

// Section displays a section header using the default presenter instance.
func Section(title string) {
	defaultPresenter.Section(title)
}

// Stats displays usage statistics using the default presenter instance.
func Stats(usage *UsageStats) {
	defaultPresenter.Stats(usage)
}

// Separator displays a visual separator using the default presenter instance.
func Separator() {
	defaultPresenter.Separator()
}

// SetQuiet enables or disables quiet mode for the default presenter instance.
func SetQuiet(quiet bool) {
	defaultPresenter.SetQuiet(quiet)
}

// IsQuiet returns whether quiet mode is enabled for the default presenter instance.
func IsQuiet() bool {
	return defaultPresenter.IsQuiet()
}
