package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/distill/pkg/batch"
	"github.com/jingkaihe/distill/pkg/chunker"
	"github.com/jingkaihe/distill/pkg/distiller"
	"github.com/jingkaihe/distill/pkg/llm"
	"github.com/jingkaihe/distill/pkg/logger"
	"github.com/jingkaihe/distill/pkg/parser"
	"github.com/jingkaihe/distill/pkg/presenter"
	"github.com/jingkaihe/distill/pkg/render"
	"github.com/jingkaihe/distill/pkg/utils"
)

// defaultSkillName asks for the skill package to be named after its source
const defaultSkillName = "skill"

// errNoOutputs is reported when no output flag is given
var errNoOutputs = errors.New("at least one output is required: --output-skill, --output-slash-command or --output-json")

// OutputConfig selects the artifacts written for every source
type OutputConfig struct {
	Skill        string
	SlashCommand string
	JSON         string
	Dir          string
}

// Empty reports whether no output was requested
func (c OutputConfig) Empty() bool {
	return c.Skill == "" && c.SlashCommand == "" && c.JSON == ""
}

// RunConfig holds configuration for the run command
type RunConfig struct {
	Input       string
	Concurrency int
	Outputs     OutputConfig
}

// NewRunConfig creates a new RunConfig with default values
func NewRunConfig() *RunConfig {
	return &RunConfig{
		Concurrency: 1,
		Outputs:     OutputConfig{Dir: "."},
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Distill skills from one or more sources",
	Long: `Distill skills from PDF, Markdown or text files and web pages.

--input accepts a path, an http(s) URL, a glob pattern (** supported) or a
comma separated list of any of these. Sources are processed one after another;
a failing source does not stop the others.

Examples:
  distill run --input BDD.pdf --output-skill BDD-ExecutableSpec --output-slash-command bdd-spec.md
  distill run --input https://martinfowler.com/articles/refactoring.html --output-skill Refactoring
  distill run --input "books/*.pdf" --output-skill
  distill run --input CleanCode.pdf --output-json skills.json --verbose`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			select {
			case <-sigCh:
				presenter.Warning("Cancellation requested, shutting down...")
				cancel()
			case <-ctx.Done():
			}
		}()

		config := getRunConfigFromFlags(cmd)
		if code := runDistill(ctx, config); code != 0 {
			exit(ctx, code)
		}
	},
}

func init() {
	addRunFlags(runCmd)
}

// addRunFlags registers the run flags on cmd
func addRunFlags(cmd *cobra.Command) {
	defaults := NewRunConfig()
	cmd.Flags().StringP("input", "i", defaults.Input, "Input source: file (.pdf, .md, .txt), URL, glob pattern or comma separated list")
	cmd.Flags().Int("concurrency", defaults.Concurrency, "Parallel language model calls per pass (1 is strictly sequential)")
	addOutputFlags(cmd)
}

// addOutputFlags registers the artifact flags shared by run and render
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("output-skill", "", "Generate a skill package (.zip). Optional: specify custom name")
	cmd.Flags().Lookup("output-skill").NoOptDefVal = defaultSkillName
	cmd.Flags().String("output-slash-command", "", "Generate a slash command (.md) at PATH")
	cmd.Flags().String("output-json", "", "Save the intermediate skill representation as JSON at PATH")
	cmd.Flags().String("output-dir", "", "Directory for generated artifacts (default from OUTPUT_DIR or .)")
}

// getRunConfigFromFlags extracts run configuration from command flags,
// falling back to the configuration file for unset flags
func getRunConfigFromFlags(cmd *cobra.Command) *RunConfig {
	config := NewRunConfig()

	if input, err := cmd.Flags().GetString("input"); err == nil {
		config.Input = input
	}

	config.Concurrency = viper.GetInt("distill.concurrency")
	if cmd.Flags().Changed("concurrency") {
		if n, err := cmd.Flags().GetInt("concurrency"); err == nil {
			config.Concurrency = n
		}
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}

	config.Outputs = getOutputConfigFromFlags(cmd)
	return config
}

func getOutputConfigFromFlags(cmd *cobra.Command) OutputConfig {
	config := OutputConfig{Dir: viper.GetString("output_dir")}

	if v, err := cmd.Flags().GetString("output-skill"); err == nil {
		config.Skill = v
	}
	if v, err := cmd.Flags().GetString("output-slash-command"); err == nil {
		config.SlashCommand = v
	}
	if v, err := cmd.Flags().GetString("output-json"); err == nil {
		config.JSON = v
	}
	if v, err := cmd.Flags().GetString("output-dir"); err == nil && v != "" {
		config.Dir = v
	}
	if config.Dir == "" {
		config.Dir = "."
	}
	return config
}

// buildOutputs turns the output flags into batch outputs. The skill package
// is named after its source unless a custom name is given.
func buildOutputs(config OutputConfig) []batch.Output {
	var outputs []batch.Output

	if config.JSON != "" {
		outputs = append(outputs, batch.JSONOutput{
			Destination: batch.Destination{Target: config.JSON, Dir: config.Dir},
		})
	}
	if config.Skill != "" {
		dest := batch.Destination{Dir: config.Dir}
		if config.Skill != defaultSkillName {
			dest.Target = filepath.Join(config.Dir, config.Skill)
		}
		outputs = append(outputs, batch.RendererOutput{
			Renderer:    render.SkillPackageRenderer{},
			Destination: dest,
		})
	}
	if config.SlashCommand != "" {
		outputs = append(outputs, batch.RendererOutput{
			Renderer:    render.SlashCommandRenderer{},
			Destination: batch.Destination{Target: config.SlashCommand, Dir: config.Dir, Suffix: "-slash"},
		})
	}

	return outputs
}

// newParser builds the structural parser from the fetch configuration
func newParser() (*parser.Parser, error) {
	var filter *utils.DomainFilter
	if path := viper.GetString("fetch.allowed_domains_file"); path != "" {
		var err error
		filter, err = utils.LoadDomainFilter(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load allowed domains file")
		}
	}
	fetcher := parser.NewHTTPFetcher(viper.GetDuration("fetch.timeout"), parser.WithRedirectFilter(filter))
	return parser.New(parser.WithFetcher(fetcher), parser.WithDomainFilter(filter)), nil
}

// newDistiller builds the pass runner from the distill configuration
func newDistiller(completer llm.Completer, concurrency int) *distiller.Distiller {
	return distiller.New(completer,
		distiller.WithConcurrency(concurrency),
		distiller.WithChunker(&chunker.Chunker{
			MinSectionLength: viper.GetInt("distill.min_section_length"),
			ChunkSize:        viper.GetInt("distill.chunk_size"),
		}),
		distiller.WithExtractPrefix(viper.GetInt("distill.extract_prefix")),
		distiller.WithEnrichExcerpt(viper.GetInt("distill.enrich_excerpt")),
	)
}

// runDistill executes the run command and returns the process exit code
func runDistill(ctx context.Context, config *RunConfig) int {
	out := presenter.Default()

	if config.Outputs.Empty() {
		out.Error(errNoOutputs, "")
		return 1
	}

	// Resolve sources before any client is created so an empty input
	// costs nothing.
	sources, err := batch.ExpandSources(config.Input)
	if err != nil {
		out.Error(err, "")
		return 1
	}

	llmConfig, err := llm.ConfigFromViper()
	if err != nil {
		out.Error(err, "Invalid language model configuration")
		return 1
	}

	meter := llm.NewMeter()
	completer, err := llm.NewCompleter(ctx, llmConfig, meter)
	if err != nil {
		out.Error(err, "Failed to create language model client")
		return 1
	}

	p, err := newParser()
	if err != nil {
		out.Error(err, "")
		return 1
	}

	orchestrator := batch.New(p, newDistiller(completer, config.Concurrency),
		batch.WithOutputs(buildOutputs(config.Outputs)...),
		batch.WithObserver(out),
	)

	logger.G(ctx).WithField("provider", llmConfig.Provider).Debug("starting run")
	summary, err := orchestrator.Run(ctx, sources)
	if err != nil {
		out.Error(err, "")
		return 1
	}

	if len(sources) > 1 {
		out.Summary(summary.Succeeded, summary.Failed)
	}
	out.Stats(presenter.ConvertUsage(meter.Usage()))

	if summary.Failed > 0 {
		return 1
	}
	return 0
}
