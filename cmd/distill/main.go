package main

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/distill/pkg/chunker"
	"github.com/jingkaihe/distill/pkg/distiller"
	"github.com/jingkaihe/distill/pkg/llm"
	"github.com/jingkaihe/distill/pkg/logger"
	"github.com/jingkaihe/distill/pkg/parser"
	"github.com/jingkaihe/distill/pkg/presenter"
)

func init() {
	// A missing .env is fine
	_ = godotenv.Load()

	// Environment variables
	viper.SetEnvPrefix("DISTILL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("output_dir", "DISTILL_OUTPUT_DIR", "OUTPUT_DIR")

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.distill")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	llm.SetDefaults(v)
	v.SetDefault("distill.concurrency", 1)
	v.SetDefault("distill.min_section_length", chunker.DefaultMinSectionLength)
	v.SetDefault("distill.chunk_size", chunker.DefaultChunkSize)
	v.SetDefault("distill.extract_prefix", distiller.DefaultExtractPrefix)
	v.SetDefault("distill.enrich_excerpt", distiller.DefaultEnrichExcerpt)
	v.SetDefault("fetch.timeout", parser.DefaultFetchTimeout)
	v.SetDefault("output_dir", ".")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "fmt")
}

var rootCmd = &cobra.Command{
	Use:   "distill",
	Short: "Distill reusable skills from documents and web pages",
	Long: `distill extracts actionable skills (WHAT, WHY and HOW) from PDF, Markdown and
text files or web pages using a language model, and renders them as skill
packages, slash commands or JSON.

Running distill with --input is the same as "distill run".`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		level := viper.GetString("log_level")
		if viper.GetBool("verbose") {
			level = "debug"
		}
		if err := logger.Configure(level, viper.GetString("log_format")); err != nil {
			return err
		}
		if viper.GetBool("verbose") {
			presenter.Default().SetVerbose(true)
		}
		return startTracing(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		stopTracing(cmd.Context())
	},
	Run: func(cmd *cobra.Command, args []string) {
		if input, _ := cmd.Flags().GetString("input"); input != "" {
			runCmd.Run(cmd, args)
			return
		}
		cmd.Help()
		exit(cmd.Context(), 1)
	},
	SilenceUsage: true,
}

// exit flushes telemetry before terminating with code
func exit(ctx context.Context, code int) {
	stopTracing(ctx)
	os.Exit(code)
}

func main() {
	// Add global flags
	rootCmd.PersistentFlags().String("provider", "", "LLM provider to use (anthropic, openai or google)")
	rootCmd.PersistentFlags().String("model", "", "LLM model to use (overrides config)")
	rootCmd.PersistentFlags().Int("max-tokens", 0, "Maximum tokens for each response (overrides config)")
	rootCmd.PersistentFlags().String("profile", "", "Named configuration profile to apply")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (panic, fatal, error, warn, info, debug, trace)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt or json)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show detailed progress")

	// Bind flags to viper
	viper.BindPFlag("provider", rootCmd.PersistentFlags().Lookup("provider"))
	viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("max_tokens", rootCmd.PersistentFlags().Lookup("max-tokens"))
	viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// The root command accepts the run flags so "distill --input x" works
	addRunFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(withTracing(runCmd))
	rootCmd.AddCommand(withTracing(renderCmd))
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(mockLLMCmd)
	rootCmd.AddCommand(versionCmd)

	// Execute
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		presenter.Error(err, "")
		os.Exit(1)
	}
}
