package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/distill/pkg/batch"
	"github.com/jingkaihe/distill/pkg/distiller"
	"github.com/jingkaihe/distill/pkg/presenter"
	"github.com/jingkaihe/distill/pkg/render"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render skills from an intermediate JSON file",
	Long: `Render skills from a JSON file written by --output-json, typically after
editing it by hand. No language model is called.

Examples:
  distill render --from skills.json --output-skill Refactoring
  distill render --from skills.json --output-slash-command refactor.md`,
	Run: func(cmd *cobra.Command, _ []string) {
		from, _ := cmd.Flags().GetString("from")
		if code := renderSkills(from, getOutputConfigFromFlags(cmd)); code != 0 {
			exit(cmd.Context(), code)
		}
	},
}

func init() {
	renderCmd.Flags().String("from", "", "Intermediate JSON file to render")
	_ = renderCmd.MarkFlagRequired("from")
	addOutputFlags(renderCmd)
}

// renderSkills validates the skills in from and writes the requested
// artifacts, returning the process exit code
func renderSkills(from string, config OutputConfig) int {
	out := presenter.Default()

	if config.Empty() {
		out.Error(errNoOutputs, "")
		return 1
	}

	loaded, err := render.LoadJSON(from)
	if err != nil {
		out.Error(err, "")
		return 1
	}

	skills := distiller.Validate(loaded)
	if dropped := len(loaded) - len(skills); dropped > 0 {
		out.Warning(pluralize(dropped, "incomplete or duplicate skill") + " skipped")
	}
	if len(skills) == 0 {
		out.Warning("No skills to render from " + from)
		return 1
	}

	var artifacts []string
	failed := false
	for _, o := range buildOutputs(config) {
		paths, err := o.Write(batch.NewUnit(from), skills)
		artifacts = append(artifacts, paths...)
		if err != nil {
			out.Error(err, "")
			failed = true
		}
	}

	out.Success(pluralize(len(skills), "skill") + " rendered from " + from)
	for _, a := range artifacts {
		out.Info("    " + a)
	}
	if failed {
		return 1
	}
	return 0
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
