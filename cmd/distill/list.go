package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/distill/pkg/presenter"
	"github.com/jingkaihe/distill/pkg/skills"
)

var listCmd = &cobra.Command{
	Use:   "list [dir...]",
	Short: "List rendered skills",
	Long: `List skill packages (.zip or directories with SKILL.md) and slash commands
found in the given directories. Without arguments the output directory,
./.distill/skills and ~/.distill/skills are searched.`,
	Run: func(cmd *cobra.Command, args []string) {
		discovery, err := newListDiscovery(args)
		if err != nil {
			presenter.Error(err, "Failed to initialize skill discovery")
			exit(cmd.Context(), 1)
		}
		if err := listSkills(cmd.OutOrStdout(), discovery); err != nil {
			presenter.Error(err, "Failed to discover skills")
			exit(cmd.Context(), 1)
		}
	},
}

func newListDiscovery(dirs []string) (*skills.Discovery, error) {
	if len(dirs) > 0 {
		return skills.NewDiscovery(skills.WithSkillDirs(dirs...))
	}

	return skills.NewDiscovery(
		skills.WithDefaultDirs(),
		skills.PrependSkillDirs(viper.GetString("output_dir")),
	)
}

func listSkills(w io.Writer, discovery *skills.Discovery) error {
	found, err := discovery.ListSkills()
	if err != nil {
		return err
	}

	if len(found) == 0 {
		presenter.Info("No skills found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tPATH\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t----\t----\t-----------")

	for _, skill := range found {
		description := skill.Description
		if len(description) > 60 {
			description = description[:57] + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", skill.Name, skill.Kind, skill.Path, description)
	}
	return tw.Flush()
}
