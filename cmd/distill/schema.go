package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/distill/pkg/presenter"
	"github.com/jingkaihe/distill/pkg/render"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the intermediate skill file",
	Run: func(cmd *cobra.Command, _ []string) {
		schema, err := render.Schema()
		if err != nil {
			presenter.Error(err, "Failed to generate schema")
			exit(cmd.Context(), 1)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(schema))
	},
}
