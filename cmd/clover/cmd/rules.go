package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/clover/pkg/models"
)

var rulesOutput string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the default deduplication rules",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeOutput(cmd.OutOrStdout(), rulesOutput, models.DefaultRules())
	},
}

func init() {
	rulesCmd.Flags().StringVarP(&rulesOutput, "output", "o", outputYAML, "output format: json or yaml")
}
