package main

import (
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the internal state of the project components as JSON",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		project := openProject()
		if err := writeJSON(cmd.OutOrStdout(), project.State()); err != nil {
			fatal("Error encoding state", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
}
