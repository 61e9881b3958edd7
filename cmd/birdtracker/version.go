package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/birdtracker/birdtracker"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of birdtracker",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "birdtracker version %s\n", strings.TrimSpace(birdtracker.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
