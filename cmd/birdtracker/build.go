package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var buildJSON bool

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Process new raw illustrations and update the catalog",
	Long: `Build converts every raw PNG whose bird is not yet drawn into a full WebP
and a thumbnail, marks the bird as drawn, appends to the changelog, repairs
missing derived assets and bumps the version. It exits non-zero when an
image was skipped or the final integrity check found issues.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		project := openProject()

		result, err := project.Build(context.Background())
		if err != nil {
			fatal("Error building", err)
		}

		out := cmd.OutOrStdout()
		if buildJSON {
			if err := writeJSON(out, result); err != nil {
				fatal("Error encoding result", err)
			}
		} else {
			fmt.Fprint(out, renderBuild(result, shouldColorize(out)))
		}

		if result.Failed() {
			os.Exit(1)
		}
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildJSON, "json", false, "Output the result as JSON")
	rootCmd.AddCommand(buildCmd)
}
