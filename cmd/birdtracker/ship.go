package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var shipJSON bool

var shipCmd = &cobra.Command{
	Use:   "ship",
	Short: "Build and commit the updated catalog and assets",
	Long: `Ship runs a build and commits the catalog, version file, changelog and
derived WebP assets with a conventional commit message naming the added
birds. Nothing is committed when the build changed nothing.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		project := openProject()

		result, err := project.Ship(context.Background())
		if err != nil {
			fatal("Error shipping", err)
		}

		out := cmd.OutOrStdout()
		if shipJSON {
			if err := writeJSON(out, result); err != nil {
				fatal("Error encoding result", err)
			}
		} else {
			fmt.Fprint(out, renderBuild(result.Build, shouldColorize(out)))
			if result.Committed {
				fmt.Fprintf(out, "Committed:\n%s\n", result.Message)
			} else {
				fmt.Fprintln(out, "Nothing to commit.")
			}
		}

		if result.Build.Failed() {
			os.Exit(1)
		}
	},
}

func init() {
	shipCmd.Flags().BoolVar(&shipJSON, "json", false, "Output the result as JSON")
	rootCmd.AddCommand(shipCmd)
}
