package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/birdtracker/birdtracker/pkg/core"
)

var (
	checkStrict bool
	checkJSON   bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report differences between the catalog and the assets on disk",
	Long: `Check compares drawn catalog entries with the raw, full and thumbnail
directories. It never writes anything. With --strict it exits non-zero
when the project is not synchronized.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		project := openProject()

		result, err := project.Check(context.Background())
		if err != nil {
			fatal("Error checking", err)
		}

		out := cmd.OutOrStdout()
		if checkJSON {
			payload := struct {
				Synchronized bool                 `json:"synchronized"`
				Version      core.Version         `json:"version"`
				Counts       core.Counts          `json:"counts"`
				Integrity    core.IntegrityReport `json:"integrity"`
			}{result.Synchronized(), result.Version, result.Counts, result.Integrity}
			if err := writeJSON(out, payload); err != nil {
				fatal("Error encoding result", err)
			}
		} else {
			fmt.Fprint(out, renderCheck(result, shouldColorize(out)))
		}

		if checkStrict && !result.Synchronized() {
			os.Exit(1)
		}
	},
}

func init() {
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Exit non-zero when issues are found")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Output the report as JSON")
	rootCmd.AddCommand(checkCmd)
}
