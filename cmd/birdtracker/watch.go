package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/birdtracker/birdtracker/pkg/core"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild whenever raw illustrations change",
	Long: `Watch runs one build, then watches the raw directory and rebuilds after
PNG files are created or modified. Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		project := openProject()
		out := cmd.OutOrStdout()
		colorize := shouldColorize(out)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(out, "Watching %s\n", project.Config.Paths.Raw)
		err := project.Watch(ctx, func(result *core.BuildResult, err error) {
			if err != nil {
				fmt.Fprintf(os.Stderr, "Build failed: %v\n", err)
				return
			}
			fmt.Fprint(out, renderBuild(result, colorize))
		})
		if err != nil {
			fatal("Error watching", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
