package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/birdtracker/birdtracker"
	"github.com/birdtracker/birdtracker/pkg/config"
)

var (
	verbose bool
	rootDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "birdtracker",
	Short: "Bird illustration pipeline: raw PNGs in, catalog and WebP assets out",
	Long: `birdtracker keeps a catalog of bird species in sync with a folder of
raw PNG illustrations. New drawings are converted to square WebP images and
thumbnails, recorded in the catalog and the changelog, and the site version
is bumped.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(newLogger(os.Stderr, level, "text"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "C", "", "Project root (default: searched upwards from the working directory)")
}

func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// resolveRoot returns the --root flag or the nearest project root above the
// working directory, falling back to the working directory itself.
func resolveRoot() (string, error) {
	if rootDir != "" {
		return rootDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := birdtracker.FindRoot(wd)
	if err != nil {
		return wd, nil
	}
	return root, nil
}

// loadConfig loads .env and birdtracker.yaml for the project root and
// reinstalls the default logger with the configured level and format.
func loadConfig() (string, config.Config) {
	root, err := resolveRoot()
	if err != nil {
		fatal("Error resolving project root", err)
	}
	if err := config.LoadDotEnv(root); err != nil {
		fatal("Error loading .env", err)
	}
	cfg, err := config.Load(root)
	if err != nil {
		fatal("Error loading configuration", err)
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(newLogger(os.Stderr, level, cfg.Log.Format))
	return root, cfg
}

// openProject wires the project found for the current invocation.
func openProject() *birdtracker.Project {
	root, cfg := loadConfig()
	project, err := birdtracker.New(root,
		birdtracker.WithConfig(cfg),
		birdtracker.WithLogger(slog.Default()),
	)
	if err != nil {
		fatal("Error opening project", err)
	}
	return project
}
