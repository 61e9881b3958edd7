package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/birdtracker/birdtracker/pkg/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the built site with a single-page-app fallback",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		_, cfg := loadConfig()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv, err := server.New(server.Config{
			BuildDir: cfg.Paths.Build,
			Port:     port,
			Headers:  server.DefaultHeaders(),
		}, slog.Default())
		if err != nil {
			fatal("Error creating server", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			fatal("Error serving", err)
		}
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", server.DefaultPort, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}
