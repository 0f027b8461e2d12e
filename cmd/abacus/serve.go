package main

import (
	"context"

	"github.com/aretw0/abacus/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves calculator sessions over a JSON API with SSE and websocket streams.
Sessions live in memory unless redis.addr is configured, in which case every
replica shares them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		cmd.SetContext(sigCtx)

		stack, err := loadStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		port := stack.Config.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		if err := cli.ListenAndServe(sigCtx, stack, port); err != nil {
			return err
		}
		stack.Logger.Info("abacus server stopped gracefully", "signal", sigCtx.Signal())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (overrides server.port)")
}
