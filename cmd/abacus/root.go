package main

import (
	"fmt"
	"os"

	"github.com/aretw0/abacus/internal/cli"
	"github.com/aretw0/abacus/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "abacus",
	Short: "abacus is a scientific calculator engine",
	Long: `abacus evaluates calculator key-presses into an expression, a live preview
and a short history of results. Use it as a REPL, a terminal keypad, an HTTP
service or an MCP server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (YAML or JSON, default ./"+config.DefaultPath+")")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
}

// loadStack reads the config and wires the shared components.
func loadStack(cmd *cobra.Command) (*cli.Stack, error) {
	path, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(cfg.LogLevel, debug)
	if err != nil {
		return nil, err
	}
	return cli.NewStack(cmd.Context(), cfg, logger)
}
